// Package logger provides slip optimizer logging.
package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SlipLogger provides dedicated logging for slip building.
type SlipLogger struct {
	*logrus.Entry
}

// NewSlipLogger creates a new slip logger.
func NewSlipLogger(baseLogger *logrus.Logger) *SlipLogger {
	return &SlipLogger{
		Entry: baseLogger.WithField("component", "slips"),
	}
}

// LogSlipBuild logs an optimizer run.
func (sl *SlipLogger) LogSlipBuild(book, mode string, eligible, pool, evaluated, returned int, fallback bool, durationMs float64) {
	entry := sl.WithFields(logrus.Fields{
		"book":              book,
		"mode":              mode,
		"eligible_legs":     eligible,
		"pool_size":         pool,
		"evaluated":         evaluated,
		"slips_returned":    returned,
		"fallback_used":     fallback,
		"build_duration_ms": durationMs,
	})
	if fallback {
		entry.Warn("Slip diversification fell back to best candidates")
		return
	}
	entry.Info("Slips built")
}

// LogUnavailableLegs logs legs rejected by the availability check.
func (sl *SlipLogger) LogUnavailableLegs(book string, legs []string) {
	sl.WithFields(logrus.Fields{
		"book": book,
		"legs": strings.Join(legs, ", "),
	}).Warn("Legs unavailable on target book")
}
