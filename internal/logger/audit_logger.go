// Package logger provides audit logging.
package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogSettingsReload logs a settings swap.
func (al *AuditLogger) LogSettingsReload(source string, books, payoutBooks int, timestamp time.Time) {
	al.WithFields(logrus.Fields{
		"source":         source,
		"weighted_books": books,
		"payout_books":   payoutBooks,
		"timestamp":      timestamp.Unix(),
	}).Info("Pricing settings reloaded")
}

// LogSettingsRejected logs a reload that failed validation.
func (al *AuditLogger) LogSettingsRejected(source string, err error) {
	al.WithFields(logrus.Fields{
		"source": source,
		"error":  err.Error(),
	}).Error("Pricing settings reload rejected")
}

// LogCircuitBreakerEvent logs circuit breaker events.
func (al *AuditLogger) LogCircuitBreakerEvent(source, eventType string, failures int) {
	al.WithFields(logrus.Fields{
		"source":     source,
		"event_type": eventType,
		"failures":   failures,
	}).Warn("Circuit breaker event recorded")
}
