// Package logger provides scan-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ScanLogger provides dedicated logging for edge scans.
type ScanLogger struct {
	*logrus.Entry
}

// NewScanLogger creates a new scan logger.
func NewScanLogger(baseLogger *logrus.Logger) *ScanLogger {
	return &ScanLogger{
		Entry: baseLogger.WithField("component", "scan"),
	}
}

// LogScanCompleted logs a finished scan.
func (sl *ScanLogger) LogScanCompleted(sport, scope string, quotes, rows, opportunities int, relaxed, cached bool, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"sport":            sport,
		"scope":            scope,
		"quotes_fetched":   quotes,
		"consensus_rows":   rows,
		"opportunities":    opportunities,
		"trend_relaxed":    relaxed,
		"cache_hit":        cached,
		"scan_duration_ms": durationMs,
	}).Info("Scan completed")
}

// LogSourceFailure logs a data source that could not be read.
func (sl *ScanLogger) LogSourceFailure(source, sport string, err error) {
	sl.WithFields(logrus.Fields{
		"source": source,
		"sport":  sport,
		"error":  err.Error(),
	}).Warn("Data source failed")
}

// LogConsensusRejections logs cells dropped by the consensus gates.
func (sl *ScanLogger) LogConsensusRejections(sport string, rejected, skipped int) {
	if rejected == 0 && skipped == 0 {
		return
	}
	sl.WithFields(logrus.Fields{
		"sport":          sport,
		"cells_rejected": rejected,
		"cells_skipped":  skipped,
	}).Debug("Consensus cells filtered")
}

// LogVersionSaved logs a persisted scan version.
func (sl *ScanLogger) LogVersionSaved(versionID, sport, scope string, results, totalScanned int) {
	sl.WithFields(logrus.Fields{
		"version_id":    versionID,
		"sport":         sport,
		"scope":         scope,
		"results":       results,
		"total_scanned": totalScanned,
	}).Info("Scan version saved")
}
