package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	log := newLogger(buf, "debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)

	buf.Reset()
	log = newLogger(buf, "verbose", "production")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
	assert.Contains(t, buf.String(), "defaulting to info")
}

func TestScanLoggerCompleted(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogScanCompleted("nba", "smart", 120, 18, 4, true, false, 250)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scan", logEntry["component"])
	assert.Equal(t, "nba", logEntry["sport"])
	assert.Equal(t, float64(18), logEntry["consensus_rows"])
	assert.Equal(t, true, logEntry["trend_relaxed"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestScanLoggerSourceFailure(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogSourceFailure("sleeper", "nfl", errors.New("status 503"))

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "sleeper", logEntry["source"])
	assert.Equal(t, "status 503", logEntry["error"])
	assert.Equal(t, "warning", logEntry["level"])
}

func TestScanLoggerConsensusRejections(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogConsensusRejections("nba", 0, 0)
	assert.Zero(t, buf.Len())

	scanLogger.LogConsensusRejections("nba", 3, 1)
	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, float64(3), logEntry["cells_rejected"])
	assert.Equal(t, float64(1), logEntry["cells_skipped"])
}

func TestScanLoggerVersionSaved(t *testing.T) {
	log, buf := setupTestLogger()
	scanLogger := NewScanLogger(log)

	scanLogger.LogVersionSaved("v-1", "mlb", "full", 40, 900)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "v-1", logEntry["version_id"])
	assert.Equal(t, float64(900), logEntry["total_scanned"])
}

func TestSlipLoggerBuild(t *testing.T) {
	log, buf := setupTestLogger()
	slipLogger := NewSlipLogger(log)

	slipLogger.LogSlipBuild("sleeper", "power", 12, 12, 1380, 5, false, 12.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "slips", logEntry["component"])
	assert.Equal(t, float64(1380), logEntry["evaluated"])
	assert.Equal(t, "info", logEntry["level"])
}

func TestSlipLoggerFallbackWarns(t *testing.T) {
	log, buf := setupTestLogger()
	slipLogger := NewSlipLogger(log)

	slipLogger.LogSlipBuild("prizepicks", "flex", 3, 3, 1, 1, true, 1)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "warning", logEntry["level"])
	assert.Equal(t, true, logEntry["fallback_used"])
}

func TestSlipLoggerUnavailableLegs(t *testing.T) {
	log, buf := setupTestLogger()
	slipLogger := NewSlipLogger(log)

	slipLogger.LogUnavailableLegs("sleeper", []string{"A|points", "B|rebounds"})

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "A|points, B|rebounds", logEntry["legs"])
}

func TestAuditLoggerSettings(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	now := time.Unix(1700000000, 0)
	auditLogger.LogSettingsReload("config/config.yaml", 5, 3, now)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "audit", logEntry["component"])
	assert.Equal(t, float64(1700000000), logEntry["timestamp"])

	buf.Reset()
	auditLogger.LogSettingsRejected("config/config.yaml", errors.New("bad weight"))
	logEntry = parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "bad weight", logEntry["error"])
}

func TestAuditLoggerCircuitBreaker(t *testing.T) {
	log, buf := setupTestLogger()
	auditLogger := NewAuditLogger(log)

	auditLogger.LogCircuitBreakerEvent("odds_api", "open", 5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "open", logEntry["event_type"])
	assert.Equal(t, float64(5), logEntry["failures"])
}
