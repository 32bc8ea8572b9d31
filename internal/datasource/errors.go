package datasource

import (
	"errors"

	"github.com/yourusername/prop-edge/internal/metrics"
)

// SourceError represents errors from data source operations
type SourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limited")
	Message string // Error message
	Err     error  // Underlying error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodePlanLimit            = "plan_limit"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnsupportedSport     = "unsupported_sport"
)

var (
	// ErrCircuitOpen is returned while a client's circuit breaker is open
	ErrCircuitOpen = errors.New("circuit breaker open")
	// ErrMissingAPIKey is returned before any request when no key is configured
	ErrMissingAPIKey = errors.New("odds API key is missing")
)

// NewSourceError creates a new data source error
func NewSourceError(source, code, message string, err error) *SourceError {
	metrics.RecordSourceError(source, code)
	return &SourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsFatal reports whether err should abort a scan instead of skipping one event.
// Credential and quota failures affect every request that follows.
func IsFatal(err error) bool {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code == ErrCodeAuthenticationFailed || se.Code == ErrCodePlanLimit
	}
	return errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrMissingAPIKey)
}

// ErrorCode returns the SourceError code in err's chain, or "" if there is none
func ErrorCode(err error) string {
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
