// Package config provides configuration management for the prop-edge scanner.
package config

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("scope", validateScope)
	_ = v.RegisterValidation("slipmode", validateSlipMode)
	_ = v.RegisterValidation("sport", validateSport)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateScope validates the scan scope
func validateScope(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "smart", "full":
		return true
	default:
		return false
	}
}

// validateSlipMode validates the payout mode
func validateSlipMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "power", "flex", "standard", "insured":
		return true
	default:
		return false
	}
}

// validateSport validates the sport key
func validateSport(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "nba", "nfl", "mlb", "soccer":
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	for book, w := range cfg.Consensus.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return fmt.Errorf("consensus weight for %q must be a non-negative number, got %v", book, w)
		}
	}
	for alias, target := range cfg.Consensus.Aliases {
		if target == "" {
			return fmt.Errorf("consensus alias %q has an empty target", alias)
		}
	}

	for book, modes := range cfg.Payouts {
		if len(modes) == 0 {
			return fmt.Errorf("payout book %q has no modes", book)
		}
		for _, m := range modes {
			if err := validatePayoutMode(m); err != nil {
				return fmt.Errorf("payout book %q: %w", book, err)
			}
		}
	}

	if cfg.Schedule.Enabled {
		if _, err := cron.ParseStandard(cfg.Schedule.ScanCron); err != nil {
			return fmt.Errorf("invalid schedule scan_cron %q: %w", cfg.Schedule.ScanCron, err)
		}
	}

	// Validate production environment requirements
	if cfg.IsProduction() && cfg.Database.Enabled && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	// Validate connection pool settings
	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	if cfg.Metrics.Enabled && cfg.Metrics.Port == cfg.Server.Port {
		return fmt.Errorf("metrics port and server port must differ")
	}

	return nil
}

// validatePayoutMode checks one mode sets exactly one schedule kind with integer leg keys
func validatePayoutMode(m PayoutModeConfig) error {
	kinds := 0
	if len(m.Power) > 0 {
		kinds++
	}
	if len(m.Flex) > 0 {
		kinds++
	}
	if m.Ladder > 0 {
		kinds++
	}
	if kinds != 1 {
		return fmt.Errorf("mode %q must set exactly one of power, flex or ladder", m.Mode)
	}

	for legs := range m.Power {
		if _, err := strconv.Atoi(legs); err != nil {
			return fmt.Errorf("mode %q: leg count %q is not an integer", m.Mode, legs)
		}
	}
	for legs, hits := range m.Flex {
		if _, err := strconv.Atoi(legs); err != nil {
			return fmt.Errorf("mode %q: leg count %q is not an integer", m.Mode, legs)
		}
		if len(hits) == 0 {
			return fmt.Errorf("mode %q: flex table for %s legs is empty", m.Mode, legs)
		}
		for hit := range hits {
			if _, err := strconv.Atoi(hit); err != nil {
				return fmt.Errorf("mode %q: hit count %q is not an integer", m.Mode, hit)
			}
		}
	}
	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "scope":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: smart, full\n", field)
		case "slipmode":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: power, flex, standard, insured\n", field)
		case "sport":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: nba, nfl, mlb, soccer\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.OddsAPI.APIKey == "" {
			return fmt.Errorf("production environment requires an odds API key")
		}
		if isTestCredential(cfg.OddsAPI.APIKey) {
			return fmt.Errorf("production environment should not use a placeholder odds API key")
		}
	}

	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
