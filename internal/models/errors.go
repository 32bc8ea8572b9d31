package models

import "errors"

// Custom errors
var (
	ErrInvalidOdds        = errors.New("invalid american odds")
	ErrInvalidProbability = errors.New("probability must be between 0 and 1")
	ErrConfiguration      = errors.New("invalid configuration")
	ErrInvalidSlip        = errors.New("invalid slip")
	ErrInvalidLine        = errors.New("invalid prop line")
	ErrNotFound           = errors.New("record not found")
)
