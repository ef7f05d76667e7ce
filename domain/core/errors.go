package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound          = errors.New("resource not found")
	ErrSignatureNotFound = fmt.Errorf("%w: signature", ErrNotFound)
	ErrProfileNotFound   = fmt.Errorf("%w: profile", ErrNotFound)
	ErrEventNotFound     = fmt.Errorf("%w: event", ErrNotFound)

	// Pipeline conditions. All of these are recoverable by the caller
	// changing inputs, never fatal.
	ErrUncalibratableTrial = errors.New("trial window cannot calibrate base constants")
	ErrEmptyTargetWindow   = errors.New("target window matches no projection days")
	ErrNoSignificantShock  = errors.New("no significant shock excess in window")

	// Validation errors
	ErrValidation         = errors.New("validation failed")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrUnknownGranularity = errors.New("unknown granularity")
	ErrUnknownMetric      = errors.New("unknown metric")
	ErrInvalidDateRange   = errors.New("invalid date range")
	ErrNoEntitiesSelected = errors.New("no entities selected")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRecoverable reports whether the error is one of the pipeline
// conditions resolved by adjusting inputs (widen the trial window, pick
// a different target period, choose a window with a real shock).
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUncalibratableTrial) ||
		errors.Is(err, ErrEmptyTargetWindow) ||
		errors.Is(err, ErrNoSignificantShock)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidEvent) ||
		errors.Is(err, ErrUnknownGranularity) ||
		errors.Is(err, ErrUnknownMetric) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrNoEntitiesSelected)
}
