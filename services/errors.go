package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the order core matches exactly one of
// these with errors.Is.
var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPersistence         = errors.New("persistence failure")
	ErrSubmissionFailed    = errors.New("order submission failed")
	ErrPartialFailure      = errors.New("partial failure")
	ErrDuplicateSubmission = errors.New("duplicate submission in progress")

	ErrEmptyCart  = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrInvalidPIN = fmt.Errorf("%w: pin must be exactly 4 digits", ErrValidation)
	ErrPINInUse   = fmt.Errorf("%w: pin already in use", ErrValidation)
)

// OpError carries the failing operation, its kind and the underlying cause.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil || e.Err == e.Kind {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opErr(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}

func validationErr(op, format string, args ...interface{}) error {
	return &OpError{Op: op, Kind: ErrValidation, Err: fmt.Errorf(format, args...)}
}

func persistenceErr(op string, err error) error {
	return &OpError{Op: op, Kind: ErrPersistence, Err: err}
}
