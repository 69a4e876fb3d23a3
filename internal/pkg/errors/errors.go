package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict is a generic sentinel for duplicate-resource conflicts.
	ErrConflict = errors.New("conflict")
	// ErrPrecondition is a generic sentinel for state-dependent failures
	// (job not runnable, round not collectible, budget exhausted, ...).
	ErrPrecondition = errors.New("precondition failed")
)

// Code is a stable machine-readable error identifier returned to API
// callers alongside a human-readable message.
type Code string

const (
	CodeValidation          Code = "validation_error"
	CodeNotFound            Code = "not_found"
	CodeConflict            Code = "conflict"
	CodeInsufficientClients Code = "insufficient_clients"
	CodeBudgetExhausted     Code = "privacy_budget_exhausted"
	CodeJobNotRunnable      Code = "job_not_runnable"
	CodeRoundInProgress     Code = "round_in_progress"
	CodeInternal            Code = "internal_error"
)

// Domain wraps a sentinel with a stable Code and a human message so
// handlers can render {error, message} without guessing at causes.
type Domain struct {
	Code    Code
	Message string
	Err     error
}

func (d *Domain) Error() string {
	if d.Err != nil {
		return d.Message + ": " + d.Err.Error()
	}
	return d.Message
}

func (d *Domain) Unwrap() error { return d.Err }

func New(code Code, message string, cause error) *Domain {
	return &Domain{Code: code, Message: message, Err: cause}
}
