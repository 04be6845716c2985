package apperr

import (
	"errors"
	"fmt"
)

// Error taxonomy for the scan pipeline. Every terminal failure written onto a
// scan record originates from one of these types, so callers can branch on
// errors.As without string matching.

// ValidationError is malformed input to a synchronous entrypoint. Never retried.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// TransientIOError wraps an upload/QC network failure that is safe to retry.
type TransientIOError struct {
	Op  string
	Err error
}

func (e *TransientIOError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientIOError) Unwrap() error { return e.Err }

func Transient(op string, err error) error {
	return &TransientIOError{Op: op, Err: err}
}

func IsTransient(err error) bool {
	var te *TransientIOError
	return errors.As(err, &te)
}

// EstimationError is a terminal estimator failure. The estimator's message is
// preserved verbatim for diagnostics and written onto the scan record.
type EstimationError struct {
	Msg string
}

func (e *EstimationError) Error() string { return e.Msg }

func Estimation(msg string) error {
	return &EstimationError{Msg: msg}
}

func IsEstimation(err error) bool {
	var ee *EstimationError
	return errors.As(err, &ee)
}

// ConsistencyError means the delta/streak stage could not find a prior record
// it expected. Retried once; if still inconsistent the scan stays estimated.
type ConsistencyError struct {
	Msg string
}

func (e *ConsistencyError) Error() string { return e.Msg }

func Consistencyf(format string, args ...any) error {
	return &ConsistencyError{Msg: fmt.Sprintf(format, args...)}
}

func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
