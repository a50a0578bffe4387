// Package apperr defines the business error kinds the API surfaces to callers.
// These are definitive outcomes, not transient faults: handlers map them to
// 404/400/409 and never retry them.
package apperr

import "errors"

type NotFoundError struct {
	msg string
}

func (e *NotFoundError) Error() string { return e.msg }

func NotFound(msg string) error { return &NotFoundError{msg: msg} }

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func Validation(msg string) error { return &ValidationError{msg: msg} }

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// ConflictError covers slot contention: the requested slot was occupied either
// at the availability check or at the pre-commit re-check. Both carry this kind;
// only the message distinguishes them.
type ConflictError struct {
	msg string
}

func (e *ConflictError) Error() string { return e.msg }

func Conflict(msg string) error { return &ConflictError{msg: msg} }

func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}
