package errs

import (
	"errors"
	"fmt"
)

// ErrAlreadyResolved classifies conflict errors raised when a participant acts
// on an offer or order that another actor has already resolved.
var ErrAlreadyResolved = errors.New("no longer available")

// AlreadyResolvedError is returned to the losing actor of a race: a courier
// accepting an already-assigned order, a vendor answering an already-cancelled
// request, and so on. It carries enough detail to tell the caller what won.
type AlreadyResolvedError struct {
	ParamName string
	ID        any
	Cause     error
}

// NewAlreadyResolvedError creates an AlreadyResolvedError without an underlying cause.
func NewAlreadyResolvedError(paramName string, id any) *AlreadyResolvedError {
	return &AlreadyResolvedError{
		ParamName: paramName,
		ID:        id,
	}
}

// NewAlreadyResolvedErrorWithCause creates an AlreadyResolvedError wrapping an underlying cause.
func NewAlreadyResolvedErrorWithCause(paramName string, id any, cause error) *AlreadyResolvedError {
	return &AlreadyResolvedError{
		ParamName: paramName,
		ID:        id,
		Cause:     cause,
	}
}

func (e *AlreadyResolvedError) Error() string {
	if e.Cause != nil {
		return sanitize(fmt.Sprintf("%s: param is: %s, ID is: %s (cause: %s)",
			ErrAlreadyResolved, e.ParamName, e.ID, e.Cause))
	}
	return sanitize(fmt.Sprintf("%s: %s", ErrAlreadyResolved, e.ID))
}

func (e *AlreadyResolvedError) Unwrap() error {
	return ErrAlreadyResolved
}
