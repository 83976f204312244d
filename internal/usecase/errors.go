package usecase

import "errors"

type ErrorCode string

const (
	CodeInvalidInput          ErrorCode = "INVALID_INPUT"
	CodeRateLimited           ErrorCode = "RATE_LIMITED"
	CodeNotFound              ErrorCode = "NOT_FOUND"
	CodeConflictingWrite      ErrorCode = "CONFLICTING_WRITE"
	CodeDependencyUnavailable ErrorCode = "DEPENDENCY_UNAVAILABLE"
	CodeInternal              ErrorCode = "INTERNAL"
)

// DomainError is caused by the caller's input and is safe to show them.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// TechnicalError wraps a failing dependency. Message is what the caller
// sees; Err stays in the logs.
type TechnicalError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}

// CodeOf classifies any error returned by a use case. Unknown errors are
// INTERNAL.
func CodeOf(err error) ErrorCode {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Code
	}
	return CodeInternal
}

// PublicMessage returns the message that may be shown to the caller.
func PublicMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	var te *TechnicalError
	if errors.As(err, &te) {
		return te.Message
	}
	return "internal error"
}

func invalidInput(msg string) error {
	return &DomainError{Code: CodeInvalidInput, Message: msg}
}

func dependencyUnavailable(msg string, err error) error {
	return &TechnicalError{Code: CodeDependencyUnavailable, Message: msg, Err: err}
}
