package models

import "fmt"

// Error codes carried by AppError. The HTTP layer maps each code to a status.
const (
	CodeNotFound       = "NOT_FOUND"
	CodeValidation     = "VALIDATION_ERROR"
	CodeAlreadyApplied = "ALREADY_APPLIED"
	CodeNotApplied     = "NOT_APPLIED"
	CodeForbidden      = "FORBIDDEN"
	CodeSelfAction     = "SELF_ACTION"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternal       = "INTERNAL_ERROR"
)

// AppError represents a classified application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError with the same code, so errors.Is(err, ErrNotFound)
// works for every not-found error regardless of message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is checks.
var (
	ErrNotFound       = &AppError{Code: CodeNotFound, Message: "resource not found"}
	ErrValidation     = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrAlreadyApplied = &AppError{Code: CodeAlreadyApplied, Message: "action already applied"}
	ErrNotApplied     = &AppError{Code: CodeNotApplied, Message: "action not applied"}
	ErrForbidden      = &AppError{Code: CodeForbidden, Message: "forbidden"}
	ErrSelfAction     = &AppError{Code: CodeSelfAction, Message: "action not allowed on own resource"}
	ErrUnauthorized   = &AppError{Code: CodeUnauthorized, Message: "unauthorized"}
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewAlreadyAppliedError(message string) *AppError {
	return &AppError{Code: CodeAlreadyApplied, Message: message}
}

func NewNotAppliedError(message string) *AppError {
	return &AppError{Code: CodeNotApplied, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message}
}

func NewSelfActionError(message string) *AppError {
	return &AppError{Code: CodeSelfAction, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}
