package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes carried by AppError.
const (
	CodeNotFound               = "NOT_FOUND"
	CodeEmptyOrBroken          = "EMPTY_OR_BROKEN"
	CodeInvalidInvocationOrder = "INVALID_INVOCATION_ORDER"
	CodeInvalidPathArgument    = "INVALID_PATH_ARGUMENT"
	CodeConfig                 = "CONFIG_ERROR"
)

// Sentinel errors; match with errors.Is.
var (
	ErrNotFound               = errors.New("source file not found")
	ErrEmptyOrBroken          = errors.New("pdf seems to be empty or broken")
	ErrInvalidInvocationOrder = errors.New("session not processed yet")
	ErrInvalidPath            = errors.New("path is neither a directory nor a pdf file")
	ErrInvalidInput           = errors.New("invalid input")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func NotFound(path string) error {
	return NewAppError(CodeNotFound, fmt.Sprintf("file %s not found", path), ErrNotFound)
}

func EmptyOrBroken(path string, cause error) error {
	if cause == nil {
		return NewAppError(CodeEmptyOrBroken, path, ErrEmptyOrBroken)
	}
	return NewAppError(CodeEmptyOrBroken, path, fmt.Errorf("%w: %v", ErrEmptyOrBroken, cause))
}

func InvalidInvocationOrder(op string) error {
	return NewAppError(CodeInvalidInvocationOrder, op+" before processing completed", ErrInvalidInvocationOrder)
}

func InvalidPath(path string) error {
	return NewAppError(CodeInvalidPathArgument, path, ErrInvalidPath)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
