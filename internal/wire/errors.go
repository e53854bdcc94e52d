package wire

import (
	"errors"
	"fmt"
)

// Code classifies a failure so the dispatcher can map it onto a response.
type Code string

const (
	CodeDecode           Code = "DECODE"
	CodeValidation       Code = "VALIDATION"
	CodeUnknownOperation Code = "UNKNOWN_OPERATION"
	CodeHostCall         Code = "HOST_CALL"
	CodeInternal         Code = "INTERNAL"
)

// Messages surfaced to the caller for the fixed failure kinds.
const (
	MsgInvalidInput     = "invalid input format"
	MsgUnknownOperation = "unknown operation"
	MsgGraphWriteFailed = "graph write operation failed"
	MsgGraphReadFailed  = "graph read operation failed"
	MsgInternal         = "internal error"
)

// Error carries a code, the caller-facing message and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a coded error
func NewError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func DecodeError(cause error) *Error {
	return NewError(CodeDecode, MsgInvalidInput, cause)
}

func ValidationError(message string) *Error {
	return NewError(CodeValidation, message, nil)
}

func UnknownOperationError(op string) *Error {
	return NewError(CodeUnknownOperation, MsgUnknownOperation, fmt.Errorf("op %q", op))
}

func HostCallError(message string, cause error) *Error {
	return NewError(CodeHostCall, message, cause)
}

// CodeOf returns the code of err, or CodeInternal for foreign errors.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return MsgInternal
}
