package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches any AppError carrying the same code, so sentinel values can be
// compared with errors.Is after wrapping.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// Constructors
func New(code Code, message string) error {
	return &AppError{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) error {
	return &AppError{Code: code, Message: message, Cause: cause}
}

func InvalidArg(msg string) error {
	return New(CodeInvalidArgument, msg)
}

func InvalidParticipant(msg string) error {
	return New(CodeInvalidParticipant, msg)
}

func NotFound(msg string) error {
	return New(CodeNotFound, msg)
}

func Forbidden(msg string) error {
	return New(CodePermissionDenied, msg)
}

func Blocked(msg string) error {
	return New(CodeBlocked, msg)
}

func Internal(msg string) error {
	return New(CodeInternal, msg)
}

// Transient marks a storage or transport failure as retryable.
func Transient(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var app *AppError
	if stderrors.As(cause, &app) {
		return cause
	}
	return Wrap(CodeTransientIO, op, cause)
}

func Inconsistent(msg string, cause error) error {
	return Wrap(CodeInconsistent, msg, cause)
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var app *AppError
	if stderrors.As(err, &app) {
		return app.Code
	}
	return CodeUnknown
}

func IsRetryable(err error) bool {
	return CodeOf(err) == CodeTransientIO
}
