package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a failure for transport mapping and logging.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// behavior describes how a code surfaces to API clients.
type behavior struct {
	status    int
	public    string
	retryable bool
	// clientFault codes show the error's own message instead of public.
	clientFault bool
	details     bool
}

var behaviors = map[Code]behavior{
	CodeValidation:    {status: http.StatusBadRequest, public: "validation failed", clientFault: true, details: true},
	CodeNotFound:      {status: http.StatusNotFound, public: "resource not found", clientFault: true},
	CodeConflict:      {status: http.StatusConflict, public: "conflict detected", clientFault: true},
	CodeStateConflict: {status: http.StatusUnprocessableEntity, public: "state transition disallowed", clientFault: true, details: true},
	CodeIdempotency:   {status: http.StatusConflict, public: "idempotency key reused", clientFault: true, details: true},
	CodeInternal:      {status: http.StatusInternalServerError, public: "internal server error", retryable: true},
	CodeDependency:    {status: http.StatusServiceUnavailable, public: "dependency unavailable", retryable: true, details: true},
}

func (c Code) behavior() behavior {
	if b, ok := behaviors[c]; ok {
		return b
	}
	return behaviors[CodeInternal]
}

// HTTPStatus is the response status for c; unknown codes map to 500.
func (c Code) HTTPStatus() int { return c.behavior().status }

// PublicMessage is the generic text shown when the error's own message stays private.
func (c Code) PublicMessage() string { return c.behavior().public }

func (c Code) Retryable() bool { return c.behavior().retryable }

// ClientFault reports whether the caller caused the error and may read its message.
func (c Code) ClientFault() bool { return c.behavior().clientFault }

func (c Code) DetailsAllowed() bool { return c.behavior().details }

// Error is a coded error with an optional cause and client-facing details.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// PublicMessage is what an API client may read for this error.
func (e *Error) PublicMessage() string {
	code := e.Code()
	if code.ClientFault() && e.Message() != "" {
		return e.message
	}
	return code.PublicMessage()
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.code, e.message)
	}
	return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether the outermost typed error in err carries code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// Ensure coerces any error into an *Error, treating untyped errors as internal.
func Ensure(err error) *Error {
	if typed := As(err); typed != nil {
		return typed
	}
	if err == nil {
		err = stdErrors.New("unknown error")
	}
	return Wrap(CodeInternal, err, "unexpected error")
}
