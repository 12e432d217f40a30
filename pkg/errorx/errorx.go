// Package errorx carries error codes across the handler boundary.
//
// Domain code wraps with fmt.Errorf("%w"); handlers attach a numeric code
// before writing the response so clients get a stable identifier next to
// the human-readable chain. Codes are registered once at init time with
// their HTTP status and external message.
package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Coder describes one registered error code: its HTTP mapping and the
// message shown to external callers.
type Coder interface {
	// Code returns the numeric error code.
	Code() int
	// HTTPStatus is the status associated with the code.
	HTTPStatus() int
	// String is the external, user-facing message.
	String() string
	// Reference points at a document describing the error, if any.
	Reference() string
}

var (
	codeMu sync.Mutex
	codes  = map[int]Coder{}
)

// Register registers a Coder, replacing any previous registration of the
// same code.
func Register(coder Coder) {
	codeMu.Lock()
	defer codeMu.Unlock()
	codes[coder.Code()] = coder
}

// MustRegister registers a Coder and panics on a duplicate code. Intended
// for init-time registration.
func MustRegister(coder Coder) {
	codeMu.Lock()
	defer codeMu.Unlock()
	if _, ok := codes[coder.Code()]; ok {
		panic(fmt.Sprintf("error code %d already registered", coder.Code()))
	}
	codes[coder.Code()] = coder
}

// unknownCoder covers errors that carry no registered code.
type unknownCoder struct{}

func (unknownCoder) Code() int         { return 1 }
func (unknownCoder) HTTPStatus() int   { return http.StatusInternalServerError }
func (unknownCoder) String() string    { return "An internal server error occurred" }
func (unknownCoder) Reference() string { return "" }

// ParseCoder resolves the registered Coder for err's code. Errors without
// a code, or with an unregistered one, map to the unknown coder.
func ParseCoder(err error) Coder {
	code := CodeOf(err)
	codeMu.Lock()
	defer codeMu.Unlock()
	if coder, ok := codes[code]; ok {
		return coder
	}
	return unknownCoder{}
}

// IsCode reports whether err's chain carries the given code.
func IsCode(err error, code int) bool {
	return CodeOf(err) == code
}

// CodedError is an error annotated with a numeric code.
type CodedError struct {
	Code    int
	Message string
	cause   error
}

func (e *CodedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error { return e.cause }

// WithCode creates a new coded error with a formatted message.
func WithCode(code int, format string, args ...interface{}) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapC wraps err with a code and a formatted message.
func WrapC(err error, code int, format string, args ...interface{}) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}

// CodeOf extracts the code from err, or 0 when err carries none.
func CodeOf(err error) int {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return 0
}
