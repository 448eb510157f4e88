// Package errors provides the structured error codes used across LabelHub.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): Service/Module code
//	BB  (00-99): Category code
//	CCC (000-999): Sequence number within the category
//
// Usage:
//
//	return errors.ErrInvalidParam.WithMessage("name is required")
//	return errors.ErrDatabase.WithCause(err)
//	return errors.ErrRecordsInvalid.WithDetails(failures)
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"sync"

	"google.golang.org/grpc/codes"
)

// Errno represents a structured error with code and messages.
type Errno struct {
	// Code is the unique error code
	Code int `json:"code"`

	// HTTP is the HTTP status code to return
	HTTP int `json:"-"`

	// GRPCCode is the gRPC status code
	GRPCCode codes.Code `json:"-"`

	// MessageEN is the English error message
	MessageEN string `json:"message"`

	// MessageZH is the Chinese error message
	MessageZH string `json:"message_zh,omitempty"`

	// details carries a structured payload returned to the client
	details any

	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

func (e *Errno) clone() *Errno {
	c := *e
	return &c
}

// WithCause creates a new Errno with the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	c := e.clone()
	c.cause = cause
	return c
}

// WithMessage creates a new Errno with custom English message.
func (e *Errno) WithMessage(msg string) *Errno {
	c := e.clone()
	c.MessageEN = msg
	return c
}

// WithMessagef creates a new Errno with formatted English message.
func (e *Errno) WithMessagef(format string, args ...any) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails attaches a structured payload, e.g. per-position validation failures.
func (e *Errno) WithDetails(details any) *Errno {
	c := e.clone()
	c.details = details
	return c
}

// Details returns the payload attached with WithDetails.
func (e *Errno) Details() any {
	return e.details
}

// Message returns the message based on language.
func (e *Errno) Message(lang string) string {
	if lang == "zh" || lang == "zh-CN" || lang == "zh_CN" {
		if e.MessageZH != "" {
			return e.MessageZH
		}
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status code.
func (e *Errno) HTTPStatus() int {
	if e.HTTP != 0 {
		return e.HTTP
	}
	return http.StatusInternalServerError
}

// GRPCStatus returns the gRPC status code.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode != codes.OK {
		return e.GRPCCode
	}
	return codes.Internal
}

// Is reports whether target carries the same error code.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

var (
	errnoRegistry = make(map[int]*Errno)
	registryMu    sync.RWMutex
)

// Register registers an Errno and validates uniqueness.
// Panics if the code is already registered.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := errnoRegistry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.MessageEN))
	}
	errnoRegistry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for the given code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := errnoRegistry[code]
	return e, ok
}

// New creates a new Errno with the given parameters.
func New(code int, httpStatus int, grpcCode codes.Code, messageEN, messageZH string) *Errno {
	return &Errno{
		Code:      code,
		HTTP:      httpStatus,
		GRPCCode:  grpcCode,
		MessageEN: messageEN,
		MessageZH: messageZH,
	}
}

// FromError converts any error to Errno.
// A passed context deadline becomes ErrRequestTimeout. Errno values anywhere
// in the chain are returned as is, anything else is wrapped as ErrInternal.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return ErrRequestTimeout.WithCause(err)
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// IsCode checks if the error has the given error code.
func IsCode(err error, code int) bool {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code == code
	}
	return false
}
