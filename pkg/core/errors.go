package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrDuplicateRoute       = errors.New("route already registered")
	ErrUnsupportedMethod    = errors.New("method is not supported")
	ErrMissingHandler       = errors.New("missing handler function")
	ErrInvalidPattern       = errors.New("invalid url pattern")
	ErrInvalidPhase         = errors.New("invalid hook phase")
	ErrInvalidHook          = errors.New("hook does not match phase signature")
	ErrMissingParser        = errors.New("missing content type parser")
	ErrDecoratorExists      = errors.New("decorator already added")
	ErrAlreadyListening     = errors.New("instance is already listening")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrReplySent            = errors.New("reply already sent")
	ErrHandlerTimeout       = errors.New("handler did not reply in time")
)

// RegistrationError is returned synchronously by boot-time registration calls.
type RegistrationError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *RegistrationError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// PipelineError ends a single request. Status is the HTTP status sent for it.
type PipelineError struct {
	Phase  string
	Status int
	Err    error
}

func (e *PipelineError) Error() string { return fmt.Sprintf("%s: %v", e.Phase, e.Err) }

func (e *PipelineError) Unwrap() error { return e.Err }

func (e *PipelineError) StatusCode() int { return e.Status }

func pipelineError(phase string, err error) *PipelineError {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe
	}
	def := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		def = http.StatusServiceUnavailable
	}
	return &PipelineError{Phase: phase, Status: statusOf(err, def), Err: err}
}

// CloseError is returned by Close when an onClose hook fails.
type CloseError struct {
	Err error
}

func (e *CloseError) Error() string { return "close: " + e.Err.Error() }

func (e *CloseError) Unwrap() error { return e.Err }

// HTTPError lets handlers and hooks pick the status of an error reply.
type HTTPError struct {
	Status  int
	Message string
}

func NewHTTPError(status int, msg string) *HTTPError {
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &HTTPError{Status: status, Message: msg}
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) StatusCode() int { return e.Status }

type statusCoder interface{ StatusCode() int }

// statusOf returns the status carried by err, or def.
func statusOf(err error, def int) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		if s := sc.StatusCode(); s >= 400 && s <= 599 {
			return s
		}
	}
	return def
}
