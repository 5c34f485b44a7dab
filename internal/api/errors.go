package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failure the way callers react to it.
type Kind int

const (
	// KindUnauthorized: no valid session, or the refresh failed.
	KindUnauthorized Kind = iota + 1
	// KindValidation: bad input, rejected locally or by the backend.
	KindValidation
	// KindWorkflow: an illegal state transition or an unmet precondition,
	// e.g. the verification code was not found on the profile.
	KindWorkflow
	// KindTransport: the backend could not be reached.
	KindTransport
	// KindServer: the backend failed.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindWorkflow:
		return "workflow"
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the backend client and by the
// client-side precondition checks built on it.
type Error struct {
	Kind Kind
	// StatusCode is zero for failures detected before a response arrived.
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewValidationError reports rejected input.
func NewValidationError(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewWorkflowError reports an illegal transition.
func NewWorkflowError(format string, args ...any) *Error {
	return &Error{Kind: KindWorkflow, Message: fmt.Sprintf(format, args...)}
}

func transportError(err error) *Error {
	return &Error{Kind: KindTransport, Message: "backend unreachable: " + err.Error(), Err: err}
}

// KindOf returns the kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsWorkflow(err error) bool     { return KindOf(err) == KindWorkflow }
func IsTransport(err error) bool    { return KindOf(err) == KindTransport }
func IsServer(err error) bool       { return KindOf(err) == KindServer }

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusBadRequest,
		status == http.StatusUnprocessableEntity,
		status == http.StatusTooManyRequests:
		return KindValidation
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindWorkflow
	}
}

// parseError builds an *Error from a non-2xx response. The backend answers
// {"message": ...}; OAuth-style {"error", "error_description"} and plain text
// bodies are accepted too.
func parseError(status int, body []byte) *Error {
	apiErr := &Error{Kind: kindForStatus(status), StatusCode: status}

	var structured struct {
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		switch {
		case structured.Message != "":
			apiErr.Message = structured.Message
		case structured.ErrorDescription != "":
			apiErr.Message = structured.ErrorDescription
		case structured.Error != "":
			apiErr.Message = structured.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
