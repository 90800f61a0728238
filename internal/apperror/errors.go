// Package apperror defines the gateway's error taxonomy and how it renders
// onto the downstream A-API error envelope.
package apperror

import "fmt"

// Kind enumerates the downstream-facing error categories the gateway can
// surface. Each value is an A-API error type; the HTTP status is carried
// separately on Error.
type Kind string

const (
	InvalidRequest      Kind = "invalid_request_error"
	ConfigError         Kind = "api_error"
	UpstreamUnreachable Kind = "api_error"
	UpstreamHTTPError   Kind = "api_error"
	UpstreamMalformed   Kind = "api_error"
	StreamAborted       Kind = "api_error"
	ClientDisconnect    Kind = "api_error"
)

// Error is the gateway's internal error type. Message is safe to surface
// to the downstream caller; Cause, if present, is logged but never sent.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an Error without a wrapped cause.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Status: status, Message: message}
}

// Wrap constructs an Error carrying a wrapped cause for logging.
func Wrap(kind Kind, status int, message string, cause error) *Error {
	return &Error{Kind: kind, Status: status, Message: message, Cause: cause}
}

// InvalidRequestf builds a 400 invalid_request_error with a formatted
// message.
func InvalidRequestf(format string, args ...any) *Error {
	return New(InvalidRequest, 400, fmt.Sprintf(format, args...))
}

// Upstream classifies an error returned by, or while talking to, the
// upstream O-API server: reached-but-erroring, unreachable, or malformed.
func Upstream(kind Kind, status int, message string, cause error) *Error {
	return Wrap(kind, status, message, cause)
}

// openAIErrorTypeMapping maps the error "type" field an O-API-compatible
// upstream may send back onto the downstream A-API error type vocabulary.
var openAIErrorTypeMapping = map[string]string{
	"invalid_request_error":    "invalid_request_error",
	"authentication_error":     "authentication_error",
	"permission_error":         "permission_error",
	"not_found_error":          "not_found_error",
	"rate_limit_error":         "rate_limit_error",
	"api_error":                "api_error",
	"overloaded_error":         "overloaded_error",
	"insufficient_quota_error": "billing_error",
}

// MapUpstreamErrorType translates an upstream-reported error type into the
// downstream A-API error type vocabulary, defaulting to "api_error".
func MapUpstreamErrorType(upstreamType string) string {
	if mapped, ok := openAIErrorTypeMapping[upstreamType]; ok {
		return mapped
	}

	return "api_error"
}
