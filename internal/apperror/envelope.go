package apperror

import (
	"net/http"

	"github.com/quillhq/claude-gateway/internal/protocol"
)

// Envelope renders the error as the downstream A-API error JSON body.
func (e *Error) Envelope() protocol.ErrorEnvelope {
	errType := string(e.Kind)

	return protocol.ErrorEnvelope{
		Type: "error",
		Error: protocol.ErrorDetail{
			Type:    errType,
			Message: e.Message,
		},
	}
}

// mirroredStatusTypes are the upstream statuses the downstream client sees
// unchanged, each with a fixed, status-driven A-API error type. Any other
// status is clamped to 502 and reported as a generic api_error.
var mirroredStatusTypes = map[int]string{
	http.StatusBadRequest:      "invalid_request_error",
	http.StatusUnauthorized:    "authentication_error",
	http.StatusForbidden:       "permission_error",
	http.StatusNotFound:        "not_found_error",
	http.StatusTooManyRequests: "rate_limit_error",
}

// FromUpstream builds an Error from an upstream error response. The
// downstream status is the upstream status if it is one of
// {400,401,403,404,429}, clamped to 502 otherwise. For a mirrored status
// the A-API error type is derived from the status itself; otherwise it
// falls back to whatever type the upstream body reported, defaulting to
// api_error.
func FromUpstream(status int, upstreamType, message string) *Error {
	if mappedType, ok := mirroredStatusTypes[status]; ok {
		return New(Kind(mappedType), status, message)
	}

	return New(Kind(MapUpstreamErrorType(upstreamType)), http.StatusBadGateway, message)
}
