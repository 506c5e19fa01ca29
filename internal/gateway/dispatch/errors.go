package dispatch

import "net/http"

// Reason classifies a dispatch failure.
type Reason string

const (
	ReasonInvalidRequest      Reason = "invalid_request"
	ReasonUpstreamUnavailable Reason = "upstream_unavailable"
	ReasonInternal            Reason = "internal_error"
)

// Error is a typed dispatch failure carrying the HTTP status the boundary
// should surface. Non-fatal side paths never produce one.
type Error struct {
	Reason  Reason
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalidRequest(msg string) *Error {
	return &Error{Reason: ReasonInvalidRequest, Status: http.StatusBadRequest, Message: msg}
}

func upstreamFailed(msg string) *Error {
	return &Error{Reason: ReasonUpstreamUnavailable, Status: http.StatusBadGateway, Message: msg}
}

func upstreamUnavailable(msg string) *Error {
	return &Error{Reason: ReasonUpstreamUnavailable, Status: http.StatusServiceUnavailable, Message: msg}
}
