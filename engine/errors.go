package engine

import (
	"fmt"
	"net/http"
)

// Error types reported in ErrorDetails.ErrorType.
const (
	ErrorTypeInvalidMethod   = "InvalidMethod"
	ErrorTypeTimeout         = "TimeoutException"
	ErrorTypeConnection      = "ConnectionError"
	ErrorTypeRequest         = "RequestError"
	ErrorTypeResponse        = "ResponseError"
	ErrorTypeHTTPStatusError = "HTTPStatusError"
)

// Kind is the category of a transport failure, decided before any response exists.
type Kind int

const (
	KindInvalidMethod Kind = iota + 1
	KindTimeout
	KindConnection
	KindRequest
)

func (k Kind) String() string {
	switch k {
	case KindInvalidMethod:
		return ErrorTypeInvalidMethod
	case KindTimeout:
		return ErrorTypeTimeout
	case KindConnection:
		return ErrorTypeConnection
	case KindRequest:
		return ErrorTypeRequest
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// statusCode is the synthetic status reported when no upstream response exists.
func (k Kind) statusCode() int {
	switch k {
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindConnection:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

func (k Kind) message(detail string) string {
	switch k {
	case KindInvalidMethod:
		return "Invalid HTTP method: " + detail
	case KindTimeout:
		return "Request timed out: " + detail
	case KindConnection:
		return "Connection error: " + detail
	default:
		return "Request error: " + detail
	}
}

// TransportError is a failure that happened before a response was obtained.
type TransportError struct {
	Kind Kind
	// Detail is the method token for KindInvalidMethod and the underlying error text otherwise.
	Detail string
}

func (e *TransportError) Error() string {
	return e.Kind.message(e.Detail)
}

// ErrorDetails is the structured error carried by a failed ExecutionResult.
type ErrorDetails struct {
	ErrorType  string `json:"error_type"`
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// ValidationError is returned by Normalize when the raw request is structurally unusable.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
