package dto

import (
	"encoding/json"
	"strings"

	"github.com/apiprobe/apiprobe/engine"
)

// FetchRequest is the body of POST /api/fetch.
type FetchRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Params  map[string]string `json:"params"`
	Body    json.RawMessage   `json:"body"`
	// Timeout is in seconds.
	Timeout *float64 `json:"timeout"`
}

// ToRaw converts the payload to engine input. An absent method means GET.
func (r FetchRequest) ToRaw() engine.RawRequest {
	method := r.Method
	if strings.TrimSpace(method) == "" {
		method = "GET"
	}
	return engine.RawRequest{
		Method:  method,
		URL:     r.URL,
		Headers: r.Headers,
		Params:  r.Params,
		Body:    r.Body,
		Timeout: r.Timeout,
	}
}

// FetchResponse is the body returned by POST /api/fetch, also used by GET /api/health.
type FetchResponse struct {
	Success         bool                 `json:"success"`
	Message         string               `json:"message"`
	Data            map[string]any       `json:"data"`
	StatusCode      int                  `json:"status_code"`
	Headers         map[string]string    `json:"headers"`
	Content         string               `json:"content"`
	ExecutionTimeMs float64              `json:"execution_time_ms"`
	SizeBytes       int                  `json:"size_bytes"`
	RequestDetails  any                  `json:"request_details"`
	Error           *engine.ErrorDetails `json:"error"`
}

func NewFetchResponse(res *engine.ExecutionResult) FetchResponse {
	return FetchResponse{
		Success:         res.Success,
		Message:         "",
		Data:            map[string]any{},
		StatusCode:      res.StatusCode,
		Headers:         res.Headers,
		Content:         res.Body,
		ExecutionTimeMs: res.ExecutionTimeMs,
		SizeBytes:       res.SizeBytes,
		RequestDetails:  res.RequestEcho,
		Error:           res.Error,
	}
}

// ValidationErrorResponse is returned with 422 when the fetch payload is unusable.
type ValidationErrorResponse struct {
	Detail string `json:"detail"`
}
