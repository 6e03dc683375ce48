package dto

import (
	"encoding/json"

	"github.com/apiprobe/apiprobe/engine"
)

// ExecuteResponse is returned by POST /requests/:id/execute when an upstream exchange took place.
type ExecuteResponse struct {
	Status  int               `json:"status"`
	Headers map[string]string `json:"headers"`
	Body    json.RawMessage   `json:"body"`
}

func NewExecuteResponse(res *engine.ExecutionResult) ExecuteResponse {
	body := res.ParsedBody
	if body == nil {
		body = engine.UnparsedBodySentinel
	}
	status := res.UpstreamStatus
	if status == 0 {
		status = res.StatusCode
	}
	return ExecuteResponse{
		Status:  status,
		Headers: res.Headers,
		Body:    body,
	}
}
