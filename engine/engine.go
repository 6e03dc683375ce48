// Package engine executes user-described HTTP requests and reports every outcome,
// failures included, as one uniform ExecutionResult.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Laisky/zap"

	"github.com/apiprobe/apiprobe/common/helper"
	"github.com/apiprobe/apiprobe/common/logger"
)

// Mode selects how the response body is presented.
type Mode int

const (
	// ModePassThrough returns the body as raw text.
	ModePassThrough Mode = iota
	// ModeParseBody additionally decodes the body as JSON, falling back to UnparsedBodySentinel.
	ModeParseBody
)

func (m Mode) String() string {
	if m == ModeParseBody {
		return "parse_body"
	}
	return "pass_through"
}

// UnparsedBodySentinel replaces a body that is not valid JSON in ModeParseBody.
var UnparsedBodySentinel = json.RawMessage(`{"raw_body":"Unable to parse JSON body"}`)

// ExecutionResult is the outcome of one execution. Error is non-nil iff Success is false.
type ExecutionResult struct {
	Success    bool
	StatusCode int
	// UpstreamStatus is the status received from the target, 0 when the exchange never happened.
	UpstreamStatus  int
	Headers         map[string]string
	Body            string
	ParsedBody      json.RawMessage
	ExecutionTimeMs float64
	SizeBytes       int
	RequestEcho     RequestEcho
	Error           *ErrorDetails
	Mode            Mode
}

// Exchanged reports whether an upstream response was received, even if its body
// could not be read completely.
func (r *ExecutionResult) Exchanged() bool {
	return r.UpstreamStatus != 0
}

// Engine ties the invoker, classifier and assembler together.
type Engine struct {
	invoker *Invoker
}

// New returns an engine that sends requests through client.
func New(client *http.Client, defaultTimeout time.Duration) *Engine {
	return &Engine{invoker: NewInvoker(client, defaultTimeout)}
}

// Execute runs desc once. It does not retry and never returns nil.
func (e *Engine) Execute(ctx context.Context, desc *RequestDescriptor, mode Mode) (result *ExecutionResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error("execution panicked", zap.Any("panic", r))
			result = Assemble(RequestEcho{}, Classification{
				StatusCode: http.StatusBadRequest,
				Headers:    map[string]string{},
				Error: &ErrorDetails{
					ErrorType:  ErrorTypeRequest,
					Message:    fmt.Sprintf("Request error: %v", r),
					StatusCode: http.StatusBadRequest,
				},
			}, start, mode)
		}
	}()

	if desc == nil {
		return Assemble(RequestEcho{}, Classify(&RawOutcome{
			Err: &TransportError{Kind: KindRequest, Detail: "empty request"},
		}), start, mode)
	}

	outcome := e.invoker.Invoke(ctx, desc)
	classification := Classify(outcome)
	result = Assemble(outcome.Echo, classification, start, mode)

	logger.Logger.Debug("request executed",
		zap.String("method", result.RequestEcho.Method),
		zap.String("url", result.RequestEcho.URL),
		zap.Int("status", result.StatusCode),
		zap.Float64("elapsed_ms", result.ExecutionTimeMs),
		zap.String("mode", mode.String()))
	return result
}

// Assemble builds the final result. start is the instant taken just before invocation.
func Assemble(echo RequestEcho, c Classification, start time.Time, mode Mode) *ExecutionResult {
	if echo.Headers == nil {
		echo.Headers = map[string]string{}
	}
	if echo.Params == nil {
		echo.Params = map[string]string{}
	}
	headers := c.Headers
	if headers == nil {
		headers = map[string]string{}
	}

	result := &ExecutionResult{
		Success:        c.Success && c.Error == nil,
		StatusCode:     c.StatusCode,
		UpstreamStatus: c.UpstreamStatus,
		Headers:        headers,
		Body:           string(c.Body),
		SizeBytes:      len(c.Body),
		RequestEcho:    echo,
		Error:          c.Error,
		Mode:           mode,
	}
	if mode == ModeParseBody {
		// a truncated body may still happen to be valid JSON
		if c.Error != nil && c.Error.ErrorType == ErrorTypeResponse {
			result.ParsedBody = append(json.RawMessage(nil), UnparsedBodySentinel...)
		} else {
			result.ParsedBody = parseBody(c.Body)
		}
	}

	result.ExecutionTimeMs = helper.CalcElapsedMs(start)
	return result
}

func parseBody(body []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return append(json.RawMessage(nil), UnparsedBodySentinel...)
	}
	return append(json.RawMessage(nil), trimmed...)
}
