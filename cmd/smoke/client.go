package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type checkKind string

const (
	checkFetch  checkKind = "fetch"
	checkReplay checkKind = "replay"
)

type check struct {
	Kind   checkKind
	Label  string
	Target string
	Method string
}

type checkResult struct {
	check
	StatusCode int
	Outcome    string
	Duration   time.Duration
	Problem    string
}

type fetchEnvelope struct {
	Success    *bool             `json:"success"`
	StatusCode *int              `json:"status_code"`
	Content    *string           `json:"content"`
	SizeBytes  *int              `json:"size_bytes"`
	ElapsedMs  *float64          `json:"execution_time_ms"`
	Headers    map[string]string `json:"headers"`
	Error      *struct {
		ErrorType  string `json:"error_type"`
		Message    string `json:"message"`
		StatusCode int    `json:"status_code"`
	} `json:"error"`
}

type replayEnvelope struct {
	Status  *int            `json:"status"`
	Body    json.RawMessage `json:"body"`
	Message string          `json:"message"`
}

func buildChecks(conf config) []check {
	var checks []check
	for _, target := range conf.Targets {
		for _, method := range []string{http.MethodGet, http.MethodHead, "BOGUS"} {
			checks = append(checks, check{
				Kind:   checkFetch,
				Label:  method + " " + target,
				Target: target,
				Method: method,
			})
		}
	}
	for _, id := range conf.StoredIds {
		checks = append(checks, check{Kind: checkReplay, Label: "replay " + id, Target: id})
	}
	return checks
}

func performCheck(ctx context.Context, client *http.Client, conf config, c check) (res checkResult) {
	start := time.Now()
	res.check = c
	defer func() { res.Duration = time.Since(start) }()

	var (
		endpoint string
		payload  []byte
		err      error
	)
	switch c.Kind {
	case checkFetch:
		endpoint = conf.APIBase + "/api/fetch"
		payload, err = json.Marshal(map[string]any{"method": c.Method, "url": c.Target})
	case checkReplay:
		endpoint = conf.APIBase + "/requests/" + c.Target + "/execute"
	}
	if err != nil {
		res.Problem = fmt.Sprintf("marshal payload: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		res.Problem = fmt.Sprintf("build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "apiprobe-smoke/1.0")
	if conf.Token != "" {
		req.Header.Set("Authorization", "Bearer "+conf.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		res.Problem = fmt.Sprintf("do request: %v", err)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		res.Problem = fmt.Sprintf("read response: %v", err)
		return
	}
	res.StatusCode = resp.StatusCode

	if c.Kind == checkFetch {
		res.Outcome, res.Problem = evaluateFetch(c, resp.StatusCode, body)
	} else {
		res.Outcome, res.Problem = evaluateReplay(resp.StatusCode, body)
	}
	return
}

// evaluateFetch checks the invariants every /api/fetch response must hold.
func evaluateFetch(c check, httpStatus int, body []byte) (outcome, problem string) {
	var env fetchEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Sprintf("decode response: %v", err)
	}
	if env.Success == nil || env.StatusCode == nil || env.Content == nil || env.SizeBytes == nil || env.ElapsedMs == nil {
		return "", "response misses required fields"
	}

	outcome = "success"
	if env.Error != nil {
		outcome = env.Error.ErrorType
	}

	switch {
	case *env.StatusCode != httpStatus:
		return outcome, fmt.Sprintf("status_code %d differs from HTTP status %d", *env.StatusCode, httpStatus)
	case *env.Success == (env.Error != nil):
		return outcome, "error must be present iff success is false"
	case *env.ElapsedMs < 0:
		return outcome, "negative execution_time_ms"
	case len(*env.Content) != *env.SizeBytes:
		return outcome, fmt.Sprintf("size_bytes %d does not match content length %d", *env.SizeBytes, len(*env.Content))
	case c.Method == "BOGUS" && outcome != "InvalidMethod":
		return outcome, "BOGUS method was not rejected"
	case c.Method == http.MethodHead && *env.SizeBytes != 0:
		return outcome, "HEAD returned a body"
	}
	return outcome, ""
}

func evaluateReplay(httpStatus int, body []byte) (outcome, problem string) {
	var env replayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Sprintf("decode response: %v", err)
	}

	if httpStatus != http.StatusOK {
		return "error", fmt.Sprintf("replay returned %d: %s", httpStatus, env.Message)
	}
	if env.Status == nil || len(env.Body) == 0 || !json.Valid(env.Body) {
		return "", "replay response misses status or body"
	}
	return fmt.Sprintf("upstream %d", *env.Status), ""
}
