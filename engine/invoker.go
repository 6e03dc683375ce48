package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

var knownMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodOptions: {},
	http.MethodConnect: {},
	http.MethodTrace:   {},
}

// carriesBody reports whether a JSON body may be attached for method.
func carriesBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}

// RequestEcho is the request as it was actually attempted.
type RequestEcho struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Params  map[string]string `json:"params"`
	Body    json.RawMessage   `json:"body"`
}

// RawOutcome is either a Response with an unread body or a TransportError.
type RawOutcome struct {
	Response *http.Response
	Err      *TransportError
	Echo     RequestEcho

	readOnce sync.Once
	body     []byte
	readErr  error
}

// readBody drains and closes the response body once; later calls return the same bytes.
func (o *RawOutcome) readBody() ([]byte, error) {
	o.readOnce.Do(func() {
		if o.Response == nil || o.Response.Body == nil {
			return
		}
		o.body, o.readErr = io.ReadAll(o.Response.Body)
		_ = o.Response.Body.Close()
	})
	return o.body, o.readErr
}

// Invoker turns descriptors into outbound calls over a shared client.
type Invoker struct {
	client         *http.Client
	defaultTimeout time.Duration
}

// NewInvoker returns an invoker using client. defaultTimeout applies to descriptors
// without their own timeout; zero disables it.
func NewInvoker(client *http.Client, defaultTimeout time.Duration) *Invoker {
	if client == nil {
		client = http.DefaultClient
	}
	return &Invoker{client: client, defaultTimeout: defaultTimeout}
}

// Invoke issues the call described by desc. It never returns nil.
func (iv *Invoker) Invoke(ctx context.Context, desc *RequestDescriptor) *RawOutcome {
	method := strings.ToUpper(strings.TrimSpace(desc.Method))
	echo := RequestEcho{
		Method:  method,
		URL:     desc.URL,
		Headers: make(map[string]string, len(desc.Headers)+1),
		Params:  cloneStrings(desc.Params),
	}

	if _, ok := knownMethods[method]; !ok {
		echo.Method = desc.Method
		for k, v := range desc.Headers {
			echo.Headers[k] = v
		}
		return &RawOutcome{Err: &TransportError{Kind: KindInvalidMethod, Detail: desc.Method}, Echo: echo}
	}

	target, err := mergeQuery(desc.URL, desc.Params)
	if err != nil {
		return &RawOutcome{Err: &TransportError{Kind: KindRequest, Detail: err.Error()}, Echo: echo}
	}
	echo.URL = target

	var body io.Reader
	if carriesBody(method) && len(desc.Body) > 0 {
		echo.Body = append(json.RawMessage(nil), desc.Body...)
		body = bytes.NewReader(echo.Body)
	}

	cancel := context.CancelFunc(func() {})
	if timeout := iv.timeoutFor(desc); timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		cancel()
		return &RawOutcome{Err: &TransportError{Kind: KindRequest, Detail: err.Error()}, Echo: echo}
	}

	// sorted so that names differing only in case resolve the same way every time
	names := make([]string, 0, len(desc.Headers))
	for name := range desc.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		value := desc.Headers[name]
		if strings.EqualFold(name, "Host") {
			req.Host = value
		} else {
			req.Header.Set(name, value)
		}
		echo.Headers[name] = value
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
		echo.Headers["Content-Type"] = "application/json"
	}

	resp, err := iv.client.Do(req)
	if err != nil {
		cancel()
		return &RawOutcome{Err: &TransportError{Kind: transportKind(err), Detail: err.Error()}, Echo: echo}
	}

	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return &RawOutcome{Response: resp, Echo: echo}
}

func (iv *Invoker) timeoutFor(desc *RequestDescriptor) time.Duration {
	if desc.Timeout != nil && *desc.Timeout > 0 {
		// sub-nanosecond values still mean "expire immediately", not "use the default"
		return max(time.Duration(*desc.Timeout*float64(time.Second)), time.Nanosecond)
	}
	return iv.defaultTimeout
}

// mergeQuery appends params to the query already present in rawURL. Existing
// pairs keep their order and encoding; a pair whose key is overridden by params is dropped.
func mergeQuery(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(params)+strings.Count(u.RawQuery, "&")+1)
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if _, overridden := params[key]; overridden {
			continue
		}
		pairs = append(pairs, pair)
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		pairs = append(pairs, url.QueryEscape(name)+"="+url.QueryEscape(params[name]))
	}

	u.RawQuery = strings.Join(pairs, "&")
	return u.String(), nil
}

func cloneStrings(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cancelOnClose keeps the request deadline armed until the body has been consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
