package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"

	"github.com/apiprobe/apiprobe/common"
	"github.com/apiprobe/apiprobe/common/logger"
)

// RawRequest is a request description as supplied by a caller.
type RawRequest struct {
	Method  string            `json:"method"`
	URL     string            `json:"url" validate:"required,http_url"`
	Headers map[string]string `json:"headers,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
	// Timeout is in seconds.
	Timeout *float64 `json:"timeout,omitempty" validate:"omitempty,gt=0"`
}

// RequestDescriptor is the canonical executable form of a request.
// It is built by Normalize or NormalizeStored and must not be modified afterwards.
type RequestDescriptor struct {
	Method  string
	URL     string
	Headers map[string]string
	Params  map[string]string
	Body    json.RawMessage
	Timeout *float64
}

// StoredRequest is a persisted request definition whose headers and params
// are arbitrary JSON values.
type StoredRequest struct {
	Method  string
	URL     string
	Headers map[string]any
	Params  map[string]any
	Body    json.RawMessage
}

// Normalize validates raw and returns a descriptor that shares no memory with it.
// The method is carried verbatim; its validity is decided at invocation time.
func Normalize(raw RawRequest) (*RequestDescriptor, error) {
	if err := common.Validate.Struct(&raw); err != nil {
		return nil, toValidationError(err)
	}

	desc := new(RequestDescriptor)
	if err := copier.CopyWithOption(desc, &raw, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrap(err, "copy raw request")
	}

	if desc.Headers == nil {
		desc.Headers = map[string]string{}
	}
	if desc.Params == nil {
		desc.Params = map[string]string{}
	}

	if isAbsentBody(desc.Body) {
		desc.Body = nil
	} else if !json.Valid(desc.Body) {
		return nil, &ValidationError{Field: "body", Message: "body must be valid JSON"}
	}

	return desc, nil
}

// NormalizeStored converts a persisted definition. Non-string header values are
// skipped; scalar params are stringified while object, array and null params are skipped.
func NormalizeStored(stored StoredRequest) (*RequestDescriptor, error) {
	raw := RawRequest{
		Method:  stored.Method,
		URL:     stored.URL,
		Headers: make(map[string]string, len(stored.Headers)),
		Params:  make(map[string]string, len(stored.Params)),
		Body:    stored.Body,
	}

	for name, value := range stored.Headers {
		s, ok := value.(string)
		if !ok {
			logger.Logger.Warn("skip non-string header value",
				zap.String("header", name),
				zap.String("type", fmt.Sprintf("%T", value)))
			continue
		}
		raw.Headers[name] = s
	}

	for name, value := range stored.Params {
		s, ok := scalarString(value)
		if !ok {
			logger.Logger.Warn("skip non-scalar query param",
				zap.String("param", name),
				zap.String("type", fmt.Sprintf("%T", value)))
			continue
		}
		raw.Params[name] = s
	}

	return Normalize(raw)
}

func scalarString(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case json.Number:
		return val.String(), true
	default:
		return "", false
	}
}

func isAbsentBody(body json.RawMessage) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: "field required"}
	case "http_url":
		return &ValidationError{Field: fe.Field(), Message: "must be an absolute http or https URL"}
	case "gt":
		return &ValidationError{Field: fe.Field(), Message: "must be greater than " + fe.Param()}
	default:
		return &ValidationError{Field: fe.Field(), Message: "failed on " + fe.Tag()}
	}
}
