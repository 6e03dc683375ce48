package model

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/apiprobe/apiprobe/common/logger"
	"github.com/apiprobe/apiprobe/common/random"
	"github.com/apiprobe/apiprobe/engine"
)

// StoredRequest is a request definition saved by a user. Headers, Params and Body hold JSON text.
type StoredRequest struct {
	Id           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserId       string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	CollectionId *string   `json:"collection_id,omitempty" gorm:"type:varchar(36);index"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	Description  *string   `json:"description,omitempty" gorm:"type:text"`
	URL          string    `json:"url" gorm:"column:url;type:text;not null"`
	Method       string    `json:"method" gorm:"type:varchar(16);not null"`
	Headers      string    `json:"headers" gorm:"type:text"`
	Body         *string   `json:"body,omitempty" gorm:"type:text"`
	Params       *string   `json:"params,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (StoredRequest) TableName() string {
	return "requests"
}

// NewStoredRequest encodes the JSON-typed parts of a definition. body may be nil.
func NewStoredRequest(userId, name, method, url string, headers, params map[string]any, body any) (*StoredRequest, error) {
	if headers == nil {
		headers = map[string]any{}
	}
	encodedHeaders, err := json.Marshal(headers)
	if err != nil {
		return nil, errors.Wrap(err, "encode headers")
	}

	r := &StoredRequest{
		UserId:  userId,
		Name:    name,
		Method:  method,
		URL:     url,
		Headers: string(encodedHeaders),
	}
	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, errors.Wrap(err, "encode params")
		}
		s := string(encoded)
		r.Params = &s
	}
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encode body")
		}
		s := string(encoded)
		r.Body = &s
	}
	return r, nil
}

func (r *StoredRequest) Insert(ctx context.Context) error {
	if strings.TrimSpace(r.UserId) == "" {
		return errors.New("stored request has no owner")
	}
	if r.Id == "" {
		r.Id = random.NewRequestID()
	}

	err := withSQLiteBusyRetry(ctx, func(ctx context.Context) error {
		return DB.WithContext(ctx).Create(r).Error
	})
	if err != nil {
		return errors.Wrapf(err, "insert stored request %s", r.Id)
	}

	InvalidateStoredRequestCache(ctx, r.Id, r.UserId)
	return nil
}

// GetStoredRequestByIdAndUserId returns gorm.ErrRecordNotFound (wrapped) when the request
// does not exist or belongs to another user.
func GetStoredRequestByIdAndUserId(ctx context.Context, id string, userId string) (*StoredRequest, error) {
	if id == "" || userId == "" {
		return nil, errors.New("id or userId is empty")
	}

	r := new(StoredRequest)
	err := withSQLiteBusyRetry(ctx, func(ctx context.Context) error {
		return DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userId).First(r).Error
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get stored request %s", id)
	}
	return r, nil
}

// Definition decodes the stored JSON columns into an engine input. Unreadable JSON
// columns are logged and treated as absent.
func (r *StoredRequest) Definition() engine.StoredRequest {
	def := engine.StoredRequest{
		Method: r.Method,
		URL:    r.URL,
	}
	lg := logger.Logger.With(zap.String("request_id", r.Id))

	if err := decodeObject(r.Headers, &def.Headers); err != nil {
		lg.Warn("ignore unreadable stored headers", zap.Error(err))
	}
	if r.Params != nil {
		if err := decodeObject(*r.Params, &def.Params); err != nil {
			lg.Warn("ignore unreadable stored params", zap.Error(err))
		}
	}
	if r.Body != nil {
		body := json.RawMessage(strings.TrimSpace(*r.Body))
		if len(body) > 0 && json.Valid(body) {
			def.Body = body
		} else if len(body) > 0 {
			lg.Warn("ignore unreadable stored body")
		}
	}
	return def
}

func decodeObject(raw string, out *map[string]any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		*out = nil
		return errors.Wrap(err, "decode json object")
	}
	return nil
}
