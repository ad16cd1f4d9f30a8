package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
)

// endpoint pairs a GET path with the decoder for the shape it answers with.
// Collections and envelopes are decoded by different endpoints rather than by
// inspecting the payload.
type endpoint[T any] struct {
	path   string
	decode func([]byte) (T, error)
}

func (e endpoint[T]) fetch(ctx context.Context, api transport.Adapter, query url.Values) (T, error) {
	var zero T
	body, err := api.Get(ctx, e.path, query)
	if err != nil {
		return zero, err
	}
	v, err := e.decode(body)
	if err != nil {
		return zero, fmt.Errorf("decode %s: %w", e.path, err)
	}
	return v, nil
}

// decodeCollection reads a bare JSON array. null and empty bodies are an empty
// collection.
func decodeCollection[T any](b []byte) ([]T, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func decodeObject[T any](b []byte) (T, error) {
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}
	return out, nil
}

var (
	resourcesEndpoint = endpoint[[]model.Resource]{path: "resources", decode: decodeCollection[model.Resource]}
	trackedEndpoint   = endpoint[[]model.TrackedImage]{path: "tracked", decode: decodeCollection[model.TrackedImage]}
	approvalsEndpoint = endpoint[[]model.Approval]{path: "approvals", decode: decodeCollection[model.Approval]}
	statsEndpoint     = endpoint[[]model.StatPoint]{path: "stats", decode: decodeCollection[model.StatPoint]}
	auditEndpoint     = endpoint[model.AuditPage]{path: "audit", decode: decodeAuditPage}
	userEndpoint      = endpoint[model.UserInfo]{path: "auth/user", decode: decodeObject[model.UserInfo]}
	refreshEndpoint   = endpoint[model.LoginResponse]{path: "auth/refresh", decode: decodeObject[model.LoginResponse]}
)

func decodeAuditPage(b []byte) (model.AuditPage, error) {
	page, err := decodeObject[model.AuditPage](b)
	if err != nil {
		return page, err
	}
	if page.Data == nil {
		page.Data = []model.AuditLogEntry{}
	}
	return page, nil
}

// Mutating endpoints.
const (
	policiesPath  = "policies"
	trackedPath   = "tracked"
	approvalsPath = "approvals"
	loginPath     = "auth/login"
)
