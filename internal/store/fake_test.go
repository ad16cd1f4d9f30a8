package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/keel-hq/keelctl/internal/transport"
)

type call struct {
	method  string
	path    string
	query   url.Values
	payload any
}

// fakeAPI answers from canned bodies keyed by "METHOD path".
type fakeAPI struct {
	bodies map[string]string
	errs   map[string]error
	calls  []call
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{bodies: map[string]string{}, errs: map[string]error{}}
}

func (f *fakeAPI) reply(method, path, body string) *fakeAPI {
	f.bodies[method+" "+path] = body
	return f
}

func (f *fakeAPI) fail(method, path string, code int) *fakeAPI {
	f.errs[method+" "+path] = &transport.StatusError{Method: method, Path: path, Code: code}
	return f
}

func (f *fakeAPI) Get(_ context.Context, path string, query url.Values) ([]byte, error) {
	f.calls = append(f.calls, call{method: http.MethodGet, path: path, query: query})
	if err := f.errs["GET "+path]; err != nil {
		return nil, err
	}
	return []byte(f.bodies["GET "+path]), nil
}

func (f *fakeAPI) send(method, path string, payload any) (*transport.Response, error) {
	f.calls = append(f.calls, call{method: method, path: path, payload: payload})
	if err := f.errs[method+" "+path]; err != nil {
		return nil, err
	}
	body := f.bodies[method+" "+path]
	if body == "" {
		b, _ := json.Marshal(map[string]string{"status": "ok"})
		body = string(b)
	}
	return &transport.Response{StatusCode: http.StatusOK, Body: []byte(body)}, nil
}

func (f *fakeAPI) Post(_ context.Context, path string, payload any) (*transport.Response, error) {
	return f.send(http.MethodPost, path, payload)
}

func (f *fakeAPI) Put(_ context.Context, path string, payload any) (*transport.Response, error) {
	return f.send(http.MethodPut, path, payload)
}

func (f *fakeAPI) Patch(_ context.Context, path string, payload any) (*transport.Response, error) {
	return f.send(http.MethodPatch, path, payload)
}

func (f *fakeAPI) Delete(_ context.Context, path string, payload any) (*transport.Response, error) {
	return f.send(http.MethodDelete, path, payload)
}
