// Package transport is the single seam between the console stores and the
// Keel admin API. It performs exactly one HTTP exchange per call: no retries,
// no timeouts beyond the caller's context, no caching.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
)

// Adapter issues requests against the API. Get resolves to the response body;
// the mutating verbs resolve to the whole response. Any transport failure or
// non-2xx status is returned as an error.
type Adapter interface {
	Get(ctx context.Context, path string, query url.Values) ([]byte, error)
	Post(ctx context.Context, path string, payload any) (*Response, error)
	Put(ctx context.Context, path string, payload any) (*Response, error)
	Patch(ctx context.Context, path string, payload any) (*Response, error)
	Delete(ctx context.Context, path string, payload any) (*Response, error)
}

// Response is a completed exchange with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into out.
func (r *Response) Decode(out any) error {
	if r == nil || len(r.Body) == 0 {
		return fmt.Errorf("empty response body")
	}
	return json.Unmarshal(r.Body, out)
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: server returned %d %s", e.Method, e.Path, e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%s %s: server returned %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 when err did not come
// from a response.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
