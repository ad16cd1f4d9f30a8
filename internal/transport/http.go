package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/keel-hq/keelctl/internal/model"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// CredentialsFunc returns the credentials to attach to the next request.
type CredentialsFunc func() model.Credentials

// Options configures an HTTPAdapter.
type Options struct {
	// BaseURL is the API root, e.g. http://keel:9300/v1.
	BaseURL            string
	InsecureSkipVerify bool
	Credentials        CredentialsFunc
	Logger             *zap.Logger
	// Client overrides the underlying HTTP client (tests).
	Client *http.Client
}

// HTTPAdapter is the net/http implementation of Adapter.
type HTTPAdapter struct {
	base   *url.URL
	client *http.Client
	creds  CredentialsFunc
	log    *zap.Logger
}

var _ Adapter = (*HTTPAdapter)(nil)

// NewHTTPAdapter validates the base URL and builds an adapter.
func NewHTTPAdapter(opts Options) (*HTTPAdapter, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	client := opts.Client
	if client == nil {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		if opts.InsecureSkipVerify {
			tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via config
		}
		client = &http.Client{Transport: tr}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPAdapter{base: base, client: client, creds: opts.Credentials, log: log}, nil
}

// BaseURL returns the API root the adapter resolves paths against.
func (a *HTTPAdapter) BaseURL() string {
	return strings.TrimRight(a.base.String(), "/")
}

func (a *HTTPAdapter) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	resp, err := a.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (a *HTTPAdapter) Post(ctx context.Context, path string, payload any) (*Response, error) {
	return a.do(ctx, http.MethodPost, path, nil, payload)
}

func (a *HTTPAdapter) Put(ctx context.Context, path string, payload any) (*Response, error) {
	return a.do(ctx, http.MethodPut, path, nil, payload)
}

func (a *HTTPAdapter) Patch(ctx context.Context, path string, payload any) (*Response, error) {
	return a.do(ctx, http.MethodPatch, path, nil, payload)
}

func (a *HTTPAdapter) Delete(ctx context.Context, path string, payload any) (*Response, error) {
	return a.do(ctx, http.MethodDelete, path, nil, payload)
}

func (a *HTTPAdapter) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(strings.TrimLeft(path, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u := a.base.ResolveReference(ref)
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func (a *HTTPAdapter) do(ctx context.Context, method, path string, query url.Values, payload any) (*Response, error) {
	target, err := a.resolve(path, query)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s payload: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	a.authorize(req)

	start := time.Now()
	resp, err := a.client.Do(req)
	if err != nil {
		a.log.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	a.log.Debug("request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(b))
		if len(msg) > maxErrorBody {
			cut := maxErrorBody
			for cut > 0 && !utf8.RuneStart(msg[cut]) {
				cut--
			}
			msg = msg[:cut]
		}
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: msg}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header.Clone(), Body: b}, nil
}

// authorize prefers the bearer token and falls back to basic auth, the two
// schemes the admin endpoints accept.
func (a *HTTPAdapter) authorize(req *http.Request) {
	if a.creds == nil {
		return
	}
	c := a.creds()
	switch {
	case c.Token != "":
		req.Header.Set("Authorization", "Bearer "+c.Token)
	case c.Username != "":
		req.SetBasicAuth(c.Username, c.Password)
	}
}
