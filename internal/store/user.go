package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/keel-hq/keelctl/internal/localstore"
	"github.com/keel-hq/keelctl/internal/model"
	"github.com/keel-hq/keelctl/internal/transport"
	"go.uber.org/zap"
)

// Phase is where the session stands in the login flow.
type Phase string

const (
	PhaseAnonymous      Phase = "anonymous"
	PhaseAuthenticating Phase = "authenticating"
	PhaseAuthenticated  Phase = "authenticated"
)

// UserStore is the session: who is logged in and how requests authenticate.
// Token and Credentials may be read from any goroutine; the rest follows the
// State rules.
type UserStore struct {
	mu          sync.RWMutex
	token       string
	credentials model.Credentials

	name    string
	welcome string
	avatar  string
	roles   []string
	info    *model.UserInfo
	phase   Phase
	err     error

	storage localstore.Storage
	ttl     time.Duration
	now     func() time.Time
	log     *zap.Logger
}

func (s *UserStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *UserStore) Name() string    { return s.name }
func (s *UserStore) Welcome() string { return s.welcome }
func (s *UserStore) Avatar() string  { return s.avatar }
func (s *UserStore) Roles() []string { return slices.Clone(s.roles) }
func (s *UserStore) Err() error      { return s.err }

func (s *UserStore) Phase() Phase {
	if s.phase == "" {
		return PhaseAnonymous
	}
	return s.phase
}

// Info returns a copy of the profile, nil before the first successful fetch.
func (s *UserStore) Info() *model.UserInfo {
	if s.info == nil {
		return nil
	}
	info := *s.info
	return &info
}

// Credentials is what the transport authenticates with. The adapter calls it
// while requests are in flight.
func (s *UserStore) Credentials() model.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credentials
}

func (s *UserStore) setSession(token string, creds model.Credentials) {
	s.mu.Lock()
	s.token = token
	s.credentials = creds
	s.mu.Unlock()
}

func (s *UserStore) setError(err error) {
	if err != nil {
		s.log.Debug("action failed", zap.Error(err))
	}
	s.err = err
}

// Login exchanges a username and password for a token, then records the
// session. A rejected login leaves any earlier session as it was.
func (s *UserStore) Login(req model.LoginRequest) Action {
	var prev Phase
	return Action{
		Name: "Login",
		Prepare: func() {
			s.setError(nil)
			prev = s.Phase()
			s.phase = PhaseAuthenticating
		},
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			var out model.LoginResponse
			resp, err := api.Post(ctx, loginPath, req)
			if err == nil {
				err = resp.Decode(&out)
			}
			return func() {
				if err != nil {
					s.phase = prev
					s.setError(err)
					return
				}
				s.setError(s.loginSuccess(model.Credentials{
					Username: req.Username,
					Password: req.Password,
					Token:    out.Token,
				}))
			}
		},
	}
}

// LoginSuccess records credentials that were validated elsewhere.
func (s *UserStore) LoginSuccess(creds model.Credentials) Action {
	return Action{
		Name:    "LoginSuccess",
		Prepare: func() { s.setError(s.loginSuccess(creds)) },
	}
}

func (s *UserStore) loginSuccess(creds model.Credentials) error {
	token := creds.Token
	if token == "" {
		token = creds.Username
	}
	var errs []error
	for _, kv := range [][2]string{
		{localstore.AccessToken, token},
		{localstore.Username, creds.Username},
		{localstore.Password, creds.Password},
	} {
		if err := s.storage.Set(kv[0], kv[1], s.ttl); err != nil {
			errs = append(errs, fmt.Errorf("persist %s: %w", kv[0], err))
		}
	}
	s.setSession(token, creds)
	s.phase = PhaseAuthenticated
	s.log.Info("session started", zap.String("username", creds.Username))
	return errors.Join(errs...)
}

// Restore loads a session persisted by an earlier login. Expired or missing
// entries leave the session anonymous.
func (s *UserStore) Restore() Action {
	return Action{
		Name: "Restore",
		Prepare: func() {
			token, ok := s.storage.Get(localstore.AccessToken)
			if !ok || token == "" {
				return
			}
			username, _ := s.storage.Get(localstore.Username)
			password, _ := s.storage.Get(localstore.Password)
			creds := model.Credentials{Username: username, Password: password}
			// the username stands in for the token after basic-auth logins
			if token != username {
				creds.Token = token
			}
			s.setSession(token, creds)
			s.phase = PhaseAuthenticated
		},
	}
}

// GetInfo fetches the profile of the logged in user. A 401 ends the session.
func (s *UserStore) GetInfo() Action {
	return Action{
		Name:    "GetInfo",
		Prepare: func() { s.setError(nil) },
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			info, err := userEndpoint.fetch(ctx, api, nil)
			return func() {
				if err != nil {
					if transport.IsUnauthorized(err) {
						s.log.Info("session rejected by server, logging out")
						s.purge()
					}
					s.setError(err)
					return
				}
				s.info = &info
				s.name = info.Name
				s.avatar = info.Avatar
				s.roles = []string{info.RoleID}
				s.welcome = Greeting(s.now())
			}
		},
	}
}

// RefreshToken swaps the current token for a fresh one and extends the
// stored session.
func (s *UserStore) RefreshToken() Action {
	return Action{
		Name:    "RefreshToken",
		Prepare: func() { s.setError(nil) },
		Request: func(ctx context.Context, api transport.Adapter) Commit {
			out, err := refreshEndpoint.fetch(ctx, api, nil)
			return func() {
				if err != nil {
					if transport.IsUnauthorized(err) {
						s.purge()
					}
					s.setError(err)
					return
				}
				if out.Token == "" {
					s.setError(errors.New("refresh returned an empty token"))
					return
				}
				creds := s.Credentials()
				creds.Token = out.Token
				s.setError(s.loginSuccess(creds))
			}
		},
	}
}

// Logout forgets the session locally. The server is not contacted.
func (s *UserStore) Logout() Action {
	return Action{
		Name: "Logout",
		Prepare: func() {
			s.setError(nil)
			s.purge()
		},
	}
}

// purge drops the token and credentials from memory and storage. Profile
// fields are left as last fetched.
func (s *UserStore) purge() {
	s.setSession("", model.Credentials{})
	s.phase = PhaseAnonymous
	for _, key := range []string{localstore.AccessToken, localstore.Username, localstore.Password} {
		if err := s.storage.Remove(key); err != nil {
			s.log.Warn("failed to remove session key", zap.String("key", key), zap.Error(err))
		}
	}
}

// Greeting is the welcome line for the hour of t.
func Greeting(t time.Time) string {
	switch h := t.Hour(); {
	case h < 12:
		return "Good morning"
	case h < 18:
		return "Good afternoon"
	default:
		return "Good evening"
	}
}
