// Package localstore is the console's durable client-side storage: a small
// key/value store with per-key expiry, every key namespaced under a fixed
// prefix, persisted as JSON next to the config file.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// Namespace prefixes every stored key.
	Namespace = "keel__"

	stateDirName  = ".keelctl"
	stateFileName = "session.json"
)

// Session keys.
const (
	AccessToken = "Access-Token"
	Username    = "Username"
	Password    = "Password"
)

// Storage is the durable store the session writes through.
type Storage interface {
	Set(key, value string, ttl time.Duration) error
	// Get returns the value and true when the key exists and has not expired.
	Get(key string) (string, bool)
	Remove(key string) error
}

type entry struct {
	Value   string    `json:"value"`
	Expires time.Time `json:"expires,omitempty"`
}

func (e entry) expired(now time.Time) bool {
	return !e.Expires.IsZero() && !now.Before(e.Expires)
}

// FileStore persists entries to a JSON file. A nil path keeps everything in
// memory.
type FileStore struct {
	mu      sync.Mutex
	path    string
	now     func() time.Time
	entries map[string]entry
}

var _ Storage = (*FileStore)(nil)

// DefaultPath is ~/.keelctl/session.json.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, stateDirName, stateFileName), nil
}

// Open loads the store at path. A missing or empty file is an empty store.
func Open(path string) (*FileStore, error) {
	s := &FileStore{path: path, now: time.Now, entries: map[string]entry{}}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if len(b) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.entries); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if s.entries == nil {
		s.entries = map[string]entry{}
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *FileStore {
	s, _ := Open("")
	return s
}

// SetClock replaces the time source used for expiry.
func (s *FileStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *FileStore) Set(key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{Value: value}
	if ttl > 0 {
		e.Expires = s.now().Add(ttl)
	}
	s.entries[Namespace+key] = e
	return s.saveLocked()
}

func (s *FileStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[Namespace+key]
	if !ok {
		return "", false
	}
	if e.expired(s.now()) {
		delete(s.entries, Namespace+key)
		_ = s.saveLocked()
		return "", false
	}
	return e.Value, true
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[Namespace+key]; !ok {
		return nil
	}
	delete(s.entries, Namespace+key)
	return s.saveLocked()
}

// Keys lists the unexpired keys without the namespace prefix.
func (s *FileStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		if e.expired(now) || len(k) < len(Namespace) || k[:len(Namespace)] != Namespace {
			continue
		}
		out = append(out, k[len(Namespace):])
	}
	return out
}

func (s *FileStore) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
