package localstore

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(Username, "admin", time.Hour))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]entry
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Contains(t, raw, Namespace+Username)

	reopened, err := Open(path)
	require.NoError(t, err)
	v, ok := reopened.Get(Username)
	require.True(t, ok)
	assert.Equal(t, "admin", v)
}

func TestFileStoreExpiry(t *testing.T) {
	now := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemory()
	s.SetClock(func() time.Time { return now })
	require.NoError(t, s.Set(AccessToken, "t", 7*24*time.Hour))
	require.NoError(t, s.Set(Username, "forever", 0))

	now = now.Add(7*24*time.Hour - time.Second)
	_, ok := s.Get(AccessToken)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = s.Get(AccessToken)
	assert.False(t, ok)
	assert.Equal(t, []string{Username}, s.Keys())
}

func TestFileStoreRemove(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Set(Password, "p", 0))
	require.NoError(t, s.Remove(Password))
	require.NoError(t, s.Remove(Password))
	_, ok := s.Get(Password)
	assert.False(t, ok)
	assert.Empty(t, s.Keys())
}

func TestOpenTolerantOfMissingAndEmptyFiles(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "missing.json"))
	require.NoError(t, err)
	assert.Empty(t, s.Keys())

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	s, err = Open(empty)
	require.NoError(t, err)
	assert.Empty(t, s.Keys())

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o600))
	_, err = Open(broken)
	assert.Error(t, err)
}

type fakeRing struct {
	values map[string]string
	fail   bool
}

func newFakeRing() *fakeRing { return &fakeRing{values: map[string]string{}} }

func (f *fakeRing) Set(service, account, value string) error {
	if f.fail {
		return errors.New("keyring locked")
	}
	f.values[service+"/"+account] = value
	return nil
}

func (f *fakeRing) Get(service, account string) (string, error) {
	v, ok := f.values[service+"/"+account]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (f *fakeRing) Delete(service, account string) error {
	delete(f.values, service+"/"+account)
	return nil
}

func TestSecretStoreKeepsSecretsInKeyring(t *testing.T) {
	base := NewMemory()
	ring := newFakeRing()
	s := NewSecretStore(base, ring, Password, AccessToken)

	require.NoError(t, s.Set(Password, "hunter2", time.Hour))
	require.NoError(t, s.Set(Username, "admin", time.Hour))

	raw, ok := base.Get(Password)
	require.True(t, ok)
	assert.Equal(t, secretMarker, raw)
	assert.Equal(t, "hunter2", ring.values["keelctl/"+Namespace+Password])

	v, ok := s.Get(Password)
	require.True(t, ok)
	assert.Equal(t, "hunter2", v)

	v, ok = s.Get(Username)
	require.True(t, ok)
	assert.Equal(t, "admin", v)
	assert.Len(t, ring.values, 1)
}

func TestSecretStoreExpiryClearsKeyring(t *testing.T) {
	now := time.Now()
	base := NewMemory()
	base.SetClock(func() time.Time { return now })
	ring := newFakeRing()
	s := NewSecretStore(base, ring, Password)

	require.NoError(t, s.Set(Password, "hunter2", time.Minute))
	now = now.Add(time.Hour)

	_, ok := s.Get(Password)
	assert.False(t, ok)
	assert.Empty(t, ring.values)
}

func TestSecretStoreRemoveAndFailures(t *testing.T) {
	base := NewMemory()
	ring := newFakeRing()
	s := NewSecretStore(base, ring, Password)

	require.NoError(t, s.Set(Password, "hunter2", 0))
	require.NoError(t, s.Remove(Password))
	assert.Empty(t, ring.values)
	assert.Empty(t, base.Keys())

	ring.fail = true
	assert.Error(t, s.Set(Password, "x", 0))
	_, ok := base.Get(Password)
	assert.False(t, ok)
}
