package localstore

import (
	"time"

	"github.com/keel-hq/keelctl/internal/keychain"
)

// Keyring is the subset of the OS keychain the secret store needs.
type Keyring interface {
	Set(service, account, value string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

type systemKeyring struct{}

func (systemKeyring) Set(service, account, value string) error { return keychain.Set(service, account, value) }
func (systemKeyring) Get(service, account string) (string, error) {
	return keychain.Get(service, account)
}
func (systemKeyring) Delete(service, account string) error { return keychain.Delete(service, account) }

// SystemKeyring is backed by security(1) or secret-tool(1).
var SystemKeyring Keyring = systemKeyring{}

// SecretStore keeps the values of the listed keys in a keyring while the
// base store tracks their expiry. Other keys go straight to the base store.
type SecretStore struct {
	base    Storage
	ring    Keyring
	secrets map[string]struct{}
}

var _ Storage = (*SecretStore)(nil)

// secretMarker is written to the base store in place of a keyring value.
const secretMarker = "@keychain"

func NewSecretStore(base Storage, ring Keyring, keys ...string) *SecretStore {
	secrets := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		secrets[k] = struct{}{}
	}
	return &SecretStore{base: base, ring: ring, secrets: secrets}
}

func (s *SecretStore) isSecret(key string) bool {
	_, ok := s.secrets[key]
	return ok
}

func (s *SecretStore) Set(key, value string, ttl time.Duration) error {
	if !s.isSecret(key) {
		return s.base.Set(key, value, ttl)
	}
	if err := s.ring.Set(keychain.Service, Namespace+key, value); err != nil {
		return err
	}
	return s.base.Set(key, secretMarker, ttl)
}

func (s *SecretStore) Get(key string) (string, bool) {
	v, ok := s.base.Get(key)
	if !ok {
		if s.isSecret(key) {
			_ = s.ring.Delete(keychain.Service, Namespace+key)
		}
		return "", false
	}
	if !s.isSecret(key) || v != secretMarker {
		return v, true
	}
	secret, err := s.ring.Get(keychain.Service, Namespace+key)
	if err != nil || secret == "" {
		return "", false
	}
	return secret, true
}

func (s *SecretStore) Remove(key string) error {
	if s.isSecret(key) {
		_ = s.ring.Delete(keychain.Service, Namespace+key)
	}
	return s.base.Remove(key)
}
