package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringStore provides OS-native secure credential storage.
// Uses macOS Keychain, Windows Credential Manager, or Linux Secret Service.
// Both tokens are kept in one JSON-encoded secret.
type KeyringStore struct {
	service string
	user    string

	mu sync.Mutex
}

// Compile-time check to ensure KeyringStore implements Store
var _ Store = (*KeyringStore)(nil)

// NewKeyringStore creates a KeyringStore for the OS-native credential storage
// using the given service and user identifiers.
func NewKeyringStore(service, user string) (*KeyringStore, error) {
	if service == "" {
		return nil, fmt.Errorf("service cannot be empty")
	}
	if user == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}

	return &KeyringStore{
		service: service,
		user:    user,
	}, nil
}

// Load returns the credentials from the system keyring. A missing entry yields zero Credentials.
func (k *KeyringStore) Load(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return k.read()
}

// Save persists both tokens, overwriting any existing value.
func (k *KeyringStore) Save(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	return k.write(creds)
}

// UpdateAccess replaces the access token if refresh is still the stored refresh token.
func (k *KeyringStore) UpdateAccess(ctx context.Context, refresh, access string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	creds, err := k.read()
	if err != nil {
		return err
	}
	if refresh == "" || creds.Refresh != refresh {
		return ErrCredentialsChanged
	}
	creds.Access = access
	return k.write(creds)
}

// Clear deletes the keyring entry. Clearing an empty store is not an error.
func (k *KeyringStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if err := keyring.Delete(k.service, k.user); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return err
	}
	return nil
}

func (k *KeyringStore) read() (Credentials, error) {
	secret, err := keyring.Get(k.service, k.user)
	if errors.Is(err, keyring.ErrNotFound) {
		return Credentials{}, nil
	}
	if err != nil {
		return Credentials{}, err
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(secret), &creds); err != nil {
		return Credentials{}, fmt.Errorf("decoding keyring entry for service %s, user %s: %w", k.service, k.user, err)
	}
	return creds, nil
}

func (k *KeyringStore) write(creds Credentials) error {
	secret, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}
	return keyring.Set(k.service, k.user, string(secret))
}
