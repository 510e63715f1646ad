package credstore

import (
	"context"
	"sync"
)

// MemoryStore keeps credentials in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore holding the given initial credentials.
func NewMemoryStore(initial Credentials) *MemoryStore {
	return &MemoryStore{creds: initial}
}

// Load returns the current credentials.
func (m *MemoryStore) Load(ctx context.Context) (Credentials, error) {
	if err := ctx.Err(); err != nil {
		return Credentials{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creds, nil
}

// Save replaces both tokens.
func (m *MemoryStore) Save(ctx context.Context, creds Credentials) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.creds = creds
	m.mu.Unlock()
	return nil
}

// UpdateAccess replaces the access token if refresh is still the stored refresh token.
func (m *MemoryStore) UpdateAccess(ctx context.Context, refresh, access string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if refresh == "" || m.creds.Refresh != refresh {
		return ErrCredentialsChanged
	}
	m.creds.Access = access
	return nil
}

// Clear removes both tokens.
func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.creds = Credentials{}
	m.mu.Unlock()
	return nil
}
