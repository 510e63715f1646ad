package credstore

import (
	"context"
	"errors"
)

// ErrCredentialsChanged is returned by UpdateAccess when the stored refresh
// token is no longer the one the new access token was minted from.
var ErrCredentialsChanged = errors.New("stored credentials changed")

// Credentials is the stored credential pair. An empty field means the entry
// is absent.
type Credentials struct {
	Access  string `json:"access,omitempty"`
	Refresh string `json:"refresh,omitempty"`
}

// IsZero reports whether neither token is present.
func (c Credentials) IsZero() bool {
	return c.Access == "" && c.Refresh == ""
}

// Store reads and writes the credential pair.
//
// Implementations are safe for concurrent use.
type Store interface {
	// Load returns the stored credentials. A store with nothing saved returns
	// zero Credentials and no error.
	Load(ctx context.Context) (Credentials, error)

	// Save replaces both tokens, as done on sign-in.
	Save(ctx context.Context, creds Credentials) error

	// UpdateAccess replaces the access token and keeps the refresh token,
	// provided the stored refresh token still equals refresh. Otherwise the
	// store is left untouched and ErrCredentialsChanged is returned.
	UpdateAccess(ctx context.Context, refresh, access string) error

	// Clear removes both tokens in a single operation.
	Clear(ctx context.Context) error
}
