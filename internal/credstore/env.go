package credstore

import (
	"fmt"
	"os"
)

// EnvStore seeds credentials from environment variables once at construction
// and holds them in process memory afterwards. Refreshed access tokens are
// kept for the lifetime of the process only; the environment is never
// modified.
type EnvStore struct {
	*MemoryStore
}

// Compile-time check to ensure EnvStore implements Store
var _ Store = (*EnvStore)(nil)

// NewEnvStore creates an EnvStore from the given environment variable names.
// Returns error if a name is empty or neither variable is set.
func NewEnvStore(accessKey, refreshKey string) (*EnvStore, error) {
	if accessKey == "" || refreshKey == "" {
		return nil, fmt.Errorf("environment keys cannot be empty")
	}

	access, accessSet := os.LookupEnv(accessKey)
	refresh, refreshSet := os.LookupEnv(refreshKey)
	if !accessSet && !refreshSet {
		return nil, fmt.Errorf("neither %s nor %s is set", accessKey, refreshKey)
	}

	return &EnvStore{
		MemoryStore: NewMemoryStore(Credentials{Access: access, Refresh: refresh}),
	}, nil
}
