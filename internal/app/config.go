package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/fintrack/internal/credstore"
	"github.com/florianilch/fintrack/internal/observability"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// CredentialStorageType represents where the API credentials are kept.
type CredentialStorageType string

const (
	CredentialStorageFile    CredentialStorageType = "file"
	CredentialStorageKeyring CredentialStorageType = "keyring"
	CredentialStorageEnv     CredentialStorageType = "env"
	CredentialStorageMemory  CredentialStorageType = "memory"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigLogExporter     = observability.ExporterNone
	DefaultConfigAPIBaseURL      = "http://127.0.0.1:8000/api"
	DefaultConfigAPITimeout      = 30 * time.Second
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 4100
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigStorage         = CredentialStorageFile
	DefaultConfigAccessEnv       = "FINTRACK_ACCESS_TOKEN"
	DefaultConfigRefreshEnv      = "FINTRACK_REFRESH_TOKEN"

	// KeyringService is the keyring service name credentials are stored under.
	KeyringService = "fintrack"
)

// LogConfig holds OpenTelemetry log export settings.
type LogConfig struct {
	Exporter string `json:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
}

// APIConfig holds settings for the finance API.
type APIConfig struct {
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
}

// ServerConfig holds settings for the local proxy server.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// CredentialsConfig describes how to construct the credential store.
type CredentialsConfig struct {
	Storage CredentialStorageType `json:"storage" validate:"required,oneof=file keyring env memory"`

	// Storage-specific settings
	File        string `json:"file,omitempty"`         // file: path to the credentials file
	KeyringUser string `json:"keyring_user,omitempty"` // keyring: user identifier
	AccessEnv   string `json:"access_env,omitempty"`   // env: variable holding the access token
	RefreshEnv  string `json:"refresh_env,omitempty"`  // env: variable holding the refresh token
}

// NewStore creates the credential store described by the configuration.
func (c *CredentialsConfig) NewStore() (credstore.Store, error) {
	switch c.Storage {
	case CredentialStorageFile:
		return credstore.NewFileStore(c.File)
	case CredentialStorageKeyring:
		return credstore.NewKeyringStore(KeyringService, c.KeyringUser)
	case CredentialStorageEnv:
		return credstore.NewEnvStore(c.AccessEnv, c.RefreshEnv)
	case CredentialStorageMemory:
		return credstore.NewMemoryStore(credstore.Credentials{}), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel    slog.Level        `json:"log_level"`
	LogFormat   LogFormat         `json:"log_format" validate:"oneof=text json"`
	Log         LogConfig         `json:"log"`
	API         APIConfig         `json:"api"`
	Server      ServerConfig      `json:"server"`
	Shutdown    ShutdownConfig    `json:"shutdown"`
	Credentials CredentialsConfig `json:"credentials"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ObservabilityOptions returns the logging setup derived from the configuration.
func (c *Config) ObservabilityOptions() observability.Options {
	return observability.Options{
		Level:    c.LogLevel,
		Format:   string(c.LogFormat),
		Exporter: c.Log.Exporter,
		Endpoint: c.Log.Endpoint,
	}
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Log.Exporter == "" {
		c.Log.Exporter = DefaultConfigLogExporter
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultConfigServerPort
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Credentials.Storage == "" {
		c.Credentials.Storage = DefaultConfigStorage
	}

	// Dynamic defaults based on storage type
	switch c.Credentials.Storage {
	case CredentialStorageFile:
		if c.Credentials.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("credentials.file required (auto-detect failed: %w)", err)
			}
			c.Credentials.File = filepath.Join(configDir, "fintrack", "credentials.json")
		}
	case CredentialStorageKeyring:
		if c.Credentials.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("credentials.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Credentials.KeyringUser = currentUser.Username
		}
	case CredentialStorageEnv:
		if c.Credentials.AccessEnv == "" {
			c.Credentials.AccessEnv = DefaultConfigAccessEnv
		}
		if c.Credentials.RefreshEnv == "" {
			c.Credentials.RefreshEnv = DefaultConfigRefreshEnv
		}
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Log.Endpoint != "" && (c.Log.Exporter == observability.ExporterNone || c.Log.Exporter == observability.ExporterStdout) {
		return fmt.Errorf("log.endpoint has no effect with exporter %q", c.Log.Exporter)
	}

	switch c.Credentials.Storage {
	case CredentialStorageFile:
		if c.Credentials.File == "" {
			return errors.New("file path required for file storage")
		}
	case CredentialStorageKeyring:
		if c.Credentials.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	case CredentialStorageEnv:
		if c.Credentials.AccessEnv == "" || c.Credentials.RefreshEnv == "" {
			return errors.New("access_env and refresh_env required for env storage")
		}
		if c.Credentials.AccessEnv == c.Credentials.RefreshEnv {
			return errors.New("access_env and refresh_env must differ")
		}
	}

	return nil
}
