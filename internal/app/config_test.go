package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Default()
	if err != nil {
		t.Fatalf("Default() error = %v", err)
	}

	if cfg.API.BaseURL != DefaultConfigAPIBaseURL {
		t.Errorf("API.BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("API.Timeout = %v", cfg.API.Timeout)
	}
	if cfg.Credentials.Storage != CredentialStorageFile {
		t.Errorf("Credentials.Storage = %q", cfg.Credentials.Storage)
	}
	if !strings.HasSuffix(cfg.Credentials.File, filepath.Join("fintrack", "credentials.json")) {
		t.Errorf("Credentials.File = %q", cfg.Credentials.File)
	}
	if cfg.Log.Exporter != "none" {
		t.Errorf("Log.Exporter = %q", cfg.Log.Exporter)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestApplyDefaultsEnvStorage(t *testing.T) {
	cfg := &Config{Credentials: CredentialsConfig{Storage: CredentialStorageEnv}}
	if err := cfg.ApplyDefaults(); err != nil {
		t.Fatalf("ApplyDefaults() error = %v", err)
	}
	if cfg.Credentials.AccessEnv != "FINTRACK_ACCESS_TOKEN" || cfg.Credentials.RefreshEnv != "FINTRACK_REFRESH_TOKEN" {
		t.Errorf("env names = %q/%q", cfg.Credentials.AccessEnv, cfg.Credentials.RefreshEnv)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{Credentials: CredentialsConfig{Storage: CredentialStorageMemory}}
		if err := cfg.ApplyDefaults(); err != nil {
			t.Fatalf("ApplyDefaults() error = %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "json format", mutate: func(c *Config) { c.LogFormat = LogFormatJSON }},
		{name: "unknown format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true},
		{name: "invalid base url", mutate: func(c *Config) { c.API.BaseURL = "not a url" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.API.Timeout = 0 }, wantErr: true},
		{name: "invalid host", mutate: func(c *Config) { c.Server.Host = "bad host!" }, wantErr: true},
		{name: "unknown storage", mutate: func(c *Config) { c.Credentials.Storage = "vault" }, wantErr: true},
		{name: "unknown exporter", mutate: func(c *Config) { c.Log.Exporter = "zipkin" }, wantErr: true},
		{
			name: "otlp endpoint",
			mutate: func(c *Config) {
				c.Log.Exporter = "otlp-http"
				c.Log.Endpoint = "http://localhost:4318/v1/logs"
			},
		},
		{name: "endpoint without otlp", mutate: func(c *Config) { c.Log.Endpoint = "http://localhost:4318" }, wantErr: true},
		{
			name: "file storage without path",
			mutate: func(c *Config) {
				c.Credentials.Storage = CredentialStorageFile
				c.Credentials.File = ""
			},
			wantErr: true,
		},
		{
			name: "env storage with same variable",
			mutate: func(c *Config) {
				c.Credentials.Storage = CredentialStorageEnv
				c.Credentials.AccessEnv = "TOKENS"
				c.Credentials.RefreshEnv = "TOKENS"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewStore(t *testing.T) {
	t.Setenv("FINTRACK_TEST_ACCESS", "a1")
	t.Setenv("FINTRACK_TEST_REFRESH", "r1")

	tests := []struct {
		name string
		cfg  CredentialsConfig
		want string
	}{
		{name: "file", cfg: CredentialsConfig{Storage: CredentialStorageFile, File: filepath.Join(t.TempDir(), "creds.json")}, want: "*credstore.FileStore"},
		{name: "env", cfg: CredentialsConfig{Storage: CredentialStorageEnv, AccessEnv: "FINTRACK_TEST_ACCESS", RefreshEnv: "FINTRACK_TEST_REFRESH"}, want: "*credstore.EnvStore"},
		{name: "memory", cfg: CredentialsConfig{Storage: CredentialStorageMemory}, want: "*credstore.MemoryStore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := tt.cfg.NewStore()
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if got := fmt.Sprintf("%T", store); got != tt.want {
				t.Errorf("NewStore() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := (&CredentialsConfig{Storage: "vault"}).NewStore(); err == nil {
		t.Error("unknown storage should fail")
	}
}
