package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dompetku/walletgate/internal/credstore"
	"github.com/dompetku/walletgate/internal/gateway"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// CredentialStorageType represents the backends the session pair can be stored in.
type CredentialStorageType string

const (
	CredentialStorageFile    CredentialStorageType = "file"
	CredentialStorageKeyring CredentialStorageType = "keyring"
	CredentialStorageEnv     CredentialStorageType = "env"
	CredentialStorageRedis   CredentialStorageType = "redis"
	CredentialStorageMemory  CredentialStorageType = "memory"
)

// Default configuration values
const (
	DefaultConfigLogFormat        = LogFormatText
	DefaultConfigAPIBaseURL       = "http://localhost:8080"
	DefaultConfigAPITimeout       = 30 * time.Second
	DefaultConfigAPIRefreshPath   = gateway.DefaultRefreshPath
	DefaultConfigAPIExpiredStatus = gateway.DefaultExpiredStatus
	DefaultConfigServerHost       = "127.0.0.1"
	DefaultConfigServerPort       = 4080
	DefaultConfigShutdownTimeout  = 5 * time.Second
	DefaultConfigAuthStorage      = CredentialStorageFile
	DefaultConfigKeyringService   = "walletgate"
	DefaultConfigEnvPrefix        = "WALLETGATE_"
	DefaultConfigRedisPrefix      = "walletgate:"
)

// APIConfig holds wallet backend configuration.
type APIConfig struct {
	BaseURL string `json:"base_url" validate:"required,url"`

	// Timeout bounds a whole call, including waiting on a refresh and the replay.
	Timeout time.Duration `json:"timeout" validate:"gt=0"`

	RefreshPath string `json:"refresh_path" validate:"required,startswith=/"`

	// ExpiredStatus is the HTTP status the backend uses for an expired access token.
	ExpiredStatus int `json:"expired_status" validate:"oneof=401 403"`
}

// RefreshURL returns the absolute refresh endpoint.
func (a *APIConfig) RefreshURL() string {
	return strings.TrimSuffix(a.BaseURL, "/") + a.RefreshPath
}

// ServerConfig holds forwarder-specific configuration.
type ServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"` // Port range 0-65535 handled by uint16 type
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// DonationConfig holds the donation target.
type DonationConfig struct {
	Account string `json:"account,omitempty" validate:"omitempty,numeric"`
}

// AuthConfig describes where the session pair is stored.
type AuthConfig struct {
	Storage CredentialStorageType `json:"storage" validate:"required,oneof=file keyring env redis memory"`

	// Storage-specific settings, used according to Storage
	Dir            string `json:"dir,omitempty"`             // file: directory holding one file per token
	KeyringService string `json:"keyring_service,omitempty"` // keyring: service name
	EnvPrefix      string `json:"env_prefix,omitempty"`      // env: variable prefix
	RedisURL       string `json:"redis_url,omitempty"`       // redis: connection URL
	RedisPrefix    string `json:"redis_prefix,omitempty"`    // redis: key prefix
}

// NewStore creates the credential Store described by the configuration.
func (a *AuthConfig) NewStore() (credstore.Store, error) {
	switch a.Storage {
	case CredentialStorageFile:
		return credstore.NewFileStore(a.Dir)
	case CredentialStorageKeyring:
		return credstore.NewKeyringStore(a.KeyringService)
	case CredentialStorageEnv:
		return credstore.NewEnvStore(a.EnvPrefix)
	case CredentialStorageRedis:
		return credstore.NewRedisStore(a.RedisURL, a.RedisPrefix)
	case CredentialStorageMemory:
		return credstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level     `json:"log_level"`
	LogFormat LogFormat      `json:"log_format" validate:"oneof=text json"`
	API       APIConfig      `json:"api"`
	Auth      AuthConfig     `json:"auth"`
	Server    ServerConfig   `json:"server"`
	Shutdown  ShutdownConfig `json:"shutdown"`
	Donation  DonationConfig `json:"donation"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultConfigAPIBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultConfigAPITimeout
	}
	if c.API.RefreshPath == "" {
		c.API.RefreshPath = DefaultConfigAPIRefreshPath
	}
	if c.API.ExpiredStatus == 0 {
		c.API.ExpiredStatus = DefaultConfigAPIExpiredStatus
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
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case CredentialStorageFile:
		if c.Auth.Dir == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.dir required (auto-detect failed: %w)", err)
			}
			c.Auth.Dir = filepath.Join(configDir, "walletgate")
		}
	case CredentialStorageKeyring:
		if c.Auth.KeyringService == "" {
			c.Auth.KeyringService = DefaultConfigKeyringService
		}
	case CredentialStorageEnv:
		if c.Auth.EnvPrefix == "" {
			c.Auth.EnvPrefix = DefaultConfigEnvPrefix
		}
	case CredentialStorageRedis:
		if c.Auth.RedisPrefix == "" {
			c.Auth.RedisPrefix = DefaultConfigRedisPrefix
		}
		// redis_url must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	switch c.Auth.Storage {
	case CredentialStorageFile:
		if c.Auth.Dir == "" {
			return errors.New("auth.dir required for file storage")
		}
	case CredentialStorageKeyring:
		if c.Auth.KeyringService == "" {
			return errors.New("auth.keyring_service required for keyring storage")
		}
	case CredentialStorageEnv:
		if c.Auth.EnvPrefix == "" {
			return errors.New("auth.env_prefix required for env storage")
		}
	case CredentialStorageRedis:
		if c.Auth.RedisURL == "" {
			return errors.New("auth.redis_url required for redis storage")
		}
	}

	return nil
}
