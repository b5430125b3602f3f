package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	pkgconfig "github.com/starford/notetoself/pkg/config"
)

// EnvPrefix prefixes every environment override, e.g. NOTETOSELF_CLIENT_REMOTE_URL.
const EnvPrefix = "NOTETOSELF_"

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Registry backends.
const (
	BackendMemory = "memory"
	BackendFS     = "fs"
	BackendSQLite = "sqlite"
	BackendMinIO  = "minio"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app" envPrefix:"APP_"`
	Registry RegistryConfig    `yaml:"registry" envPrefix:"REGISTRY_"`
	Auth     AuthConfig        `yaml:"auth" envPrefix:"AUTH_"`
	Client   ClientConfig      `yaml:"client" envPrefix:"CLIENT_"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Client.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" env:"LOG_LEVEL"`
	HTTP     HTTPConfig `yaml:"http" envPrefix:"HTTP_"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// RegistryConfig selects and configures the backend that stores entries.
type RegistryConfig struct {
	Backend   string        `yaml:"backend" env:"BACKEND"`
	Heartbeat time.Duration `yaml:"heartbeat" env:"HEARTBEAT"`
	FS        FSConfig      `yaml:"fs" envPrefix:"FS_"`
	SQLite    SQLiteConfig  `yaml:"sqlite" envPrefix:"SQLITE_"`
	MinIO     MinIOConfig   `yaml:"minio" envPrefix:"MINIO_"`
}

// Validate validates the registry configuration and the selected backend.
func (c *RegistryConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Backend, validation.Required,
			validation.In(BackendMemory, BackendFS, BackendSQLite, BackendMinIO)),
		validation.Field(&c.Heartbeat, validation.Min(time.Second)),
	); err != nil {
		return err
	}
	switch c.Backend {
	case BackendFS:
		return c.FS.Validate()
	case BackendSQLite:
		return c.SQLite.Validate()
	case BackendMinIO:
		return c.MinIO.Validate()
	}
	return nil
}

// FSConfig holds the directory entries are written to.
type FSConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// Validate validates the filesystem backend configuration.
func (c *FSConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// MinIOConfig holds object storage configuration.
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint" env:"ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	Bucket    string `yaml:"bucket" env:"BUCKET"`
	UseSSL    bool   `yaml:"use_ssl" env:"USE_SSL"`
}

// Validate validates the MinIO configuration.
func (c *MinIOConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Endpoint, validation.Required),
		validation.Field(&c.AccessKey, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.Bucket, validation.Required, validation.Length(3, 63)),
	)
}

// AuthConfig holds registry authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): anyone may read and write signed entries.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// Writes are always signature-checked regardless of mode.
type AuthConfig struct {
	Mode  string `yaml:"mode" env:"MODE"`
	Token string `yaml:"token" env:"TOKEN"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ClientConfig configures the commands that act on a notebook.
//
// With an empty RemoteURL the client opens the registry backend in-process.
type ClientConfig struct {
	RemoteURL     string        `yaml:"remote_url" env:"REMOTE_URL"`
	Token         string        `yaml:"token" env:"TOKEN"`
	Timeout       time.Duration `yaml:"timeout" env:"TIMEOUT"`
	DraftsPath    string        `yaml:"drafts_path" env:"DRAFTS_PATH"`
	SuccessWindow time.Duration `yaml:"success_window" env:"SUCCESS_WINDOW"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RemoteURL, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.SuccessWindow, validation.Min(time.Duration(0))),
	)
}

// Embedded reports whether the client talks to the backend in-process.
func (c *ClientConfig) Embedded() bool {
	return c.RemoteURL == ""
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Registry: RegistryConfig{
			Backend:   BackendSQLite,
			Heartbeat: 30 * time.Second,
			FS:        FSConfig{Path: "./data/entries"},
			SQLite:    SQLiteConfig{Path: "./data/notetoself.db"},
			MinIO:     MinIOConfig{Bucket: "notetoself"},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Client: ClientConfig{
			Timeout:       15 * time.Second,
			DraftsPath:    "./drafts",
			SuccessWindow: 5 * time.Second,
		},
	}
}

// LoadConfig reads path over the defaults, applies NOTETOSELF_ environment
// overrides and validates the result. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := pkgconfig.LoadWithDefaults(path, cfg, pkgconfig.WithEnvPrefix(EnvPrefix)); err != nil {
		return nil, err
	}
	return cfg, nil
}
