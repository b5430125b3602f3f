// Package config provides YAML-based configuration loading with environment
// variable expansion and overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

type loadOptions struct {
	envPrefix string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithEnvPrefix sets the prefix prepended to every `env` tag when applying
// environment overrides.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) {
		o.envPrefix = prefix
	}
}

// Load loads configuration from a YAML file with environment variable
// expansion, then applies environment overrides declared with `env` tags.
func Load[T any](filename string, target *T, opts ...LoadOption) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	return finish(target, opts)
}

// LoadWithDefaults loads filename when it exists. Otherwise target keeps its
// current values and only environment overrides are applied.
func LoadWithDefaults[T any](filename string, target *T, opts ...LoadOption) error {
	if filename != "" {
		if _, err := os.Stat(filename); err == nil {
			return Load(filename, target, opts...)
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat config file %s: %w", filename, err)
		}
	}
	return finish(target, opts)
}

// MustLoad loads configuration and panics on failure.
func MustLoad[T any](filename string, target *T, opts ...LoadOption) {
	if err := Load(filename, target, opts...); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
}

func finish[T any](target *T, opts []LoadOption) error {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := env.ParseWithOptions(target, env.Options{Prefix: o.envPrefix}); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}

	return nil
}
