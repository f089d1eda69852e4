// Copyright 2026 The Taskdeck Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvVar is the environment variable Load reads the config path from.
const EnvVar = "TASKDECK_CONFIG"

// Config is the master configuration for the taskdeck service.
type Config struct {
	// ListenAddress is the TCP address the HTTP API binds to.
	ListenAddress string `yaml:"listen_address" json:"listen_address"`

	// DatabasePath is the SQLite database file. The parent directory
	// must exist.
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// PoolSize is the SQLite connection pool size. Zero means the
	// pool default.
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// ShutdownTimeoutSeconds bounds graceful HTTP shutdown. Zero
	// means the server default.
	ShutdownTimeoutSeconds int `yaml:"shutdown_timeout_seconds" json:"shutdown_timeout_seconds"`

	// Generator configures the AI task-generation backend. When
	// Endpoint is empty the service uses a deterministic local
	// generator, which is only useful for development.
	Generator GeneratorConfig `yaml:"generator" json:"generator"`
}

// GeneratorConfig configures the AI preview backend.
type GeneratorConfig struct {
	// Endpoint is the base URL of the generation API.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// TokenFile is a file containing the bearer token, read at
	// startup. Kept out of the config file itself so the config can
	// be committed.
	TokenFile string `yaml:"token_file" json:"token_file"`

	// Model names the generation model, passed through verbatim.
	Model string `yaml:"model" json:"model"`

	// TimeoutSeconds bounds a single preview request. Zero means 60.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Timeout returns the configured request timeout.
func (g GeneratorConfig) Timeout() time.Duration {
	if g.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// Default returns a Config with development defaults.
func Default() *Config {
	return &Config{
		ListenAddress: "127.0.0.1:8478",
		DatabasePath:  "${HOME}/.local/share/taskdeck/tasks.db",
	}
}

// Load reads the config file named by TASKDECK_CONFIG. Returns
// Default() when the variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		cfg := Default()
		cfg.expandPaths()
		return cfg, nil
	}
	return LoadFile(path)
}

// LoadFile reads and validates a config file. YAML files are decoded
// strictly (unknown fields are errors); JSON/JSONC files have
// comments stripped and are decoded through the same struct tags.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// jsonc.ToJSON rewrites comments and trailing commas into
		// valid JSON in place; YAML is a JSON superset, so one
		// decoder serves both formats.
		if err := yaml.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	cfg.expandPaths()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks invariants that hold for every environment.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return fmt.Errorf("listen_address is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("pool_size must not be negative")
	}
	if c.Generator.Endpoint != "" && c.Generator.TokenFile == "" {
		return fmt.Errorf("generator.token_file is required when generator.endpoint is set")
	}
	return nil
}

// expandPaths expands ${VAR} and ${VAR:-default} in path fields.
func (c *Config) expandPaths() {
	c.DatabasePath = expandVars(c.DatabasePath)
	c.Generator.TokenFile = expandVars(c.Generator.TokenFile)
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		if groups[2] != "" {
			return groups[3]
		}
		return ""
	})
}
