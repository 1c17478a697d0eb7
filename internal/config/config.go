// Package config loads the atelier.yaml file of a studio deployment.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/aretw0/atelier/pkg/progress"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "atelier.yaml"

// EnvEncryptionKey overrides Store.EncryptionKey.
const EnvEncryptionKey = "ATELIER_ENCRYPTION_KEY"

// Store backends.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of atelier.yaml.
type Config struct {
	LogLevel string  `yaml:"log_level" json:"log_level"`
	Store    Store   `yaml:"store" json:"store"`
	History  History `yaml:"history" json:"history"`
	Jobs     Jobs    `yaml:"jobs" json:"jobs"`
	HTTP     HTTP    `yaml:"http" json:"http"`
}

// Store selects and tunes the session backend.
type Store struct {
	Type string `yaml:"type" json:"type"`

	// Path is the directory of the file store or the database of the sqlite store.
	Path  string `yaml:"path" json:"path"`
	Redis Redis  `yaml:"redis" json:"redis"`

	// EncryptionKey is a base64 encoded 32 byte key. Empty disables encryption.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys"`

	// Mask lists regular expressions of metadata keys masked at rest.
	Mask []string `yaml:"mask" json:"mask"`
}

// Redis configures the redis store and the distributed locker.
type Redis struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	LockTTL  time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
}

// History tunes the edit timeline.
type History struct {
	Limit int `yaml:"limit" json:"limit"`
}

// Jobs tunes the progress simulators.
type Jobs struct {
	Generation progress.Config `yaml:"generation" json:"generation"`
	Export     progress.Config `yaml:"export" json:"export"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr    string `yaml:"addr" json:"addr"`
	Metrics bool   `yaml:"metrics" json:"metrics"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		Store: Store{
			Type: StoreMemory,
		},
		Jobs: Jobs{
			Generation: progress.GenerationConfig(),
			Export:     progress.ExportConfig(),
		},
		HTTP: HTTP{
			Addr:    ":8080",
			Metrics: true,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults,
// unless the path was given explicitly. JSON files parse as YAML.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, cfg.applyEnv()
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if key := os.Getenv(EnvEncryptionKey); key != "" {
		c.Store.EncryptionKey = key
	}
	return nil
}

// Validate checks the values that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Store.Type {
	case StoreMemory, StoreFile, StoreSQLite:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("%w: store.redis.addr is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store type %q", ErrInvalidConfig, c.Store.Type)
	}

	if c.Store.EncryptionKey != "" {
		if _, err := DecodeKey(c.Store.EncryptionKey); err != nil {
			return err
		}
	}
	for _, k := range c.Store.FallbackKeys {
		if _, err := DecodeKey(k); err != nil {
			return err
		}
	}
	for _, p := range c.Store.Mask {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: store.mask %q: %w", ErrInvalidConfig, p, err)
		}
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("%w: history.limit must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DecodeKey decodes a base64 AES-256 key.
func DecodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not base64: %w", ErrInvalidConfig, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption key must be 32 bytes, got %d", ErrInvalidConfig, len(key))
	}
	return key, nil
}
