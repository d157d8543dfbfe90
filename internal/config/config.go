// Package config loads the service configuration from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the root configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Redis  RedisConfig  `yaml:"redis"`
	Lock   LockConfig   `yaml:"lock"`
	Worker WorkerConfig `yaml:"worker"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required,hostname_port"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`
	Metrics         bool          `yaml:"metrics"`
}

// StoreConfig selects where proposals are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory file redis sqlite"`

	// Path is the directory (file) or database file (sqlite).
	Path string `yaml:"path"`

	// TTL expires proposals in redis. Zero keeps them forever.
	TTL time.Duration `yaml:"ttl" validate:"gte=0"`
}

// RedisConfig is shared by the redis store and the distributed locker.
type RedisConfig struct {
	Addr     string `yaml:"addr" validate:"required,hostname_port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"gte=0,lte=15"`
	Prefix   string `yaml:"prefix" validate:"required"`
}

// LockConfig enables distributed locking across replicas (requires redis).
type LockConfig struct {
	Distributed bool          `yaml:"distributed"`
	TTL         time.Duration `yaml:"ttl" validate:"gt=0"`
}

// WorkerConfig controls the background worker.
type WorkerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval" validate:"gt=0"`
}

// LogConfig controls the application logger.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "localhost:8080",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Metrics:         true,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "proposer:",
		},
		Lock: LockConfig{
			TTL: 30 * time.Second,
		},
		Worker: WorkerConfig{
			Enabled:  true,
			Interval: time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file. An empty path returns the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, fills remaining gaps and validates.
// Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Finalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Finalize fills defaults that depend on other settings and validates the
// result. Call it after changing a loaded Config.
func (c *Config) Finalize() error {
	c.applyDefaults()
	return c.Validate()
}

// applyDefaults fills values that depend on other settings.
func (c *Config) applyDefaults() {
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case DriverFile:
			c.Store.Path = filepath.Join(".proposer", "proposals")
		case DriverSQLite:
			c.Store.Path = filepath.Join(".proposer", "proposals.db")
		}
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, fe := range verrs {
				msgs[i] = fmt.Sprintf("%s: failed %q (%s)", yamlPath(fe.Namespace()), fe.Tag(), fe.Param())
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NeedsRedis reports whether any component connects to redis.
func (c Config) NeedsRedis() bool {
	return c.Store.Driver == DriverRedis || c.Lock.Distributed
}

// yamlPath turns "Config.Store.Driver" into "store.driver".
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = toSnake(p)
	}
	return strings.Join(parts, ".")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
