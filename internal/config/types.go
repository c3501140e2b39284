package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds every runtime option for the client daemon.
type Config struct {
	Listen  ListenConfig  `koanf:"listen"`
	Logging LoggingConfig `koanf:"logging"`
	Cache   CacheConfig   `koanf:"cache"`
	Backend BackendConfig `koanf:"backend"`
}

// ListenConfig instructs the diagnostics HTTP listener about bind address and
// port.
type ListenConfig struct {
	Address string `koanf:"address"`
	Port    int    `koanf:"port"`
}

// LoggingConfig expresses log level and format.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TLSConfig controls transport security for the durable cache tier.
type TLSConfig struct {
	Enabled bool   `koanf:"enabled"`
	CAFile  string `koanf:"caFile"`
}

// ValkeyConfig identifies the durable cache tier's server.
type ValkeyConfig struct {
	Address  string    `koanf:"address"`
	Username string    `koanf:"username"`
	Password string    `koanf:"password"`
	DB       int       `koanf:"db"`
	TLS      TLSConfig `koanf:"tls"`
}

// CacheConfig selects the durable tier backend and the sweep cadence. The
// per-cache ttl table is compile-time configuration and deliberately not
// exposed here.
type CacheConfig struct {
	Durable              string       `koanf:"durable"`
	SweepIntervalSeconds int          `koanf:"sweepIntervalSeconds"`
	Valkey               ValkeyConfig `koanf:"valkey"`
}

// SweepInterval returns the configured sweep cadence.
func (c CacheConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// BackendConfig identifies the hosted data service.
type BackendConfig struct {
	BaseURL        string `koanf:"baseUrl"`
	APIKey         string `koanf:"apiKey"`
	TimeoutSeconds int    `koanf:"timeoutSeconds"`
}

// Timeout returns the configured per-request backend timeout.
func (c BackendConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultConfig is the baseline every other source overrides.
func DefaultConfig() Config {
	return Config{
		Listen: ListenConfig{
			Address: "127.0.0.1",
			Port:    8642,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Durable:              "memory",
			SweepIntervalSeconds: 300,
		},
		Backend: BackendConfig{
			TimeoutSeconds: 15,
		},
	}
}

// Validate rejects configurations the daemon cannot start with.
func (c Config) Validate() error {
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("config: listen port %d out of range", c.Listen.Port)
	}
	switch strings.ToLower(c.Cache.Durable) {
	case "", "memory":
	case "valkey":
		if c.Cache.Valkey.Address == "" {
			return fmt.Errorf("config: cache durable %q requires a valkey address", c.Cache.Durable)
		}
	default:
		return fmt.Errorf("config: unsupported durable cache backend %q", c.Cache.Durable)
	}
	if c.Cache.SweepIntervalSeconds < 0 {
		return fmt.Errorf("config: sweep interval must not be negative")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("config: backend base url required")
	}
	if c.Backend.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: backend timeout must be positive")
	}
	return nil
}
