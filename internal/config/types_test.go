package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.Backend.BaseURL = "https://backend.example"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with base url pass",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Listen.Port = 70000 },
			wantErr: "out of range",
		},
		{
			name:    "unknown durable backend",
			mutate:  func(c *Config) { c.Cache.Durable = "memcached" },
			wantErr: "unsupported durable",
		},
		{
			name:    "valkey without address",
			mutate:  func(c *Config) { c.Cache.Durable = "valkey" },
			wantErr: "valkey address",
		},
		{
			name: "valkey with address passes",
			mutate: func(c *Config) {
				c.Cache.Durable = "valkey"
				c.Cache.Valkey.Address = "localhost:6379"
			},
		},
		{
			name:    "negative sweep interval",
			mutate:  func(c *Config) { c.Cache.SweepIntervalSeconds = -1 },
			wantErr: "must not be negative",
		},
		{
			name:    "missing backend base url",
			mutate:  func(c *Config) { c.Backend.BaseURL = "" },
			wantErr: "base url required",
		},
		{
			name:    "non-positive backend timeout",
			mutate:  func(c *Config) { c.Backend.TimeoutSeconds = 0 },
			wantErr: "timeout must be positive",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, 5*time.Minute, cfg.Cache.SweepInterval())
	require.Equal(t, 15*time.Second, cfg.Backend.Timeout())
}
