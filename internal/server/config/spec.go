// Package config defines the server configuration structure.
package config

import "time"

// ServerConfig is the root configuration for mistkv-server.
type ServerConfig struct {
	Server ServerSection `koanf:"server"`
	Store  StoreSection  `koanf:"store"`
	Log    LogSection    `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	RESP    RESPConfig    `koanf:"resp"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// RESPConfig configures the RESP protocol listener.
type RESPConfig struct {
	Addr string `koanf:"addr"`

	// ReadTimeout bounds the read of a single command once its first
	// byte has arrived (slowloris protection).
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds writing one response.
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// IdleTimeout bounds how long a connection may sit idle between
	// commands before it is closed.
	IdleTimeout time.Duration `koanf:"idle_timeout"`

	// RateLimit is the maximum number of commands per second per
	// client IP. 0 disables rate limiting.
	RateLimit int `koanf:"rate_limit"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// StoreSection configures the in-memory table.
type StoreSection struct {
	// SweepInterval is the period between expiry sweep passes.
	// Must be positive; sub-millisecond values fall back to the default.
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// Shards is the shard count of the backing map (power of 2).
	Shards int `koanf:"shards"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
