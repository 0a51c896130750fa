// Package config defines the server configuration structure.
package config

import (
	"errors"
	"fmt"
	"net"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyServer(&cfg.Server); err != nil {
		return err
	}
	if err := verifyStore(&cfg.Store); err != nil {
		return err
	}
	return nil
}

func verifyServer(cfg *ServerSection) error {
	if cfg.RESP.Addr == "" {
		return errors.New("server.resp.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.RESP.Addr); err != nil {
		return fmt.Errorf("server.resp.addr %q is not host:port: %w", cfg.RESP.Addr, err)
	}
	if cfg.RESP.ReadTimeout < 0 || cfg.RESP.WriteTimeout < 0 || cfg.RESP.IdleTimeout < 0 {
		return errors.New("server.resp timeouts must not be negative")
	}
	if cfg.RESP.RateLimit < 0 {
		return errors.New("server.resp.rate_limit must not be negative")
	}

	if cfg.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Metrics.Addr); err != nil {
			return fmt.Errorf("server.metrics.addr %q is not host:port: %w", cfg.Metrics.Addr, err)
		}
	}

	return nil
}

func verifyStore(cfg *StoreSection) error {
	if cfg.SweepInterval <= 0 {
		return errors.New("store.sweep_interval must be positive")
	}
	if cfg.Shards < 0 {
		return errors.New("store.shards must not be negative")
	}
	return nil
}
