package config

import (
	"context"
	"sync/atomic"

	"github.com/chainguard-dev/clog"
)

// Store holds the active configuration and supports atomic replacement, so
// long-running callers always read a complete, validated snapshot.
type Store struct {
	current atomic.Pointer[Config]
}

// NewStore returns a Store seeded with cfg.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.current.Store(cfg)
	return s
}

// Get returns the current configuration snapshot.
func (s *Store) Get() *Config {
	return s.current.Load()
}

// Reload re-reads the config file and swaps it in. On any load or validation
// error the previous configuration stays active.
func (s *Store) Reload(ctx context.Context, path string) error {
	cfg, err := Load(path)
	if err != nil {
		clog.FromContext(ctx).With("path", path).Warn("config reload failed, keeping previous config", "error", err)
		return err
	}
	s.current.Store(cfg)
	clog.FromContext(ctx).With("path", path).Info("config reloaded")
	return nil
}
