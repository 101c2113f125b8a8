// Package store implements the key/value storage port behind session state
// and fingerprint link job records. Keys live in namespaces; a session uses
// its id as namespace.
package store

import (
	"context"
	"fmt"
)

// KV is a namespaced string key/value store.
type KV interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, namespace, key string) (value string, ok bool, err error)
	Set(ctx context.Context, namespace, key, value string) error
	Remove(ctx context.Context, namespace, key string) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string // memory, redis, postgres or sqlite
	RedisAddr   string
	DatabaseURL string
	SQLitePath  string
}

// Open connects the configured backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		r := NewRedis(opts.RedisAddr)
		if !r.Healthy(ctx) {
			_ = r.Close()
			return nil, fmt.Errorf("redis at %s unreachable", opts.RedisAddr)
		}
		return r, nil
	case "postgres":
		return NewPostgres(ctx, opts.DatabaseURL)
	case "sqlite":
		return NewSQLite(ctx, opts.SQLitePath)
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
