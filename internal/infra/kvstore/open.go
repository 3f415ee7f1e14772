package kvstore

import (
	"context"
	"fmt"

	"github.com/boddenberg/denuncias-bfa/internal/port"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	SQLitePath string
	Redis      RedisOptions
}

// Open returns the configured store and checks that it is reachable.
func Open(ctx context.Context, opts Options) (port.KVStore, error) {
	var store port.KVStore
	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = s
	case BackendRedis:
		store = NewRedis(opts.Redis)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", opts.Backend)
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("%s unreachable: %w", opts.Backend, err)
	}
	return store, nil
}
