package cache

import (
	"context"
	"errors"
)

// Sentinel errors for caching operations.
var (
	// ErrCacheMiss is returned by [Lookup] when key is not cached.
	ErrCacheMiss = errors.New("cache miss")

	// ErrBackend wraps failures of a remote cache backend.
	ErrBackend = errors.New("cache backend unavailable")
)

// Lookup wraps Get and reports a miss as ErrCacheMiss.
func Lookup(ctx context.Context, c Cache, key string) ([]byte, error) {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !hit {
		return nil, ErrCacheMiss
	}
	return data, nil
}
