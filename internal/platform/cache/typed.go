package cache

import (
	"context"
	"time"
)

type getter interface {
	Get(ctx context.Context, key string) (any, bool)
}

type loader interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) (any, error)
}

// Lookup reads key as T. A value of another type counts as a miss.
func Lookup[T any](ctx context.Context, c getter, key string) (T, bool) {
	var zero T
	raw, ok := c.Get(ctx, key)
	if !ok {
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return value, true
}

// Load is the typed form of GetOrLoad.
func Load[T any](ctx context.Context, c loader, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	raw, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	value, ok := raw.(T)
	if !ok {
		fresh, err := fn(ctx)
		if err != nil {
			return zero, err
		}
		return fresh, nil
	}
	return value, nil
}
