package cache

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
)

// Remember returns the value cached under key, or calls load and stores its
// result for ttl seconds. The store happens in the background and a failed
// read or write of the cache never fails the call.
func Remember[T any](ctx context.Context, cache RedisCache, key string, ttl int, load func(context.Context) (T, error)) (T, error) {
	var cached T

	err := cache.Get(ctx, key, &cached)
	if err == nil {
		log.Debug().Str("key", key).Msg("cache hit")

		return cached, nil
	}

	if !errors.Is(err, Nil) {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed, loading from source")
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	go func(ctx context.Context) {
		if err := cache.Save(ctx, key, value, ttl); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to store cache value")
		}
	}(context.WithoutCancel(ctx))

	return value, nil
}
