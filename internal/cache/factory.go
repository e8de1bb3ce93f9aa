package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options selects and configures a backend.
type Options struct {
	// Kind is "memory" or "redis"; empty means memory.
	Kind string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// DefaultTTL applies when a Set call carries no explicit TTL. Zero or
	// less falls back to one hour.
	DefaultTTL time.Duration
}

const (
	probeTimeout = 3 * time.Second
	fallbackTTL  = time.Hour
)

// NewProvider builds the configured backend. Construction never fails: an
// unknown kind, or a Redis that does not answer a liveness probe, falls back
// to the in-process provider with a warning, so a cache misconfiguration
// cannot take down startup.
func NewProvider(opts Options, log zerolog.Logger) Provider {
	switch opts.Kind {
	case "", KindMemory:
		return NewMemory()
	case KindRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", opts.RedisAddr).
				Msg("redis unreachable, falling back to in-memory cache")
			_ = client.Close()
			return NewMemory()
		}
		log.Info().Str("addr", opts.RedisAddr).Int("db", opts.RedisDB).Msg("redis cache connected")
		return NewRedis(client, log)
	default:
		log.Warn().Str("kind", opts.Kind).
			Msg("unknown cache backend, falling back to in-memory cache")
		return NewMemory()
	}
}

// NewServiceFromOptions builds a provider via NewProvider and wraps it in a
// Service with the configured default TTL.
func NewServiceFromOptions(opts Options, log zerolog.Logger) *Service {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = fallbackTTL
	}
	return NewService(NewProvider(opts, log), ttl, log)
}
