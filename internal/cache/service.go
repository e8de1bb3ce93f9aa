package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Service is the application-facing cache facade. It derives stable keys
// from (namespace, payload) pairs, applies the default TTL policy, and
// delegates storage to its provider. Consumers never touch a Provider
// directly.
//
// The service holds no state beyond its configuration; the same provider may
// back multiple services.
type Service struct {
	provider   Provider
	defaultTTL time.Duration
	log        zerolog.Logger
}

// ServiceStats augments provider counters with service configuration.
type ServiceStats struct {
	Stats
	Provider          string `json:"provider"`
	DefaultTTLSeconds int64  `json:"default_ttl_seconds"`
}

// NewService composes a provider with a default TTL.
func NewService(provider Provider, defaultTTL time.Duration, log zerolog.Logger) *Service {
	return &Service{
		provider:   provider,
		defaultTTL: defaultTTL,
		log:        log.With().Str("component", "cache").Logger(),
	}
}

// Get returns the cached value for the namespaced payload, if any.
func (s *Service) Get(ctx context.Context, namespace string, payload any) (any, bool) {
	key, ok := s.key(namespace, payload)
	if !ok {
		return nil, false
	}
	return s.provider.Get(ctx, key)
}

// Set caches value for the namespaced payload. A ttl of zero or less is
// clamped to the service default; callers wanting a different policy pass an
// explicit positive ttl.
func (s *Service) Set(ctx context.Context, namespace string, payload, value any, ttl time.Duration) bool {
	key, ok := s.key(namespace, payload)
	if !ok {
		return false
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	return s.provider.Set(ctx, key, value, ttl)
}

// Delete removes the cached value for the namespaced payload.
func (s *Service) Delete(ctx context.Context, namespace string, payload any) bool {
	key, ok := s.key(namespace, payload)
	if !ok {
		return false
	}
	return s.provider.Delete(ctx, key)
}

// Exists reports whether a live value is cached for the namespaced payload.
func (s *Service) Exists(ctx context.Context, namespace string, payload any) bool {
	key, ok := s.key(namespace, payload)
	if !ok {
		return false
	}
	return s.provider.Exists(ctx, key)
}

// Clear wipes the whole store, across all namespaces.
func (s *Service) Clear(ctx context.Context) bool {
	return s.provider.Clear(ctx)
}

// Stats returns provider counters augmented with the service configuration.
func (s *Service) Stats(ctx context.Context) ServiceStats {
	return ServiceStats{
		Stats:             s.provider.Stats(ctx),
		Provider:          s.provider.Name(),
		DefaultTTLSeconds: int64(s.defaultTTL / time.Second),
	}
}

func (s *Service) key(namespace string, payload any) (string, bool) {
	key, err := Key(namespace, payload)
	if err != nil {
		// Unserializable payload: treat as cache-disabled for this call.
		s.log.Error().Err(err).Str("namespace", namespace).Msg("cache key derivation failed")
		return "", false
	}
	return key, true
}
