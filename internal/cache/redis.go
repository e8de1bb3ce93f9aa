package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisProvider stores serialized entries in Redis. Every call is fail-open:
// transport and serialization errors are logged and reported as a miss or
// false, never returned, so one failed call cannot poison the next. The
// provider owns only the client handle; concurrency is Redis's problem.
//
// Entries are written as the full Entry envelope rather than the bare value,
// so expiry metadata survives the round trip. A Redis-side TTL is set
// alongside the envelope so the store cleans up after itself even when
// nothing reads the key again.
type redisProvider struct {
	client *redis.Client
	log    zerolog.Logger
	now    func() time.Time
}

// NewRedis wraps an established client. Callers wanting a liveness probe and
// automatic fallback should construct through NewProvider instead.
func NewRedis(client *redis.Client, log zerolog.Logger) Provider {
	return &redisProvider{
		client: client,
		log:    log.With().Str("cache", KindRedis).Logger(),
		now:    time.Now,
	}
}

func (r *redisProvider) Name() string { return KindRedis }

func (r *redisProvider) Get(ctx context.Context, key string) (any, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("cache get failed")
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// Corrupt blob: drop it and treat the read as a miss.
		r.log.Error().Err(err).Str("key", key).Msg("undecodable cache entry, deleting")
		r.client.Del(ctx, key)
		return nil, false
	}
	if e.Expired(r.now()) {
		r.client.Del(ctx, key)
		return nil, false
	}
	return e.Value, true
}

func (r *redisProvider) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	entry := NewEntry(value, r.now(), ttl)
	raw, err := json.Marshal(entry)
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("cache entry not serializable")
		return false
	}
	var expiration time.Duration
	if ttl > 0 {
		expiration = ttl
	}
	if err := r.client.Set(ctx, key, raw, expiration).Err(); err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("cache set failed")
		return false
	}
	return true
}

func (r *redisProvider) Delete(ctx context.Context, key string) bool {
	n, err := r.client.Del(ctx, key).Result()
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("cache delete failed")
		return false
	}
	return n > 0
}

func (r *redisProvider) Clear(ctx context.Context) bool {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		r.log.Error().Err(err).Msg("cache clear failed")
		return false
	}
	return true
}

func (r *redisProvider) Exists(ctx context.Context, key string) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("cache exists failed")
		return false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		r.client.Del(ctx, key)
		return false
	}
	if e.Expired(r.now()) {
		r.client.Del(ctx, key)
		return false
	}
	return true
}

func (r *redisProvider) Stats(ctx context.Context) Stats {
	st := Stats{Backend: KindRedis}

	total, err := r.client.DBSize(ctx).Result()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	st.TotalEntries = total
	st.ActiveEntries = total // Redis expires server-side; live keys only

	info, err := r.client.Info(ctx, "server", "clients", "memory").Result()
	if err != nil {
		st.Error = err.Error()
		return st
	}
	for _, line := range strings.Split(info, "\r\n") {
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch k {
		case "redis_version":
			st.ServerVersion = v
		case "connected_clients":
			st.ConnectedClients, _ = strconv.ParseInt(v, 10, 64)
		case "uptime_in_seconds":
			st.UptimeSeconds, _ = strconv.ParseInt(v, 10, 64)
		case "used_memory":
			st.SizeBytes, _ = strconv.ParseInt(v, 10, 64)
		}
	}
	return st
}
