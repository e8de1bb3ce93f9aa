// Package cache provides the response cache used in front of the Strava and
// LLM upstreams: a provider-swappable key-value store with TTL expiry and
// deterministic key derivation from request payloads.
//
// Providers fail open. A backend outage degrades to "always recompute" at the
// cost of extra upstream latency; it never surfaces as an error on the
// caller's request path.
package cache

import (
	"context"
	"time"
)

// Backend kinds understood by the factory.
const (
	KindMemory = "memory"
	KindRedis  = "redis"
)

// Provider is a storage backend for cache entries. Implementations never
// return errors: a failed read is a miss, a failed write reports false.
type Provider interface {
	// Get returns the stored value if present and not expired. An entry that
	// is found expired is deleted as a side effect.
	Get(ctx context.Context, key string) (any, bool)

	// Set stores value under key, overwriting any existing entry. A ttl of
	// zero or less means the entry never expires.
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool

	// Delete removes the entry and reports whether something was removed.
	Delete(ctx context.Context, key string) bool

	// Clear removes all entries.
	Clear(ctx context.Context) bool

	// Exists reports whether a live entry is stored under key, with the same
	// expiry-aware delete-on-read behavior as Get.
	Exists(ctx context.Context, key string) bool

	// Stats returns backend counters. It never fails; internal errors are
	// reported through the Error field.
	Stats(ctx context.Context) Stats

	// Name identifies the backend kind.
	Name() string
}

// Stats describes a provider's view of its backing store. Fields a backend
// cannot report are left at their zero value.
type Stats struct {
	Backend        string `json:"backend"`
	TotalEntries   int64  `json:"total_entries"`
	ActiveEntries  int64  `json:"active_entries"`
	ExpiredEntries int64  `json:"expired_entries"`
	SizeBytes      int64  `json:"size_bytes,omitempty"`

	// Networked-backend metadata.
	ServerVersion    string `json:"server_version,omitempty"`
	ConnectedClients int64  `json:"connected_clients,omitempty"`
	UptimeSeconds    int64  `json:"uptime_seconds,omitempty"`

	// Error carries a failure description instead of propagating it.
	Error string `json:"error,omitempty"`
}
