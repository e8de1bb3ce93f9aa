package cache

import "time"

// Entry wraps a cached value with the metadata needed to decide expiry.
// ExpiresAt is derived from CreatedAt and TTLSeconds at construction and is
// carried explicitly through serialization, so a deserialized entry keeps the
// exact expiry it was written with instead of recomputing against a later
// clock reading.
type Entry struct {
	Value      any        `json:"value"`
	CreatedAt  time.Time  `json:"created_at"`
	TTLSeconds int64      `json:"ttl_seconds,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// NewEntry builds an entry created at the given instant. A ttl of zero or
// less means the entry never expires.
func NewEntry(value any, createdAt time.Time, ttl time.Duration) *Entry {
	e := &Entry{Value: value, CreatedAt: createdAt}
	if ttl > 0 {
		e.TTLSeconds = int64(ttl / time.Second)
		exp := createdAt.Add(ttl)
		e.ExpiresAt = &exp
	}
	return e
}

// Expired reports whether the entry is dead at the given instant. The
// boundary itself is still alive: now equal to ExpiresAt is not expired.
func (e *Entry) Expired(now time.Time) bool {
	if e.ExpiresAt == nil {
		return false
	}
	return now.After(*e.ExpiresAt)
}
