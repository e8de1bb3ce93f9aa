package cache

import (
	"encoding/json"
	"testing"
	"time"
)

func TestEntryExpiryBoundary(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := NewEntry("v", t0, 60*time.Second)

	tests := []struct {
		name    string
		now     time.Time
		expired bool
	}{
		{"before expiry", t0.Add(30 * time.Second), false},
		{"exactly at expiry", t0.Add(60 * time.Second), false},
		{"one second past", t0.Add(61 * time.Second), true},
	}

	for _, tt := range tests {
		if got := e.Expired(tt.now); got != tt.expired {
			t.Errorf("%s: Expired(%v) = %v, want %v", tt.name, tt.now, got, tt.expired)
		}
	}
}

func TestEntryNoTTLNeverExpires(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e := NewEntry("v", t0, 0)

	if e.ExpiresAt != nil {
		t.Fatalf("entry without TTL should have nil ExpiresAt, got %v", e.ExpiresAt)
	}
	if e.Expired(t0.AddDate(100, 0, 0)) {
		t.Error("entry without TTL reported expired far in the future")
	}
}

func TestEntryNegativeTTLNeverExpires(t *testing.T) {
	t0 := time.Now()
	e := NewEntry("v", t0, -time.Minute)
	if e.ExpiresAt != nil || e.TTLSeconds != 0 {
		t.Errorf("negative ttl should behave like no ttl, got ttl=%d expires=%v", e.TTLSeconds, e.ExpiresAt)
	}
}

// A serialized entry must keep the expiry it was written with; it must not
// re-derive it against the clock at decode time.
func TestEntryRoundTripPreservesExpiry(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	orig := NewEntry(map[string]any{"a": 1}, t0, 60*time.Second)

	raw, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Entry
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !got.CreatedAt.Equal(orig.CreatedAt) {
		t.Errorf("CreatedAt changed across round trip: %v != %v", got.CreatedAt, orig.CreatedAt)
	}
	if got.TTLSeconds != orig.TTLSeconds {
		t.Errorf("TTLSeconds changed: %d != %d", got.TTLSeconds, orig.TTLSeconds)
	}
	for _, probe := range []time.Time{t0, t0.Add(60 * time.Second), t0.Add(61 * time.Second)} {
		if got.Expired(probe) != orig.Expired(probe) {
			t.Errorf("Expired(%v) differs after round trip", probe)
		}
	}
}
