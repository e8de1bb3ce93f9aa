package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestService(defaultTTL time.Duration) (*Service, *memoryProvider, *fakeClock) {
	m, clk := newTestMemory(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewService(m, defaultTTL, zerolog.Nop()), m, clk
}

func TestServiceEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	payload := map[string]any{"user": "u1", "after": 1700000000}
	value := []map[string]any{{"id": 1}}

	require.True(t, svc.Set(ctx, "activities", payload, value, 300*time.Second))

	got, ok := svc.Get(ctx, "activities", map[string]any{"after": 1700000000, "user": "u1"})
	require.True(t, ok, "deep-equal payload should hit")
	require.Equal(t, value, got)

	_, ok = svc.Get(ctx, "activities", map[string]any{"user": "u1", "after": 1700000001})
	require.False(t, ok, "different payload must miss")
}

func TestServiceClearWipesAllNamespaces(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	p := map[string]any{"user": "u1"}
	require.True(t, svc.Set(ctx, "activities", p, "a", 0))
	require.True(t, svc.Set(ctx, "recommendations", p, "r", 0))

	require.True(t, svc.Clear(ctx))

	_, ok := svc.Get(ctx, "activities", p)
	require.False(t, ok)
	_, ok = svc.Get(ctx, "recommendations", p)
	require.False(t, ok)
}

func TestServiceGetAfterExpiry(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newTestService(time.Hour)

	p := map[string]any{"a": 1}
	require.True(t, svc.Set(ctx, "ns", p, "v", time.Second))
	clk.Advance(2 * time.Second)

	_, ok := svc.Get(ctx, "ns", p)
	require.False(t, ok)
	require.False(t, svc.Exists(ctx, "ns", p))
	require.EqualValues(t, 0, svc.Stats(ctx).TotalEntries)
}

func TestServiceTTLDefaulting(t *testing.T) {
	ctx := context.Background()
	svc, m, clk := newTestService(10 * time.Second)
	p := map[string]any{"a": 1}

	// Zero and negative TTLs clamp to the default.
	for _, ttl := range []time.Duration{0, -5 * time.Second} {
		require.True(t, svc.Set(ctx, "ns", p, "v", ttl))
		key, err := Key("ns", p)
		require.NoError(t, err)
		m.mu.Lock()
		e := m.entries[key]
		m.mu.Unlock()
		require.NotNil(t, e)
		require.EqualValues(t, 10, e.TTLSeconds, "ttl %v should clamp to default", ttl)
	}

	clk.Advance(11 * time.Second)
	_, ok := svc.Get(ctx, "ns", p)
	require.False(t, ok, "entry should expire at the default TTL")
}

func TestServiceOverwrite(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)
	p := map[string]any{"a": 1}

	require.True(t, svc.Set(ctx, "ns", p, "v1", 0))
	require.True(t, svc.Set(ctx, "ns", p, "v2", 0))
	got, ok := svc.Get(ctx, "ns", p)
	require.True(t, ok)
	require.Equal(t, "v2", got)
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)
	p := map[string]any{"a": 1}

	require.True(t, svc.Set(ctx, "ns", p, "v", 0))
	require.True(t, svc.Delete(ctx, "ns", p))
	require.False(t, svc.Delete(ctx, "ns", p))
	require.False(t, svc.Exists(ctx, "ns", p))
}

func TestServiceStatsAugmented(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(90 * time.Second)

	st := svc.Stats(ctx)
	require.Equal(t, KindMemory, st.Provider)
	require.EqualValues(t, 90, st.DefaultTTLSeconds)
}

func TestServiceUnserializablePayload(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(time.Hour)

	// Fails key derivation; the call degrades to cache-disabled.
	require.False(t, svc.Set(ctx, "ns", func() {}, "v", 0))
	_, ok := svc.Get(ctx, "ns", func() {})
	require.False(t, ok)
}
