package cache

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// deadRedisAddr reserves a port and releases it so connections are refused.
func deadRedisAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestRedisFailOpen(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{
		Addr:        deadRedisAddr(t),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = client.Close() }()
	p := NewRedis(client, zerolog.Nop())

	if _, ok := p.Get(ctx, "k"); ok {
		t.Error("Get against dead backend reported a hit")
	}
	if p.Set(ctx, "k", "v", time.Minute) {
		t.Error("Set against dead backend reported success")
	}
	if p.Delete(ctx, "k") {
		t.Error("Delete against dead backend reported success")
	}
	if p.Exists(ctx, "k") {
		t.Error("Exists against dead backend reported true")
	}
	if p.Clear(ctx) {
		t.Error("Clear against dead backend reported success")
	}

	// A failed call must not poison the provider: the same calls keep
	// degrading cleanly instead of panicking or wedging.
	if _, ok := p.Get(ctx, "k2"); ok {
		t.Error("subsequent Get reported a hit")
	}
	st := p.Stats(ctx)
	if st.Error == "" {
		t.Error("Stats against dead backend should carry an error description")
	}
	if st.Backend != KindRedis {
		t.Errorf("Stats backend = %q, want %q", st.Backend, KindRedis)
	}
}

// Full behavior against a live server; opt-in via environment.
func TestRedisProviderLive(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 9})
	defer func() { _ = client.Close() }()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}
	p := NewRedis(client, zerolog.Nop())
	p.Clear(ctx)

	if !p.Set(ctx, "k", map[string]any{"n": 1}, time.Minute) {
		t.Fatal("Set failed")
	}
	got, ok := p.Get(ctx, "k")
	if !ok {
		t.Fatal("Get missed after Set")
	}
	m, ok := got.(map[string]any)
	if !ok || m["n"] != float64(1) {
		t.Fatalf("Get returned %#v", got)
	}
	if !p.Exists(ctx, "k") {
		t.Error("Exists false after Set")
	}

	// Corrupt blob is dropped and read as a miss.
	if err := client.Set(ctx, "corrupt", "{not json", 0).Err(); err != nil {
		t.Fatalf("seed corrupt entry: %v", err)
	}
	if _, ok := p.Get(ctx, "corrupt"); ok {
		t.Error("corrupt entry reported as hit")
	}
	if n, _ := client.Exists(ctx, "corrupt").Result(); n != 0 {
		t.Error("corrupt entry not deleted on read")
	}

	if !p.Delete(ctx, "k") {
		t.Error("Delete of present key returned false")
	}
	if !p.Clear(ctx) {
		t.Error("Clear failed")
	}
	st := p.Stats(ctx)
	if st.Error != "" {
		t.Errorf("Stats error: %s", st.Error)
	}
	if st.ServerVersion == "" {
		t.Error("Stats missing server version")
	}
}
