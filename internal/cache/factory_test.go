package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewProviderDefaultsToMemory(t *testing.T) {
	for _, kind := range []string{"", KindMemory} {
		p := NewProvider(Options{Kind: kind}, zerolog.Nop())
		if p.Name() != KindMemory {
			t.Errorf("kind %q: got provider %q, want memory", kind, p.Name())
		}
	}
}

func TestNewProviderUnknownKindFallsBack(t *testing.T) {
	p := NewProvider(Options{Kind: "memcached"}, zerolog.Nop())
	if p.Name() != KindMemory {
		t.Errorf("unknown kind produced provider %q, want memory fallback", p.Name())
	}
}

func TestNewProviderRedisUnreachableFallsBack(t *testing.T) {
	p := NewProvider(Options{Kind: KindRedis, RedisAddr: deadRedisAddr(t)}, zerolog.Nop())
	if p.Name() != KindMemory {
		t.Errorf("unreachable redis produced provider %q, want memory fallback", p.Name())
	}
	// The fallback provider must be fully usable.
	ctx := context.Background()
	if !p.Set(ctx, "k", "v", time.Minute) {
		t.Error("fallback provider Set failed")
	}
	if _, ok := p.Get(ctx, "k"); !ok {
		t.Error("fallback provider Get missed")
	}
}

func TestNewServiceFromOptions(t *testing.T) {
	svc := NewServiceFromOptions(Options{Kind: KindMemory, DefaultTTL: 5 * time.Minute}, zerolog.Nop())
	st := svc.Stats(context.Background())
	if st.Provider != KindMemory {
		t.Errorf("provider = %q, want memory", st.Provider)
	}
	if st.DefaultTTLSeconds != 300 {
		t.Errorf("default ttl = %d, want 300", st.DefaultTTLSeconds)
	}
}

func TestNewServiceFromOptionsTTLFallback(t *testing.T) {
	svc := NewServiceFromOptions(Options{Kind: KindMemory}, zerolog.Nop())
	if got := svc.Stats(context.Background()).DefaultTTLSeconds; got != 3600 {
		t.Errorf("default ttl = %d, want 3600", got)
	}
}
