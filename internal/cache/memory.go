package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// memoryProvider keeps entries in a mutex-guarded map owned exclusively by
// the provider. Expired entries are removed lazily by the read path; there is
// no background sweep. Lock hold time is a constant number of map operations,
// except Stats which walks the map.
type memoryProvider struct {
	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// NewMemory returns the in-process provider.
func NewMemory() Provider {
	return &memoryProvider{entries: make(map[string]*Entry), now: time.Now}
}

func (m *memoryProvider) Name() string { return KindMemory }

func (m *memoryProvider) Get(_ context.Context, key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if e.Expired(m.now()) {
		delete(m.entries, key)
		return nil, false
	}
	return e.Value, true
}

func (m *memoryProvider) Set(_ context.Context, key string, value any, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = NewEntry(value, m.now(), ttl)
	return true
}

func (m *memoryProvider) Delete(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; !ok {
		return false
	}
	delete(m.entries, key)
	return true
}

func (m *memoryProvider) Clear(context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*Entry)
	return true
}

func (m *memoryProvider) Exists(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return false
	}
	if e.Expired(m.now()) {
		delete(m.entries, key)
		return false
	}
	return true
}

func (m *memoryProvider) Stats(context.Context) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Stats{Backend: KindMemory, TotalEntries: int64(len(m.entries))}
	now := m.now()
	for _, e := range m.entries {
		if e.Expired(now) {
			st.ExpiredEntries++
			continue
		}
		st.ActiveEntries++
		if b, err := json.Marshal(e.Value); err == nil {
			st.SizeBytes += int64(len(b))
		}
	}
	return st
}
