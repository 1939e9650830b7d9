package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
)

const memorySweepInterval = time.Minute

// MemoryStore keeps entries in process. Ristretto cannot enumerate its
// keys, so the store tracks them itself for DeletePrefix and drops the
// ones ristretto no longer holds on a periodic sweep.
type MemoryStore struct {
	cache *ristretto.Cache
	now   func() time.Time

	mu        sync.Mutex
	keys      map[string]time.Time // zero time means no expiry
	nextSweep time.Time
}

type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock replaces time.Now for key tracking, for tests.
func WithMemoryClock(now func() time.Time) MemoryStoreOption {
	return func(m *MemoryStore) { m.now = now }
}

func NewMemoryStore(maxBytes int64, opts ...MemoryStoreOption) (*MemoryStore, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	m := &MemoryStore{cache: c, now: time.Now, keys: make(map[string]time.Time)}
	for _, opt := range opts {
		opt(m)
	}
	m.nextSweep = m.now().Add(memorySweepInterval)
	return m, nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.cache.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, ErrMiss
	}
	return data, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if !m.cache.SetWithTTL(key, value, int64(len(value)), ttl) {
		return fmt.Errorf("cache rejected %s", key)
	}
	// writes are buffered; make them visible to the next Get
	m.cache.Wait()

	now := m.now()
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = expiresAt
	if !now.Before(m.nextSweep) {
		m.sweep(now)
		m.nextSweep = now.Add(memorySweepInterval)
	}
	return nil
}

// sweep forgets keys that expired or were evicted by ristretto.
// Callers hold m.mu.
func (m *MemoryStore) sweep(now time.Time) {
	for k, expiresAt := range m.keys {
		if !expiresAt.IsZero() && !now.Before(expiresAt) {
			m.cache.Del(k)
			delete(m.keys, k)
			continue
		}
		if _, ok := m.cache.Get(k); !ok {
			delete(m.keys, k)
		}
	}
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.cache.Del(k)
		delete(m.keys, k)
	}
	return nil
}

func (m *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			m.cache.Del(k)
			delete(m.keys, k)
		}
	}
	m.sweep(m.now())
	return nil
}

// Tracked reports how many keys the store is tracking for prefix deletes.
func (m *MemoryStore) Tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

func (m *MemoryStore) Close() error {
	m.cache.Close()
	return nil
}
