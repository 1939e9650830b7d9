package cache

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(mr.Addr(), "", 0, 5, 0)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func newMemoryStore(t *testing.T) *MemoryStore {
	t.Helper()
	store, err := NewMemoryStore(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func stores(t *testing.T) map[string]Store {
	redisStore, _ := newRedisStore(t)
	return map[string]Store{
		"redis":  redisStore,
		"memory": newMemoryStore(t),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrMiss)

			require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
			got, err := store.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), got)

			require.NoError(t, store.Delete(ctx, "k"))
			_, err = store.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Set(ctx, "page:/", []byte("a"), time.Minute))
			require.NoError(t, store.Set(ctx, "page:/?page=2", []byte("b"), time.Minute))
			require.NoError(t, store.Set(ctx, "other", []byte("c"), time.Minute))

			require.NoError(t, store.DeletePrefix(ctx, "page:"))

			_, err := store.Get(ctx, "page:/")
			assert.ErrorIs(t, err, ErrMiss)
			_, err = store.Get(ctx, "page:/?page=2")
			assert.ErrorIs(t, err, ErrMiss)
			got, err := store.Get(ctx, "other")
			require.NoError(t, err)
			assert.Equal(t, []byte("c"), got)
		})
	}
}

func TestRedisStoreExpires(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 20*time.Second))
	mr.FastForward(21 * time.Second)

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryStoreForgetsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewMemoryStore(1<<20, WithMemoryClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for i := 0; i < 5000; i++ {
		require.NoError(t, store.Set(ctx, fmt.Sprintf("yatube:page:/?x=%d", i), []byte("body"), 20*time.Second))
	}
	assert.Equal(t, 5000, store.Tracked())

	clock.Advance(time.Hour)
	require.NoError(t, store.Set(ctx, "yatube:page:/", []byte("body"), 20*time.Second))
	assert.Equal(t, 1, store.Tracked())

	got, err := store.Get(ctx, "yatube:page:/")
	require.NoError(t, err)
	assert.Equal(t, []byte("body"), got)
}

func TestMemoryStoreDeletePrefixSweeps(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store, err := NewMemoryStore(1<<20, WithMemoryClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Set(ctx, "other:a", []byte("v"), 20*time.Second))
	require.NoError(t, store.Set(ctx, "other:b", []byte("v"), 0))
	clock.Advance(30 * time.Second)

	require.NoError(t, store.DeletePrefix(ctx, "yatube:page:"))
	assert.Equal(t, 1, store.Tracked())
}

func TestPageCacheServesUntilMaxAge(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			pages := NewPageCache(store, "yatube:page:", 20*time.Second, WithClock(clock.Now))

			entry, err := pages.Get(ctx, "/")
			require.NoError(t, err)
			assert.Nil(t, entry)

			written, err := pages.Set(ctx, "/", http.StatusOK, "application/json", []byte(`{"a":1}`))
			require.NoError(t, err)
			assert.Equal(t, clock.Now(), written.WrittenAt)
			assert.Equal(t, 20*time.Second, written.MaxAge)

			clock.Advance(19 * time.Second)
			entry, err = pages.Get(ctx, "/")
			require.NoError(t, err)
			require.NotNil(t, entry)
			assert.Equal(t, []byte(`{"a":1}`), entry.Body)
			assert.Equal(t, http.StatusOK, entry.Status)
			assert.Equal(t, "application/json", entry.ContentType)

			clock.Advance(time.Second)
			entry, err = pages.Get(ctx, "/")
			require.NoError(t, err)
			assert.Nil(t, entry)

			// the stale entry was dropped from the store as well
			_, err = store.Get(ctx, "yatube:page:/")
			assert.ErrorIs(t, err, ErrMiss)
		})
	}
}

func TestPageCacheClear(t *testing.T) {
	ctx := context.Background()
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			pages := NewPageCache(store, "yatube:page:", time.Minute)

			_, err := pages.Set(ctx, "/", http.StatusOK, "text/plain", []byte("one"))
			require.NoError(t, err)
			_, err = pages.Set(ctx, "/?page=2", http.StatusOK, "text/plain", []byte("two"))
			require.NoError(t, err)

			require.NoError(t, pages.Clear(ctx))

			entry, err := pages.Get(ctx, "/")
			require.NoError(t, err)
			assert.Nil(t, entry)
			entry, err = pages.Get(ctx, "/?page=2")
			require.NoError(t, err)
			assert.Nil(t, entry)
		})
	}
}

func TestEntryFresh(t *testing.T) {
	now := time.Now()
	e := &Entry{WrittenAt: now, MaxAge: 20 * time.Second}
	assert.True(t, e.Fresh(now))
	assert.True(t, e.Fresh(now.Add(19*time.Second)))
	assert.False(t, e.Fresh(now.Add(20*time.Second)))
}
