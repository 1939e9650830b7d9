package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Entry is a rendered response together with the moment it was written and
// how long it may be served. Freshness is decided on read, so an expired
// entry is never returned even if the backing store has not evicted it yet.
type Entry struct {
	Status      int           `json:"status"`
	ContentType string        `json:"content_type"`
	Body        []byte        `json:"body"`
	WrittenAt   time.Time     `json:"written_at"`
	MaxAge      time.Duration `json:"max_age"`
}

func (e *Entry) Fresh(now time.Time) bool {
	return now.Sub(e.WrittenAt) < e.MaxAge
}

type PageCache struct {
	store  Store
	prefix string
	maxAge time.Duration
	now    func() time.Time
}

type PageCacheOption func(*PageCache)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) PageCacheOption {
	return func(p *PageCache) { p.now = now }
}

func NewPageCache(store Store, prefix string, maxAge time.Duration, opts ...PageCacheOption) *PageCache {
	p := &PageCache{
		store:  store,
		prefix: prefix,
		maxAge: maxAge,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *PageCache) MaxAge() time.Duration {
	return p.maxAge
}

// Get returns the fresh entry stored under key, or nil. A stale entry is
// removed on the way out.
func (p *PageCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := p.store.Get(ctx, p.prefix+key)
	if errors.Is(err, ErrMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if !entry.Fresh(p.now()) {
		if err := p.store.Delete(ctx, p.prefix+key); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return &entry, nil
}

func (p *PageCache) Set(ctx context.Context, key string, status int, contentType string, body []byte) (*Entry, error) {
	entry := &Entry{
		Status:      status,
		ContentType: contentType,
		Body:        body,
		WrittenAt:   p.now(),
		MaxAge:      p.maxAge,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := p.store.Set(ctx, p.prefix+key, data, p.maxAge); err != nil {
		return nil, err
	}
	return entry, nil
}

// Clear drops every cached page.
func (p *PageCache) Clear(ctx context.Context) error {
	return p.store.DeletePrefix(ctx, p.prefix)
}
