package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const localSize = 1024

type localEntry struct {
	value   string
	expires time.Time
}

// Local is an in-process LRU used when Redis is not configured.
// The LRU bounds lifetime by maxTTL; per-entry TTLs shorter than that are
// enforced on read.
type Local struct {
	lru *expirable.LRU[string, localEntry]
	now func() time.Time
}

// NewLocal creates a process-wide cache whose entries never outlive maxTTL
func NewLocal(maxTTL time.Duration) *Local {
	return &Local{
		lru: expirable.NewLRU[string, localEntry](localSize, nil, maxTTL),
		now: time.Now,
	}
}

// Get retrieves a value from cache
func (l *Local) Get(_ context.Context, key string) (string, error) {
	e, ok := l.lru.Get(namespaceKey(key))
	if !ok {
		return "", ErrMiss
	}
	if !e.expires.IsZero() && !l.now().Before(e.expires) {
		l.lru.Remove(namespaceKey(key))
		return "", ErrMiss
	}
	return e.value, nil
}

// Set stores value; a zero ttl means "until evicted"
func (l *Local) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := localEntry{value: value}
	if ttl > 0 {
		e.expires = l.now().Add(ttl)
	}
	l.lru.Add(namespaceKey(key), e)
	return nil
}

// Delete removes a key from cache
func (l *Local) Delete(_ context.Context, key string) error {
	l.lru.Remove(namespaceKey(key))
	return nil
}

// Clear drops every entry
func (l *Local) Clear(context.Context) error {
	l.lru.Purge()
	return nil
}

// Health always succeeds
func (l *Local) Health(context.Context) error { return nil }

// Close is a no-op
func (l *Local) Close() error { return nil }
