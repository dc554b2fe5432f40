package cache

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/yatube/yatube/pkg/logging"
	"github.com/yatube/yatube/pkg/telemetry"
)

// Fragments caches rendered page fragments for a fixed interval.
// Entries are not invalidated by data changes, only by expiry or Clear.
type Fragments struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// NewFragments creates a fragment cache over store
func NewFragments(store Store, ttl time.Duration) *Fragments {
	return &Fragments{
		store:  store,
		ttl:    ttl,
		logger: logging.WithComponent("fragment-cache"),
	}
}

// Render returns the cached fragment for key, or calls render and stores its output.
// Cache backend failures are logged and the fragment is rendered uncached.
func (f *Fragments) Render(ctx context.Context, key string, render func() (string, error)) (string, error) {
	if f.ttl <= 0 {
		return render()
	}

	ctx, span := telemetry.StartSpan(ctx, "fragment.render")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	cached, err := f.store.Get(ctx, key)
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))
	if !errors.Is(err, ErrMiss) {
		f.logger.Warn("fragment cache read failed", zap.String("key", key), zap.Error(err))
	}

	out, err := render()
	if err != nil {
		return "", err
	}
	if err := f.store.Set(ctx, key, out, f.ttl); err != nil {
		f.logger.Warn("fragment cache write failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// Clear drops every cached fragment
func (f *Fragments) Clear(ctx context.Context) error {
	return f.store.Clear(ctx)
}
