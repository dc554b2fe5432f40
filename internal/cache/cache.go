package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/yatube/yatube/pkg/config"
	"github.com/yatube/yatube/pkg/logging"
)

// KeyPrefix namespaces every key the application writes
const KeyPrefix = "yatube:"

var (
	// ErrCacheDisabled is returned when cache operations are attempted but cache is disabled
	ErrCacheDisabled = errors.New("cache is disabled")
	// ErrMiss is returned by Get when the key is absent or expired
	ErrMiss = errors.New("cache miss")
)

// Store is a string cache with per-entry expiry
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// HashKey returns the hex md5 of the colon-joined parts
func HashKey(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}

// FragmentKey names a cached template fragment, varying on the given values
func FragmentKey(name string, varyOn ...string) string {
	return "template.cache." + name + "." + HashKey(varyOn...)
}

func namespaceKey(key string) string {
	return KeyPrefix + key
}

// Open returns the Redis store when Redis is configured, otherwise an
// in-process store whose entries never outlive maxTTL
func Open(cfg *config.RedisConfig, maxTTL time.Duration) (Store, error) {
	if !cfg.Enabled {
		logging.GetLogger().Info("Redis not configured, using in-process cache")
		return NewLocal(maxTTL), nil
	}
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return c, nil
}
