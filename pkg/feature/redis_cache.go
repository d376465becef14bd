package feature

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedStore is a read-through Redis cache in front of another Store.
// FindByName is the hot path of every flag evaluation; caching it keeps a
// database round trip off the request path in a multi-instance deployment
// while all instances still observe admin mutations within the TTL. Cache
// failures fall through to the inner store, so a Redis outage degrades to
// uncached reads rather than failed evaluations.
type CachedStore struct {
	inner  Store
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
	log    *slog.Logger
}

// CachedStoreOption configures a CachedStore.
type CachedStoreOption func(*CachedStore)

// WithCacheTTL sets how long cached definitions stay valid.
func WithCacheTTL(ttl time.Duration) CachedStoreOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCachePrefix sets the Redis key prefix.
func WithCachePrefix(prefix string) CachedStoreOption {
	return func(c *CachedStore) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithCacheLogger sets the logger for cache degradation warnings.
func WithCacheLogger(log *slog.Logger) CachedStoreOption {
	return func(c *CachedStore) {
		if log != nil {
			c.log = log
		}
	}
}

// NewCachedStore wraps inner with a Redis read-through cache.
func NewCachedStore(inner Store, client redis.UniversalClient, opts ...CachedStoreOption) *CachedStore {
	if inner == nil {
		panic("feature: inner store cannot be nil")
	}
	c := &CachedStore{
		inner:  inner,
		client: client,
		ttl:    30 * time.Second,
		prefix: "feature_flags",
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) FindByName(ctx context.Context, name string) (*Flag, error) {
	key := c.key(name)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var flag Flag
		if err := json.Unmarshal(data, &flag); err == nil {
			return &flag, nil
		}
	} else if err != redis.Nil {
		c.log.WarnContext(ctx, "flag cache read failed, falling back to store", "flag", name, "error", err)
	}

	flag, err := c.inner.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(flag); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.log.WarnContext(ctx, "flag cache write failed", "flag", name, "error", err)
		}
	}
	return flag, nil
}

func (c *CachedStore) Create(ctx context.Context, flag *Flag) error {
	if err := c.inner.Create(ctx, flag); err != nil {
		return err
	}
	c.invalidate(ctx, flag.Name)
	return nil
}

func (c *CachedStore) Upsert(ctx context.Context, flag *Flag) (*Flag, error) {
	stored, err := c.inner.Upsert(ctx, flag)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, flag.Name)
	return stored, nil
}

func (c *CachedStore) ListAll(ctx context.Context) ([]Flag, error) {
	// Admin listing is rare, always read through.
	return c.inner.ListAll(ctx)
}

func (c *CachedStore) key(name string) string {
	return c.prefix + ":" + name
}

func (c *CachedStore) invalidate(ctx context.Context, name string) {
	if err := c.client.Del(ctx, c.key(name)).Err(); err != nil {
		c.log.WarnContext(ctx, "flag cache invalidation failed", "flag", name, "error", err)
	}
}
