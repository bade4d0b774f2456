package catalog

import (
	"context"
	"encoding/json"
	"time"

	"pizzeria-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const menuKeyPattern = "menu*"

// MenuCache stores public menu listings. Failures are never fatal: a broken
// cache degrades to reading from the database.
type MenuCache interface {
	Get(ctx context.Context, key string) ([]*Item, bool)
	Set(ctx context.Context, key string, items []*Item)
	Invalidate(ctx context.Context)
}

type redisMenuCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMenuCache(client *redis.Client, ttl time.Duration) MenuCache {
	return &redisMenuCache{client: client, ttl: ttl}
}

func (c *redisMenuCache) Get(ctx context.Context, key string) ([]*Item, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.FromCtx(ctx).Warn("menu cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var items []*Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (c *redisMenuCache) Set(ctx context.Context, key string, items []*Item) {
	payload, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		logger.FromCtx(ctx).Warn("menu cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *redisMenuCache) Invalidate(ctx context.Context) {
	iter := c.client.Scan(ctx, 0, menuKeyPattern, 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		logger.FromCtx(ctx).Warn("menu cache scan failed", zap.Error(err))
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.FromCtx(ctx).Warn("menu cache invalidation failed", zap.Error(err))
	}
}

type noopMenuCache struct{}

func (noopMenuCache) Get(context.Context, string) ([]*Item, bool) { return nil, false }
func (noopMenuCache) Set(context.Context, string, []*Item)        {}
func (noopMenuCache) Invalidate(context.Context)                  {}

// NoopMenuCache is used when no redis is configured.
func NoopMenuCache() MenuCache { return noopMenuCache{} }
