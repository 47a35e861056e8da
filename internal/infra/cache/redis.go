package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"pix-storefront/internal/domain"
	"pix-storefront/internal/infra/metrics"
)

// RedisCache реализует domain.Cache через Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

var _ domain.Cache = (*RedisCache)(nil)

// NewRedis создаёт кэш. Все ключи получают общий префикс.
func NewRedis(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// Set задаёт значение.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	metrics.ObserveNetworkRequest("redis", "set", c.prefix, start, err)
	return err
}

// Get возвращает значение или domain.ErrCacheMiss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := c.client.Get(ctx, c.prefix+key).Bytes()
	metrics.ObserveNetworkRequest("redis", "get", c.prefix, start, ignoreNil(err))
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	return value, err
}

// Del удаляет ключ. Отсутствие ключа ошибкой не считается.
func (c *RedisCache) Del(ctx context.Context, key string) error {
	start := time.Now()
	err := c.client.Del(ctx, c.prefix+key).Err()
	metrics.ObserveNetworkRequest("redis", "del", c.prefix, start, err)
	return err
}

// Take атомарно читает и удаляет значение.
func (c *RedisCache) Take(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := c.client.GetDel(ctx, c.prefix+key).Bytes()
	metrics.ObserveNetworkRequest("redis", "getdel", c.prefix, start, ignoreNil(err))
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCacheMiss
	}
	return value, err
}

func ignoreNil(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
