package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss はキーが存在しない（期限切れを含む）場合に返されます。
var ErrCacheMiss = errors.New("session: cache miss")

// Cache はセッションの保存先となる共有キャッシュです。
type Cache interface {
	// SetIfAbsent はキーが存在しない場合だけ TTL 付きで保存し、保存できたかを返します。
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Get はキーの値を返します。存在しなければ ErrCacheMiss です。
	Get(ctx context.Context, key string) (string, error)
	// Delete は削除したキーの数を返します。
	Delete(ctx context.Context, key string) (int64, error)
}

// RedisCache は Redis を使った Cache の実装です。
type RedisCache struct {
	rdb redis.UniversalClient
}

// NewRedisCache は RedisCache を作成します。
func NewRedisCache(rdb redis.UniversalClient) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// SetIfAbsent は SET key value NX EX ttl を実行します。
func (c *RedisCache) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, value, ttl).Result()
}

// Get は GET を実行します。
func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	value, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return value, nil
}

// Delete は DEL を実行します。
func (c *RedisCache) Delete(ctx context.Context, key string) (int64, error) {
	return c.rdb.Del(ctx, key).Result()
}
