package oracle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"SmartRental/internal/model"
)

// Cache stores predictions by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr string) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error { return r.client.Close() }

// MemoryCache is an in-process Cache; entries never expire.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]string)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

// CachedOracle memoizes a deterministic oracle by feature record.
type CachedOracle struct {
	next  Oracle
	cache Cache
	ttl   time.Duration
}

func NewCachedOracle(next Oracle, cache Cache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, cache: cache, ttl: ttl}
}

func (c *CachedOracle) Name() string { return c.next.Name() + "+cache" }

func (c *CachedOracle) Predict(ctx context.Context, features model.PropertyFeatures) (float64, error) {
	key, err := cacheKey(c.next.Name(), features)
	if err != nil {
		return c.next.Predict(ctx, features)
	}
	if v, ok := c.cache.Get(ctx, key); ok {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			return price, nil
		}
	}

	price, err := c.next.Predict(ctx, features)
	if err != nil {
		return 0, err
	}
	if err := c.cache.Set(ctx, key, strconv.FormatFloat(price, 'g', -1, 64), c.ttl); err != nil {
		zap.L().Warn("cache prediction", zap.Error(err))
	}
	return price, nil
}

func cacheKey(oracleName string, features model.PropertyFeatures) (string, error) {
	raw, err := json.Marshal(features)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return "smartrental:price:" + oracleName + ":" + hex.EncodeToString(sum[:]), nil
}
