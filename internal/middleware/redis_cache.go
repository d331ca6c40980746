package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cinematch/backend/internal/cache"
	"github.com/cinematch/backend/internal/logger"
	"go.uber.org/zap"
)

// CacheStore is the subset of cache.RedisClient the cache manager needs
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// CacheManager provides read-through helpers over Redis. A nil manager is
// valid and behaves as an always-missing cache.
type CacheManager struct {
	store CacheStore
}

// NewCacheManager creates a new cache manager
func NewCacheManager(store CacheStore) *CacheManager {
	return &CacheManager{store: store}
}

// CacheKey joins prefix and values with colons
func CacheKey(prefix string, values ...string) string {
	return strings.Join(append([]string{prefix}, values...), ":")
}

// GetCached returns (value, found, error). A missing key is not an error.
func (cm *CacheManager) GetCached(ctx context.Context, key string) (string, bool, error) {
	if cm == nil || cm.store == nil {
		return "", false, nil
	}

	val, err := cm.store.Get(ctx, key)
	if err != nil {
		if cache.IsMiss(err) {
			return "", false, nil
		}
		logger.Log.Debug("Cache retrieval failed", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return val, true, nil
}

// SetCached stores a value in cache with TTL
func (cm *CacheManager) SetCached(ctx context.Context, key string, value string, ttl time.Duration) error {
	if cm == nil || cm.store == nil {
		return nil
	}

	if err := cm.store.SetEx(ctx, key, value, ttl); err != nil {
		logger.Log.Debug("Cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateCache deletes one or more keys
func (cm *CacheManager) InvalidateCache(ctx context.Context, keys ...string) error {
	if cm == nil || cm.store == nil || len(keys) == 0 {
		return nil
	}

	if err := cm.store.Del(ctx, keys...); err != nil {
		logger.Log.Debug("Cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Remember returns the cached JSON for key decoded into out, or calls load,
// stores its result and decodes that. Cache failures fall through to load.
func (cm *CacheManager) Remember(ctx context.Context, cacheName, key string, ttl time.Duration, out interface{}, load func() (interface{}, error)) error {
	if raw, ok, _ := cm.GetCached(ctx, key); ok {
		if err := json.Unmarshal([]byte(raw), out); err == nil {
			RecordCacheHit(cacheName)
			return nil
		}
	}
	RecordCacheMiss(cacheName)

	value, err := load()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	_ = cm.SetCached(ctx, key, string(data), ttl)
	return json.Unmarshal(data, out)
}
