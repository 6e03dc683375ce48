package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/apiprobe/apiprobe/common"
	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/logger"
)

var (
	storedRequestMemCache = gocache.New(config.RequestCacheTTL, 2*config.RequestCacheTTL)
	storedRequestGroup    singleflight.Group
)

func storedRequestCacheKey(id, userId string) string {
	return fmt.Sprintf("stored_request:%s:%s", userId, id)
}

// CacheGetStoredRequest looks in Redis (or the in-process cache when MEMORY_CACHE_ENABLED)
// before reading the database. Concurrent misses for the same key share one query.
func CacheGetStoredRequest(ctx context.Context, id string, userId string) (*StoredRequest, error) {
	key := storedRequestCacheKey(id, userId)
	lg := logger.Logger.With(zap.String("key", key))

	switch {
	case common.IsRedisEnabled():
		raw, err := common.RedisGet(ctx, key)
		if err == nil {
			cached := new(StoredRequest)
			if err = json.Unmarshal([]byte(raw), cached); err == nil {
				return cached, nil
			}
			lg.Warn("drop undecodable cached stored request", zap.Error(err))
		} else if !errors.Is(err, redis.Nil) {
			lg.Warn("redis lookup failed, falling back to database", zap.Error(err))
		}
	case config.MemoryCacheEnabled:
		if v, ok := storedRequestMemCache.Get(key); ok {
			cached := *v.(*StoredRequest)
			return &cached, nil
		}
	}

	v, err, _ := storedRequestGroup.Do(key, func() (any, error) {
		r, err := GetStoredRequestByIdAndUserId(ctx, id, userId)
		if err != nil {
			return nil, err
		}
		storeStoredRequest(ctx, key, r)
		return r, nil
	})
	if err != nil {
		return nil, err
	}

	r := *v.(*StoredRequest)
	return &r, nil
}

func storeStoredRequest(ctx context.Context, key string, r *StoredRequest) {
	switch {
	case common.IsRedisEnabled():
		encoded, err := json.Marshal(r)
		if err != nil {
			logger.Logger.Warn("encode stored request for cache", zap.Error(err))
			return
		}
		if err = common.RedisSet(ctx, key, string(encoded), config.RequestCacheTTL); err != nil {
			logger.Logger.Warn("cache stored request in redis", zap.Error(err))
		}
	case config.MemoryCacheEnabled:
		cached := *r
		storedRequestMemCache.SetDefault(key, &cached)
	}
}

// InvalidateStoredRequestCache removes a cached definition from every cache layer.
func InvalidateStoredRequestCache(ctx context.Context, id string, userId string) {
	key := storedRequestCacheKey(id, userId)
	storedRequestMemCache.Delete(key)
	if common.IsRedisEnabled() {
		if err := common.RedisDel(ctx, key); err != nil {
			logger.Logger.Warn("failed to clear stored request cache, continuing",
				zap.String("key", key), zap.Error(err))
		}
	}
}
