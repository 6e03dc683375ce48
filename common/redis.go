package common

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/go-redis/redis/v8"

	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/logger"
)

var RDB redis.Cmdable

var redisEnabled atomic.Bool

func IsRedisEnabled() bool {
	return redisEnabled.Load()
}

func SetRedisEnabled(enabled bool) {
	redisEnabled.Store(enabled)
}

// InitRedisClient connects to Redis when REDIS_CONN_STRING is set. A comma separated
// address list together with REDIS_MASTER_NAME selects sentinel/cluster mode.
func InitRedisClient() error {
	if config.RedisConnString == "" {
		SetRedisEnabled(false)
		logger.Logger.Info("REDIS_CONN_STRING not set, Redis is not enabled")
		return nil
	}

	if config.RedisMasterName == "" {
		opt, err := redis.ParseURL(config.RedisConnString)
		if err != nil {
			return errors.Wrap(err, "parse Redis connection string")
		}
		RDB = redis.NewClient(opt)
		logger.Logger.Info("Redis is enabled")
	} else {
		RDB = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:      strings.Split(config.RedisConnString, ","),
			Password:   config.RedisPassword,
			MasterName: config.RedisMasterName,
		})
		logger.Logger.Info("Redis cluster mode enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RDB.Ping(ctx).Result(); err != nil {
		return errors.Wrap(err, "Redis ping test failed")
	}
	SetRedisEnabled(true)
	return nil
}

// CloseRedisClient releases the Redis connection pool if one was opened.
func CloseRedisClient() {
	if closer, ok := RDB.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Logger.Warn("failed to close Redis client", zap.Error(err))
		}
	}
}

func RedisSet(ctx context.Context, key string, value string, expiration time.Duration) error {
	if RDB == nil {
		return errors.New("redis not initialized")
	}
	if err := RDB.Set(ctx, key, value, expiration).Err(); err != nil {
		return errors.Wrapf(err, "failed to set redis key: %s", key)
	}
	return nil
}

// RedisGet returns redis.Nil (unwrapped) on a miss so callers can tell misses from failures.
func RedisGet(ctx context.Context, key string) (string, error) {
	if RDB == nil {
		return "", errors.New("redis not initialized")
	}
	val, err := RDB.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", err
	}
	if err != nil {
		return "", errors.Wrapf(err, "failed to get redis key: %s", key)
	}
	return val, nil
}

func RedisDel(ctx context.Context, key string) error {
	if RDB == nil {
		return errors.New("redis not initialized")
	}
	if err := RDB.Del(ctx, key).Err(); err != nil {
		return errors.Wrapf(err, "failed to delete redis key: %s", key)
	}
	return nil
}
