package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
)

type CacheRepository interface {
	SetIfNotExists(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}

type cacheClient struct {
	redis redis.UniversalClient
}

func NewCacheRepository(redis redis.UniversalClient) CacheRepository {
	return &cacheClient{redis: redis}
}

func (cc *cacheClient) SetIfNotExists(ctx context.Context, key string, value interface{}, ttl time.Duration) (ok bool, err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("cache.key", key))
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	return cc.redis.SetNX(ctx, key, value, ttl).Result()
}

func (cc *cacheClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) (err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("cache.key", key))
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	return cc.redis.Set(ctx, key, value, ttl).Err()
}

// Get returns common.ErrDataNotFound for a missing key.
func (cc *cacheClient) Get(ctx context.Context, key string) (val string, err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("cache.key", key))
	defer func() {
		if errors.Is(err, common.ErrDataNotFound) {
			monitor.Finish()
			return
		}
		monitor.Finish(monitoring.WithFinishCheckError(err))
	}()

	val, err = cc.redis.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return val, common.ErrDataNotFound
		}
		return val, err
	}

	return strings.TrimSpace(val), nil
}

func (cc *cacheClient) Del(ctx context.Context, keys ...string) (err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	return cc.redis.Del(ctx, keys...).Err()
}

func (cc *cacheClient) Ping(ctx context.Context) error {
	return cc.redis.Ping(ctx).Err()
}
