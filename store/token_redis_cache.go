package store

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
)

const recoveryTokenTTL = 10 * time.Minute

type TokenRedisCache struct {
	client *redis.Client
	logger *log.Logger
	tracer trace.Tracer
}

func NewTokenRedisCache(client *redis.Client, logger *log.Logger, tracer trace.Tracer) domain.TokenCache {
	return &TokenRedisCache{
		client: client,
		logger: logger,
		tracer: tracer,
	}
}

func (cache *TokenRedisCache) PostCacheData(ctx context.Context, key string, value string) error {
	ctx, span := cache.tracer.Start(ctx, "TokenRedisCache.PostCacheData")
	defer span.End()

	result := cache.client.Set(key, value, recoveryTokenTTL)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error posting cached value")
		cache.logger.Printf("redis set error: %s", result.Err())
		return result.Err()
	}

	return nil
}

func (cache *TokenRedisCache) GetCachedValue(ctx context.Context, key string) (string, error) {
	ctx, span := cache.tracer.Start(ctx, "TokenRedisCache.GetCachedValue")
	defer span.End()

	result := cache.client.Get(key)
	token, err := result.Result()
	if err != nil {
		span.SetStatus(codes.Error, "Error getting cached value")
		cache.logger.Println(err)
		return "", err
	}
	return token, nil
}

func (cache *TokenRedisCache) DelCachedValue(ctx context.Context, key string) error {
	ctx, span := cache.tracer.Start(ctx, "TokenRedisCache.DelCachedValue")
	defer span.End()

	result := cache.client.Del(key)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error deleting cached value")
		cache.logger.Println(result.Err())
		return result.Err()
	}

	return nil
}
