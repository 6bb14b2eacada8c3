package store

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
)

const (
	roomsCacheKey = "rooms:all"
	roomsCacheTTL = 30 * time.Minute
)

type RoomRedisCache struct {
	client *redis.Client
	logger *log.Logger
	tracer trace.Tracer
}

func NewRoomRedisCache(client *redis.Client, logger *log.Logger, tracer trace.Tracer) domain.RoomCache {
	return &RoomRedisCache{
		client: client,
		logger: logger,
		tracer: tracer,
	}
}

func (cache *RoomRedisCache) PostRooms(ctx context.Context, rooms []*domain.Room) error {
	ctx, span := cache.tracer.Start(ctx, "RoomRedisCache.PostRooms")
	defer span.End()

	payload, err := json.Marshal(rooms)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	result := cache.client.Set(roomsCacheKey, payload, roomsCacheTTL)
	if result.Err() != nil {
		span.SetStatus(codes.Error, "Error caching rooms")
		cache.logger.Printf("redis set error: %s", result.Err())
		return result.Err()
	}

	return nil
}

func (cache *RoomRedisCache) GetRooms(ctx context.Context) ([]*domain.Room, error) {
	ctx, span := cache.tracer.Start(ctx, "RoomRedisCache.GetRooms")
	defer span.End()

	payload, err := cache.client.Get(roomsCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			span.SetStatus(codes.Error, "Error getting cached rooms")
			cache.logger.Println(err)
		}
		return nil, err
	}

	var rooms []*domain.Room
	if err := json.Unmarshal(payload, &rooms); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return rooms, nil
}
