package domain

import "context"

// TokenCache holds short-lived password recovery tokens.
type TokenCache interface {
	PostCacheData(ctx context.Context, key string, value string) error
	GetCachedValue(ctx context.Context, key string) (string, error)
	DelCachedValue(ctx context.Context, key string) error
}

// RoomCache caches the room directory. Rooms are immutable after seeding,
// so a stale entry can only ever be missing rooms, never wrong ones.
type RoomCache interface {
	PostRooms(ctx context.Context, rooms []*Room) error
	GetRooms(ctx context.Context) ([]*Room, error)
}
