package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RoomStore interface {
	GetByName(ctx context.Context, name string) (*Room, error)
	Get(ctx context.Context, id primitive.ObjectID) (*Room, error)
	GetAll(ctx context.Context) ([]*Room, error)
	EnsureRooms(ctx context.Context, names []string) error
}
