package store

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
)

const ROOMS_COLLECTION = "rooms"

type RoomMongoDBStore struct {
	rooms  *mongo.Collection
	logger *log.Logger
	tracer trace.Tracer
}

func NewRoomMongoDBStore(client *mongo.Client, logger *log.Logger, tracer trace.Tracer) *RoomMongoDBStore {
	rooms := client.Database(DATABASE).Collection(ROOMS_COLLECTION)
	return &RoomMongoDBStore{
		rooms:  rooms,
		logger: logger,
		tracer: tracer,
	}
}

func (store *RoomMongoDBStore) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	ctx, span := store.tracer.Start(ctx, "RoomStore.GetByName")
	defer span.End()

	filter := bson.M{"name": name}
	return store.filterOne(ctx, span, filter)
}

func (store *RoomMongoDBStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	ctx, span := store.tracer.Start(ctx, "RoomStore.Get")
	defer span.End()

	filter := bson.M{"_id": id}
	return store.filterOne(ctx, span, filter)
}

func (store *RoomMongoDBStore) GetAll(ctx context.Context) ([]*domain.Room, error) {
	ctx, span := store.tracer.Start(ctx, "RoomStore.GetAll")
	defer span.End()

	cursor, err := store.rooms.Find(ctx, bson.D{{}})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		store.logger.Println(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []*domain.Room
	for cursor.Next(ctx) {
		var room domain.Room
		if err := cursor.Decode(&room); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		rooms = append(rooms, &room)
	}
	if err := cursor.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	return rooms, nil
}

// EnsureRooms provisions the named rooms if they do not exist yet. The room
// directory is immutable afterwards; a unique index on name keeps concurrent
// seeding runs from duplicating rooms.
func (store *RoomMongoDBStore) EnsureRooms(ctx context.Context, names []string) error {
	ctx, span := store.tracer.Start(ctx, "RoomStore.EnsureRooms")
	defer span.End()

	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := store.rooms.Indexes().CreateOne(ctx, index); err != nil {
		span.SetStatus(codes.Error, err.Error())
		store.logger.Println(err)
		return err
	}

	for _, name := range names {
		room := &domain.Room{
			ID:   primitive.NewObjectID(),
			Name: name,
		}
		_, err := store.rooms.InsertOne(ctx, room)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				continue
			}
			span.SetStatus(codes.Error, err.Error())
			store.logger.Println(err)
			return err
		}
	}

	return nil
}

func (store *RoomMongoDBStore) filterOne(ctx context.Context, span trace.Span, filter interface{}) (*domain.Room, error) {
	result := store.rooms.FindOne(ctx, filter)

	var room domain.Room
	if err := result.Decode(&room); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		span.SetStatus(codes.Error, err.Error())
		store.logger.Println(err)
		return nil, err
	}

	return &room, nil
}
