package store

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
)

const (
	DATABASE                = "room_reservation"
	RESERVATIONS_COLLECTION = "reservations"
)

type ReservationMongoDBStore struct {
	reservations *mongo.Collection
	logger       *log.Logger
	tracer       trace.Tracer
}

func NewReservationMongoDBStore(client *mongo.Client, logger *log.Logger, tracer trace.Tracer) *ReservationMongoDBStore {
	reservations := client.Database(DATABASE).Collection(RESERVATIONS_COLLECTION)
	return &ReservationMongoDBStore{
		reservations: reservations,
		logger:       logger,
		tracer:       tracer,
	}
}

// CreateIndexes installs the unique partial index that makes the insert the
// atomic arbiter of slot conflicts: at most one document per
// (roomId, date, time) while canceled == false. Canceled reservations fall
// out of the index and stop conflicting.
func (store *ReservationMongoDBStore) CreateIndexes(ctx context.Context) error {
	index := mongo.IndexModel{
		Keys: bson.D{
			{Key: "roomId", Value: 1},
			{Key: "date", Value: 1},
			{Key: "time", Value: 1},
		},
		Options: options.Index().
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"canceled": bson.M{"$eq": false}}),
	}

	_, err := store.reservations.Indexes().CreateOne(ctx, index)
	if err != nil {
		store.logger.Println(err)
	}
	return err
}

func (store *ReservationMongoDBStore) FindActive(ctx context.Context, roomID primitive.ObjectID, date string, timeSlot string) (*domain.Reservation, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.FindActive")
	defer span.End()

	filter := bson.M{
		"roomId":   roomID,
		"date":     date,
		"time":     timeSlot,
		"canceled": false,
	}

	result := store.reservations.FindOne(ctx, filter)

	var reservation domain.Reservation
	if err := result.Decode(&reservation); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		span.SetStatus(codes.Error, err.Error())
		store.logger.Println(err)
		return nil, err
	}

	return &reservation, nil
}

func (store *ReservationMongoDBStore) Insert(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.Insert")
	defer span.End()

	reservation.ID = primitive.NewObjectID()
	reservation.Canceled = false
	reservation.CreatedAt = time.Now()

	result, err := store.reservations.InsertOne(ctx, reservation)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.ErrSlotAlreadyBooked
		}
		store.logger.Println(err)
		return nil, err
	}

	reservation.ID = result.InsertedID.(primitive.ObjectID)
	return reservation, nil
}

func (store *ReservationMongoDBStore) Cancel(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.Cancel")
	defer span.End()

	filter := bson.M{"_id": id}
	update := bson.M{"$set": bson.M{"canceled": true}}

	result, err := store.reservations.UpdateOne(ctx, filter, update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		store.logger.Println(err)
		return err
	}

	if result.MatchedCount == 0 {
		span.SetStatus(codes.Error, errors.ErrReservationNotFound.Error())
		return errors.ErrReservationNotFound
	}

	return nil
}

func (store *ReservationMongoDBStore) GetByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) (domain.Reservations, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.GetByUser")
	defer span.End()

	filter := bson.M{"userId": userID}
	if activeOnly {
		filter["canceled"] = false
	}

	return store.filter(ctx, filter)
}

func (store *ReservationMongoDBStore) GetAllActive(ctx context.Context) (domain.Reservations, error) {
	ctx, span := store.tracer.Start(ctx, "ReservationStore.GetAllActive")
	defer span.End()

	filter := bson.M{"canceled": false}
	return store.filter(ctx, filter)
}

func (store *ReservationMongoDBStore) filter(ctx context.Context, filter interface{}) (domain.Reservations, error) {
	cursor, err := store.reservations.Find(ctx, filter)
	if err != nil {
		store.logger.Println(err)
		return nil, err
	}
	defer cursor.Close(ctx)

	return decodeReservations(ctx, cursor)
}

func decodeReservations(ctx context.Context, cursor *mongo.Cursor) (reservations domain.Reservations, err error) {
	for cursor.Next(ctx) {
		var reservation domain.Reservation
		err = cursor.Decode(&reservation)
		if err != nil {
			return
		}
		reservations = append(reservations, &reservation)
	}
	err = cursor.Err()
	return
}
