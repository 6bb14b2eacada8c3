package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReservationStore is the ledger of all reservations, canceled or not.
// Implementations must enforce that at most one reservation with
// canceled == false exists per (room, date, time) triple; Insert reports a
// violation as errors.ErrSlotAlreadyBooked.
type ReservationStore interface {
	FindActive(ctx context.Context, roomID primitive.ObjectID, date string, time string) (*Reservation, error)
	Insert(ctx context.Context, reservation *Reservation) (*Reservation, error)
	Cancel(ctx context.Context, id primitive.ObjectID) error
	GetByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) (Reservations, error)
	GetAllActive(ctx context.Context) (Reservations, error)
}
