package application

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
)

// ReservationService is the single write path that turns a booking request
// into a committed or rejected reservation. The conflict pre-check is a fast
// path for the common case; the unique partial index behind
// ReservationStore.Insert is what actually arbitrates concurrent bookings of
// the same slot.
type ReservationService struct {
	reservationStore domain.ReservationStore
	roomStore        domain.RoomStore
	userStore        domain.UserStore
	roomCache        domain.RoomCache
	logger           *log.Logger
	tracer           trace.Tracer
}

func NewReservationService(reservationStore domain.ReservationStore, roomStore domain.RoomStore,
	userStore domain.UserStore, roomCache domain.RoomCache, logger *log.Logger, tracer trace.Tracer) *ReservationService {
	return &ReservationService{
		reservationStore: reservationStore,
		roomStore:        roomStore,
		userStore:        userStore,
		roomCache:        roomCache,
		logger:           logger,
		tracer:           tracer,
	}
}

func (service *ReservationService) Book(ctx context.Context, claims domain.Claims, request *domain.ReservationRequest) (*domain.Reservation, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.Book")
	defer span.End()

	date, timeSlot, err := canonicalSlot(request.Date, request.Time)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	room, err := service.roomStore.GetByName(ctx, request.RoomName)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if room == nil {
		span.SetStatus(codes.Error, errors.ErrRoomNotFound.Error())
		return nil, errors.ErrRoomNotFound
	}

	existing, err := service.reservationStore.FindActive(ctx, room.ID, date, timeSlot)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	if existing != nil {
		span.SetStatus(codes.Error, errors.ErrSlotAlreadyBooked.Error())
		return nil, errors.ErrSlotAlreadyBooked
	}

	reservation := &domain.Reservation{
		UserID: claims.UserID,
		RoomID: room.ID,
		Date:   date,
		Time:   timeSlot,
	}

	created, err := service.reservationStore.Insert(ctx, reservation)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		// A concurrent booking may win the race between the check above and
		// the insert; the index violation is the same rejection.
		if err == errors.ErrSlotAlreadyBooked {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	service.logger.Print("Reservation created successfully: ", created.ID.Hex())
	return created, nil
}

func (service *ReservationService) CancelReservation(ctx context.Context, claims domain.Claims, reservationID string) error {
	ctx, span := service.tracer.Start(ctx, "ReservationService.CancelReservation")
	defer span.End()

	if claims.Role != domain.RoleAdmin {
		span.SetStatus(codes.Error, errors.ErrNotAuthorized.Error())
		return errors.ErrNotAuthorized
	}

	id, err := primitive.ObjectIDFromHex(reservationID)
	if err != nil {
		span.SetStatus(codes.Error, errors.ErrReservationNotFound.Error())
		return errors.ErrReservationNotFound
	}

	err = service.reservationStore.Cancel(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		if err == errors.ErrReservationNotFound {
			return err
		}
		return fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	service.logger.Print("Reservation canceled: ", reservationID)
	return nil
}

func (service *ReservationService) GetMyReservations(ctx context.Context, claims domain.Claims) (domain.Reservations, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.GetMyReservations")
	defer span.End()

	reservations, err := service.reservationStore.GetByUser(ctx, claims.UserID, true)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}
	return reservations, nil
}

// GetAllReservations returns every active reservation joined with its user
// and room, for administrative review.
func (service *ReservationService) GetAllReservations(ctx context.Context) ([]*domain.ReservationDetails, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.GetAllReservations")
	defer span.End()

	reservations, err := service.reservationStore.GetAllActive(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	usernames := map[primitive.ObjectID]string{}
	roomNames := map[primitive.ObjectID]string{}

	details := make([]*domain.ReservationDetails, 0, len(reservations))
	for _, reservation := range reservations {
		username, ok := usernames[reservation.UserID]
		if !ok {
			user, err := service.userStore.Get(ctx, reservation.UserID)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			if user != nil {
				username = user.Username
			}
			usernames[reservation.UserID] = username
		}

		roomName, ok := roomNames[reservation.RoomID]
		if !ok {
			room, err := service.roomStore.Get(ctx, reservation.RoomID)
			if err != nil {
				span.SetStatus(codes.Error, err.Error())
				return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
			}
			if room != nil {
				roomName = room.Name
			}
			roomNames[reservation.RoomID] = roomName
		}

		details = append(details, &domain.ReservationDetails{
			ID:       reservation.ID,
			Username: username,
			RoomName: roomName,
			Date:     reservation.Date,
			Time:     reservation.Time,
		})
	}

	return details, nil
}

func (service *ReservationService) ListRooms(ctx context.Context) ([]*domain.Room, error) {
	ctx, span := service.tracer.Start(ctx, "ReservationService.ListRooms")
	defer span.End()

	if service.roomCache != nil {
		cached, err := service.roomCache.GetRooms(ctx)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	rooms, err := service.roomStore.GetAll(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", errors.ErrPersistence, err)
	}

	if service.roomCache != nil {
		if err := service.roomCache.PostRooms(ctx, rooms); err != nil {
			service.logger.Println(err)
		}
	}

	return rooms, nil
}

// canonicalSlot re-formats the date and time through their layouts so that
// equal slots are byte-equal in the store. Exact-match only: two
// reservations a minute apart on the same room do not conflict.
func canonicalSlot(date string, timeSlot string) (string, string, error) {
	parsedDate, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return "", "", fmt.Errorf("invalid date %q: %v", date, err)
	}

	parsedTime, err := time.Parse(domain.TimeLayout, timeSlot)
	if err != nil {
		return "", "", fmt.Errorf("invalid time %q: %v", timeSlot, err)
	}

	return parsedDate.Format(domain.DateLayout), parsedTime.Format(domain.TimeLayout), nil
}
