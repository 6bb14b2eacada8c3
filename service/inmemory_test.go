package application

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
)

// inMemoryReservationStore mirrors the Mongo store's contract, including the
// atomicity of Insert: the active-slot uniqueness check and the insert happen
// under one lock, the way the unique partial index arbitrates in Mongo.
type inMemoryReservationStore struct {
	mu           sync.Mutex
	reservations []*domain.Reservation
}

func newInMemoryReservationStore() *inMemoryReservationStore {
	return &inMemoryReservationStore{}
}

func (store *inMemoryReservationStore) FindActive(ctx context.Context, roomID primitive.ObjectID, date string, timeSlot string) (*domain.Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.findActiveLocked(roomID, date, timeSlot), nil
}

func (store *inMemoryReservationStore) findActiveLocked(roomID primitive.ObjectID, date string, timeSlot string) *domain.Reservation {
	for _, reservation := range store.reservations {
		if !reservation.Canceled && reservation.RoomID == roomID &&
			reservation.Date == date && reservation.Time == timeSlot {
			copied := *reservation
			return &copied
		}
	}
	return nil
}

func (store *inMemoryReservationStore) Insert(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	if store.findActiveLocked(reservation.RoomID, reservation.Date, reservation.Time) != nil {
		return nil, errors.ErrSlotAlreadyBooked
	}

	stored := *reservation
	stored.ID = primitive.NewObjectID()
	stored.Canceled = false
	stored.CreatedAt = time.Now()
	store.reservations = append(store.reservations, &stored)

	copied := stored
	return &copied, nil
}

func (store *inMemoryReservationStore) Cancel(ctx context.Context, id primitive.ObjectID) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, reservation := range store.reservations {
		if reservation.ID == id {
			reservation.Canceled = true
			return nil
		}
	}
	return errors.ErrReservationNotFound
}

func (store *inMemoryReservationStore) GetByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) (domain.Reservations, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var result domain.Reservations
	for _, reservation := range store.reservations {
		if reservation.UserID != userID {
			continue
		}
		if activeOnly && reservation.Canceled {
			continue
		}
		copied := *reservation
		result = append(result, &copied)
	}
	return result, nil
}

func (store *inMemoryReservationStore) GetAllActive(ctx context.Context) (domain.Reservations, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	var result domain.Reservations
	for _, reservation := range store.reservations {
		if reservation.Canceled {
			continue
		}
		copied := *reservation
		result = append(result, &copied)
	}
	return result, nil
}

func (store *inMemoryReservationStore) activeCount(roomID primitive.ObjectID, date string, timeSlot string) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	count := 0
	for _, reservation := range store.reservations {
		if !reservation.Canceled && reservation.RoomID == roomID &&
			reservation.Date == date && reservation.Time == timeSlot {
			count++
		}
	}
	return count
}

type inMemoryRoomStore struct {
	mu    sync.Mutex
	rooms []*domain.Room
}

func newInMemoryRoomStore() *inMemoryRoomStore {
	return &inMemoryRoomStore{}
}

func (store *inMemoryRoomStore) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, room := range store.rooms {
		if room.Name == name {
			copied := *room
			return &copied, nil
		}
	}
	return nil, nil
}

func (store *inMemoryRoomStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, room := range store.rooms {
		if room.ID == id {
			copied := *room
			return &copied, nil
		}
	}
	return nil, nil
}

func (store *inMemoryRoomStore) GetAll(ctx context.Context) ([]*domain.Room, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	result := make([]*domain.Room, 0, len(store.rooms))
	for _, room := range store.rooms {
		copied := *room
		result = append(result, &copied)
	}
	return result, nil
}

func (store *inMemoryRoomStore) EnsureRooms(ctx context.Context, names []string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

outer:
	for _, name := range names {
		for _, room := range store.rooms {
			if room.Name == name {
				continue outer
			}
		}
		store.rooms = append(store.rooms, &domain.Room{
			ID:   primitive.NewObjectID(),
			Name: name,
		})
	}
	return nil
}

type inMemoryUserStore struct {
	mu    sync.Mutex
	users []*domain.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{}
}

func (store *inMemoryUserStore) Register(ctx context.Context, user *domain.User) (*domain.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	stored := *user
	stored.ID = primitive.NewObjectID()
	store.users = append(store.users, &stored)

	user.ID = stored.ID
	return user, nil
}

func (store *inMemoryUserStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (store *inMemoryUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (store *inMemoryUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	for _, user := range store.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (store *inMemoryUserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	result := make([]*domain.User, 0, len(store.users))
	for _, user := range store.users {
		copied := *user
		result = append(result, &copied)
	}
	return result, nil
}

func (store *inMemoryUserStore) Update(ctx context.Context, updated *domain.User) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	for i, user := range store.users {
		if user.ID == updated.ID {
			copied := *updated
			store.users[i] = &copied
			return nil
		}
	}
	return errors.ErrPersistence
}

type inMemoryTokenCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newInMemoryTokenCache() *inMemoryTokenCache {
	return &inMemoryTokenCache{values: map[string]string{}}
}

func (cache *inMemoryTokenCache) PostCacheData(ctx context.Context, key string, value string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.values[key] = value
	return nil
}

func (cache *inMemoryTokenCache) GetCachedValue(ctx context.Context, key string) (string, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	value, ok := cache.values[key]
	if !ok {
		return "", errors.ErrPersistence
	}
	return value, nil
}

func (cache *inMemoryTokenCache) DelCachedValue(ctx context.Context, key string) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	delete(cache.values, key)
	return nil
}

type inMemoryRoomCache struct {
	mu    sync.Mutex
	rooms []*domain.Room
	hits  int
	posts int
}

func newInMemoryRoomCache() *inMemoryRoomCache {
	return &inMemoryRoomCache{}
}

func (cache *inMemoryRoomCache) PostRooms(ctx context.Context, rooms []*domain.Room) error {
	cache.mu.Lock()
	defer cache.mu.Unlock()
	cache.rooms = rooms
	cache.posts++
	return nil
}

func (cache *inMemoryRoomCache) GetRooms(ctx context.Context) ([]*domain.Room, error) {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if len(cache.rooms) == 0 {
		return nil, errors.ErrPersistence
	}
	cache.hits++
	return cache.rooms, nil
}
