package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
	application "room_reservation_service/service"
)

// Compact fakes; the booking invariants themselves are covered in the
// service package, these tests cover HTTP wiring and status mapping.

type fakeReservationStore struct {
	mu           sync.Mutex
	reservations []*domain.Reservation
}

func (store *fakeReservationStore) FindActive(ctx context.Context, roomID primitive.ObjectID, date string, timeSlot string) (*domain.Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, r := range store.reservations {
		if !r.Canceled && r.RoomID == roomID && r.Date == date && r.Time == timeSlot {
			return r, nil
		}
	}
	return nil, nil
}

func (store *fakeReservationStore) Insert(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, r := range store.reservations {
		if !r.Canceled && r.RoomID == reservation.RoomID && r.Date == reservation.Date && r.Time == reservation.Time {
			return nil, errors.ErrSlotAlreadyBooked
		}
	}
	reservation.ID = primitive.NewObjectID()
	store.reservations = append(store.reservations, reservation)
	return reservation, nil
}

func (store *fakeReservationStore) Cancel(ctx context.Context, id primitive.ObjectID) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, r := range store.reservations {
		if r.ID == id {
			r.Canceled = true
			return nil
		}
	}
	return errors.ErrReservationNotFound
}

func (store *fakeReservationStore) GetByUser(ctx context.Context, userID primitive.ObjectID, activeOnly bool) (domain.Reservations, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var result domain.Reservations
	for _, r := range store.reservations {
		if r.UserID == userID && (!activeOnly || !r.Canceled) {
			result = append(result, r)
		}
	}
	return result, nil
}

func (store *fakeReservationStore) GetAllActive(ctx context.Context) (domain.Reservations, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var result domain.Reservations
	for _, r := range store.reservations {
		if !r.Canceled {
			result = append(result, r)
		}
	}
	return result, nil
}

type fakeRoomStore struct {
	rooms []*domain.Room
}

func (store *fakeRoomStore) GetByName(ctx context.Context, name string) (*domain.Room, error) {
	for _, room := range store.rooms {
		if room.Name == name {
			return room, nil
		}
	}
	return nil, nil
}

func (store *fakeRoomStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.Room, error) {
	for _, room := range store.rooms {
		if room.ID == id {
			return room, nil
		}
	}
	return nil, nil
}

func (store *fakeRoomStore) GetAll(ctx context.Context) ([]*domain.Room, error) {
	return store.rooms, nil
}

func (store *fakeRoomStore) EnsureRooms(ctx context.Context, names []string) error {
	return nil
}

type fakeUserStore struct {
	users []*domain.User
}

func (store *fakeUserStore) Register(ctx context.Context, user *domain.User) (*domain.User, error) {
	user.ID = primitive.NewObjectID()
	store.users = append(store.users, user)
	return user, nil
}

func (store *fakeUserStore) Get(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	for _, user := range store.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, nil
}

func (store *fakeUserStore) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	for _, user := range store.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, nil
}

func (store *fakeUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range store.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (store *fakeUserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	return store.users, nil
}

func (store *fakeUserStore) Update(ctx context.Context, user *domain.User) error {
	return nil
}

func newTestHandler(t *testing.T) (*ReservationHandler, *fakeUserStore, *fakeRoomStore) {
	t.Helper()

	roomStore := &fakeRoomStore{rooms: []*domain.Room{
		{ID: primitive.NewObjectID(), Name: "Room 1"},
	}}
	userStore := &fakeUserStore{}
	reservationStore := &fakeReservationStore{}

	logger := log.New(io.Discard, "", 0)
	tracer := trace.NewNoopTracerProvider().Tracer("test")

	service := application.NewReservationService(reservationStore, roomStore, userStore, nil, logger, tracer)
	return NewReservationHandler(logger, service, tracer), userStore, roomStore
}

func claimsFor(userStore *fakeUserStore, username string, isAdmin bool) domain.Claims {
	user := &domain.User{Username: username, Email: username + "@example.com", IsAdmin: isAdmin}
	userStore.Register(context.Background(), user)
	role := domain.RoleUser
	if isAdmin {
		role = domain.RoleAdmin
	}
	return domain.Claims{UserID: user.ID, Username: username, Role: role}
}

func withClaims(req *http.Request, claims domain.Claims) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), KeyClaims{}, claims))
}

func withReservation(req *http.Request, request *domain.ReservationRequest) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), KeyReservation{}, request))
}

func TestCreateReservationStatusMapping(t *testing.T) {
	handler, userStore, _ := newTestHandler(t)
	alice := claimsFor(userStore, "alice", false)
	bob := claimsFor(userStore, "bob", false)

	booking := &domain.ReservationRequest{RoomName: "Room 1", Date: "2024-06-01", Time: "09:00"}

	req := withReservation(withClaims(httptest.NewRequest("POST", "/reservations", nil), alice), booking)
	recorder := httptest.NewRecorder()
	handler.CreateReservation(recorder, req)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created domain.Reservation
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, alice.UserID, created.UserID)

	// Same slot again: conflict.
	req = withReservation(withClaims(httptest.NewRequest("POST", "/reservations", nil), bob), booking)
	recorder = httptest.NewRecorder()
	handler.CreateReservation(recorder, req)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// Unknown room.
	missingRoom := &domain.ReservationRequest{RoomName: "Room 99", Date: "2024-06-01", Time: "09:00"}
	req = withReservation(withClaims(httptest.NewRequest("POST", "/reservations", nil), bob), missingRoom)
	recorder = httptest.NewRecorder()
	handler.CreateReservation(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestCancelReservationStatusMapping(t *testing.T) {
	handler, userStore, _ := newTestHandler(t)
	alice := claimsFor(userStore, "alice", false)
	admin := claimsFor(userStore, "admin", true)

	booking := &domain.ReservationRequest{RoomName: "Room 1", Date: "2024-06-01", Time: "09:00"}
	req := withReservation(withClaims(httptest.NewRequest("POST", "/reservations", nil), alice), booking)
	recorder := httptest.NewRecorder()
	handler.CreateReservation(recorder, req)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created domain.Reservation
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))

	cancelPath := "/reservations/" + created.ID.Hex() + "/cancel"

	// Non-admin actor is rejected.
	req = withClaims(httptest.NewRequest("POST", cancelPath, nil), alice)
	req = mux.SetURLVars(req, map[string]string{"id": created.ID.Hex()})
	recorder = httptest.NewRecorder()
	handler.CancelReservation(recorder, req)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	// Unknown id.
	req = withClaims(httptest.NewRequest("POST", "/reservations/652d2e1fa2b1c3d4e5f60718/cancel", nil), admin)
	req = mux.SetURLVars(req, map[string]string{"id": "652d2e1fa2b1c3d4e5f60718"})
	recorder = httptest.NewRecorder()
	handler.CancelReservation(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// Admin succeeds.
	req = withClaims(httptest.NewRequest("POST", cancelPath, nil), admin)
	req = mux.SetURLVars(req, map[string]string{"id": created.ID.Hex()})
	recorder = httptest.NewRecorder()
	handler.CancelReservation(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestMiddlewareReservationDeserialization(t *testing.T) {
	handler, _, _ := newTestHandler(t)

	next := http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		request, ok := h.Context().Value(KeyReservation{}).(*domain.ReservationRequest)
		require.True(t, ok)
		assert.Equal(t, "Room 1", request.RoomName)
		rw.WriteHeader(http.StatusOK)
	})
	wrapped := handler.MiddlewareReservationDeserialization(next)

	body := `{"roomName":"Room 1","date":"2024-06-01","time":"09:00"}`
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest("POST", "/reservations", strings.NewReader(body)))
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest("POST", "/reservations", strings.NewReader("not json")))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	badDate := `{"roomName":"Room 1","date":"June 1st","time":"09:00"}`
	recorder = httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest("POST", "/reservations", strings.NewReader(badDate)))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestMiddlewareAuthRejectsMissingToken(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-key")

	next := http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		t.Fatal("handler should not be reached")
	})
	wrapped := MiddlewareAuth(next)

	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, httptest.NewRequest("GET", "/reservations/my", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
