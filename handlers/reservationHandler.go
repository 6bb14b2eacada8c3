package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/authorization"
	"room_reservation_service/domain"
	apperrors "room_reservation_service/errors"
	application "room_reservation_service/service"
)

type KeyReservation struct{}
type KeyClaims struct{}

type ReservationHandler struct {
	logger  *log.Logger
	service *application.ReservationService
	tracer  trace.Tracer
}

func NewReservationHandler(logger *log.Logger, service *application.ReservationService, tracer trace.Tracer) *ReservationHandler {
	return &ReservationHandler{
		logger:  logger,
		service: service,
		tracer:  tracer,
	}
}

func (handler *ReservationHandler) Init(router *mux.Router) {

	createReservation := router.Methods(http.MethodPost).Subrouter()
	createReservation.HandleFunc("/reservations", handler.CreateReservation)
	createReservation.Use(MiddlewareAuth)
	createReservation.Use(handler.MiddlewareReservationDeserialization)

	cancelReservation := router.Methods(http.MethodPost).Subrouter()
	cancelReservation.HandleFunc("/reservations/{id}/cancel", handler.CancelReservation)
	cancelReservation.Use(MiddlewareAuth)

	getReservations := router.Methods(http.MethodGet).Subrouter()
	getReservations.HandleFunc("/reservations/my", handler.GetMyReservations)
	getReservations.HandleFunc("/reservations/all", handler.GetAllReservations)
	getReservations.HandleFunc("/rooms", handler.ListRooms)
	getReservations.Use(MiddlewareAuth)
}

func (handler *ReservationHandler) CreateReservation(rw http.ResponseWriter, h *http.Request) {
	ctx, span := handler.tracer.Start(h.Context(), "ReservationHandler.CreateReservation")
	defer span.End()

	claims := h.Context().Value(KeyClaims{}).(domain.Claims)
	request := h.Context().Value(KeyReservation{}).(*domain.ReservationRequest)

	created, err := handler.service.Book(ctx, claims, request)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, apperrors.ErrRoomNotFound):
			http.Error(rw, err.Error(), http.StatusNotFound)
		case errors.Is(err, apperrors.ErrSlotAlreadyBooked):
			http.Error(rw, err.Error(), http.StatusConflict)
		case errors.Is(err, apperrors.ErrPersistence):
			handler.logger.Print("Database exception: ", err)
			http.Error(rw, apperrors.ErrPersistence.Error(), http.StatusInternalServerError)
		default:
			http.Error(rw, err.Error(), http.StatusBadRequest)
		}
		return
	}

	rw.WriteHeader(http.StatusCreated)
	if err := created.ToJSON(rw); err != nil {
		handler.logger.Println("Unable to convert to json :", err)
	}
}

func (handler *ReservationHandler) GetMyReservations(rw http.ResponseWriter, h *http.Request) {
	ctx, span := handler.tracer.Start(h.Context(), "ReservationHandler.GetMyReservations")
	defer span.End()

	claims := h.Context().Value(KeyClaims{}).(domain.Claims)

	reservations, err := handler.service.GetMyReservations(ctx, claims)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	if reservations == nil {
		reservations = domain.Reservations{}
	}
	if err := reservations.ToJSON(rw); err != nil {
		handler.logger.Println("Unable to convert to json :", err)
	}
}

func (handler *ReservationHandler) GetAllReservations(rw http.ResponseWriter, h *http.Request) {
	ctx, span := handler.tracer.Start(h.Context(), "ReservationHandler.GetAllReservations")
	defer span.End()

	details, err := handler.service.GetAllReservations(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(details, rw)
}

func (handler *ReservationHandler) CancelReservation(rw http.ResponseWriter, h *http.Request) {
	ctx, span := handler.tracer.Start(h.Context(), "ReservationHandler.CancelReservation")
	defer span.End()

	claims := h.Context().Value(KeyClaims{}).(domain.Claims)
	vars := mux.Vars(h)

	err := handler.service.CancelReservation(ctx, claims, vars["id"])
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch {
		case errors.Is(err, apperrors.ErrNotAuthorized):
			http.Error(rw, err.Error(), http.StatusForbidden)
		case errors.Is(err, apperrors.ErrReservationNotFound):
			http.Error(rw, err.Error(), http.StatusNotFound)
		default:
			http.Error(rw, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	rw.WriteHeader(http.StatusOK)
}

func (handler *ReservationHandler) ListRooms(rw http.ResponseWriter, h *http.Request) {
	ctx, span := handler.tracer.Start(h.Context(), "ReservationHandler.ListRooms")
	defer span.End()

	rooms, err := handler.service.ListRooms(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(rooms, rw)
}

func (handler *ReservationHandler) MiddlewareReservationDeserialization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		request := &domain.ReservationRequest{}
		err := request.FromJSON(h.Body)
		if err != nil {
			handler.logger.Println(err)
			http.Error(rw, "Unable to Decode JSON", http.StatusBadRequest)
			return
		}

		if err := request.Validate(); err != nil {
			http.Error(rw, err.Error(), http.StatusBadRequest)
			return
		}

		ctx := context.WithValue(h.Context(), KeyReservation{}, request)
		h = h.WithContext(ctx)

		next.ServeHTTP(rw, h)
	})
}

// MiddlewareAuth resolves the bearer token into domain.Claims for handlers
// downstream. Role/route gating happens in the casbin middleware; this one
// only establishes identity.
func MiddlewareAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, h *http.Request) {
		claims, err := authorization.ClaimsFromRequest(h)
		if err != nil {
			http.Error(rw, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(h.Context(), KeyClaims{}, claims)
		h = h.WithContext(ctx)

		next.ServeHTTP(rw, h)
	})
}
