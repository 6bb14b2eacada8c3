package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
	application "room_reservation_service/service"
)

type UserHandler struct {
	logger  *log.Logger
	service *application.UserService
	tracer  trace.Tracer
}

func NewUserHandler(logger *log.Logger, service *application.UserService, tracer trace.Tracer) *UserHandler {
	return &UserHandler{
		logger:  logger,
		service: service,
		tracer:  tracer,
	}
}

func (handler *UserHandler) Init(router *mux.Router) {

	profileRouter := router.Path("/profile").Subrouter()
	profileRouter.HandleFunc("", handler.GetProfile).Methods("GET")
	profileRouter.HandleFunc("", handler.UpdateProfile).Methods("PATCH")
	profileRouter.Use(MiddlewareAuth)
}

func (handler *UserHandler) GetProfile(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.GetProfile")
	defer span.End()

	claims := req.Context().Value(KeyClaims{}).(domain.Claims)

	user, err := handler.service.GetProfile(ctx, claims.UserID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		http.Error(writer, err.Error(), http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(writer, "user not found", http.StatusNotFound)
		return
	}

	jsonResponse(user, writer)
}

func (handler *UserHandler) UpdateProfile(writer http.ResponseWriter, req *http.Request) {
	ctx, span := handler.tracer.Start(req.Context(), "UserHandler.UpdateProfile")
	defer span.End()

	claims := req.Context().Value(KeyClaims{}).(domain.Claims)

	var update domain.ProfileUpdate
	err := json.NewDecoder(req.Body).Decode(&update)
	if err != nil {
		http.Error(writer, errors.InvalidRequestFormatError, http.StatusBadRequest)
		return
	}

	user, err := handler.service.UpdateProfile(ctx, claims.UserID, &update)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		switch err.Error() {
		case errors.UsernameExist, errors.EmailAlreadyExist:
			http.Error(writer, err.Error(), http.StatusConflict)
		default:
			if _, ok := err.(*application.ValidationError); ok {
				http.Error(writer, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(writer, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	jsonResponse(user, writer)
}
