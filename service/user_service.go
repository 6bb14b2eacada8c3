package application

import (
	"context"
	"fmt"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
)

type UserService struct {
	userStore domain.UserStore
	logger    *log.Logger
	tracer    trace.Tracer
}

func NewUserService(userStore domain.UserStore, logger *log.Logger, tracer trace.Tracer) *UserService {
	return &UserService{
		userStore: userStore,
		logger:    logger,
		tracer:    tracer,
	}
}

func (service *UserService) GetProfile(ctx context.Context, userID primitive.ObjectID) (*domain.User, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.GetProfile")
	defer span.End()

	user, err := service.userStore.Get(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	user.Password = ""
	return user, nil
}

// UpdateProfile edits username, email and phone; the password only changes
// when a new one is supplied.
func (service *UserService) UpdateProfile(ctx context.Context, userID primitive.ObjectID, update *domain.ProfileUpdate) (*domain.User, error) {
	ctx, span := service.tracer.Start(ctx, "UserService.UpdateProfile")
	defer span.End()

	if err := update.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &ValidationError{Message: err.Error()}
	}

	user, err := service.userStore.Get(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if user == nil {
		span.SetStatus(codes.Error, "user not found")
		return nil, fmt.Errorf("user not found")
	}

	if update.Username != user.Username {
		existing, err := service.userStore.GetByUsername(ctx, update.Username)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if existing != nil {
			span.SetStatus(codes.Error, errors.UsernameExist)
			return nil, fmt.Errorf(errors.UsernameExist)
		}
	}

	if update.Email != user.Email {
		existing, err := service.userStore.GetByEmail(ctx, update.Email)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		if existing != nil {
			span.SetStatus(codes.Error, errors.EmailAlreadyExist)
			return nil, fmt.Errorf(errors.EmailAlreadyExist)
		}
	}

	user.Username = update.Username
	user.Email = update.Email
	user.ContactPhone = update.ContactPhone

	if update.Password != "" {
		if !verifyPassword(update.Password) {
			span.SetStatus(codes.Error, "weak password")
			return nil, &ValidationError{
				Message: "Invalid password format. It should be at least 8 characters, with at least one uppercase letter, one lowercase letter and one digit",
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(update.Password), bcrypt.DefaultCost)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		user.Password = string(hash)
	}

	err = service.userStore.Update(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	service.logger.Printf("Profile updated: %s", user.Username)

	updated := *user
	updated.Password = ""
	return &updated, nil
}
