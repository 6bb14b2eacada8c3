package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"
	"unicode"

	"github.com/cristalhq/jwt/v4"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/gomail.v2"

	"room_reservation_service/domain"
	"room_reservation_service/errors"
)

var (
	smtpServer     = os.Getenv("SMTP_SERVER")
	smtpServerPort = 587
	smtpEmail      = os.Getenv("SMTP_AUTH_MAIL")
	smtpPassword   = os.Getenv("SMTP_AUTH_PASSWORD")
)

type AuthService struct {
	userStore domain.UserStore
	cache     domain.TokenCache
	logger    *log.Logger
	tracer    trace.Tracer
	mailCB    *gobreaker.CircuitBreaker
}

func NewAuthService(userStore domain.UserStore, cache domain.TokenCache, logger *log.Logger, tracer trace.Tracer) *AuthService {
	return &AuthService{
		userStore: userStore,
		cache:     cache,
		logger:    logger,
		tracer:    tracer,
		mailCB:    CircuitBreaker("recoveryMail"),
	}
}

type ValidationError struct {
	Message string `json:"message"`
}

func (v *ValidationError) Error() string {
	return v.Message
}

func verifyPassword(s string) (valid bool) {
	hasUpperCase := false
	hasLowerCase := false
	hasDigit := false

	for _, c := range s {
		switch {
		case unicode.IsNumber(c):
			hasDigit = true
		case unicode.IsUpper(c):
			hasUpperCase = true
		case unicode.IsLower(c):
			hasLowerCase = true
		}
	}

	valid = len(s) >= 8 && hasUpperCase && hasLowerCase && hasDigit
	return
}

func (service *AuthService) Register(ctx context.Context, user *domain.User) (int, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if err := user.Validate(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return http.StatusBadRequest, &ValidationError{Message: err.Error()}
	}

	if !verifyPassword(user.Password) {
		span.SetStatus(codes.Error, "weak password")
		return http.StatusBadRequest, &ValidationError{
			Message: "Invalid password format. It should be at least 8 characters, with at least one uppercase letter, one lowercase letter and one digit",
		}
	}

	existingUser, err := service.userStore.GetByUsername(ctx, user.Username)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return http.StatusInternalServerError, err
	}
	if existingUser != nil {
		span.SetStatus(codes.Error, errors.UsernameExist)
		return http.StatusConflict, fmt.Errorf(errors.UsernameExist)
	}

	existingMail, err := service.userStore.GetByEmail(ctx, user.Email)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return http.StatusInternalServerError, err
	}
	if existingMail != nil {
		span.SetStatus(codes.Error, errors.EmailAlreadyExist)
		return http.StatusNotAcceptable, fmt.Errorf(errors.EmailAlreadyExist)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return http.StatusInternalServerError, err
	}
	user.Password = string(hash)
	user.IsAdmin = false

	_, err = service.userStore.Register(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return http.StatusInternalServerError, err
	}

	service.logger.Printf("Registered user: %s", user.Username)
	return http.StatusOK, nil
}

func (service *AuthService) Login(ctx context.Context, credentials *domain.Credentials) (string, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.Login")
	defer span.End()

	user, err := service.userStore.GetByUsername(ctx, credentials.Username)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if user == nil {
		span.SetStatus(codes.Error, errors.InvalidCredentials)
		return "", fmt.Errorf(errors.InvalidCredentials)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(credentials.Password))
	if err != nil {
		span.SetStatus(codes.Error, errors.InvalidCredentials)
		return "", fmt.Errorf(errors.InvalidCredentials)
	}

	token, err := GenerateJWT(user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf(errors.ErrorToken)
	}

	return token, nil
}

func GenerateJWT(user *domain.User) (string, error) {
	key := []byte(os.Getenv("SECRET_KEY"))
	signer, err := jwt.NewSignerHS(jwt.HS256, key)
	if err != nil {
		return "", err
	}

	builder := jwt.NewBuilder(signer)

	role := domain.RoleUser
	if user.IsAdmin {
		role = domain.RoleAdmin
	}

	claims := &domain.Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      role,
		ExpiresAt: time.Now().Add(time.Minute * 60),
	}

	token, err := builder.Build(claims)
	if err != nil {
		return "", err
	}

	return token.String(), nil
}

// SendRecoveryPasswordToken mails a one-time recovery token and caches it
// against the user id. The mail dialer sits behind a circuit breaker so a
// dead SMTP relay fails fast instead of tying up request handlers.
func (service *AuthService) SendRecoveryPasswordToken(ctx context.Context, email string) (string, int, error) {
	ctx, span := service.tracer.Start(ctx, "AuthService.SendRecoveryPasswordToken")
	defer span.End()

	user, err := service.userStore.GetByEmail(ctx, email)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", http.StatusInternalServerError, err
	}
	if user == nil {
		span.SetStatus(codes.Error, errors.EmailNotFound)
		return "", http.StatusNotFound, fmt.Errorf(errors.EmailNotFound)
	}

	recoveryToken := uuid.New()

	err = service.cache.PostCacheData(ctx, user.ID.Hex(), recoveryToken.String())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return "", http.StatusInternalServerError, err
	}

	_, err = service.mailCB.Execute(func() (interface{}, error) {
		return nil, sendRecoveryMail(recoveryToken, email)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		service.logger.Printf("failed to send recovery mail: %s", err)
		return "", http.StatusInternalServerError, err
	}

	return user.ID.Hex(), http.StatusOK, nil
}

func (service *AuthService) RecoverPassword(ctx context.Context, request *domain.RecoverPasswordRequest) error {
	ctx, span := service.tracer.Start(ctx, "AuthService.RecoverPassword")
	defer span.End()

	cachedToken, err := service.cache.GetCachedValue(ctx, request.UserToken)
	if err != nil {
		span.SetStatus(codes.Error, errors.ExpiredTokenError)
		return fmt.Errorf(errors.ExpiredTokenError)
	}

	if cachedToken != request.MailToken {
		span.SetStatus(codes.Error, errors.InvalidTokenError)
		return fmt.Errorf(errors.InvalidTokenError)
	}

	if !verifyPassword(request.NewPassword) {
		span.SetStatus(codes.Error, "weak password")
		return &ValidationError{
			Message: "Invalid password format. It should be at least 8 characters, with at least one uppercase letter, one lowercase letter and one digit",
		}
	}

	userID, err := primitive.ObjectIDFromHex(request.UserToken)
	if err != nil {
		span.SetStatus(codes.Error, errors.InvalidTokenError)
		return fmt.Errorf(errors.InvalidTokenError)
	}

	user, err := service.userStore.Get(ctx, userID)
	if err != nil || user == nil {
		span.SetStatus(codes.Error, errors.InvalidTokenError)
		return fmt.Errorf(errors.InvalidTokenError)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	user.Password = string(hash)

	err = service.userStore.Update(ctx, user)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := service.cache.DelCachedValue(ctx, request.UserToken); err != nil {
		service.logger.Printf("error in deleting cached value: %s", err)
	}

	return nil
}

func sendRecoveryMail(recoveryToken uuid.UUID, email string) error {
	message := gomail.NewMessage()
	message.SetHeader("From", smtpEmail)
	message.SetHeader("To", email)
	message.SetHeader("Subject", "Recover your room reservation account password")

	bodyString := fmt.Sprintf("Your password recovery token is:\n%s", recoveryToken)
	message.SetBody("text", bodyString)

	client := gomail.NewDialer(smtpServer, smtpServerPort, smtpEmail, smtpPassword)

	if err := client.DialAndSend(message); err != nil {
		return err
	}

	return nil
}

func CircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(
		gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			Interval:    0,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				log.Printf("Circuit Breaker '%s' changed from '%s' to '%s'\n", name, from, to)
			},
		},
	)
}
