package authorization

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cristalhq/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"room_reservation_service/domain"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

func jwtKey() []byte {
	return []byte(os.Getenv("SECRET_KEY"))
}

func GetToken(tokenString string) (*jwt.Token, error) {
	verifier, err := jwt.NewVerifierHS(jwt.HS256, jwtKey())
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse([]byte(tokenString), verifier)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return token, nil
}

func GetMapClaims(tokenBytes []byte) (map[string]string, error) {
	verifier, err := jwt.NewVerifierHS(jwt.HS256, jwtKey())
	if err != nil {
		return nil, err
	}

	var claims map[string]string
	err = jwt.ParseClaims(tokenBytes, verifier, &claims)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// ClaimsFromRequest pulls the bearer token off the Authorization header and
// turns it into the caller's identity.
func ClaimsFromRequest(r *http.Request) (domain.Claims, error) {
	bearer := r.Header.Get("Authorization")
	if bearer == "" {
		return domain.Claims{}, ErrMissingToken
	}

	bearerToken := strings.Split(bearer, "Bearer ")
	if len(bearerToken) != 2 {
		return domain.Claims{}, ErrInvalidToken
	}

	token, err := GetToken(bearerToken[1])
	if err != nil {
		return domain.Claims{}, err
	}

	mapClaims, err := GetMapClaims(token.Bytes())
	if err != nil {
		return domain.Claims{}, err
	}

	userID, err := primitive.ObjectIDFromHex(mapClaims["user_id"])
	if err != nil {
		return domain.Claims{}, ErrInvalidToken
	}

	expiresAt, err := time.Parse(time.RFC3339, mapClaims["expires_at"])
	if err != nil {
		return domain.Claims{}, ErrInvalidToken
	}
	if time.Now().After(expiresAt) {
		return domain.Claims{}, ErrExpiredToken
	}

	return domain.Claims{
		UserID:    userID,
		Username:  mapClaims["username"],
		Role:      mapClaims["role"],
		ExpiresAt: expiresAt,
	}, nil
}
