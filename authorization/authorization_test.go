package authorization

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"room_reservation_service/domain"
	application "room_reservation_service/service"
)

func TestClaimsFromRequestRoundTrip(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-key")

	user := &domain.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@example.com",
		IsAdmin:  true,
	}

	token, err := application.GenerateJWT(user)
	require.NoError(t, err)

	request := httptest.NewRequest("GET", "/reservations/all", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	claims, err := ClaimsFromRequest(request)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
	assert.True(t, claims.ExpiresAt.After(time.Now()))
}

func TestClaimsFromRequestMissingHeader(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-key")

	request := httptest.NewRequest("GET", "/reservations/my", nil)

	_, err := ClaimsFromRequest(request)
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestClaimsFromRequestMalformedHeader(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-key")

	request := httptest.NewRequest("GET", "/reservations/my", nil)
	request.Header.Set("Authorization", "Basic abc123")

	_, err := ClaimsFromRequest(request)
	assert.Error(t, err)
}

func TestClaimsFromRequestTamperedToken(t *testing.T) {
	t.Setenv("SECRET_KEY", "test-secret-key")

	user := &domain.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "alice@example.com",
	}

	token, err := application.GenerateJWT(user)
	require.NoError(t, err)

	t.Setenv("SECRET_KEY", "a-different-key")

	request := httptest.NewRequest("GET", "/reservations/my", nil)
	request.Header.Set("Authorization", "Bearer "+token)

	_, err = ClaimsFromRequest(request)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
