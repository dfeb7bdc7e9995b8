package service

import (
	"alcyxob/fitcoach/internal/domain"
	"alcyxob/fitcoach/internal/repository/memory"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func TestRegisterAndLogin(t *testing.T) {
	store := memory.NewStore()
	svc := NewAuthService(store.Users(), testSecret, time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Dana", "  Dana@Example.com ", "s3cret!", domain.RoleCoach)
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.False(t, user.ID.IsZero())

	_, err = svc.Register(ctx, "Dana again", "dana@example.com", "other", domain.RoleTrainee)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, "Eve", "eve@example.com", "pw", domain.Role("owner"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.Register(ctx, "", "nobody@example.com", "pw", domain.RoleTrainee)
	assert.ErrorIs(t, err, ErrBadRequest)

	token, loggedIn, err := svc.Login(ctx, "DANA@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.Empty(t, loggedIn.PasswordHash)

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, user.ID.Hex(), claims["uid"])
	assert.Equal(t, string(domain.RoleCoach), claims["role"])

	_, _, err = svc.Login(ctx, "dana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = svc.Login(ctx, "ghost@example.com", "s3cret!")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, _, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestNewAuthService_EmptySecretPanics(t *testing.T) {
	assert.Panics(t, func() { NewAuthService(memory.NewStore().Users(), "", time.Hour) })
}
