package auth_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrPrince19/CareNest/internal/auth"
	"github.com/KrPrince19/CareNest/internal/model"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("Secret123!")
	require.NoError(t, err)
	assert.NoError(t, auth.VerifyPassword(hash, "Secret123!"))
	assert.Error(t, auth.VerifyPassword(hash, "wrong"))
}

func TestHashEmptyPassword(t *testing.T) {
	_, err := auth.HashPassword("")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	user := model.User{Name: "Dad", Email: "dad@example.com", Role: model.RoleElder}
	now := time.Now()

	token, err := auth.NewToken("secret", user, time.Hour, now)
	require.NoError(t, err)

	claims, err := auth.ParseToken("secret", token, now)
	require.NoError(t, err)
	assert.Equal(t, "dad@example.com", claims.Email)
	assert.Equal(t, model.RoleElder, claims.Role)
}

func TestTokenWrongSecret(t *testing.T) {
	user := model.User{Email: "dad@example.com", Role: model.RoleElder}
	now := time.Now()
	token, err := auth.NewToken("secret", user, time.Hour, now)
	require.NoError(t, err)

	_, err = auth.ParseToken("other", token, now)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

// Expiry must follow the injected time, not the wall clock: a token is valid
// right up to its TTL and invalid past it, for any anchor date.
func TestTokenExpiryFollowsInjectedTime(t *testing.T) {
	user := model.User{Email: "dad@example.com", Role: model.RoleElder}
	issued := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

	token, err := auth.NewToken("secret", user, time.Hour, issued)
	require.NoError(t, err)

	_, err = auth.ParseToken("secret", token, issued.Add(30*time.Minute))
	assert.NoError(t, err)

	_, err = auth.ParseToken("secret", token, issued.Add(2*time.Hour))
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
