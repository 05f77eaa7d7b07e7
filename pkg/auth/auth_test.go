package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTValidator_SignAndValidate(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SecretKey: "s3cret", Issuer: "dashboard", Audience: "dashboard-api"})
	require.NoError(t, err)

	token, err := v.Sign("operator-1", []string{RoleRevalidate}, time.Minute)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "operator-1", claims.UserID)
	assert.True(t, claims.HasRole(RoleRevalidate))
	assert.False(t, claims.HasRole("admin"))
}

func TestJWTValidator_Rejections(t *testing.T) {
	v, err := NewJWTValidator(JWTConfig{SecretKey: "s3cret", Issuer: "dashboard"})
	require.NoError(t, err)
	other, err := NewJWTValidator(JWTConfig{SecretKey: "other", Issuer: "dashboard"})
	require.NoError(t, err)

	expired, err := v.Sign("u", nil, -time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(expired)
	assert.ErrorIs(t, err, ErrExpiredToken)

	forged, err := other.Sign("u", nil, time.Minute)
	require.NoError(t, err)
	_, err = v.ValidateToken(forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = v.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTValidator_RequiresSecret(t *testing.T) {
	_, err := NewJWTValidator(JWTConfig{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestUserContext(t *testing.T) {
	_, err := GetUserFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoUserInContext)

	ctx := SetUserInContext(context.Background(), &UserContext{UserID: "u1"})
	user, err := GetUserFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.UserID)
}

func TestSlidingWindowLimiter(t *testing.T) {
	ctx := context.Background()
	limiter := NewSlidingWindowLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	allowed, _ := limiter.Allow(ctx, "ip:1")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "ip:1")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "ip:1")
	assert.False(t, allowed, "third request inside the window is rejected")

	allowed, _ = limiter.Allow(ctx, "ip:2")
	assert.True(t, allowed, "keys are independent")

	now = now.Add(61 * time.Second)
	allowed, _ = limiter.Allow(ctx, "ip:1")
	assert.True(t, allowed, "window slides forward")

	now = now.Add(2 * time.Minute)
	limiter.Sweep()
	assert.Empty(t, limiter.windows)
}
