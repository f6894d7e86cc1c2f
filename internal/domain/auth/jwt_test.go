package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))

	token, exp, err := svc.GenerateAccessToken("u1", "ana@example.com", []string{"finance"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Minute)

	v, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", v.UserID)
	assert.Equal(t, "ana@example.com", v.Identity)
	assert.Equal(t, []string{"finance"}, v.Capabilities)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("secret"))
	other := NewJWTService(DefaultJWTConfig("other"))

	forged, _, err := other.GenerateAccessToken("u1", "x@example.com", []string{"admin"})
	require.NoError(t, err)

	expiredSvc := NewJWTService(JWTConfig{Secret: "secret", Issuer: "orderdesk", AccessTokenTTL: -time.Minute})
	expired, _, err := expiredSvc.GenerateAccessToken("u1", "x@example.com", nil)
	require.NoError(t, err)

	noUID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "orderdesk"},
		Email:            "x@example.com",
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage": "not-a-token",
		"forged":  forged,
		"expired": expired,
		"no uid":  noUID,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.True(t, errors.Is(err, ErrInvalidToken), err)
		})
	}
}
