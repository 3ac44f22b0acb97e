package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "doorman"}}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("doorman"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("someone-else"), jwtx.ErrIssuer)
	})
}

func TestValidateExpiryWithLeeway(t *testing.T) {
	now := time.Now().UTC()

	t.Run("valid with leeway", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-10 * time.Second)),
		}}
		require.NoError(t, claims.ValidateExpiryWithLeeway(now, 30*time.Second))
	})

	t.Run("expired beyond leeway", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(-2 * time.Minute)),
		}}
		require.ErrorIs(t, claims.ValidateExpiryWithLeeway(now, 30*time.Second), jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		claims := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(now.Add(time.Minute)),
		}}
		require.ErrorIs(t, claims.ValidateExpiryWithLeeway(now, 0), jwtx.ErrNotYetValid)
	})

	t.Run("no exp or nbf", func(t *testing.T) {
		require.NoError(t, (&jwtx.Claims{}).ValidateExpiryWithLeeway(now, 0))
	})
}
