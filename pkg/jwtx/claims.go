package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is how long a browser session stays valid without a new
// login.
const DefaultSessionTTL = 12 * time.Hour

// Claims are the session token claims. Subject carries the account id.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, also used as the jti.
	SID string `json:"sid,omitempty"`

	// Username at the time of login.
	Username string `json:"username,omitempty"`
}

// NewSessionClaims builds claims for a session issued at now.
func NewSessionClaims(subject, sid, username, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        sid,
		},
		SID:      sid,
		Username: username,
	}
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryWithLeeway checks exp and nbf against now, allowing leeway
// for clock skew.
func (c *Claims) ValidateExpiryWithLeeway(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
