package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
)

// Verifier validates a token and returns its claims.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// EdDSAVerifier validates tokens signed by any key in a KeySet.
type EdDSAVerifier struct {
	keys   *KeySet
	issuer string
	leeway time.Duration
	now    func() time.Time
}

// NewVerifierEdDSA creates a verifier. An empty issuer is not enforced.
func NewVerifierEdDSA(keys *KeySet, issuer string, leeway time.Duration) *EdDSAVerifier {
	return &EdDSAVerifier{keys: keys, issuer: issuer, leeway: leeway, now: time.Now}
}

// WithClock overrides the verifier's time source.
func (v *EdDSAVerifier) WithClock(now func() time.Time) *EdDSAVerifier {
	v.now = now
	return v
}

// Verify checks the signature, issuer and validity window of tokenStr.
func (v *EdDSAVerifier) Verify(tokenStr string) (Claims, error) {
	// exp/nbf are checked below against v.now so tests can move the clock.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	token, err := parser.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("jwtx: missing kid")
		}
		pub, err := v.keys.Get(kid)
		if err != nil {
			return nil, fmt.Errorf("jwtx: unknown kid %q: %w", kid, err)
		}
		return pub, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiryWithLeeway(v.now(), v.leeway); err != nil {
		return Claims{}, err
	}

	return claims, nil
}
