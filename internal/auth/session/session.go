// Package session turns a login Outcome into a signed session cookie and
// reads it back on later requests.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/pkg/idx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

const (
	// CookieName is the session cookie.
	CookieName = "doorman_session"

	// HomePath is where authenticated logins are sent.
	HomePath = "/home"

	// LoginPath is the login entry point.
	LoginPath = "/"
)

// Session is the identity bound to a request.
type Session struct {
	AccountID idx.ID
	Username  string
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Config controls cookie issuance.
type Config struct {
	Issuer string
	TTL    time.Duration
	Secure bool // set the Secure cookie attribute
}

// Manager issues and verifies session cookies.
type Manager struct {
	signer   jwtx.Signer
	verifier jwtx.Verifier
	cfg      Config
	now      func() time.Time
}

func NewManager(signer jwtx.Signer, verifier jwtx.Verifier, cfg Config) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = jwtx.DefaultSessionTTL
	}
	return &Manager{
		signer:   signer,
		verifier: verifier,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Apply establishes or clears the session for outcome and returns where the
// client should be redirected. A rejected outcome always clears any existing
// session, so applying it repeatedly is harmless.
func (m *Manager) Apply(w http.ResponseWriter, r *http.Request, outcome domain.Outcome) string {
	if !outcome.IsAuthenticated() {
		m.Clear(w)
		return LoginPath
	}

	now := m.now()
	sid := idx.NewAt(now).String()
	claims := jwtx.NewSessionClaims(
		outcome.Account.ID.String(),
		sid,
		outcome.Account.Username,
		m.cfg.Issuer,
		m.cfg.TTL,
		now,
	)

	token, err := m.signer.Sign(claims)
	if err != nil {
		slogx.FromContext(r.Context()).Error("session_sign_failed", "err", err)
		m.Clear(w)
		return LoginPath
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.cfg.TTL),
		MaxAge:   int(m.cfg.TTL / time.Second),
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	slogx.FromContext(r.Context()).Info("session_established",
		"account_id", outcome.Account.ID,
		"sid", sid,
	)
	return HomePath
}

// Clear expires the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest verifies the session cookie on r. Missing, tampered and
// expired cookies all report false.
func (m *Manager) FromRequest(r *http.Request) (Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, false
	}

	claims, err := m.verifier.Verify(c.Value)
	if err != nil {
		slogx.FromContext(r.Context()).Debug("session_invalid", "err", err)
		return Session{}, false
	}

	id, err := idx.Parse(claims.Subject)
	if err != nil {
		return Session{}, false
	}

	s := Session{
		AccountID: id,
		Username:  claims.Username,
		SessionID: claims.SID,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, true
}

// Middleware attaches a valid session, if any, to the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := m.FromRequest(r); ok {
			ctx := WithContext(r.Context(), s)
			ctx = slogx.With(ctx, "account_id", s.AccountID)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey struct{}

func WithContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
