package authsdk

import (
	"context"
	"net/http"
	"sync"
)

// Session represents a logged in browser session.
type Session struct {
	client *SDKClient

	mu     sync.RWMutex
	cookie *http.Cookie
}

func newSession(client *SDKClient, cookie *http.Cookie) *Session {
	return &Session{client: client, cookie: cookie}
}

// Cookie returns the raw session cookie value.
func (s *Session) Cookie() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cookie == nil {
		return ""
	}
	return s.cookie.Value
}

// Home fetches the signed in identity. It returns ErrNotAuthenticated when
// the service no longer accepts the cookie.
func (s *Session) Home(ctx context.Context) (*HomeResponse, error) {
	resp, err := s.doSessionRequest(ctx, http.MethodGet, HomePath)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusFound {
		_ = resp.Body.Close()
		return nil, ErrNotAuthenticated
	}

	var home HomeResponse
	if err := decodeJSON(resp, &home, http.StatusOK); err != nil {
		return nil, err
	}
	return &home, nil
}

// Logout ends the session on the server and forgets the local cookie.
func (s *Session) Logout(ctx context.Context) error {
	resp, err := s.doSessionRequest(ctx, http.MethodPost, "/logout")
	if err != nil {
		return err
	}
	if _, err := checkRedirect(resp); err != nil {
		return err
	}

	s.mu.Lock()
	s.cookie = nil
	s.mu.Unlock()
	return nil
}
