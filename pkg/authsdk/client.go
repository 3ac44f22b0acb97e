package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// SessionCookieName is the cookie carrying the signed session.
	SessionCookieName = "doorman_session"

	// HomePath is where a successful login is redirected.
	HomePath = "/home"

	// LoginPath is the login entry point and the rejection redirect target.
	LoginPath = "/"
)

// SDKClient is a client for the doorman login service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new client. Redirects are never followed so that
// the login result can be read from the Location header.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Login submits the login form. It returns a Session when the service
// redirects to the home page and ErrInvalidCredentials when it redirects back
// to the login page.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.doRequest(ctx, http.MethodPost, "/login", strings.NewReader(form.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	location, err := checkRedirect(resp)
	if err != nil {
		return nil, err
	}

	if location != HomePath {
		return nil, ErrInvalidCredentials
	}

	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookieName && ck.Value != "" {
			return newSession(c, ck), nil
		}
	}
	return nil, fmt.Errorf("login redirected to %s without a session cookie", location)
}

// NewSessionFromCookie creates a session from an existing cookie value, for
// example one captured from a browser.
func (c *SDKClient) NewSessionFromCookie(value string) *Session {
	return newSession(c, &http.Cookie{Name: SessionCookieName, Value: value})
}
