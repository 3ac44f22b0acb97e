package authsdk_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// fakeService mimics the login flow for a single account.
func fakeService(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		if r.PostFormValue("username") == "alice" && r.PostFormValue("password") == "pw" {
			http.SetCookie(w, &http.Cookie{Name: authsdk.SessionCookieName, Value: "token"})
			http.Redirect(w, r, authsdk.HomePath, http.StatusFound)
			return
		}
		if r.PostFormValue("username") == "flood" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded","error_description":"slow down"}`))
			return
		}
		http.Redirect(w, r, authsdk.LoginPath, http.StatusFound)
	})
	mux.HandleFunc("GET /home", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie(authsdk.SessionCookieName)
		if err != nil || ck.Value != "token" {
			http.Redirect(w, r, authsdk.LoginPath, http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"account_id":"01J0000000000000000000000A","username":"alice"}`))
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, authsdk.LoginPath, http.StatusFound)
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"degraded","checks":{"database":"error: closed","signer":"ok"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginHomeLogout(t *testing.T) {
	c := authsdk.NewSDKClient(fakeService(t).URL + "/")
	ctx := context.Background()

	sess, err := c.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "token", sess.Cookie())

	home, err := sess.Home(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", home.Username)

	require.NoError(t, sess.Logout(ctx))
	_, err = sess.Home(ctx)
	require.ErrorIs(t, err, authsdk.ErrNotAuthenticated)
}

func TestLoginRejected(t *testing.T) {
	c := authsdk.NewSDKClient(fakeService(t).URL)

	_, err := c.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
}

func TestLoginAPIError(t *testing.T) {
	c := authsdk.NewSDKClient(fakeService(t).URL)

	_, err := c.Login(context.Background(), "flood", "x")

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	require.Equal(t, authsdk.ErrorCodeRateLimitExceeded, apiErr.Code)
}

func TestStaleCookie(t *testing.T) {
	c := authsdk.NewSDKClient(fakeService(t).URL)

	_, err := c.NewSessionFromCookie("forged").Home(context.Background())
	require.ErrorIs(t, err, authsdk.ErrNotAuthenticated)
}

func TestReadinessDegraded(t *testing.T) {
	c := authsdk.NewSDKClient(fakeService(t).URL)

	health, err := c.GetReadiness(context.Background())
	require.ErrorIs(t, err, authsdk.ErrNotReady)
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "ok", health.Checks.Signer)
}
