package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/doorman/internal/auth/session"
	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLoginPage(t *testing.T) {
	h := newHarness(t)

	rec := get(t, h.router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), `action="/login"`)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestLoginPageRedirectsSignedInUsers(t *testing.T) {
	h := newHarness(t)
	h.registerLocal(t)

	sess, err := h.client.Login(context.Background(), localUsername, localPassword)
	require.NoError(t, err)

	rec := get(t, h.router, "/", &http.Cookie{Name: session.CookieName, Value: sess.Cookie()})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, session.HomePath, rec.Header().Get("Location"))
}

func TestUnknownPathIsNotTheLoginPage(t *testing.T) {
	h := newHarness(t)

	rec := get(t, h.router, "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHomeWithoutSessionRedirects(t *testing.T) {
	h := newHarness(t)

	rec := get(t, h.router, "/home")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, session.LoginPath, rec.Header().Get("Location"))

	rec = get(t, h.router, "/home", &http.Cookie{Name: session.CookieName, Value: "forged.token.value"})
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newHarness(t)
	h.registerLocal(t)
	ctx := context.Background()

	sess, err := h.client.Login(ctx, localUsername, localPassword)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sess.Cookie()})
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, session.LoginPath, rec.Header().Get("Location"))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Empty(t, cookies[0].Value)

	require.NoError(t, sess.Logout(ctx))
	_, err = sess.Home(ctx)
	require.ErrorIs(t, err, authsdk.ErrNotAuthenticated)
}

func TestLivez(t *testing.T) {
	h := newHarness(t)

	health, err := h.client.GetLiveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "test", health.Version)
	require.Nil(t, health.Checks)
}

func TestReadyz(t *testing.T) {
	h := newHarness(t)

	health, err := h.client.GetReadiness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
}

func TestReadyzDegradedWhenStoreIsDown(t *testing.T) {
	h := newHarnessWithStore(t, brokenStore{})

	health, err := h.client.GetReadiness(context.Background())
	require.ErrorIs(t, err, authsdk.ErrNotReady)
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, "error: unreachable", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Signer)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)

	_, _ = h.client.Login(context.Background(), "nobody", "x")

	resp, err := http.Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "doorman_login_attempts_total")
	require.Contains(t, string(body), "doorman_directory_requests_total")
}

func TestSwaggerDoc(t *testing.T) {
	h := newHarness(t)

	rec := get(t, h.router, "/swagger/doc.json")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"/login"`)
}
