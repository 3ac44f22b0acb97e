package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/doorman/internal/auth/domain"
	"github.com/aussiebroadwan/doorman/internal/auth/service"
	"github.com/aussiebroadwan/doorman/internal/auth/session"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

const loginPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form method="post" action="/login">
<label>Username <input name="username" autocomplete="username" required></label>
<label>Password <input name="password" type="password" autocomplete="current-password"></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`

// LoginPageHandler godoc
//
//	@Summary		Login Page
//	@Description	Serves the login form. Clients that already hold a valid session are sent to /home.
//	@Tags			Login
//	@Produce		html
//	@Success		200	{string}	string	"login form"
//	@Success		302	"redirect to /home"
//	@Router			/ [get].
func LoginPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.FromContext(r.Context()); ok {
			http.Redirect(w, r, session.HomePath, http.StatusFound)
			return
		}

		httpx.NoCache(w)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(loginPage))
	}
}

// LoginHandler resolves a form login and establishes the session.
type LoginHandler struct {
	LoginService *service.LoginService
	Sessions     *session.Manager
}

// ServeHTTP godoc
//
//	@Summary		Log In
//	@Description	Authenticates against the local account or, failing that, the directory.
//	@Description	Redirects to /home with a session cookie on success and to / otherwise.
//	@Description	The redirect never says why a login failed.
//	@Tags			Login
//	@Accept			x-www-form-urlencoded
//	@Produce		json
//	@Param			username	formData	string	true	"Username"
//	@Param			password	formData	string	false	"Password"
//	@Success		302			"redirect to /home or /"
//	@Failure		400			{object}	authsdk.ErrorResponse	"invalid_request - malformed form body"
//	@Failure		429			{object}	authsdk.ErrorResponse	"rate_limit_exceeded"
//	@Failure		500			{object}	authsdk.ErrorResponse	"server_error - credential store unavailable"
//	@Router			/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "invalid form body")
		return
	}

	attempt := domain.LoginAttempt{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}

	outcome, err := h.LoginService.Resolve(r.Context(), attempt)
	if err != nil {
		log := slogx.FromContext(r.Context())
		switch {
		case errors.Is(err, context.Canceled):
			log.Info("login abandoned by client")
		case errors.Is(err, service.ErrStoreUnavailable):
			log.Error("login failed: credential store unavailable", "err", err)
		default:
			log.Error("login failed", "err", err)
		}
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "internal server error")
		return
	}

	http.Redirect(w, r, h.Sessions.Apply(w, r, outcome), http.StatusFound)
}
