package http

import (
	"net/http"

	"github.com/aussiebroadwan/doorman/internal/auth/session"
	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
)

// HomeHandler godoc
//
//	@Summary		Home
//	@Description	Returns the identity bound to the session cookie. Requests without a valid session are redirected to the login page.
//	@Tags			Login
//	@Produce		json
//	@Success		200	{object}	authsdk.HomeResponse	"account_id, username"
//	@Success		302	"redirect to / - no valid session"
//	@Router			/home [get].
func HomeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := session.FromContext(r.Context())
		if !ok {
			http.Redirect(w, r, session.LoginPath, http.StatusFound)
			return
		}

		httpx.WriteJSON(w, http.StatusOK, authsdk.HomeResponse{
			AccountID: s.AccountID.String(),
			Username:  s.Username,
		})
	}
}

// LogoutHandler godoc
//
//	@Summary		Log Out
//	@Description	Expires the session cookie and redirects to the login page.
//	@Tags			Login
//	@Success		302	"redirect to /"
//	@Router			/logout [post].
func LogoutHandler(sessions *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions.Clear(w)
		http.Redirect(w, r, session.LoginPath, http.StatusFound)
	}
}
