package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/store"
	"github.com/aussiebroadwan/doorman/pkg/authsdk"
	"github.com/aussiebroadwan/doorman/pkg/httpx"
	"github.com/aussiebroadwan/doorman/pkg/jwtx"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// readyzPingTimeout bounds the database check so a hung store fails the
// probe instead of stalling it.
const readyzPingTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the credential store and the session signing key
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	keys *jwtx.KeySet,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok", Signer: "ok"}
		status := "ok"
		code := http.StatusOK

		ctx, cancel := context.WithTimeout(r.Context(), readyzPingTimeout)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			slogx.FromContext(r.Context()).Warn("readiness: store ping failed", "err", err)
			checks.Database = "error: unreachable"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if !keys.IsReady() {
			checks.Signer = "error: no keys loaded"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, authsdk.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
