package http

import (
	"net/http"
	"time"

	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning basic service health, uptime and version. Always 200 while the process runs.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	idp.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, idp.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe checking the identity provider is reachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	idp.HealthResponse	"all checks passed"
//	@Failure		503	{object}	idp.HealthResponse	"identity provider unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, client *idp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := idp.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  &idp.HealthChecks{IdentityProvider: "ok"},
		}

		code := http.StatusOK
		if _, err := client.Livez(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Checks.IdentityProvider = "unreachable"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, resp)
	}
}
