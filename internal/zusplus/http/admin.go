package http

import (
	"errors"
	"net/http"

	"github.com/zusplus/zusplus/internal/zusplus/gate"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// AdminHandler serves the usage report. Every request re-checks the session
// against the identity provider, so a session demoted or revoked elsewhere is
// rejected even if this browser still holds a flow cookie.
type AdminHandler struct {
	Flows  *FlowStore
	Report *report.Collector
}

// HandleReport handles GET /api/admin/report.
func (h *AdminHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	g := h.Flows.Gate(w, r)
	if err := g.Guard(ctx); err != nil {
		if errors.Is(err, gate.ErrNotAuthenticated) || errors.Is(err, gate.ErrBusy) {
			httpx.WriteError(w, http.StatusUnauthorized, "aal2_required", "Wymagane pełne uwierzytelnienie")
			return
		}
		slogx.FromContext(ctx).Warn("guard check failed", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "provider_error", msgMFACheckFailed)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, reportResponse{
		Email:  g.Session().Email,
		Report: h.Report.Snapshot(),
	})
}

// reportResponse is the usage report plus who is looking at it.
type reportResponse struct {
	Email string `json:"email"`
	report.Report
}
