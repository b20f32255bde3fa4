package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zusplus/zusplus/internal/zusplus/prognoza"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// PrognozaHandler proxies pension projection requests to the actuarial
// backend.
type PrognozaHandler struct {
	Client *prognoza.Client
	Report *report.Collector
}

// HandleProjection handles POST /api/prognoza.
func (h *PrognozaHandler) HandleProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req prognoza.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Nieprawidłowe dane wejściowe")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	resp, err := h.Client.Fetch(ctx, req)
	if err != nil {
		if !errors.Is(err, prognoza.ErrUpstream) {
			slogx.FromContext(ctx).Warn("projection request failed", "err", err)
		}
		httpx.WriteError(w, http.StatusBadGateway, "upstream_error", "Błąd obliczania prognozy")
		return
	}

	h.Report.AddProjection()
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleChart handles POST /api/prognoza-wykres. The chart payload passes
// through from the actuarial backend undecoded.
func (h *PrognozaHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req prognoza.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Nieprawidłowe dane wejściowe")
		return
	}
	if err := req.Validate(); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	raw, err := h.Client.FetchChart(ctx, req)
	if err != nil {
		if !errors.Is(err, prognoza.ErrUpstream) {
			slogx.FromContext(ctx).Warn("chart request failed", "err", err)
		}
		httpx.WriteError(w, http.StatusBadGateway, "upstream_error", "Błąd obliczania prognozy")
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}
