package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/zusplus/zusplus/internal/zusplus/advisor"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// AdvisorHandler fronts the AI gateway for retirement recommendations and the
// advisor chat. Client may be nil when no gateway key is configured; both
// endpoints then answer 503.
type AdvisorHandler struct {
	Client *advisor.Client
	Report *report.Collector
}

type recommendationsRequest struct {
	Data advisor.RetirementData `json:"retirement_data"`
}

type chatRequest struct {
	Message string                  `json:"message"`
	Data    *advisor.RetirementData `json:"retirement_data,omitempty"`
}

type advisorResponse struct {
	Content string `json:"content"`
}

// HandleRecommendations handles POST /api/advisor/recommendations.
func (h *AdvisorHandler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Client == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "not_configured", "Doradca AI jest niedostępny")
		return
	}

	var req recommendationsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Nieprawidłowe dane wejściowe")
		return
	}

	content, err := h.Client.Recommendations(ctx, req.Data)
	if err != nil {
		writeAdvisorError(w, ctx, err)
		return
	}

	h.Report.AddRecommendation()
	httpx.WriteJSON(w, http.StatusOK, advisorResponse{Content: content})
}

// HandleChat handles POST /api/advisor/chat.
func (h *AdvisorHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Client == nil {
		httpx.WriteError(w, http.StatusServiceUnavailable, "not_configured", "Doradca AI jest niedostępny")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Nieprawidłowe dane wejściowe")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Wiadomość nie może być pusta")
		return
	}

	content, err := h.Client.Chat(ctx, req.Message, req.Data)
	if err != nil {
		writeAdvisorError(w, ctx, err)
		return
	}

	h.Report.AddChatMessage()
	httpx.WriteJSON(w, http.StatusOK, advisorResponse{Content: content})
}

func writeAdvisorError(w http.ResponseWriter, ctx context.Context, err error) {
	switch {
	case errors.Is(err, advisor.ErrRateLimited):
		httpx.WriteError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, advisor.ErrPaymentRequired):
		httpx.WriteError(w, http.StatusPaymentRequired, "payment_required", err.Error())
	default:
		slogx.FromContext(ctx).Warn("advisor request failed", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "gateway_error", "Błąd doradcy AI")
	}
}
