package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zusplus/zusplus/internal/zusplus/gate"
	"github.com/zusplus/zusplus/internal/zusplus/obs"
	"github.com/zusplus/zusplus/internal/zusplus/report"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// User-facing messages, matching the product's Polish UI.
const (
	msgLoginFailed      = "Błąd logowania"
	msgMFACheckFailed   = "Błąd sprawdzania MFA"
	msgEnrollmentFailed = "Błąd konfiguracji 2FA"
	msgInvalidCode      = "Nieprawidłowy kod"
	msgEnrollmentDone   = "2FA skonfigurowane pomyślnie!"
	msgLoggedIn         = "Zalogowano pomyślnie!"
)

// AuthHandler drives the browser's sign-in gate.
type AuthHandler struct {
	Flows  *FlowStore
	Report *report.Collector
}

// stateResponse is the envelope every auth endpoint returns: where the flow
// stands and, when relevant, a message for the user.
type stateResponse struct {
	State   gate.State `json:"state"`
	Message string     `json:"message,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type enrollmentResponse struct {
	State  gate.State `json:"state"`
	Secret string     `json:"secret"`
	QRCode string     `json:"qr_code"`
}

// HandleLogin handles POST /api/auth/login.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", msgLoginFailed)
		return
	}

	g := h.Flows.Gate(w, r)
	state, err := g.Login(ctx, req.Email, req.Password)
	switch {
	case err == nil:
		obs.ObserveLogin("ok")
		h.Report.AddLogin()
		httpx.WriteJSON(w, http.StatusOK, stateResponse{State: state})
	case errors.Is(err, gate.ErrInvalidCredentials):
		obs.ObserveLogin("rejected")
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", msgLoginFailed)
	case errors.Is(err, gate.ErrBusy):
		httpx.WriteJSON(w, http.StatusOK, stateResponse{State: g.State()})
	case errors.Is(err, gate.ErrInvalidState):
		httpx.WriteError(w, http.StatusConflict, "invalid_state", msgLoginFailed)
	default:
		obs.ObserveLogin("error")
		log.Warn("login failed", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "provider_error", msgMFACheckFailed)
	}
}

// HandleStartEnrollment handles POST /api/auth/enroll. The secret returned
// here is rendered once as a QR code and manual text; it is never stored by
// this service.
func (h *AuthHandler) HandleStartEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	g := h.Flows.Gate(w, r)
	enrollment, err := g.StartEnrollment(ctx)
	if err != nil {
		writeGateError(w, ctx, err, msgEnrollmentFailed)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, enrollmentResponse{
		State:  g.State(),
		Secret: enrollment.Secret,
		QRCode: enrollment.QRCode,
	})
}

// HandleVerifyEnrollment handles POST /api/auth/verify-enrollment.
func (h *AuthHandler) HandleVerifyEnrollment(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, "enrollment", msgEnrollmentDone, func(g *gate.Gate, code string) (gate.State, error) {
		return g.VerifyEnrollment(r.Context(), code)
	})
}

// HandleVerifyLogin handles POST /api/auth/verify.
func (h *AuthHandler) HandleVerifyLogin(w http.ResponseWriter, r *http.Request) {
	h.verify(w, r, "login", msgLoggedIn, func(g *gate.Gate, code string) (gate.State, error) {
		return g.VerifyLogin(r.Context(), code)
	})
}

func (h *AuthHandler) verify(
	w http.ResponseWriter,
	r *http.Request,
	flow, successMsg string,
	fn func(g *gate.Gate, code string) (gate.State, error),
) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req codeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", msgInvalidCode)
		return
	}

	g := h.Flows.Gate(w, r)
	state, err := fn(g, req.Code)
	switch {
	case err == nil:
		obs.ObserveVerify(flow, "ok")
		h.Report.AddVerification()
		httpx.WriteJSON(w, http.StatusOK, stateResponse{State: state, Message: successMsg})
	case errors.Is(err, gate.ErrInvalidCode):
		// The client clears the input field on this response.
		obs.ObserveVerify(flow, "invalid_code")
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", msgInvalidCode)
	case errors.Is(err, gate.ErrBusy):
		httpx.WriteJSON(w, http.StatusOK, stateResponse{State: g.State()})
	case errors.Is(err, gate.ErrInvalidState):
		httpx.WriteError(w, http.StatusConflict, "invalid_state", msgMFACheckFailed)
	default:
		obs.ObserveVerify(flow, "error")
		log.Warn("verify failed", "flow", flow, "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "provider_error", msgMFACheckFailed)
	}
}

// HandleState handles GET /api/auth/state.
func (h *AuthHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	g := h.Flows.Gate(w, r)
	httpx.WriteJSON(w, http.StatusOK, stateResponse{State: g.State()})
}

// HandleLogout handles POST /api/auth/logout.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	g := h.Flows.Gate(w, r)
	g.SignOut(r.Context())
	h.Flows.Drop(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// writeGateError maps non-verify gate failures onto the envelope.
func writeGateError(w http.ResponseWriter, ctx context.Context, err error, fallback string) {
	log := slogx.FromContext(ctx)

	switch {
	case errors.Is(err, gate.ErrBusy):
		httpx.WriteError(w, http.StatusConflict, "busy", fallback)
	case errors.Is(err, gate.ErrInvalidState):
		httpx.WriteError(w, http.StatusConflict, "invalid_state", fallback)
	default:
		log.Warn("gate operation failed", "err", err)
		httpx.WriteError(w, http.StatusBadGateway, "provider_error", fallback)
	}
}
