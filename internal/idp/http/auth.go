package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/zusplus/zusplus/internal/idp/service"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// AuthHandler handles password sign-in, session reads and logout.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Password sign-in
//	@Description	Verifies the password and opens a fresh AAL1 session. Completing a factor challenge afterwards promotes the same session to AAL2.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		idp.LoginRequest	true	"Credentials"
//	@Success		200		{object}	idp.TokenResponse	"Session token at aal1"
//	@Failure		400		{object}	idp.APIError		"Malformed request"
//	@Failure		401		{object}	idp.APIError		"Invalid email or password"
//	@Failure		500		{object}	idp.APIError		"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req idp.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}

	raw, sess, user, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			idp.ErrInvalidCredentials.WriteError(w)
			return
		}
		log.Error("login failed", "err", err)
		idp.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, idp.TokenResponse{
		AccessToken: raw,
		TokenType:   "Bearer",
		ExpiresAt:   sess.ExpiresAt,
		User:        idp.User{ID: user.ID, Email: user.Email},
		AAL:         sess.AAL,
		AMR:         sess.AMR,
	})
}

// HandleSession handles GET /v1/auth/session
//
//	@Summary		Read the current session
//	@Description	Returns the session row backing the presented token. The assurance level comes from the row, so it reflects promotions made after the token was minted.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	idp.SessionResponse
//	@Failure		401	{object}	idp.APIError	"Invalid or missing session token"
//	@Router			/v1/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sid := httpx.SessionIDFromCtx(ctx)
	if sid == "" {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	sess, user, err := h.AuthService.Session(ctx, sid)
	if err != nil {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, idp.SessionResponse{
		SessionID: sess.ID,
		User:      idp.User{ID: user.ID, Email: user.Email},
		AAL:       sess.AAL,
		AMR:       sess.AMR,
		ExpiresAt: sess.ExpiresAt,
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Revoke the current session
//	@Description	Stamps the session row revoked. The token dies with the row regardless of its remaining lifetime.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Session revoked"
//	@Failure		401	{object}	idp.APIError	"Invalid or missing session token"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sid := httpx.SessionIDFromCtx(ctx)
	if sid == "" {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.AuthService.Logout(ctx, sid); err != nil {
		log.Error("logout failed", "session_id", sid, "err", err)
		idp.ErrServerError.WriteError(w)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
