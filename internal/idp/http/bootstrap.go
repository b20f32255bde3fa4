package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/zusplus/zusplus/internal/idp/service"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"
	"github.com/zusplus/zusplus/pkg/slogx"
)

const minBootstrapPasswordLen = 12

// BootstrapHandler creates the first account on a fresh deployment.
type BootstrapHandler struct {
	AuthService *service.AuthService
}

// HandleBootstrap handles POST /v1/bootstrap
//
//	@Summary		Create the first account
//	@Description	Only works while the user table is empty and the caller presents the pre-configured bootstrap token.
//	@Tags			System
//	@Accept			json
//	@Produce		json
//	@Param			request	body		idp.BootstrapRequest	true	"Bootstrap token and first-account credentials"
//	@Success		201		{object}	idp.User
//	@Failure		400		{object}	idp.APIError	"Malformed request"
//	@Failure		403		{object}	idp.APIError	"Wrong token or already bootstrapped"
//	@Router			/v1/bootstrap [post].
func (h *BootstrapHandler) HandleBootstrap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req idp.BootstrapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}
	if len(req.Password) < minBootstrapPasswordLen {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}

	user, err := h.AuthService.Bootstrap(ctx, req.Token, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrBootstrapAlready) || errors.Is(err, service.ErrBootstrapUnauthorized) {
			idp.ErrBootstrapDenied.WriteError(w)
			return
		}
		log.Error("bootstrap failed", "err", err)
		idp.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, idp.User{ID: user.ID, Email: user.Email})
}
