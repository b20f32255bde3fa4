package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zusplus/zusplus/internal/idp/domain"
	"github.com/zusplus/zusplus/internal/idp/service"
	"github.com/zusplus/zusplus/pkg/httpx"
	"github.com/zusplus/zusplus/pkg/idp"
	"github.com/zusplus/zusplus/pkg/slogx"
)

// FactorsHandler handles TOTP enrollment and the challenge/verify flow.
type FactorsHandler struct {
	FactorService *service.FactorService
	AuthService   *service.AuthService
}

// HandleList handles GET /v1/factors
//
//	@Summary		List verified factors
//	@Description	Returns the account's verified TOTP factors, oldest first. An account with none must enroll before it can reach AAL2.
//	@Tags			Factors
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	idp.FactorsResponse
//	@Failure		401	{object}	idp.APIError	"Invalid or missing session token"
//	@Router			/v1/factors [get].
func (h *FactorsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	factors, err := h.FactorService.ListVerified(ctx, userID)
	if err != nil {
		log.Error("failed to list factors", "user_id", userID, "err", err)
		idp.ErrServerError.WriteError(w)
		return
	}

	out := make([]idp.Factor, 0, len(factors))
	for _, f := range factors {
		out = append(out, idp.Factor{
			ID:           f.ID,
			FriendlyName: f.FriendlyName,
			FactorType:   domain.FactorTypeTOTP,
			Status:       f.Status,
			CreatedAt:    f.CreatedAt,
			VerifiedAt:   f.VerifiedAt,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, idp.FactorsResponse{Factors: out})
}

// HandleEnroll handles POST /v1/factors
//
//	@Summary		Enroll a TOTP factor
//	@Description	Mints a new unverified factor and returns the shared secret and otpauth URL exactly once. Any previous unverified factor is replaced.
//	@Tags			Factors
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		idp.EnrollRequest	false	"Optional friendly name"
//	@Success		200		{object}	idp.EnrollResponse	"Provisioning secret, shown once"
//	@Failure		401		{object}	idp.APIError		"Invalid or missing session token"
//	@Failure		500		{object}	idp.APIError		"Internal server error"
//	@Router			/v1/factors [post].
func (h *FactorsHandler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	var req idp.EnrollRequest
	if r.Body != nil {
		// Body is optional; ignore decode errors on an empty body.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	enroll, err := h.FactorService.Enroll(ctx, userID, req.FriendlyName)
	if err != nil {
		log.Error("failed to enroll factor", "user_id", userID, "err", err)
		idp.ErrServerError.WriteError(w)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, idp.EnrollResponse{
		ID:         enroll.FactorID,
		FactorType: domain.FactorTypeTOTP,
		TOTP: idp.TOTPProvisioning{
			Secret:  enroll.Secret,
			QRCode:  enroll.QRCode,
			Issuer:  enroll.Issuer,
			Account: enroll.Account,
		},
	})
}

// HandleChallenge handles POST /v1/factors/{id}/challenge
//
//	@Summary		Open a verification challenge
//	@Description	Creates a short-lived single-use challenge against the factor. Exactly one verify call may consume it.
//	@Tags			Factors
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Factor ID"
//	@Success		200	{object}	idp.ChallengeResponse
//	@Failure		401	{object}	idp.APIError	"Invalid or missing session token"
//	@Failure		404	{object}	idp.APIError	"Factor not found"
//	@Router			/v1/factors/{id}/challenge [post].
func (h *FactorsHandler) HandleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromCtx(ctx)
	if userID == "" {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	factorID := r.PathValue("id")
	ch, err := h.FactorService.Challenge(ctx, userID, factorID)
	if err != nil {
		if errors.Is(err, service.ErrFactorNotFound) {
			idp.ErrFactorNotFound.WriteError(w)
			return
		}
		log.Error("failed to create challenge", "user_id", userID, "factor_id", factorID, "err", err)
		idp.ErrServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, idp.ChallengeResponse{
		ID:        ch.ID,
		ExpiresAt: ch.ExpiresAt,
	})
}

// HandleVerify handles POST /v1/factors/{id}/verify
//
//	@Summary		Verify a TOTP code
//	@Description	Consumes the challenge and checks the code. The challenge burns on first use whatever the outcome. Success promotes the session to AAL2 and returns a fresh token for the same session.
//	@Tags			Factors
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Factor ID"
//	@Param			request	body		idp.VerifyRequest	true	"Challenge and code"
//	@Success		200		{object}	idp.TokenResponse	"Session token at aal2"
//	@Failure		400		{object}	idp.APIError		"Invalid code, expired or consumed challenge"
//	@Failure		401		{object}	idp.APIError		"Invalid or missing session token"
//	@Failure		404		{object}	idp.APIError		"Factor not found"
//	@Router			/v1/factors/{id}/verify [post].
func (h *FactorsHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	sid := httpx.SessionIDFromCtx(ctx)
	if sid == "" {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	var req idp.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}
	if req.ChallengeID == "" || req.Code == "" {
		idp.ErrInvalidRequest.WriteError(w)
		return
	}

	sess, user, err := h.AuthService.Session(ctx, sid)
	if err != nil {
		idp.ErrInvalidToken.WriteError(w)
		return
	}

	factorID := r.PathValue("id")
	result, err := h.FactorService.Verify(ctx, sess, factorID, req.ChallengeID, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTOTPCode):
			idp.ErrInvalidCode.WriteError(w)
		case errors.Is(err, service.ErrChallengeExpired):
			idp.ErrChallengeExpired.WriteError(w)
		case errors.Is(err, service.ErrChallengeConsumed), errors.Is(err, service.ErrChallengeNotFound):
			idp.ErrChallengeConsumed.WriteError(w)
		case errors.Is(err, service.ErrFactorNotFound), errors.Is(err, service.ErrFactorNotChallenge):
			idp.ErrFactorNotFound.WriteError(w)
		default:
			log.Error("verify failed", "session_id", sid, "factor_id", factorID, "err", err)
			idp.ErrServerError.WriteError(w)
		}
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, idp.TokenResponse{
		AccessToken: result.Token,
		TokenType:   "Bearer",
		ExpiresAt:   result.Session.ExpiresAt,
		User:        idp.User{ID: user.ID, Email: user.Email},
		AAL:         result.Session.AAL,
		AMR:         result.Session.AMR,
	})
}
