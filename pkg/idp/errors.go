package idp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/zusplus/zusplus/pkg/httpx"
)

// Error codes shared between the provider and its clients.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInvalidCode        = "invalid_code"
	ErrorCodeChallengeExpired   = "challenge_expired"
	ErrorCodeChallengeConsumed  = "challenge_consumed"
	ErrorCodeFactorNotFound     = "factor_not_found"
	ErrorCodeAAL2Required       = "aal2_required"
	ErrorCodeServerError        = "server_error"
	ErrorCodeBootstrapDenied    = "bootstrap_denied"
)

// APIError is the provider's error envelope. It implements the error
// interface so the SDK can return it directly, and WriteError so server
// handlers can emit it.
type APIError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this error to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid email or password",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "invalid, expired or revoked session token",
	}

	ErrInvalidCode = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidCode,
		Description: "invalid TOTP code",
	}

	ErrChallengeExpired = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeChallengeExpired,
		Description: "the challenge has expired, request a new one",
	}

	ErrChallengeConsumed = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeChallengeConsumed,
		Description: "the challenge was already used",
	}

	ErrFactorNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeFactorNotFound,
		Description: "factor not found",
	}

	ErrAAL2Required = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAAL2Required,
		Description: "this resource requires a second authentication factor",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	ErrBootstrapDenied = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeBootstrapDenied,
		Description: "bootstrap is not available",
	}
)

// parseAPIError decodes an error envelope from a non-2xx response body,
// falling back to a generic error keyed on the status code.
func parseAPIError(statusCode int, body []byte) *APIError {
	var envelope struct {
		Code        string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Code != "" {
		return &APIError{
			StatusCode:  statusCode,
			Code:        envelope.Code,
			Description: envelope.Description,
		}
	}
	return &APIError{
		StatusCode:  statusCode,
		Code:        ErrorCodeServerError,
		Description: http.StatusText(statusCode),
	}
}
