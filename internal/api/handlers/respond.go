package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/auth"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/ollama"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// WriteError maps a service error onto the wire. Unrecognized errors
// become an opaque 500 so internals never leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusFor(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}

	var quota *auth.QuotaError
	if errors.As(err, &quota) {
		w.Header().Set("Retry-After", quota.RetryAfter())
	}

	WriteJSON(w, status, errorBody{Error: msg})
}

// StatusFor translates the auth error taxonomy to HTTP status codes.
func StatusFor(err error) int {
	var quota *auth.QuotaError
	var verr validator.ValidationErrors
	var upstream *ollama.APIError

	switch {
	case errors.As(err, &quota):
		// Quota denials are authenticated-but-forbidden, and carry a
		// Retry-After hint for when the window resets.
		return http.StatusForbidden
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidKey),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrTokenSignature),
		errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrForbidden),
		errors.Is(err, auth.ErrAccountDisabled):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrDuplicateUser):
		return http.StatusConflict
	case errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidArgument):
		return http.StatusUnprocessableEntity
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &upstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// decodeValid decodes the body into dest and runs struct validation.
func decodeValid(r *http.Request, dest interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return errBadBody
	}
	return validate.Struct(dest)
}

var errBadBody = errors.New("invalid request body")

// principal returns the request's identity. Handlers run strictly behind
// the mediator, so a missing principal is a wiring bug.
func principal(r *http.Request) *auth.Principal {
	pr, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		panic("handler reached without principal")
	}
	return pr
}
