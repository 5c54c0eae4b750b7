package auth

import (
	"errors"
	"fmt"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

// Credential and policy failures are terminal per request: they are never
// retried internally and each carries its precise reason. The HTTP layer
// maps them to status codes and may generalize the outward message.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrAccountDisabled = errors.New("user account is deactivated")
	ErrForbidden       = errors.New("insufficient role")
	ErrInvalidKey      = errors.New("invalid API key")
	ErrTokenExpired    = errors.New("token expired")
	ErrTokenMalformed  = errors.New("malformed token")
	ErrTokenSignature  = errors.New("invalid token signature")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

// QuotaError reports which fixed window was exhausted.
type QuotaError struct {
	Window models.Window
	Limit  int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: limit of %d requests per %s reached", e.Limit, e.Window)
}

// RetryAfter gives a coarse Retry-After value for the exhausted window.
func (e *QuotaError) RetryAfter() string {
	switch e.Window {
	case models.WindowHour:
		return "3600"
	case models.WindowDay:
		return "86400"
	default:
		return "2592000"
	}
}

// IsDenial reports whether err is a policy denial (as opposed to a
// credential failure or an internal error). Denials are recorded with
// outcome "denied" in the usage log.
func IsDenial(err error) bool {
	var qe *QuotaError
	return errors.Is(err, ErrForbidden) || errors.As(err, &qe)
}
