package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

// UserStore is the slice of the credential store the auth layer needs.
// The postgres implementation lives in internal/store; tests use
// in-memory fakes. Missing records surface as store.ErrNotFound.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetUserByLogin looks up by username or email.
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type KeyStore interface {
	CreateAPIKey(ctx context.Context, k *models.APIKey) error
	GetAPIKeyByID(ctx context.Context, id uuid.UUID) (*models.APIKey, error)
	GetAPIKeyByHash(ctx context.Context, hash string) (*models.APIKey, error)
	ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error)
	UpdateAPIKey(ctx context.Context, k *models.APIKey) error
	DeleteAPIKey(ctx context.Context, id uuid.UUID) error
	// TouchAPIKey bumps last-used. Best effort; a lost update under a
	// race is acceptable.
	TouchAPIKey(ctx context.Context, id uuid.UUID, at time.Time) error
}
