package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/store"
)

// API keys are presented as "olk_<keyid>_<secret>". The whole plaintext
// is hashed with SHA-256 for storage and lookup; the key ID alone is kept
// as a displayable identifier.
const apiKeyPrefix = "olk"

// GenerateAPIKey returns a public key ID and the full plaintext secret.
func GenerateAPIKey() (keyID, plaintext string) {
	keyID = apiKeyPrefix + "_" + randToken(12)
	plaintext = keyID + "_" + randToken(24)
	return keyID, plaintext
}

// HasAPIKeyPrefix reports whether a bearer credential looks like an API
// key rather than a token.
func HasAPIKeyPrefix(s string) bool {
	return strings.HasPrefix(s, apiKeyPrefix+"_")
}

func HashAPIKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

func randToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

type CreateKeyParams struct {
	Label       string
	Description string
	Limits      models.QuotaLimits
	ExpiresAt   *time.Time
}

type UpdateKeyParams struct {
	Label     *string
	Limits    *models.QuotaLimits
	IsActive  *bool
	ExpiresAt *time.Time
}

// APIKeyService manages the lifecycle of API keys and resolves presented
// secrets back to their owners.
type APIKeyService struct {
	keys          KeyStore
	users         UserStore
	defaultExpiry time.Duration // 0 disables the default expiry
	now           func() time.Time
}

func NewAPIKeyService(keys KeyStore, users UserStore, defaultExpiry time.Duration) *APIKeyService {
	return &APIKeyService{
		keys:          keys,
		users:         users,
		defaultExpiry: defaultExpiry,
		now:           time.Now,
	}
}

// Create generates a key for the owner and persists only its hash. The
// returned plaintext is shown exactly once and cannot be recovered.
func (s *APIKeyService) Create(ctx context.Context, owner *models.User, p CreateKeyParams) (*models.APIKey, string, error) {
	if owner == nil {
		return nil, "", ErrUnauthenticated
	}

	keyID, plaintext := GenerateAPIKey()

	expiresAt := p.ExpiresAt
	if expiresAt == nil && s.defaultExpiry > 0 {
		t := s.now().Add(s.defaultExpiry)
		expiresAt = &t
	}

	key := &models.APIKey{
		ID:          uuid.New(),
		KeyID:       keyID,
		KeyHash:     HashAPIKey(plaintext),
		Label:       p.Label,
		Description: p.Description,
		UserID:      owner.ID,
		Limits:      p.Limits,
		IsActive:    true,
		ExpiresAt:   expiresAt,
		CreatedAt:   s.now(),
	}

	if err := s.keys.CreateAPIKey(ctx, key); err != nil {
		return nil, "", fmt.Errorf("create api key: %w", err)
	}
	return key, plaintext, nil
}

// Revoke deletes a key. Only the owner or an admin may revoke.
func (s *APIKeyService) Revoke(ctx context.Context, caller *Principal, keyID uuid.UUID) error {
	key, err := s.keys.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if key.UserID != caller.UserID && caller.Role != models.RoleAdmin {
		return ErrForbidden
	}
	if err := s.keys.DeleteAPIKey(ctx, keyID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Update adjusts mutable key settings. Same ownership rule as Revoke.
func (s *APIKeyService) Update(ctx context.Context, caller *Principal, keyID uuid.UUID, p UpdateKeyParams) (*models.APIKey, error) {
	key, err := s.keys.GetAPIKeyByID(ctx, keyID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if key.UserID != caller.UserID && caller.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}

	if p.Label != nil {
		key.Label = *p.Label
	}
	if p.Limits != nil {
		key.Limits = *p.Limits
	}
	if p.IsActive != nil {
		key.IsActive = *p.IsActive
	}
	if p.ExpiresAt != nil {
		key.ExpiresAt = p.ExpiresAt
	}

	if err := s.keys.UpdateAPIKey(ctx, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Resolve looks up a presented plaintext secret and returns the key and
// its owner. A revoked, expired, or unknown key fails with ErrInvalidKey;
// there is no caching, so revocation takes effect on the next request.
func (s *APIKeyService) Resolve(ctx context.Context, plaintext string) (*models.User, *models.APIKey, error) {
	key, err := s.keys.GetAPIKeyByHash(ctx, HashAPIKey(plaintext))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidKey
		}
		return nil, nil, err
	}

	if !key.IsActive {
		return nil, nil, ErrInvalidKey
	}
	if key.ExpiresAt != nil && !s.now().Before(*key.ExpiresAt) {
		return nil, nil, ErrInvalidKey
	}

	owner, err := s.users.GetUserByID(ctx, key.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidKey
		}
		return nil, nil, err
	}

	// Last-used is best effort; losing this write under a race is fine.
	go s.keys.TouchAPIKey(context.Background(), key.ID, s.now())

	return owner, key, nil
}

// List returns the caller's keys.
func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]models.APIKey, error) {
	return s.keys.ListAPIKeysByUser(ctx, userID)
}
