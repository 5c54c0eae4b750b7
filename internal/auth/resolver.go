package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
	"github.com/MichaelPatrick99/OLLAMA-API/internal/store"
)

// CredentialKind records which credential authenticated a request.
type CredentialKind string

const (
	CredentialToken  CredentialKind = "token"
	CredentialAPIKey CredentialKind = "api_key"
)

// Principal is the authenticated identity attached to a request. APIKey
// is nil for token-authenticated requests.
type Principal struct {
	UserID   uuid.UUID
	Username string
	Role     models.Role
	Kind     CredentialKind
	APIKey   *models.APIKey
}

type principalCtxKey struct{}

func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok
}

// Resolver turns request credentials into a Principal. It is the single
// place authentication decisions are made; handlers only ever see the
// resolved Principal.
type Resolver struct {
	tokens *TokenService
	keys   *APIKeyService
	users  UserStore

	// Header carrying API keys, normally "X-API-Key".
	keyHeader string
}

func NewResolver(tokens *TokenService, keys *APIKeyService, users UserStore, keyHeader string) *Resolver {
	if keyHeader == "" {
		keyHeader = "X-API-Key"
	}
	return &Resolver{tokens: tokens, keys: keys, users: users, keyHeader: keyHeader}
}

// Resolve authenticates the request. Precedence: an Authorization header
// wins over the API key header. A bearer value shaped like an API key is
// resolved as one, so keys work through either header.
func (r *Resolver) Resolve(req *http.Request) (*Principal, error) {
	if raw, ok := bearerValue(req.Header.Get("Authorization")); ok {
		if HasAPIKeyPrefix(raw) {
			return r.resolveKey(req.Context(), raw)
		}
		return r.resolveToken(req.Context(), raw)
	}
	if key := req.Header.Get(r.keyHeader); key != "" {
		return r.resolveKey(req.Context(), key)
	}
	return nil, ErrUnauthenticated
}

func (r *Resolver) resolveToken(ctx context.Context, raw string) (*Principal, error) {
	claims, err := r.tokens.Validate(raw)
	if err != nil {
		return nil, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	// The account must still exist and be active, but the role is taken
	// from the claims: a role change only applies to tokens issued after
	// it, until the old token expires.
	user, err := r.users.GetUserByID(ctx, userID)
	if err != nil {
		// Only a missing account is a credential failure; a store
		// outage must not masquerade as a bad token.
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	role, err := models.ParseRole(claims.Role)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	return &Principal{
		UserID:   user.ID,
		Username: claims.Username,
		Role:     role,
		Kind:     CredentialToken,
	}, nil
}

func (r *Resolver) resolveKey(ctx context.Context, plaintext string) (*Principal, error) {
	owner, key, err := r.keys.Resolve(ctx, plaintext)
	if err != nil {
		return nil, err
	}
	if !owner.IsActive {
		return nil, ErrAccountDisabled
	}
	// Key requests always use the owner's current role.
	return &Principal{
		UserID:   owner.ID,
		Username: owner.Username,
		Role:     owner.Role,
		Kind:     CredentialAPIKey,
		APIKey:   key,
	}, nil
}

func bearerValue(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):]), true
	}
	return "", false
}
