package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

func newTestKeyService(t *testing.T) (*APIKeyService, *memStore) {
	t.Helper()
	ms := newMemStore()
	return NewAPIKeyService(ms, ms, 0), ms
}

func mustUser(t *testing.T, ms *memStore, role models.Role, active bool) *models.User {
	t.Helper()
	u := testUser(role)
	u.Username = "user-" + uuid.NewString()[:8]
	u.Email = u.Username + "@example.com"
	u.IsActive = active
	if err := ms.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func TestGenerateAPIKeyFormat(t *testing.T) {
	keyID, plaintext := GenerateAPIKey()

	if !strings.HasPrefix(keyID, "olk_") {
		t.Errorf("key ID %q missing olk_ prefix", keyID)
	}
	if !strings.HasPrefix(plaintext, keyID+"_") {
		t.Errorf("plaintext %q does not embed key ID %q", plaintext, keyID)
	}
	if !HasAPIKeyPrefix(plaintext) {
		t.Errorf("HasAPIKeyPrefix(%q) = false", plaintext)
	}

	_, other := GenerateAPIKey()
	if plaintext == other {
		t.Error("two generated keys are identical")
	}
}

func TestCreateStoresOnlyHash(t *testing.T) {
	svc, ms := newTestKeyService(t)
	owner := mustUser(t, ms, models.RoleUser, true)

	key, plaintext, err := svc.Create(context.Background(), owner, CreateKeyParams{Label: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if key.KeyHash != HashAPIKey(plaintext) {
		t.Error("stored hash does not match plaintext hash")
	}
	if strings.Contains(key.KeyHash, plaintext) {
		t.Error("plaintext leaked into stored hash")
	}

	stored, err := ms.GetAPIKeyByID(context.Background(), key.ID)
	if err != nil {
		t.Fatalf("key not persisted: %v", err)
	}
	if !stored.IsActive {
		t.Error("new key should be active")
	}
}

func TestResolveValidKey(t *testing.T) {
	svc, ms := newTestKeyService(t)
	owner := mustUser(t, ms, models.RoleDeveloper, true)

	_, plaintext, err := svc.Create(context.Background(), owner, CreateKeyParams{Label: "ci"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	gotUser, gotKey, err := svc.Resolve(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if gotUser.ID != owner.ID {
		t.Errorf("resolved owner %v, want %v", gotUser.ID, owner.ID)
	}
	if gotKey.Label != "ci" {
		t.Errorf("resolved key label %q, want ci", gotKey.Label)
	}
}

func TestResolveRejectsBadKeys(t *testing.T) {
	svc, ms := newTestKeyService(t)
	owner := mustUser(t, ms, models.RoleUser, true)

	activeKey, plaintext, err := svc.Create(context.Background(), owner, CreateKeyParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("unknown", func(t *testing.T) {
		if _, _, err := svc.Resolve(context.Background(), "olk_nope_nope"); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("got %v, want ErrInvalidKey", err)
		}
	})

	t.Run("revoked", func(t *testing.T) {
		caller := &Principal{UserID: owner.ID, Role: owner.Role}
		inactive := false
		if _, err := svc.Update(context.Background(), caller, activeKey.ID, UpdateKeyParams{IsActive: &inactive}); err != nil {
			t.Fatalf("Update: %v", err)
		}
		if _, _, err := svc.Resolve(context.Background(), plaintext); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("got %v, want ErrInvalidKey", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		_, expiredPlain, err := svc.Create(context.Background(), owner, CreateKeyParams{ExpiresAt: &past})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, _, err := svc.Resolve(context.Background(), expiredPlain); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("got %v, want ErrInvalidKey", err)
		}
	})
}

func TestRevokeOwnership(t *testing.T) {
	svc, ms := newTestKeyService(t)
	owner := mustUser(t, ms, models.RoleUser, true)
	other := mustUser(t, ms, models.RoleUser, true)
	admin := mustUser(t, ms, models.RoleAdmin, true)

	key, _, err := svc.Create(context.Background(), owner, CreateKeyParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	otherCaller := &Principal{UserID: other.ID, Role: other.Role}
	if err := svc.Revoke(context.Background(), otherCaller, key.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner revoke = %v, want ErrForbidden", err)
	}

	adminCaller := &Principal{UserID: admin.ID, Role: admin.Role}
	if err := svc.Revoke(context.Background(), adminCaller, key.ID); err != nil {
		t.Errorf("admin revoke = %v, want nil", err)
	}

	ownerCaller := &Principal{UserID: owner.ID, Role: owner.Role}
	if err := svc.Revoke(context.Background(), ownerCaller, key.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("revoke of deleted key = %v, want ErrNotFound", err)
	}
}

func TestCreateAppliesDefaultExpiry(t *testing.T) {
	ms := newMemStore()
	svc := NewAPIKeyService(ms, ms, 24*time.Hour)
	owner := mustUser(t, ms, models.RoleUser, true)

	key, _, err := svc.Create(context.Background(), owner, CreateKeyParams{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if key.ExpiresAt == nil {
		t.Fatal("default expiry not applied")
	}
	if until := time.Until(*key.ExpiresAt); until < 23*time.Hour || until > 25*time.Hour {
		t.Errorf("expiry %v not ~24h out", until)
	}
}
