package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

func testUser(role models.Role) *models.User {
	return &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "alice@example.com",
		Role:     role,
		IsActive: true,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute)
	user := testUser(models.RoleDeveloper)

	raw, expiresAt, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !expiresAt.After(time.Now().Add(29 * time.Minute)) {
		t.Errorf("expiry %v not ~30m out", expiresAt)
	}

	claims, err := svc.Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Username != "alice" || claims.Role != "developer" {
		t.Errorf("claims = %q/%q, want alice/developer", claims.Username, claims.Role)
	}
	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID: %v", err)
	}
	if id != user.ID {
		t.Errorf("subject = %v, want %v", id, user.ID)
	}
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute)
	raw, _, err := svc.Issue(testUser(models.RoleUser))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(31 * time.Minute) }
	if _, err := svc.Validate(raw); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("Validate after expiry = %v, want ErrTokenExpired", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", 30*time.Minute)
	verifier := NewTokenService("secret-b", 30*time.Minute)

	raw, _, err := issuer.Issue(testUser(models.RoleUser))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Validate(raw); !errors.Is(err, ErrTokenSignature) {
		t.Errorf("Validate with wrong secret = %v, want ErrTokenSignature", err)
	}
}

func TestTokenMalformed(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute)
	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Validate(raw); !errors.Is(err, ErrTokenMalformed) {
			t.Errorf("Validate(%q) = %v, want ErrTokenMalformed", raw, err)
		}
	}
}

// A role change after issuance does not rewrite outstanding tokens; the
// embedded role holds until expiry.
func TestTokenRoleFrozenAtIssuance(t *testing.T) {
	svc := NewTokenService("test-secret", 30*time.Minute)
	user := testUser(models.RoleDeveloper)

	raw, _, err := svc.Issue(user)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	user.Role = models.RoleReadOnly

	claims, err := svc.Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Role != "developer" {
		t.Errorf("claims role = %q, want developer", claims.Role)
	}
}
