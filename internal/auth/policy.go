package auth

import (
	"time"

	"github.com/MichaelPatrick99/OLLAMA-API/internal/models"
)

// Operation names a protected action and the minimum role it requires.
// AdminOnly operations require exactly the admin role regardless of rank.
type Operation struct {
	Name      string
	MinRole   models.Role
	AdminOnly bool
}

var (
	OpGenerate = Operation{Name: "generate", MinRole: models.RoleUser}
	OpChat     = Operation{Name: "chat", MinRole: models.RoleUser}

	OpModelsList  = Operation{Name: "models.list", MinRole: models.RoleReadOnly}
	OpModelShow   = Operation{Name: "models.show", MinRole: models.RoleReadOnly}
	OpModelPull   = Operation{Name: "models.pull", MinRole: models.RoleDeveloper}
	OpModelDelete = Operation{Name: "models.delete", MinRole: models.RoleDeveloper}

	OpKeyCreate = Operation{Name: "keys.create", MinRole: models.RoleUser}
	OpKeyList   = Operation{Name: "keys.list", MinRole: models.RoleUser}
	OpKeyUpdate = Operation{Name: "keys.update", MinRole: models.RoleUser}
	OpKeyRevoke = Operation{Name: "keys.revoke", MinRole: models.RoleUser}

	OpMe         = Operation{Name: "me", MinRole: models.RoleReadOnly}
	OpUsageStats = Operation{Name: "usage.stats", MinRole: models.RoleReadOnly}

	OpUserList     = Operation{Name: "users.list", AdminOnly: true}
	OpUserGet      = Operation{Name: "users.get", AdminOnly: true}
	OpUserUpdate   = Operation{Name: "users.update", AdminOnly: true}
	OpUserDelete   = Operation{Name: "users.delete", AdminOnly: true}
	OpUsageSummary = Operation{Name: "usage.summary", AdminOnly: true}
)

// Policy decides whether a resolved Principal may perform an operation.
// Role checks come first, then per-key quota when the request carries a
// key with limits configured.
type Policy struct{}

func NewPolicy() *Policy { return &Policy{} }

// Allow returns nil when the principal may perform op now, ErrForbidden
// on a role failure, or a *QuotaError naming the exhausted window.
func (p *Policy) Allow(pr *Principal, op Operation, now time.Time) error {
	if pr == nil {
		return ErrUnauthenticated
	}

	if op.AdminOnly {
		if pr.Role != models.RoleAdmin {
			return ErrForbidden
		}
	} else if !pr.Role.AtLeast(op.MinRole) {
		return ErrForbidden
	}

	if pr.Kind == CredentialAPIKey && pr.APIKey != nil {
		return checkQuota(pr.APIKey, now)
	}
	return nil
}

func checkQuota(key *models.APIKey, now time.Time) error {
	limits := key.Limits
	if limits.Empty() {
		return nil
	}
	for _, c := range []struct {
		window models.Window
		limit  int
	}{
		{models.WindowHour, limits.PerHour},
		{models.WindowDay, limits.PerDay},
		{models.WindowMonth, limits.PerMonth},
	} {
		if c.limit > 0 && key.Quota.Count(c.window, now) >= c.limit {
			return &QuotaError{Window: c.window, Limit: c.limit}
		}
	}
	return nil
}
