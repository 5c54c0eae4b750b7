package models

import "fmt"

// Role is a user's access level. Roles form a total order
// (read_only < user < developer < admin) and are compared by rank,
// never by string equality.
type Role string

const (
	RoleReadOnly  Role = "read_only"
	RoleUser      Role = "user"
	RoleDeveloper Role = "developer"
	RoleAdmin     Role = "admin"
)

var roleRanks = map[Role]int{
	RoleReadOnly:  0,
	RoleUser:      1,
	RoleDeveloper: 2,
	RoleAdmin:     3,
}

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleRanks[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the role's position in the hierarchy. Unknown roles rank
// below read_only so a corrupted value never passes an access check.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= min.Rank()
}
