package rbac

import (
	"fmt"
	"strings"

	"github.com/bizinsight360/bizinsight360/internal/shared"
)

// Role is the coarse permission level carried by every user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Readers is the role set allowed to read records.
var Readers = []Role{RoleAdmin, RoleUser}

// ParseRole normalises raw into a known role.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser:
		return RoleUser, nil
	}
	return "", fmt.Errorf("%w: unknown role %q", shared.ErrValidation, raw)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// IsAuthorized reports whether callerRole satisfies required. An empty set
// means the operation is open to everyone.
func IsAuthorized(callerRole Role, required []Role) bool {
	if len(required) == 0 {
		return true
	}
	for _, r := range required {
		if r == callerRole {
			return true
		}
	}
	return false
}

// SelfOrAdmin allows callers to act on their own record; admins may act on any.
func SelfOrAdmin(callerID int64, callerRole Role, targetID int64) error {
	if callerRole == RoleAdmin || callerID == targetID {
		return nil
	}
	return fmt.Errorf("%w: user %d may not modify user %d", shared.ErrForbidden, callerID, targetID)
}
