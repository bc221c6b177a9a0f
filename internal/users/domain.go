package users

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/bizinsight360/bizinsight360/internal/rbac"
)

// DefaultFullName is assigned to registered users that omit a name.
const DefaultFullName = "New User"

// User is a stored account including credential state.
type User struct {
	ID                int64
	Email             string
	FullName          *string
	PasswordHash      string
	Role              rbac.Role
	RefreshToken      *string
	ResetToken        *string
	ResetTokenExpires *time.Time
	CustomerID        *int64
}

// PublicUser is the view of a user returned to clients.
type PublicUser struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FullName   *string   `json:"fullName"`
	Role       rbac.Role `json:"role"`
	CustomerID *int64    `json:"customerId,omitempty"`
}

// Public strips credential fields.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role, CustomerID: u.CustomerID}
}

// UpdateInput is a partial profile update.
type UpdateInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=6,max=72"`
	FullName *string `json:"fullName" validate:"omitempty,max=255"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN USER"`
}

// PasswordHasher hashes plaintext passwords.
type PasswordHasher interface {
	HashPassword(plain string) (string, error)
}

var emailFolder = cases.Fold()

// NormalizeEmail trims and case-folds an address for lookup and storage.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}
