package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Genders accepted at registration.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int       `bun:",pk,nullzero" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `bun:",nullzero" json:"email"`
	FirstName    string    `bun:",nullzero" json:"first_name"`
	LastName     string    `json:"last_name"`
	Gender       string    `bun:",nullzero" json:"gender"`
	Avatar       string    `bun:",nullzero" json:"avatar"`
	PasswordHash string    `json:"-"` // Never expose password hash
	RoleID       int       `json:"role_id"`
	IsActive     bool      `json:"is_active"`

	Role *Role `bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasPermission checks if the user has a specific permission.
func (u *User) HasPermission(resource, operation string) bool {
	if u.Role == nil {
		return false
	}
	return u.Role.HasPermission(resource, operation)
}

// HasRole reports whether the user's loaded role has the given name.
func (u *User) HasRole(name string) bool {
	return u.Role != nil && u.Role.Name == name
}
