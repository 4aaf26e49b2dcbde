package domain

import "time"

// Role is the closed set of staff roles.
type Role string

const (
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleDoctor || r == RoleAdmin
}

// User models an authenticated staff member.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}
