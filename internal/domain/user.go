package domain

import "time"

// Role is the permission level of a user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is an account. Email is the stable identifier reservations refer to.
type User struct {
	Email        string
	FullName     string
	Phone        string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// Caller is the authenticated identity on whose behalf an operation runs.
// Every service operation that depends on who is asking takes it explicitly.
type Caller struct {
	Email string
	Role  Role
}

// IsAdmin reports whether the caller holds the admin role.
func (c Caller) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// Owns reports whether the caller may act on a reservation as its owner.
func (c Caller) Owns(r Reservation) bool {
	return c.Email != "" && c.Email == r.Email
}
