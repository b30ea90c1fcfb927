package domain

import "time"

// Role enumerates access levels for users.
type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleAgent    Role = "Agent"
	RoleCustomer Role = "Customer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleAgent || r == RoleCustomer
}

// User is the domain model for anyone who can authenticate: customers,
// agents and admins share the table, differentiated by Role.
//
// Username and email are unique across all rows regardless of IsActive, so a
// deactivated user keeps its claim on both.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         Role
	IsActive     bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName returns "First Last" as used in read DTOs.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
