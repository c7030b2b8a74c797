package domain

import (
	"errors"
	"time"
)

// Role is the privilege tier of an identity. Roles are strictly ordered:
// every tier may do whatever the tiers below it may do.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleRoot    Role = "root"
)

// roleLevels defines the privilege ordering. Unknown roles have no entry
// and therefore never satisfy any requirement.
var roleLevels = map[Role]int{
	RoleUser:    1,
	RoleManager: 2,
	RoleRoot:    3,
}

var ErrIdentityNotFound = errors.New("identity not found")
var ErrIdentityDisabled = errors.New("identity is disabled")
var ErrEmailTaken = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrUnknownRole = errors.New("unknown role")

// ParseRole validates a raw role string coming from storage or a token.
// Anything outside the closed set is rejected.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleLevels[r]; !ok {
		return "", ErrUnknownRole
	}
	return r, nil
}

// Level returns the numeric privilege level, or 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// Satisfies reports whether the role meets a requirement. Comparisons
// involving an unknown role on either side always fail.
func (r Role) Satisfies(required Role) bool {
	have, ok := roleLevels[r]
	if !ok {
		return false
	}
	want, ok := roleLevels[required]
	if !ok {
		return false
	}
	return have >= want
}

// IdentityStatus is the account lifecycle state.
type IdentityStatus string

const (
	StatusActive   IdentityStatus = "active"
	StatusDisabled IdentityStatus = "disabled"
)

// Identity models an authenticated actor in the system.
type Identity struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	PasswordHash string         `json:"-"`
	Role         Role           `json:"role"`
	Status       IdentityStatus `json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Disabled reports whether the account has been deactivated.
func (i Identity) Disabled() bool {
	return i.Status == StatusDisabled
}

// BypassUserID is the fixed identifier attached to every request when the
// API runs with authentication disabled.
const BypassUserID = "local-dev"

// BypassIdentity returns the placeholder actor injected on every request in
// bypass mode. It carries RoleRoot so single-tenant deployments pass every
// role check.
func BypassIdentity() Identity {
	return Identity{
		ID:     BypassUserID,
		Email:  "dev@localhost",
		Name:   "Local Developer",
		Role:   RoleRoot,
		Status: StatusActive,
	}
}
