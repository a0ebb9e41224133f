package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the position of a user in the clinic hierarchy.
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleClinicAdmin Role = "CLINIC_ADMIN"
	RoleStaff       Role = "STAFF"
)

var roleRank = map[Role]int{
	RoleStaff:       1,
	RoleClinicAdmin: 2,
	RoleSuperAdmin:  3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min]
}

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a system user. SUPER_ADMIN users carry no clinic;
// CLINIC_ADMIN and STAFF are bound to exactly one clinic once assigned.
type User struct {
	Base
	ClinicID     *uuid.UUID `json:"clinicId,omitempty" db:"clinic_id"`
	Email        string     `json:"email" db:"email"`
	Name         string     `json:"name" db:"name"`
	Password     string     `json:"password,omitempty" db:"-"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Role         Role       `json:"role" db:"role"`
	Status       string     `json:"status" db:"status"`
	LastLoginAt  *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at"`
}

// Principal is the authenticated identity resolved from a bearer token.
type Principal struct {
	UserID   uuid.UUID  `json:"userId"`
	Role     Role       `json:"role"`
	ClinicID *uuid.UUID `json:"clinicId,omitempty"`
	Email    string     `json:"email"`
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	ClinicID *uuid.UUID `json:"clinicId"`
	Email    string     `json:"email" binding:"required,email"`
	Name     string     `json:"name" binding:"required"`
	Password string     `json:"password" binding:"required,min=8"`
	Role     Role       `json:"role" binding:"required,oneof=SUPER_ADMIN CLINIC_ADMIN STAFF"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
	Status   *string `json:"status" binding:"omitempty,oneof=active inactive"`
}
