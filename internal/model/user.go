package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a user is allowed to do. Allow-lists per
// operation live in the router and the workflow services.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleDoctor       Role = "doctor"
	RoleSurgeon      Role = "surgeon"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RolePatient      Role = "patient"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDoctor, RoleSurgeon, RoleNurse, RoleReceptionist, RolePatient:
		return true
	}
	return false
}

// In reports whether r appears in roles.
func (r Role) In(roles ...Role) bool {
	for _, candidate := range roles {
		if r == candidate {
			return true
		}
	}
	return false
}

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusPending  = "pending"
	UserStatusLocked   = "locked"
)

// User represents a system user
type User struct {
	Base
	ClinicID         uuid.UUID  `json:"clinic_id" db:"clinic_id"`
	Email            string     `json:"email" db:"email"`
	Name             string     `json:"name" db:"name"`
	Password         string     `json:"password,omitempty" db:"-"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Phone            *string    `json:"phone" db:"phone"`
	Role             Role       `json:"role" db:"role"`
	Status           string     `json:"status" db:"status"`
	LastLoginAt      *time.Time `json:"last_login_at" db:"last_login_at"`
	LoginAttempts    int        `json:"-" db:"login_attempts"`
	LastLoginAttempt time.Time  `json:"-" db:"last_login_attempt"`
}

// UserFilter represents user search parameters
type UserFilter struct {
	ClinicID uuid.UUID `json:"clinic_id" form:"clinic_id"`
	Role     Role      `json:"role" form:"role"`
	Status   string    `json:"status" form:"status"`
}

// CreateUserRequest represents user creation parameters
type CreateUserRequest struct {
	ClinicID string `json:"clinic_id" binding:"required,uuid"`
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Role     Role   `json:"role" binding:"required,oneof=admin doctor surgeon nurse receptionist patient"`
}

// UpdateUserRequest represents user update parameters
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email" binding:"omitempty,email"`
	Phone  *string `json:"phone"`
	Status *string `json:"status" binding:"omitempty,oneof=active inactive pending locked"`
	Role   *Role   `json:"role" binding:"omitempty,oneof=admin doctor surgeon nurse receptionist patient"`
}
