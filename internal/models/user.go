package models

import "time"

// UserRole represents the available roles for access control.
type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleDoctor UserRole = "doctor"
)

// User represents an application user stored in the users table.
type User struct {
	ID             string    `db:"id" json:"id"`
	Email          string    `db:"email" json:"email"`
	FullName       string    `db:"full_name" json:"full_name"`
	Role           UserRole  `db:"role" json:"role"`
	IsActive       bool      `db:"is_active" json:"is_active"`
	HashedPassword string    `db:"hashed_password" json:"-"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...UserRole) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// DisplayName falls back to the email when no full name is recorded.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// CreateUserRequest is the admin payload for provisioning a user.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	FullName string   `json:"full_name" validate:"omitempty,max=255"`
	Password string   `json:"password" validate:"required,min=8"`
	Role     UserRole `json:"role" validate:"omitempty,oneof=admin doctor"`
	IsActive *bool    `json:"is_active"`
}

// UpdateUserRequest carries a partial user update; nil fields are left unchanged.
type UpdateUserRequest struct {
	FullName *string   `json:"full_name" validate:"omitempty,max=255"`
	Role     *UserRole `json:"role" validate:"omitempty,oneof=admin doctor"`
	IsActive *bool     `json:"is_active"`
	Password *string   `json:"password" validate:"omitempty,min=8"`
}
