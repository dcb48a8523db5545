package dto

import (
	"time"

	"github.com/postroute/postal-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ChangePasswordRequest payload for POST /account/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// SelectRequest picks a branch or car for the session.
type SelectRequest struct {
	ID int64 `json:"id"`
}

// UserRequest payload for creating or updating an account.
type UserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// UserResponse describes an account.
type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      string(u.RoleName()),
	}
}

// MeResponse describes the signed-in user and the session selection.
type MeResponse struct {
	User   UserResponse `json:"user"`
	Branch *BranchRef   `json:"branch"`
	Car    *CarRef      `json:"car"`
}

func NewMeResponse(u domain.User, branch *domain.Branch, car *domain.Car) MeResponse {
	return MeResponse{User: NewUserResponse(u), Branch: branchRef(branch), Car: carRef(car)}
}

// RoleRequest payload for creating or renaming a role.
type RoleRequest struct {
	Name string `json:"name"`
}

// RoleResponse describes a role.
type RoleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func NewRoleResponse(r domain.Role) RoleResponse {
	return RoleResponse{ID: r.ID, Name: r.Name}
}
