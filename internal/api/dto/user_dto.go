package dto

import (
	"time"

	"github.com/supportdesk/ticket-dashboard/internal/domain"
)

// UserResponse is the external read representation of an account.
type UserResponse struct {
	ID          int64       `json:"id"`
	Username    string      `json:"username"`
	Email       string      `json:"email"`
	FirstName   string      `json:"firstName"`
	LastName    string      `json:"lastName"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"isActive"`
	LastLoginAt *time.Time  `json:"lastLoginAt"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// RegisterRequest payload.
type RegisterRequest struct {
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Password  string      `json:"password"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest payload.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by login, register and refresh.
type AuthResult struct {
	Success      bool          `json:"success"`
	Message      string        `json:"message,omitempty"`
	Token        string        `json:"token,omitempty"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	ExpiresAt    *time.Time    `json:"expiresAt,omitempty"`
	User         *UserResponse `json:"user,omitempty"`
}
