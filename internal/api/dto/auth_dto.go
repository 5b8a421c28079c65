package dto

import (
	"time"

	"github.com/tablebook/reservation-service/internal/domain"
)

// SignupRequest payload for new users.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for the refresh and logout endpoints.
type RefreshRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// UpdateProfileRequest payload for PATCH /auth/me.
type UpdateProfileRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	IsAdmin   bool        `json:"is_admin"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// AuthResponse standard response for signup and login.
type AuthResponse struct {
	Access           string       `json:"access"`
	AccessExpiresAt  time.Time    `json:"access_expires_at"`
	Refresh          string       `json:"refresh"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}

// AccessResponse is returned by the refresh grant.
type AccessResponse struct {
	Access    string    `json:"access"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		IsAdmin:   user.IsAdmin(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// NewAuthResponse maps a user and its freshly issued tokens.
func NewAuthResponse(user *domain.User, tokens domain.TokenPair) AuthResponse {
	return AuthResponse{
		Access:           tokens.Access,
		AccessExpiresAt:  tokens.AccessExpiresAt,
		Refresh:          tokens.Refresh,
		RefreshExpiresAt: tokens.RefreshExpiresAt,
		User:             NewUserResponse(user),
	}
}
