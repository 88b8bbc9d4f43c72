package dto

import (
	"time"

	"github.com/spec-kit/shift-service/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse represents an account without secrets.
type UserResponse struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    domain.Role `json:"role"`
	StoreID string      `json:"storeId"`
	Active  bool        `json:"active"`
}

// AuthResponse is returned after login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}
