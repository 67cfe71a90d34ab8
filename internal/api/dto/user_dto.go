package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// AuthResponse is returned by login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// CreateUserRequest payload.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=60"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required,max=120"`
	Phone    string `json:"phone" validate:"max=40"`
	Role     string `json:"role" validate:"required,oneof=admin technician_a technician_b"`
}

// UpdateUserRequest holds optional account changes.
type UpdateUserRequest struct {
	FullName *string `json:"fullName" validate:"omitempty,max=120"`
	Phone    *string `json:"phone" validate:"omitempty,max=40"`
	Role     *string `json:"role" validate:"omitempty,oneof=admin technician_a technician_b"`
	IsActive *bool   `json:"isActive"`
	Password *string `json:"password" validate:"omitempty,min=6"`
}

// PushSubscriptionRequest wraps a browser PushSubscription.
type PushSubscriptionRequest struct {
	Subscription json.RawMessage `json:"subscription" validate:"required"`
}

// UserResponse never exposes the password hash or the push subscription.
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	FullName    string      `json:"fullName"`
	Phone       string      `json:"phone"`
	Role        domain.Role `json:"role"`
	IsActive    bool        `json:"isActive"`
	PushEnabled bool        `json:"pushEnabled"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		FullName:    u.FullName,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		PushEnabled: len(u.PushSubscription) > 0,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func NewUserResponses(users []domain.User) []UserResponse {
	resp := make([]UserResponse, 0, len(users))
	for i := range users {
		resp = append(resp, NewUserResponse(&users[i]))
	}
	return resp
}
