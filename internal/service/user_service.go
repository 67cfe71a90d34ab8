package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// UserService manages admin and technician accounts.
type UserService struct {
	users      repository.UserRepository
	bcryptCost int
}

// UserCreateInput describes a new account.
type UserCreateInput struct {
	Username string
	Password string
	FullName string
	Phone    string
	Role     domain.Role
}

// UserUpdateInput holds optional account changes.
type UserUpdateInput struct {
	FullName *string
	Phone    *string
	Role     *domain.Role
	IsActive *bool
	Password *string
}

// UserListFilter defines listing parameters.
type UserListFilter struct {
	Role   *domain.Role
	Active *bool
	Limit  int
	Offset int
}

// NewUserService constructs the service.
func NewUserService(users repository.UserRepository, bcryptCost int) *UserService {
	return &UserService{users: users, bcryptCost: bcryptCost}
}

func requireAdmin(caller domain.Caller) error {
	if !caller.IsAdmin() {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// Create registers an account. Admin only.
func (s *UserService) Create(ctx context.Context, caller domain.Caller, input UserCreateInput) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	var fields []apperrors.FieldError
	if strings.TrimSpace(input.Username) == "" {
		fields = append(fields, apperrors.FieldError{Field: "username", Message: "is required"})
	}
	if len(input.Password) < auth.MinPasswordLength {
		fields = append(fields, apperrors.FieldError{Field: "password", Message: "must be at least 6 characters"})
	}
	if strings.TrimSpace(input.FullName) == "" {
		fields = append(fields, apperrors.FieldError{Field: "fullName", Message: "is required"})
	}
	if !input.Role.IsValid() {
		fields = append(fields, apperrors.FieldError{Field: "role", Message: "must be admin, technician_a or technician_b"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields...)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(input.FullName),
		Phone:        strings.TrimSpace(input.Phone),
		Role:         input.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("username already taken", map[string]any{"username": user.Username})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns accounts. Admin only.
func (s *UserService) List(ctx context.Context, caller domain.Caller, filter UserListFilter) ([]domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, repository.UserFilter{
		Role:   filter.Role,
		Active: filter.Active,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Update applies account changes. Admin only.
func (s *UserService) Update(ctx context.Context, caller domain.Caller, id string, input UserUpdateInput) (*domain.User, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if input.FullName != nil {
		if strings.TrimSpace(*input.FullName) == "" {
			return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "fullName", Message: "must not be empty"})
		}
		user.FullName = strings.TrimSpace(*input.FullName)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Role != nil {
		if !input.Role.IsValid() {
			return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "role", Message: "must be admin, technician_a or technician_b"})
		}
		user.Role = *input.Role
	}
	if input.IsActive != nil {
		if !*input.IsActive && user.ID == caller.UserID {
			return nil, apperrors.NewConflict("you cannot deactivate your own account", nil)
		}
		user.IsActive = *input.IsActive
	}
	if input.Password != nil {
		if len(*input.Password) < auth.MinPasswordLength {
			return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "password", Message: "must be at least 6 characters"})
		}
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Colleagues lists active technicians sharing the caller's role, excluding the caller.
func (s *UserService) Colleagues(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if !caller.Role.IsTechnician() {
		return nil, apperrors.NewForbidden("only technicians have colleagues to co-assign")
	}
	active := true
	role := caller.Role
	users, err := s.users.List(ctx, repository.UserFilter{Role: &role, Active: &active, Limit: fanOutLimit})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.ID != caller.UserID {
			result = append(result, u)
		}
	}
	return result, nil
}

// SetPushSubscription stores the caller's browser push subscription.
func (s *UserService) SetPushSubscription(ctx context.Context, caller domain.Caller, subscription json.RawMessage) error {
	var probe struct {
		Endpoint string `json:"endpoint"`
	}
	if err := json.Unmarshal(subscription, &probe); err != nil || probe.Endpoint == "" {
		return apperrors.NewFieldValidationError(apperrors.FieldError{Field: "subscription", Message: "must be a push subscription with an endpoint"})
	}
	return apperrors.MapError(s.users.SetPushSubscription(ctx, caller.UserID, subscription))
}

// ClearPushSubscription removes the caller's push subscription.
func (s *UserService) ClearPushSubscription(ctx context.Context, caller domain.Caller) error {
	return apperrors.MapError(s.users.SetPushSubscription(ctx, caller.UserID, nil))
}
