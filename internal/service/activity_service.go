package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ActivityService records technician work that is not tied to a ticket.
type ActivityService struct {
	activities repository.ActivityRepository
}

// ActivityInput describes a work log entry.
type ActivityInput struct {
	ActivityDate time.Time
	Title        string
	Description  string
	Location     string
}

// NewActivityService constructs the service.
func NewActivityService(activities repository.ActivityRepository) *ActivityService {
	return &ActivityService{activities: activities}
}

func (s *ActivityService) Create(ctx context.Context, caller domain.Caller, input ActivityInput) (*domain.TechnicianActivity, error) {
	if !caller.Role.IsTechnician() {
		return nil, apperrors.NewForbidden("only technicians log activities")
	}
	var fields []apperrors.FieldError
	if strings.TrimSpace(input.Title) == "" {
		fields = append(fields, apperrors.FieldError{Field: "title", Message: "is required"})
	}
	if input.ActivityDate.IsZero() {
		fields = append(fields, apperrors.FieldError{Field: "activityDate", Message: "is required"})
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldValidationError(fields...)
	}
	activity := &domain.TechnicianActivity{
		TechnicianID: caller.UserID,
		ActivityDate: input.ActivityDate,
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Location:     strings.TrimSpace(input.Location),
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, apperrors.MapError(err)
	}
	return activity, nil
}

// ListOwn returns the caller's activities in the optional range, newest first.
func (s *ActivityService) ListOwn(ctx context.Context, caller domain.Caller, from, to *time.Time) ([]domain.TechnicianActivity, error) {
	list, err := s.activities.ListByTechnician(ctx, caller.UserID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

// DeleteOwn removes one of the caller's activities.
func (s *ActivityService) DeleteOwn(ctx context.Context, caller domain.Caller, id string) error {
	ok, err := s.activities.Delete(ctx, id, caller.UserID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !ok {
		return apperrors.NewNotFound("activity", map[string]any{"id": id})
	}
	return nil
}
