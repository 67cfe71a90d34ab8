package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// ProblemTypeService manages the problem taxonomy.
type ProblemTypeService struct {
	problemTypes repository.ProblemTypeRepository
}

// ProblemTypeInput describes a taxonomy entry. An empty slug is derived from the name.
type ProblemTypeInput struct {
	Name         string
	Slug         string
	DisplayOrder int
}

// NewProblemTypeService constructs the service.
func NewProblemTypeService(problemTypes repository.ProblemTypeRepository) *ProblemTypeService {
	return &ProblemTypeService{problemTypes: problemTypes}
}

// List is public.
func (s *ProblemTypeService) List(ctx context.Context) ([]domain.ProblemType, error) {
	list, err := s.problemTypes.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return list, nil
}

func (s *ProblemTypeService) Create(ctx context.Context, caller domain.Caller, input ProblemTypeInput) (*domain.ProblemType, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	pt, err := problemTypeFromInput(input)
	if err != nil {
		return nil, err
	}
	if err := s.problemTypes.Create(ctx, pt); err != nil {
		return nil, mapSlugConflict(err, pt.Slug)
	}
	return pt, nil
}

func (s *ProblemTypeService) Update(ctx context.Context, caller domain.Caller, id string, input ProblemTypeInput) (*domain.ProblemType, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	pt, err := problemTypeFromInput(input)
	if err != nil {
		return nil, err
	}
	pt.ID = id
	if err := s.problemTypes.Update(ctx, pt); err != nil {
		return nil, mapSlugConflict(err, pt.Slug)
	}
	updated, err := s.problemTypes.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return updated, nil
}

// Delete removes the entry; tickets that used it keep existing without one.
func (s *ProblemTypeService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	return apperrors.MapError(s.problemTypes.Delete(ctx, id))
}

func problemTypeFromInput(input ProblemTypeInput) (*domain.ProblemType, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "name", Message: "is required"})
	}
	slug := Slugify(input.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, apperrors.NewFieldValidationError(apperrors.FieldError{Field: "slug", Message: "must contain letters or digits"})
	}
	return &domain.ProblemType{Name: name, Slug: slug, DisplayOrder: input.DisplayOrder}, nil
}

func mapSlugConflict(err error, slug string) error {
	if apperrors.IsUniqueViolation(err) {
		return apperrors.NewConflict("slug already in use", map[string]any{"slug": slug})
	}
	return apperrors.MapError(err)
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-"), "-")
}
