package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/internal/repository"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type sectionStore interface {
	ListByTerm(ctx context.Context, termID string) ([]models.Section, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	UpdateCapacity(ctx context.Context, id string, capacity int) error
	Delete(ctx context.Context, id string) error
	EnrollmentCount(ctx context.Context, sectionID string) (int, error)
}

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

// CreateSectionRequest describes payload for creating a section.
type CreateSectionRequest struct {
	TermID      string `json:"term_id" validate:"required"`
	SectionCode string `json:"section_code" validate:"required"`
	Capacity    int    `json:"capacity" validate:"required,min=1"`
}

// UpdateSectionCapacityRequest resizes a section.
type UpdateSectionCapacityRequest struct {
	Capacity int `json:"capacity" validate:"required,min=1"`
}

// SectionService manages sections within a term.
type SectionService struct {
	repo      sectionStore
	terms     termReader
	guard     deleteGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService instantiates SectionService.
func NewSectionService(repo sectionStore, terms termReader, guard deleteGuard, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, terms: terms, guard: guard, validator: validate, logger: logger}
}

// ListByTerm returns a term's sections.
func (s *SectionService) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	if _, err := s.terms.FindByID(ctx, termID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("term", termID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}
	sections, err := s.repo.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// Get loads one section.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create stores a new section, unique on (term, code).
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("term", req.TermID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve term")
	}

	section := models.Section{
		TermID:      req.TermID,
		SectionCode: strings.TrimSpace(req.SectionCode),
		Capacity:    req.Capacity,
	}
	if err := s.repo.Create(ctx, &section); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "section code already used in this term")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return &section, nil
}

// UpdateCapacity resizes a section, never below its current enrollment.
func (s *SectionService) UpdateCapacity(ctx context.Context, id string, req UpdateSectionCapacityRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid capacity payload")
	}
	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	enrolled, err := s.repo.EnrollmentCount(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	if req.Capacity < enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("capacity %d is below current enrollment %d", req.Capacity, enrolled))
	}

	if err := s.repo.UpdateCapacity(ctx, id, req.Capacity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section capacity")
	}
	section.Capacity = req.Capacity
	return section, nil
}

// Delete removes a section, blocked while offerings reference it.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.guard.EnsureDeletable(ctx, "section", id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}
