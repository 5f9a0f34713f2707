package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/internal/repository"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type catalogStore interface {
	ListDepartments(ctx context.Context) ([]models.Department, error)
	FindDepartmentByID(ctx context.Context, id string) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id string) error
	FindProgramByID(ctx context.Context, id string) (*models.Program, error)
	DeleteProgram(ctx context.Context, id string) error
	ListCourses(ctx context.Context) ([]models.Course, error)
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
	CreateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id string) error
}

// CreateCourseRequest describes payload for creating a catalogue course.
type CreateCourseRequest struct {
	Code        string  `json:"code" validate:"required"`
	Title       string  `json:"title" validate:"required"`
	CreditHours int     `json:"credit_hours" validate:"required,min=1"`
	ProgramID   *string `json:"program_id,omitempty"`
}

// CatalogService manages departments, programs and courses. All three share
// the same delete-guard discipline: a record with dependents stays.
type CatalogService struct {
	repo      catalogStore
	guard     deleteGuard
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCatalogService instantiates CatalogService.
func NewCatalogService(repo catalogStore, guard deleteGuard, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{repo: repo, guard: guard, validator: validate, logger: logger}
}

// ListDepartments returns all departments.
func (s *CatalogService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.repo.ListDepartments(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list departments")
	}
	return departments, nil
}

// DeleteDepartment removes a department, blocked while programs reference it.
func (s *CatalogService) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := s.repo.FindDepartmentByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("department", id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}
	if err := s.guard.EnsureDeletable(ctx, "department", id); err != nil {
		return err
	}
	if err := s.repo.DeleteDepartment(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete department")
	}
	return nil
}

// DeleteProgram removes a program, blocked while courses reference it.
func (s *CatalogService) DeleteProgram(ctx context.Context, id string) error {
	if _, err := s.repo.FindProgramByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("program", id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	if err := s.guard.EnsureDeletable(ctx, "program", id); err != nil {
		return err
	}
	if err := s.repo.DeleteProgram(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete program")
	}
	return nil
}

// ListCourses returns the course catalogue.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// CreateCourse stores a new catalogue entry, unique on code.
func (s *CatalogService) CreateCourse(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if req.ProgramID != nil {
		if _, err := s.repo.FindProgramByID(ctx, *req.ProgramID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.NotFound("program", *req.ProgramID)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve program")
		}
	}

	course := models.Course{
		Code:        strings.ToUpper(strings.TrimSpace(req.Code)),
		Title:       strings.TrimSpace(req.Title),
		CreditHours: req.CreditHours,
		ProgramID:   req.ProgramID,
	}
	if err := s.repo.CreateCourse(ctx, &course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "course code already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return &course, nil
}

// DeleteCourse removes a course, blocked while section offerings reference it.
func (s *CatalogService) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.repo.FindCourseByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("course", id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.guard.EnsureDeletable(ctx, "course", id); err != nil {
		return err
	}
	if err := s.repo.DeleteCourse(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}
