package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/internal/repository"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type sectionCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.SectionCourse, error)
	FindBySectionAndCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourse, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.SectionCourseDetail, error)
	Create(ctx context.Context, sc *models.SectionCourse) error
	AssignFaculty(ctx context.Context, id string, facultyID *string) error
	Delete(ctx context.Context, id string) error
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type courseReader interface {
	FindCourseByID(ctx context.Context, id string) (*models.Course, error)
}

type scheduleCounter interface {
	CountBySectionCourse(ctx context.Context, sectionCourseID string) (int, error)
}

// CreateSectionCourseRequest links a course to a section, optionally with a
// designated instructor.
type CreateSectionCourseRequest struct {
	SectionID string  `json:"section_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	FacultyID *string `json:"faculty_id,omitempty"`
}

// AssignFacultyRequest sets the designated instructor; an empty faculty_id
// clears it.
type AssignFacultyRequest struct {
	FacultyID string `json:"faculty_id"`
}

// SectionCourseService manages which courses a section offers.
type SectionCourseService struct {
	repo      sectionCourseStore
	sections  sectionReader
	courses   courseReader
	faculty   facultyReader
	schedules scheduleCounter
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionCourseService instantiates SectionCourseService.
func NewSectionCourseService(
	repo sectionCourseStore,
	sections sectionReader,
	courses courseReader,
	faculty facultyReader,
	schedules scheduleCounter,
	validate *validator.Validate,
	logger *zap.Logger,
) *SectionCourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionCourseService{
		repo:      repo,
		sections:  sections,
		courses:   courses,
		faculty:   faculty,
		schedules: schedules,
		validator: validate,
		logger:    logger,
	}
}

// ListBySection returns a section's offerings.
func (s *SectionCourseService) ListBySection(ctx context.Context, sectionID string) ([]models.SectionCourseDetail, error) {
	if _, err := s.sections.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section", sectionID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}
	offerings, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section courses")
	}
	return offerings, nil
}

// Create links a course to a section. A course can be offered at most once
// per section; a duplicate pair is rejected before the write, and the unique
// constraint backstops the race.
func (s *SectionCourseService) Create(ctx context.Context, req CreateSectionCourseRequest) (*models.SectionCourse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section course payload")
	}

	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section", req.SectionID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}
	if _, err := s.courses.FindCourseByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("course", req.CourseID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve course")
	}
	if req.FacultyID != nil {
		if _, err := s.faculty.FindByID(ctx, *req.FacultyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.NotFound("faculty", *req.FacultyID)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty")
		}
	}

	if _, err := s.repo.FindBySectionAndCourse(ctx, req.SectionID, req.CourseID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateAssignment, "")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check section course")
	}

	sc := models.SectionCourse{
		SectionID: req.SectionID,
		CourseID:  req.CourseID,
		FacultyID: req.FacultyID,
	}
	if err := s.repo.Create(ctx, &sc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateAssignment, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section course")
	}
	return &sc, nil
}

// AssignFaculty sets or clears the designated instructor for an offering.
func (s *SectionCourseService) AssignFaculty(ctx context.Context, id string, req AssignFacultyRequest) (*models.SectionCourse, error) {
	offering, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section_course", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section course")
	}

	var facultyID *string
	if req.FacultyID != "" {
		if _, err := s.faculty.FindByID(ctx, req.FacultyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.NotFound("faculty", req.FacultyID)
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty")
		}
		facultyID = &req.FacultyID
	}

	if err := s.repo.AssignFaculty(ctx, id, facultyID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign faculty")
	}
	offering.FacultyID = facultyID
	return offering, nil
}

// Delete removes an offering, blocked while schedules still reference it.
func (s *SectionCourseService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("section_course", id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section course")
	}

	count, err := s.schedules.CountBySectionCourse(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count schedules")
	}
	if count > 0 {
		return appErrors.DependencyExists("schedule", count)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section course")
	}
	return nil
}
