package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type facultyStore interface {
	List(ctx context.Context) ([]models.Faculty, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

// FacultyService exposes the faculty roster the engine assigns schedules to.
type FacultyService struct {
	repo   facultyStore
	logger *zap.Logger
}

// NewFacultyService instantiates FacultyService.
func NewFacultyService(repo facultyStore, logger *zap.Logger) *FacultyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{repo: repo, logger: logger}
}

// List returns all faculty.
func (s *FacultyService) List(ctx context.Context) ([]models.Faculty, error) {
	faculty, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	return faculty, nil
}

// Get loads one faculty member.
func (s *FacultyService) Get(ctx context.Context, id string) (*models.Faculty, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("faculty", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}
	return f, nil
}
