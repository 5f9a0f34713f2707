package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/internal/repository"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type mockTermRepo struct {
	items   map[string]*models.Term
	seq     int
	deleted []string
}

func (m *mockTermRepo) List(ctx context.Context) ([]models.Term, error) {
	out := make([]models.Term, 0, len(m.items))
	for _, t := range m.items {
		out = append(out, *t)
	}
	return out, nil
}

func (m *mockTermRepo) FindByID(ctx context.Context, id string) (*models.Term, error) {
	if t, ok := m.items[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTermRepo) Create(ctx context.Context, term *models.Term) error {
	if m.items == nil {
		m.items = make(map[string]*models.Term)
	}
	for _, t := range m.items {
		if t.Year == term.Year && t.Semester == term.Semester {
			return fmt.Errorf("%w: terms_year_semester_key", repository.ErrDuplicate)
		}
	}
	m.seq++
	term.ID = "term-" + strconv.Itoa(m.seq)
	cp := *term
	m.items[term.ID] = &cp
	return nil
}

func (m *mockTermRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newTermService(repo *mockTermRepo, sectionCounts map[string]int) *TermService {
	guard := NewIntegrityGuard(zap.NewNop())
	guard.Protect("term", "section", func(ctx context.Context, id string) (int, error) {
		return sectionCounts[id], nil
	})
	return NewTermService(repo, guard, validator.New(), zap.NewNop())
}

func TestTermServiceCreate(t *testing.T) {
	repo := &mockTermRepo{}
	svc := newTermService(repo, nil)

	term, err := svc.Create(context.Background(), CreateTermRequest{Year: 2026, Semester: "FALL"})
	require.NoError(t, err)
	assert.NotEmpty(t, term.ID)
	assert.Equal(t, 2026, term.Year)
}

func TestTermServiceCreateDuplicate(t *testing.T) {
	repo := &mockTermRepo{}
	svc := newTermService(repo, nil)

	_, err := svc.Create(context.Background(), CreateTermRequest{Year: 2026, Semester: "FALL"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateTermRequest{Year: 2026, Semester: "FALL"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestTermServiceDeleteBlockedBySections(t *testing.T) {
	repo := &mockTermRepo{items: map[string]*models.Term{
		"term-1": {ID: "term-1", Year: 2026, Semester: "FALL"},
	}}
	svc := newTermService(repo, map[string]int{"term-1": 4})

	err := svc.Delete(context.Background(), "term-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDependencyExists.Code, appErr.Code)
	assert.Len(t, repo.items, 1)
}

func TestTermServiceDelete(t *testing.T) {
	repo := &mockTermRepo{items: map[string]*models.Term{
		"term-1": {ID: "term-1", Year: 2026, Semester: "FALL"},
	}}
	svc := newTermService(repo, nil)

	require.NoError(t, svc.Delete(context.Background(), "term-1"))
	assert.Empty(t, repo.items)

	err := svc.Delete(context.Background(), "term-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
