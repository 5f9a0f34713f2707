package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadops/timetable-api/internal/models"
)

func newSectionCourseRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSectionCourseRepositoryFindBySectionAndCourse(t *testing.T) {
	db, mock, cleanup := newSectionCourseRepoMock(t)
	defer cleanup()
	repo := NewSectionCourseRepository(db)

	rows := sqlmock.NewRows([]string{"id", "section_id", "course_id", "faculty_id", "created_at"}).
		AddRow("sc-1", "sec-1", "crs-1", nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, section_id, course_id, faculty_id, created_at FROM section_courses WHERE section_id = $1 AND course_id = $2")).
		WithArgs("sec-1", "crs-1").
		WillReturnRows(rows)

	sc, err := repo.FindBySectionAndCourse(context.Background(), "sec-1", "crs-1")
	require.NoError(t, err)
	assert.Equal(t, "sc-1", sc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionCourseRepositoryFindMissingReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newSectionCourseRepoMock(t)
	defer cleanup()
	repo := NewSectionCourseRepository(db)

	mock.ExpectQuery("FROM section_courses WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionCourseRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newSectionCourseRepoMock(t)
	defer cleanup()
	repo := NewSectionCourseRepository(db)

	mock.ExpectExec("INSERT INTO section_courses").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "section_courses_section_id_course_id_key"})

	err := repo.Create(context.Background(), &models.SectionCourse{SectionID: "sec-1", CourseID: "crs-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionCourseRepositoryAssignFaculty(t *testing.T) {
	db, mock, cleanup := newSectionCourseRepoMock(t)
	defer cleanup()
	repo := NewSectionCourseRepository(db)

	facultyID := "fac-1"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE section_courses SET faculty_id = $2 WHERE id = $1")).
		WithArgs("sc-1", &facultyID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AssignFaculty(context.Background(), "sc-1", &facultyID))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE section_courses SET faculty_id = $2 WHERE id = $1")).
		WithArgs("sc-1", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AssignFaculty(context.Background(), "sc-1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSectionCourseRepositoryCountBySection(t *testing.T) {
	db, mock, cleanup := newSectionCourseRepoMock(t)
	defer cleanup()
	repo := NewSectionCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM section_courses WHERE section_id = $1")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountBySection(context.Background(), "sec-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
