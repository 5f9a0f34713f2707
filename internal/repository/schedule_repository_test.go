package repository

import (
	"context"
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

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "section_course_id", "section_id", "room_id", "faculty_id", "day_of_week", "start_time", "end_time", "created_at", "updated_at"})
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := scheduleRows().
		AddRow("sch-1", "sc-1", "sec-1", "room-1", nil, "MONDAY", "09:00:00", "10:30:00", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, section_course_id, section_id, room_id, faculty_id, day_of_week, start_time, end_time, created_at, updated_at FROM schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	sched, err := repo.FindByID(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, "sch-1", sched.ID)
	assert.Equal(t, models.Monday, sched.DayOfWeek)
	assert.Equal(t, "09:00", sched.StartTime.String())
	assert.Equal(t, "10:30", sched.EndTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryListByRoomAndDay(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := scheduleRows().
		AddRow("sch-1", "sc-1", "sec-1", "room-1", nil, "MONDAY", "09:00:00", "10:00:00", time.Now(), time.Now()).
		AddRow("sch-2", "sc-2", "sec-2", "room-1", nil, "MONDAY", "10:00:00", "11:00:00", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedules WHERE room_id = $1 AND day_of_week = $2 AND id <> $3 ORDER BY start_time ASC")).
		WithArgs("room-1", models.Monday, "excluded").
		WillReturnRows(rows)

	schedules, err := repo.ListByRoomAndDay(context.Background(), "room-1", models.Monday, "excluded")
	require.NoError(t, err)
	assert.Len(t, schedules, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WillReturnResult(sqlmock.NewResult(1, 1))

	start, _ := models.ParseTimeOfDay("09:00")
	end, _ := models.ParseTimeOfDay("10:00")
	sched := &models.Schedule{
		SectionCourseID: "sc-1",
		SectionID:       "sec-1",
		RoomID:          "room-1",
		DayOfWeek:       models.Monday,
		StartTime:       start,
		EndTime:         end,
	}
	require.NoError(t, repo.Create(context.Background(), sched))
	assert.NotEmpty(t, sched.ID)
	assert.False(t, sched.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateExclusionViolation(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("INSERT INTO schedules").
		WillReturnError(&pq.Error{Code: "23P01", Constraint: "schedules_room_no_overlap"})

	start, _ := models.ParseTimeOfDay("09:00")
	end, _ := models.ParseTimeOfDay("10:00")
	err := repo.Create(context.Background(), &models.Schedule{
		SectionCourseID: "sc-1",
		SectionID:       "sec-1",
		RoomID:          "room-1",
		DayOfWeek:       models.Monday,
		StartTime:       start,
		EndTime:         end,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateSerializationFailure(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec("UPDATE schedules SET").
		WillReturnError(&pq.Error{Code: "40001"})

	err := repo.Update(context.Background(), &models.Schedule{ID: "sch-1", SectionCourseID: "sc-1", SectionID: "sec-1", RoomID: "room-1", DayOfWeek: models.Monday})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCommitConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryList(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	detailRows := sqlmock.NewRows([]string{
		"id", "section_course_id", "section_id", "room_id", "faculty_id",
		"day_of_week", "start_time", "end_time", "created_at", "updated_at",
		"section_code", "course_code", "course_title", "room_code", "faculty_name",
	}).AddRow("sch-1", "sc-1", "sec-1", "room-1", nil, "MONDAY", "09:00:00", "10:00:00", time.Now(), time.Now(), "A", "MATH101", "Calculus", "R-101", nil)

	mock.ExpectQuery("FROM schedules s").
		WithArgs("sec-1").
		WillReturnRows(detailRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules s WHERE s.section_id = $1")).
		WithArgs("sec-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schedules, total, err := repo.List(context.Background(), models.ScheduleFilter{SectionID: "sec-1"})
	require.NoError(t, err)
	assert.Len(t, schedules, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "MATH101", schedules[0].CourseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCounts(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE room_id = $1")).
		WithArgs("room-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByRoom(context.Background(), "room-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM schedules WHERE section_course_id = $1")).
		WithArgs("sc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err = repo.CountBySectionCourse(context.Background(), "sc-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
