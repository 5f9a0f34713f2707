package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadops/timetable-api/internal/models"
)

const scheduleColumns = "id, section_course_id, section_id, room_id, faculty_id, day_of_week, start_time, end_time, created_at, updated_at"

const scheduleDetailSelect = `SELECT s.id, s.section_course_id, s.section_id, s.room_id, s.faculty_id,
	s.day_of_week, s.start_time, s.end_time, s.created_at, s.updated_at,
	sec.section_code, c.code AS course_code, c.title AS course_title,
	r.room_code, f.full_name AS faculty_name
FROM schedules s
JOIN section_courses sc ON sc.id = s.section_course_id
JOIN sections sec ON sec.id = s.section_id
JOIN courses c ON c.id = sc.course_id
JOIN rooms r ON r.id = s.room_id
LEFT JOIN faculty f ON f.id = s.faculty_id`

// ScheduleRepository provides persistence for schedule assignments.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// FindByID loads a schedule by id.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE id = $1", scheduleColumns)
	var sched models.Schedule
	if err := r.db.GetContext(ctx, &sched, query, id); err != nil {
		return nil, err
	}
	return &sched, nil
}

// FindDetailByID loads a schedule with its referenced entities expanded.
func (r *ScheduleRepository) FindDetailByID(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	query := scheduleDetailSelect + " WHERE s.id = $1"
	var detail models.ScheduleDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns expanded schedules with optional filtering and pagination.
func (r *ScheduleRepository) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("s.section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("s.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("s.faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.DayOfWeek != "" {
		conditions = append(conditions, fmt.Sprintf("s.day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]string{
		"day_of_week": "s.day_of_week",
		"start_time":  "s.start_time",
		"room_code":   "r.room_code",
		"created_at":  "s.created_at",
	}
	sortExpr, ok := allowedSorts[sortBy]
	if !ok {
		sortExpr = "s.day_of_week"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY %s %s, s.start_time ASC LIMIT %d OFFSET %d", scheduleDetailSelect, where, sortExpr, order, size, offset)
	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list schedules: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM schedules s" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count schedules: %w", err)
	}

	return schedules, total, nil
}

// ListByRoomAndDay returns schedules occupying a room on a weekday,
// optionally excluding one id (used when a schedule is validated against
// itself during update).
func (r *ScheduleRepository) ListByRoomAndDay(ctx context.Context, roomID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE room_id = $1 AND day_of_week = $2 AND id <> $3 ORDER BY start_time ASC", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, roomID, day, excludeID); err != nil {
		return nil, fmt.Errorf("list schedules by room: %w", err)
	}
	return schedules, nil
}

// ListByFacultyAndDay returns schedules assigned to a faculty member on a weekday.
func (r *ScheduleRepository) ListByFacultyAndDay(ctx context.Context, facultyID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE faculty_id = $1 AND day_of_week = $2 AND id <> $3 ORDER BY start_time ASC", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, facultyID, day, excludeID); err != nil {
		return nil, fmt.Errorf("list schedules by faculty: %w", err)
	}
	return schedules, nil
}

// ListBySectionAndDay returns schedules under a section, across all of its
// section-courses, on a weekday.
func (r *ScheduleRepository) ListBySectionAndDay(ctx context.Context, sectionID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error) {
	query := fmt.Sprintf("SELECT %s FROM schedules WHERE section_id = $1 AND day_of_week = $2 AND id <> $3 ORDER BY start_time ASC", scheduleColumns)
	var schedules []models.Schedule
	if err := r.db.SelectContext(ctx, &schedules, query, sectionID, day, excludeID); err != nil {
		return nil, fmt.Errorf("list schedules by section: %w", err)
	}
	return schedules, nil
}

// ListBySection returns a section's full weekly timetable, expanded.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleDetail, error) {
	query := scheduleDetailSelect + " WHERE s.section_id = $1 ORDER BY s.day_of_week ASC, s.start_time ASC"
	var schedules []models.ScheduleDetail
	if err := r.db.SelectContext(ctx, &schedules, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section timetable: %w", err)
	}
	return schedules, nil
}

// Create stores a new schedule. A write rejected by one of the overlap
// exclusion constraints comes back as ErrCommitConflict.
func (r *ScheduleRepository) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now

	const query = `INSERT INTO schedules (id, section_course_id, section_id, room_id, faculty_id, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :section_course_id, :section_id, :room_id, :faculty_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create schedule: %w", translatePQ(err))
	}
	return nil
}

// Update modifies a schedule record, subject to the same overlap constraints
// as Create.
func (r *ScheduleRepository) Update(ctx context.Context, schedule *models.Schedule) error {
	schedule.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schedules SET section_course_id = :section_course_id, section_id = :section_id, room_id = :room_id, faculty_id = :faculty_id, day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("update schedule: %w", translatePQ(err))
	}
	return nil
}

// Delete removes a schedule by id.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// CountByRoom reports how many schedules reference a room.
func (r *ScheduleRepository) CountByRoom(ctx context.Context, roomID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schedules WHERE room_id = $1`, roomID); err != nil {
		return 0, fmt.Errorf("count schedules by room: %w", err)
	}
	return count, nil
}

// CountBySectionCourse reports how many schedules a section-course owns.
func (r *ScheduleRepository) CountBySectionCourse(ctx context.Context, sectionCourseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM schedules WHERE section_course_id = $1`, sectionCourseID); err != nil {
		return 0, fmt.Errorf("count schedules by section course: %w", err)
	}
	return count, nil
}
