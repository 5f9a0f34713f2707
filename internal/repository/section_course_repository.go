package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadops/timetable-api/internal/models"
)

// SectionCourseRepository persists the section ↔ course offering links.
type SectionCourseRepository struct {
	db *sqlx.DB
}

// NewSectionCourseRepository creates a new section-course repository.
func NewSectionCourseRepository(db *sqlx.DB) *SectionCourseRepository {
	return &SectionCourseRepository{db: db}
}

// FindByID loads a section-course by id.
func (r *SectionCourseRepository) FindByID(ctx context.Context, id string) (*models.SectionCourse, error) {
	const query = `SELECT id, section_id, course_id, faculty_id, created_at FROM section_courses WHERE id = $1`
	var sc models.SectionCourse
	if err := r.db.GetContext(ctx, &sc, query, id); err != nil {
		return nil, err
	}
	return &sc, nil
}

// FindBySectionAndCourse loads the offering for a (section, course) pair.
func (r *SectionCourseRepository) FindBySectionAndCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourse, error) {
	const query = `SELECT id, section_id, course_id, faculty_id, created_at FROM section_courses WHERE section_id = $1 AND course_id = $2`
	var sc models.SectionCourse
	if err := r.db.GetContext(ctx, &sc, query, sectionID, courseID); err != nil {
		return nil, err
	}
	return &sc, nil
}

// ListBySection returns a section's offerings with course and instructor identity.
func (r *SectionCourseRepository) ListBySection(ctx context.Context, sectionID string) ([]models.SectionCourseDetail, error) {
	const query = `SELECT sc.id, sc.section_id, sc.course_id, sc.faculty_id, sc.created_at,
	c.code AS course_code, c.title AS course_title, f.full_name AS faculty_name
FROM section_courses sc
JOIN courses c ON c.id = sc.course_id
LEFT JOIN faculty f ON f.id = sc.faculty_id
WHERE sc.section_id = $1
ORDER BY c.code ASC`
	var offerings []models.SectionCourseDetail
	if err := r.db.SelectContext(ctx, &offerings, query, sectionID); err != nil {
		return nil, fmt.Errorf("list section courses: %w", err)
	}
	return offerings, nil
}

// Create stores a new offering. A duplicate (section, course) pair surfaces
// as ErrDuplicate via the unique constraint.
func (r *SectionCourseRepository) Create(ctx context.Context, sc *models.SectionCourse) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if sc.CreatedAt.IsZero() {
		sc.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO section_courses (id, section_id, course_id, faculty_id, created_at) VALUES (:id, :section_id, :course_id, :faculty_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sc); err != nil {
		return fmt.Errorf("create section course: %w", translatePQ(err))
	}
	return nil
}

// AssignFaculty sets or clears the designated instructor for an offering.
func (r *SectionCourseRepository) AssignFaculty(ctx context.Context, id string, facultyID *string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE section_courses SET faculty_id = $2 WHERE id = $1`, id, facultyID); err != nil {
		return fmt.Errorf("assign section course faculty: %w", err)
	}
	return nil
}

// Delete removes an offering by id.
func (r *SectionCourseRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM section_courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section course: %w", err)
	}
	return nil
}

// CountBySection reports how many offerings a section owns.
func (r *SectionCourseRepository) CountBySection(ctx context.Context, sectionID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM section_courses WHERE section_id = $1`, sectionID); err != nil {
		return 0, fmt.Errorf("count section courses: %w", err)
	}
	return count, nil
}
