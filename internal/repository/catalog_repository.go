package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadops/timetable-api/internal/models"
)

// CatalogRepository persists the course catalogue: departments, programs and
// courses. These are read-mostly from the engine's perspective; writes exist
// so the delete guards have something to guard.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository creates a new catalogue repository.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListDepartments returns all departments ordered by name.
func (r *CatalogRepository) ListDepartments(ctx context.Context) ([]models.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments ORDER BY name ASC`
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindDepartmentByID loads a department by id.
func (r *CatalogRepository) FindDepartmentByID(ctx context.Context, id string) (*models.Department, error) {
	const query = `SELECT id, name, created_at, updated_at FROM departments WHERE id = $1`
	var dept models.Department
	if err := r.db.GetContext(ctx, &dept, query, id); err != nil {
		return nil, err
	}
	return &dept, nil
}

// DeleteDepartment removes a department by id.
func (r *CatalogRepository) DeleteDepartment(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return nil
}

// CountProgramsByDepartment reports how many programs a department owns.
func (r *CatalogRepository) CountProgramsByDepartment(ctx context.Context, departmentID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM programs WHERE department_id = $1`, departmentID); err != nil {
		return 0, fmt.Errorf("count programs: %w", err)
	}
	return count, nil
}

// FindProgramByID loads a program by id.
func (r *CatalogRepository) FindProgramByID(ctx context.Context, id string) (*models.Program, error) {
	const query = `SELECT id, department_id, name, created_at, updated_at FROM programs WHERE id = $1`
	var program models.Program
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, err
	}
	return &program, nil
}

// DeleteProgram removes a program by id.
func (r *CatalogRepository) DeleteProgram(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM programs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete program: %w", err)
	}
	return nil
}

// CountCoursesByProgram reports how many courses reference a program.
func (r *CatalogRepository) CountCoursesByProgram(ctx context.Context, programID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM courses WHERE program_id = $1`, programID); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return count, nil
}

// ListCourses returns the course catalogue ordered by code.
func (r *CatalogRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, code, title, credit_hours, program_id, created_at, updated_at FROM courses ORDER BY code ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// FindCourseByID loads a course by id.
func (r *CatalogRepository) FindCourseByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, code, title, credit_hours, program_id, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// CreateCourse stores a new catalogue entry. A duplicate code surfaces as
// ErrDuplicate.
func (r *CatalogRepository) CreateCourse(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, code, title, credit_hours, program_id, created_at, updated_at) VALUES (:id, :code, :title, :credit_hours, :program_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", translatePQ(err))
	}
	return nil
}

// DeleteCourse removes a course by id.
func (r *CatalogRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// CountSectionCoursesByCourse reports how many offerings reference a course.
func (r *CatalogRepository) CountSectionCoursesByCourse(ctx context.Context, courseID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM section_courses WHERE course_id = $1`, courseID); err != nil {
		return 0, fmt.Errorf("count section courses by course: %w", err)
	}
	return count, nil
}
