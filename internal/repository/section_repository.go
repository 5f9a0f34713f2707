package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acadops/timetable-api/internal/models"
)

// SectionRepository persists sections and answers their dependency counts.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository creates a new section repository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// ListByTerm returns a term's sections ordered by code.
func (r *SectionRepository) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	const query = `SELECT id, term_id, section_code, capacity, created_at, updated_at FROM sections WHERE term_id = $1 ORDER BY section_code ASC`
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, termID); err != nil {
		return nil, fmt.Errorf("list sections by term: %w", err)
	}
	return sections, nil
}

// FindByID loads a section by id.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	const query = `SELECT id, term_id, section_code, capacity, created_at, updated_at FROM sections WHERE id = $1`
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create stores a new section. A duplicate (term, code) pair surfaces as
// ErrDuplicate via the unique constraint.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	section.CreatedAt = now
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, term_id, section_code, capacity, created_at, updated_at) VALUES (:id, :term_id, :section_code, :capacity, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", translatePQ(err))
	}
	return nil
}

// UpdateCapacity changes a section's capacity.
func (r *SectionRepository) UpdateCapacity(ctx context.Context, id string, capacity int) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE sections SET capacity = $2, updated_at = $3 WHERE id = $1`, id, capacity, time.Now().UTC()); err != nil {
		return fmt.Errorf("update section capacity: %w", err)
	}
	return nil
}

// Delete removes a section by id.
func (r *SectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// CountByTerm reports how many sections reference a term.
func (r *SectionRepository) CountByTerm(ctx context.Context, termID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sections WHERE term_id = $1`, termID); err != nil {
		return 0, fmt.Errorf("count sections by term: %w", err)
	}
	return count, nil
}

// EnrollmentCount reports how many students are enrolled in a section.
func (r *SectionRepository) EnrollmentCount(ctx context.Context, sectionID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM enrollments WHERE section_id = $1`, sectionID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}
