package models

import "time"

// Term models one academic term, unique on (year, semester).
type Term struct {
	ID        string    `db:"id" json:"id"`
	Year      int       `db:"year" json:"year"`
	Semester  string    `db:"semester" json:"semester"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Section is a cohort of students within a term. SectionCode is unique
// within its term.
type Section struct {
	ID          string    `db:"id" json:"id"`
	TermID      string    `db:"term_id" json:"term_id"`
	SectionCode string    `db:"section_code" json:"section_code"`
	Capacity    int       `db:"capacity" json:"capacity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
