package models

import "time"

// Department groups programs.
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Program is a degree program owned by a department.
type Program struct {
	ID           string    `db:"id" json:"id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	Name         string    `db:"name" json:"name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Course is a catalogue entry, optionally linked to a program.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Title       string    `db:"title" json:"title"`
	CreditHours int       `db:"credit_hours" json:"credit_hours"`
	ProgramID   *string   `db:"program_id" json:"program_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SectionCourse links a course to the section it is offered in, with an
// optional designated instructor. The (SectionID, CourseID) pair is unique.
type SectionCourse struct {
	ID        string    `db:"id" json:"id"`
	SectionID string    `db:"section_id" json:"section_id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	FacultyID *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// SectionCourseDetail includes course and instructor identity for responses.
type SectionCourseDetail struct {
	SectionCourse
	CourseCode  string  `db:"course_code" json:"course_code"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}
