package models

import "time"

// Schedule is one weekly recurring room/time (and optionally instructor)
// assignment for a course offered in a section. SectionID is denormalised
// from the owning SectionCourse so section-axis lookups and the section
// exclusion constraint need no join at write time.
type Schedule struct {
	ID              string    `db:"id" json:"id"`
	SectionCourseID string    `db:"section_course_id" json:"section_course_id"`
	SectionID       string    `db:"section_id" json:"section_id"`
	RoomID          string    `db:"room_id" json:"room_id"`
	FacultyID       *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	DayOfWeek       DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime       TimeOfDay `db:"start_time" json:"start_time"`
	EndTime         TimeOfDay `db:"end_time" json:"end_time"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the schedule's occupied slot.
func (s Schedule) Interval() Interval {
	return Interval{Day: s.DayOfWeek, Start: s.StartTime, End: s.EndTime}
}

// ScheduleDetail expands a schedule with the human-readable identity of the
// entities it references, for API responses.
type ScheduleDetail struct {
	Schedule
	SectionCode string  `db:"section_code" json:"section_code"`
	CourseCode  string  `db:"course_code" json:"course_code"`
	CourseTitle string  `db:"course_title" json:"course_title"`
	RoomCode    string  `db:"room_code" json:"room_code"`
	FacultyName *string `db:"faculty_name" json:"faculty_name,omitempty"`
}

// ScheduleDraft is a candidate assignment submitted for conflict checking
// before any write happens.
type ScheduleDraft struct {
	SectionCourseID string
	SectionID       string
	RoomID          string
	FacultyID       *string
	Slot            Interval
}

// ScheduleFilter describes query params for listing schedules.
type ScheduleFilter struct {
	SectionID string
	RoomID    string
	FacultyID string
	DayOfWeek DayOfWeek
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ConflictKind identifies the axis on which two schedules collide.
type ConflictKind string

const (
	RoomConflict    ConflictKind = "ROOM"
	FacultyConflict ConflictKind = "FACULTY"
	SectionConflict ConflictKind = "SECTION"
)

// ScheduleConflict describes one existing schedule the candidate collides with.
type ScheduleConflict struct {
	Kind            ConflictKind `json:"kind"`
	ScheduleID      string       `json:"schedule_id"`
	SectionCourseID string       `json:"section_course_id"`
	RoomID          string       `json:"room_id"`
	FacultyID       *string      `json:"faculty_id,omitempty"`
	DayOfWeek       DayOfWeek    `json:"day_of_week"`
	StartTime       TimeOfDay    `json:"start_time"`
	EndTime         TimeOfDay    `json:"end_time"`
}

// ConflictReport aggregates every collision a candidate triggers. A single
// draft can conflict on more than one axis at once; all hits are kept.
type ConflictReport struct {
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// HasConflicts reports whether any collision was recorded.
func (r ConflictReport) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// Add appends a collision to the report.
func (r *ConflictReport) Add(kind ConflictKind, existing Schedule) {
	r.Conflicts = append(r.Conflicts, ScheduleConflict{
		Kind:            kind,
		ScheduleID:      existing.ID,
		SectionCourseID: existing.SectionCourseID,
		RoomID:          existing.RoomID,
		FacultyID:       existing.FacultyID,
		DayOfWeek:       existing.DayOfWeek,
		StartTime:       existing.StartTime,
		EndTime:         existing.EndTime,
	})
}

// ScheduleEvent is the payload published to the notification sink after a
// successful mutation.
type ScheduleEvent struct {
	Action          string    `json:"action"`
	ScheduleID      string    `json:"schedule_id"`
	SectionCourseID string    `json:"section_course_id"`
	SectionID       string    `json:"section_id"`
	RoomID          string    `json:"room_id"`
	FacultyID       *string   `json:"faculty_id,omitempty"`
	DayOfWeek       DayOfWeek `json:"day_of_week"`
	StartTime       TimeOfDay `json:"start_time"`
	EndTime         TimeOfDay `json:"end_time"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
