package models

import (
	"time"

	"github.com/lib/pq"
)

// Room is a bookable teaching space, unique on RoomCode.
type Room struct {
	ID        string    `db:"id" json:"id"`
	RoomCode  string    `db:"room_code" json:"room_code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Faculty is an instructor who can be assigned to schedules.
type Faculty struct {
	ID        string         `db:"id" json:"id"`
	FullName  string         `db:"full_name" json:"full_name"`
	Email     string         `db:"email" json:"email"`
	Subjects  pq.StringArray `db:"subjects" json:"subjects"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
