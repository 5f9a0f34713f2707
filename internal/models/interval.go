package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DayOfWeek is one of the seven weekday labels used across the timetable.
type DayOfWeek string

const (
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
	Sunday    DayOfWeek = "SUNDAY"
)

var weekdays = map[DayOfWeek]struct{}{
	Monday: {}, Tuesday: {}, Wednesday: {}, Thursday: {}, Friday: {}, Saturday: {}, Sunday: {},
}

// ParseDayOfWeek normalises a weekday label, accepting any casing.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	day := DayOfWeek(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := weekdays[day]; !ok {
		return "", fmt.Errorf("invalid day of week %q", raw)
	}
	return day, nil
}

// TimeOfDay is a wall-clock time expressed as minutes since midnight. The
// date component of any underlying representation is ignored: schedules
// recur weekly.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour clock).
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", raw)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// String renders the canonical "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON renders TimeOfDay as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value stores TimeOfDay as a Postgres TIME literal.
func (t TimeOfDay) Value() (driver.Value, error) {
	return fmt.Sprintf("%s:00", t.String()), nil
}

// Scan reads TIME columns, which lib/pq surfaces as time.Time or raw bytes.
func (t *TimeOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = TimeOfDay(v.Hour()*60 + v.Minute())
		return nil
	case []byte:
		return t.scanString(string(v))
	case string:
		return t.scanString(v)
	default:
		return fmt.Errorf("cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) scanString(raw string) error {
	if len(raw) > 5 {
		raw = raw[:5]
	}
	parsed, err := ParseTimeOfDay(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Interval is one weekly recurring occupied slot: a weekday plus a half-open
// [start, end) wall-clock range.
type Interval struct {
	Day   DayOfWeek `json:"day_of_week"`
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

// NewInterval builds a validated interval. The start must precede the end;
// zero-length and inverted ranges are rejected.
func NewInterval(day DayOfWeek, start, end TimeOfDay) (Interval, error) {
	if _, ok := weekdays[day]; !ok {
		return Interval{}, fmt.Errorf("invalid day of week %q", day)
	}
	if start >= end {
		return Interval{}, fmt.Errorf("interval start %s must be before end %s", start, end)
	}
	return Interval{Day: day, Start: start, End: end}, nil
}

// Overlaps reports whether two intervals share any time on the same weekday.
// Ranges are half-open, so an interval ending at 10:00 does not overlap one
// starting at 10:00.
func (i Interval) Overlaps(other Interval) bool {
	if i.Day != other.Day {
		return false
	}
	return i.Start < other.End && other.Start < i.End
}
