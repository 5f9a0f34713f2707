package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/internal/repository"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type mockScheduleRepo struct {
	items    map[string]*models.Schedule
	seq      int
	onCreate func() error
	onUpdate func() error
	deleted  []string
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{items: make(map[string]*models.Schedule)}
}

func (m *mockScheduleRepo) insert(s models.Schedule) *models.Schedule {
	if s.ID == "" {
		m.seq++
		s.ID = "sch-" + strconv.Itoa(m.seq)
	}
	cp := s
	m.items[s.ID] = &cp
	return &cp
}

func (m *mockScheduleRepo) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	if s, ok := m.items[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockScheduleRepo) FindDetailByID(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	s, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ScheduleDetail{Schedule: *s, SectionCode: "A", CourseCode: "MATH101", CourseTitle: "Calculus", RoomCode: "R-101"}, nil
}

func (m *mockScheduleRepo) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, int, error) {
	out := make([]models.ScheduleDetail, 0, len(m.items))
	for _, s := range m.items {
		out = append(out, models.ScheduleDetail{Schedule: *s})
	}
	return out, len(out), nil
}

func (m *mockScheduleRepo) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleDetail, error) {
	var out []models.ScheduleDetail
	for _, s := range m.items {
		if s.SectionID == sectionID {
			out = append(out, models.ScheduleDetail{Schedule: *s})
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if m.onCreate != nil {
		hook := m.onCreate
		m.onCreate = nil
		if err := hook(); err != nil {
			return err
		}
	}
	stored := m.insert(*schedule)
	schedule.ID = stored.ID
	return nil
}

func (m *mockScheduleRepo) Update(ctx context.Context, schedule *models.Schedule) error {
	if m.onUpdate != nil {
		hook := m.onUpdate
		m.onUpdate = nil
		if err := hook(); err != nil {
			return err
		}
	}
	if _, ok := m.items[schedule.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *schedule
	m.items[schedule.ID] = &cp
	return nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockScheduleRepo) ListByRoomAndDay(ctx context.Context, roomID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.items {
		if s.RoomID == roomID && s.DayOfWeek == day && s.ID != excludeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) ListByFacultyAndDay(ctx context.Context, facultyID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.items {
		if s.FacultyID != nil && *s.FacultyID == facultyID && s.DayOfWeek == day && s.ID != excludeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockScheduleRepo) ListBySectionAndDay(ctx context.Context, sectionID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error) {
	var out []models.Schedule
	for _, s := range m.items {
		if s.SectionID == sectionID && s.DayOfWeek == day && s.ID != excludeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

type mockOfferingRepo struct {
	items map[string]*models.SectionCourse
}

func (m *mockOfferingRepo) FindByID(ctx context.Context, id string) (*models.SectionCourse, error) {
	if sc, ok := m.items[id]; ok {
		cp := *sc
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockOfferingRepo) FindBySectionAndCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourse, error) {
	for _, sc := range m.items {
		if sc.SectionID == sectionID && sc.CourseID == courseID {
			cp := *sc
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockRoomRepo struct {
	items map[string]*models.Room
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := m.items[id]; ok {
		cp := *room
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockFacultyRepo struct {
	items map[string]*models.Faculty
}

func (m *mockFacultyRepo) FindByID(ctx context.Context, id string) (*models.Faculty, error) {
	if f, ok := m.items[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotifier struct {
	events []models.ScheduleEvent
}

func (m *mockNotifier) ScheduleChanged(event models.ScheduleEvent) {
	m.events = append(m.events, event)
}

type mockCache struct {
	values  map[string][]byte
	deleted []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string][]byte)
	}
	m.values[key] = []byte(fmt.Sprintf("%v", value))
	return nil
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) {
	m.deleted = append(m.deleted, keys...)
}

type scheduleFixture struct {
	repo      *mockScheduleRepo
	offerings *mockOfferingRepo
	notifier  *mockNotifier
	cache     *mockCache
	service   *ScheduleService
}

func newScheduleFixture() *scheduleFixture {
	repo := newMockScheduleRepo()
	offerings := &mockOfferingRepo{items: map[string]*models.SectionCourse{
		"sc-math": {ID: "sc-math", SectionID: "sec-1", CourseID: "crs-math"},
		"sc-phys": {ID: "sc-phys", SectionID: "sec-2", CourseID: "crs-phys"},
	}}
	rooms := &mockRoomRepo{items: map[string]*models.Room{
		"room-1": {ID: "room-1", RoomCode: "R-101"},
		"room-2": {ID: "room-2", RoomCode: "R-102"},
	}}
	faculty := &mockFacultyRepo{items: map[string]*models.Faculty{
		"fac-1": {ID: "fac-1", FullName: "Dr. Ada"},
	}}
	notifier := &mockNotifier{}
	cache := &mockCache{}
	detector := NewConflictDetector(repo, nil, zap.NewNop())
	svc := NewScheduleService(repo, offerings, rooms, faculty, detector, notifier, cache, time.Minute, validator.New(), zap.NewNop())
	return &scheduleFixture{repo: repo, offerings: offerings, notifier: notifier, cache: cache, service: svc}
}

func facultyPtr(id string) *string { return &id }

func TestScheduleServiceCreate(t *testing.T) {
	fx := newScheduleFixture()

	detail, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1",
		CourseID:  "crs-math",
		RoomID:    "room-1",
		FacultyID: facultyPtr("fac-1"),
		DayOfWeek: "monday",
		StartTime: "09:00",
		EndTime:   "10:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "sc-math", detail.SectionCourseID)
	assert.Equal(t, "sec-1", detail.SectionID)
	assert.Equal(t, models.Monday, detail.DayOfWeek)
	assert.Equal(t, "09:00", detail.StartTime.String())

	require.Len(t, fx.notifier.events, 1)
	assert.Equal(t, "created", fx.notifier.events[0].Action)
	assert.Contains(t, fx.cache.deleted, "timetable:section:sec-1")
}

func TestScheduleServiceCreateBackToBackSlots(t *testing.T) {
	fx := newScheduleFixture()

	_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	// Same room, adjacent interval: half-open ranges never touch.
	_, err = fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-2", CourseID: "crs-phys", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)
}

func TestScheduleServiceCreateRoomConflict(t *testing.T) {
	fx := newScheduleFixture()

	first, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "11:00",
	})
	require.NoError(t, err)

	_, err = fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-2", CourseID: "crs-phys", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "10:00", EndTime: "12:00",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)

	report, ok := appErr.Details.(models.ConflictReport)
	require.True(t, ok)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.RoomConflict, report.Conflicts[0].Kind)
	assert.Equal(t, first.ID, report.Conflicts[0].ScheduleID)

	// Nothing was written for the rejected candidate.
	assert.Len(t, fx.repo.items, 1)
}

func TestScheduleServiceCreateFacultyConflictAcrossRooms(t *testing.T) {
	fx := newScheduleFixture()

	_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1", FacultyID: facultyPtr("fac-1"),
		DayOfWeek: "tuesday", StartTime: "09:00", EndTime: "11:00",
	})
	require.NoError(t, err)

	_, err = fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-2", CourseID: "crs-phys", RoomID: "room-2", FacultyID: facultyPtr("fac-1"),
		DayOfWeek: "tuesday", StartTime: "10:00", EndTime: "12:00",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	report, ok := appErr.Details.(models.ConflictReport)
	require.True(t, ok)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.FacultyConflict, report.Conflicts[0].Kind)
}

func TestScheduleServiceCreateSectionConflictAcrossOfferings(t *testing.T) {
	fx := newScheduleFixture()
	fx.offerings.items["sc-hist"] = &models.SectionCourse{ID: "sc-hist", SectionID: "sec-1", CourseID: "crs-hist"}

	_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "wednesday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	// Different course and room, same section and time: students cannot split.
	_, err = fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-hist", RoomID: "room-2",
		DayOfWeek: "wednesday", StartTime: "09:30", EndTime: "10:30",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	report, ok := appErr.Details.(models.ConflictReport)
	require.True(t, ok)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, models.SectionConflict, report.Conflicts[0].Kind)
}

func TestScheduleServiceCreateInvalidInterval(t *testing.T) {
	fx := newScheduleFixture()

	for _, tc := range []struct{ start, end string }{
		{"10:00", "10:00"},
		{"11:00", "10:00"},
	} {
		_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
			SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
			DayOfWeek: "monday", StartTime: tc.start, EndTime: tc.end,
		})
		require.Error(t, err)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErr.Code)
	}
	assert.Empty(t, fx.repo.items)
}

func TestScheduleServiceCreateUnknownReferences(t *testing.T) {
	fx := newScheduleFixture()

	cases := []struct {
		name string
		req  CreateScheduleRequest
	}{
		{"offering", CreateScheduleRequest{SectionID: "sec-1", CourseID: "crs-none", RoomID: "room-1", DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00"}},
		{"room", CreateScheduleRequest{SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-none", DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00"}},
		{"faculty", CreateScheduleRequest{SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1", FacultyID: facultyPtr("fac-none"), DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00"}},
	}
	for _, tc := range cases {
		_, err := fx.service.Create(context.Background(), tc.req)
		require.Error(t, err, tc.name)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr), tc.name)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code, tc.name)
	}
}

func TestScheduleServiceCreateLosesCommitRace(t *testing.T) {
	fx := newScheduleFixture()

	// A concurrent writer lands an overlapping slot between our conflict
	// check and our insert; the store rejects the insert.
	fx.repo.onCreate = func() error {
		fx.repo.insert(models.Schedule{
			ID: "winner", SectionCourseID: "sc-phys", SectionID: "sec-2", RoomID: "room-1",
			DayOfWeek: models.Monday, StartTime: 9 * 60, EndTime: 11 * 60,
		})
		return fmt.Errorf("%w: exclusion violation", repository.ErrCommitConflict)
	}

	_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "10:00", EndTime: "12:00",
	})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)

	report, ok := appErr.Details.(models.ConflictReport)
	require.True(t, ok)
	require.Len(t, report.Conflicts, 1)
	assert.Equal(t, "winner", report.Conflicts[0].ScheduleID)
	assert.Empty(t, fx.notifier.events)
}

func TestScheduleServiceCreateRetriesAfterTransientConflict(t *testing.T) {
	fx := newScheduleFixture()

	// The conflicting write was rolled back before our recheck: the retry
	// must land the slot.
	fx.repo.onCreate = func() error {
		return fmt.Errorf("%w: serialization failure", repository.ErrCommitConflict)
	}

	detail, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, detail.ID)
	assert.Len(t, fx.repo.items, 1)
}

func TestScheduleServiceUpdateKeepsOwnSlot(t *testing.T) {
	fx := newScheduleFixture()

	created, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	// Re-saving the identical slot must not conflict with itself.
	room := "room-1"
	detail, err := fx.service.Update(context.Background(), created.ID, UpdateScheduleRequest{RoomID: &room})
	require.NoError(t, err)
	assert.Equal(t, created.ID, detail.ID)
	assert.Equal(t, "room-1", detail.RoomID)
}

func TestScheduleServiceUpdateMergesPartialFields(t *testing.T) {
	fx := newScheduleFixture()

	created, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1", FacultyID: facultyPtr("fac-1"),
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	start := "13:00"
	end := "14:00"
	detail, err := fx.service.Update(context.Background(), created.ID, UpdateScheduleRequest{StartTime: &start, EndTime: &end})
	require.NoError(t, err)
	assert.Equal(t, "13:00", detail.StartTime.String())
	assert.Equal(t, "14:00", detail.EndTime.String())
	assert.Equal(t, models.Monday, detail.DayOfWeek)
	require.NotNil(t, detail.FacultyID)
	assert.Equal(t, "fac-1", *detail.FacultyID)
}

func TestScheduleServiceUpdateUnstaffsWithEmptyFaculty(t *testing.T) {
	fx := newScheduleFixture()

	created, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1", FacultyID: facultyPtr("fac-1"),
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	empty := ""
	detail, err := fx.service.Update(context.Background(), created.ID, UpdateScheduleRequest{FacultyID: &empty})
	require.NoError(t, err)
	assert.Nil(t, detail.FacultyID)
}

func TestScheduleServiceUpdateIntoConflict(t *testing.T) {
	fx := newScheduleFixture()

	_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	second, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-2", CourseID: "crs-phys", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "10:00", EndTime: "11:00",
	})
	require.NoError(t, err)

	// Pull the second slot forward onto the first.
	start := "09:30"
	end := "10:30"
	_, err = fx.service.Update(context.Background(), second.ID, UpdateScheduleRequest{StartTime: &start, EndTime: &end})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErr.Code)

	// The stored slot is untouched.
	stored, err := fx.repo.FindByID(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", stored.StartTime.String())
}

func TestScheduleServiceUpdateMovesSectionInvalidatesBothTimetables(t *testing.T) {
	fx := newScheduleFixture()

	created, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)
	fx.cache.deleted = nil

	section := "sec-2"
	course := "crs-phys"
	detail, err := fx.service.Update(context.Background(), created.ID, UpdateScheduleRequest{SectionID: &section, CourseID: &course})
	require.NoError(t, err)
	assert.Equal(t, "sc-phys", detail.SectionCourseID)
	assert.Equal(t, "sec-2", detail.SectionID)
	assert.Contains(t, fx.cache.deleted, "timetable:section:sec-1")
	assert.Contains(t, fx.cache.deleted, "timetable:section:sec-2")
}

func TestScheduleServiceUpdateNotFound(t *testing.T) {
	fx := newScheduleFixture()

	room := "room-1"
	_, err := fx.service.Update(context.Background(), "missing", UpdateScheduleRequest{RoomID: &room})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleServiceDelete(t *testing.T) {
	fx := newScheduleFixture()

	created, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	require.NoError(t, fx.service.Delete(context.Background(), created.ID))
	assert.Empty(t, fx.repo.items)
	assert.Equal(t, "deleted", fx.notifier.events[len(fx.notifier.events)-1].Action)

	err = fx.service.Delete(context.Background(), created.ID)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestScheduleServiceSectionTimetable(t *testing.T) {
	fx := newScheduleFixture()

	_, err := fx.service.Create(context.Background(), CreateScheduleRequest{
		SectionID: "sec-1", CourseID: "crs-math", RoomID: "room-1",
		DayOfWeek: "monday", StartTime: "09:00", EndTime: "10:00",
	})
	require.NoError(t, err)

	timetable, err := fx.service.SectionTimetable(context.Background(), "sec-1")
	require.NoError(t, err)
	require.Len(t, timetable, 1)
	assert.Contains(t, fx.cache.values, "timetable:section:sec-1")
}
