package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	"github.com/acadops/timetable-api/internal/repository"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type scheduleStore interface {
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	FindDetailByID(ctx context.Context, id string) (*models.ScheduleDetail, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, int, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleDetail, error)
	Create(ctx context.Context, schedule *models.Schedule) error
	Update(ctx context.Context, schedule *models.Schedule) error
	Delete(ctx context.Context, id string) error
}

type offeringReader interface {
	FindByID(ctx context.Context, id string) (*models.SectionCourse, error)
	FindBySectionAndCourse(ctx context.Context, sectionID, courseID string) (*models.SectionCourse, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type facultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

type conflictChecker interface {
	Check(ctx context.Context, draft models.ScheduleDraft, excludeID string) (models.ConflictReport, error)
}

type scheduleNotifier interface {
	ScheduleChanged(event models.ScheduleEvent)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string)
}

// CreateScheduleRequest describes payload for creating a schedule assignment.
type CreateScheduleRequest struct {
	SectionID string  `json:"section_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	RoomID    string  `json:"room_id" validate:"required"`
	FacultyID *string `json:"faculty_id,omitempty"`
	DayOfWeek string  `json:"day_of_week" validate:"required"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
}

// UpdateScheduleRequest carries any subset of schedule fields; omitted fields
// keep their stored values. An explicit empty faculty_id unstaffs the slot.
type UpdateScheduleRequest struct {
	SectionID *string `json:"section_id,omitempty"`
	CourseID  *string `json:"course_id,omitempty"`
	RoomID    *string `json:"room_id,omitempty"`
	FacultyID *string `json:"faculty_id,omitempty"`
	DayOfWeek *string `json:"day_of_week,omitempty"`
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`
}

// ScheduleService orchestrates schedule mutations: it resolves referenced
// entities, validates the interval, runs conflict detection and commits, or
// rejects with a typed error and writes nothing. It is the sole writer of
// schedule rows.
type ScheduleService struct {
	repo      scheduleStore
	offerings offeringReader
	rooms     roomReader
	faculty   facultyReader
	detector  conflictChecker
	notifier  scheduleNotifier
	cache     timetableCache
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService. The notifier and cache
// are optional.
func NewScheduleService(
	repo scheduleStore,
	offerings offeringReader,
	rooms roomReader,
	faculty facultyReader,
	detector conflictChecker,
	notifier scheduleNotifier,
	cache timetableCache,
	cacheTTL time.Duration,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repo:      repo,
		offerings: offerings,
		rooms:     rooms,
		faculty:   faculty,
		detector:  detector,
		notifier:  notifier,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// List returns expanded schedules with pagination metadata.
func (s *ScheduleService) List(ctx context.Context, filter models.ScheduleFilter) ([]models.ScheduleDetail, *models.Pagination, error) {
	schedules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return schedules, pagination, nil
}

// SectionTimetable returns a section's weekly timetable, served from the
// view cache when warm. Conflict detection never reads this path.
func (s *ScheduleService) SectionTimetable(ctx context.Context, sectionID string) ([]models.ScheduleDetail, error) {
	key := sectionTimetableKey(sectionID)
	if s.cache != nil {
		var cached []models.ScheduleDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	schedules, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section timetable")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, schedules, s.cacheTTL); err != nil {
			s.logger.Warn("timetable cache write failed", zap.String("section_id", sectionID), zap.Error(err))
		}
	}
	return schedules, nil
}

// Get returns one schedule with its referenced entities expanded.
func (s *ScheduleService) Get(ctx context.Context, id string) (*models.ScheduleDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("schedule", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return detail, nil
}

// Create validates and persists a new schedule assignment.
func (s *ScheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.ScheduleDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	slot, err := parseSlot(req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	offering, err := s.offerings.FindBySectionAndCourse(ctx, req.SectionID, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section_course", fmt.Sprintf("%s/%s", req.SectionID, req.CourseID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section course")
	}

	if err := s.resolveRoomAndFaculty(ctx, req.RoomID, req.FacultyID); err != nil {
		return nil, err
	}

	draft := models.ScheduleDraft{
		SectionCourseID: offering.ID,
		SectionID:       offering.SectionID,
		RoomID:          req.RoomID,
		FacultyID:       req.FacultyID,
		Slot:            slot,
	}

	report, err := s.detector.Check(ctx, draft, "")
	if err != nil {
		return nil, err
	}
	if report.HasConflicts() {
		return nil, scheduleConflictError(report)
	}

	schedule := models.Schedule{
		SectionCourseID: draft.SectionCourseID,
		SectionID:       draft.SectionID,
		RoomID:          draft.RoomID,
		FacultyID:       draft.FacultyID,
		DayOfWeek:       slot.Day,
		StartTime:       slot.Start,
		EndTime:         slot.End,
	}
	if err := s.commitWithRecheck(ctx, draft, "", func() error { return s.repo.Create(ctx, &schedule) }); err != nil {
		return nil, err
	}

	s.afterMutation(ctx, "created", schedule)
	return s.Get(ctx, schedule.ID)
}

// Update merges the supplied fields onto the stored schedule and re-runs the
// full validation pipeline, excluding the schedule's own id so an unchanged
// interval never conflicts with itself. The stored record is untouched on
// any failure.
func (s *ScheduleService) Update(ctx context.Context, id string, req UpdateScheduleRequest) (*models.ScheduleDetail, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("schedule", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	merged := *existing
	oldSectionID := existing.SectionID

	if req.SectionID != nil || req.CourseID != nil {
		offering, err := s.reresolveOffering(ctx, existing.SectionCourseID, req.SectionID, req.CourseID)
		if err != nil {
			return nil, err
		}
		merged.SectionCourseID = offering.ID
		merged.SectionID = offering.SectionID
	}
	if req.RoomID != nil {
		merged.RoomID = *req.RoomID
	}
	if req.FacultyID != nil {
		if *req.FacultyID == "" {
			merged.FacultyID = nil
		} else {
			merged.FacultyID = req.FacultyID
		}
	}

	day := string(merged.DayOfWeek)
	start := merged.StartTime.String()
	end := merged.EndTime.String()
	if req.DayOfWeek != nil {
		day = *req.DayOfWeek
	}
	if req.StartTime != nil {
		start = *req.StartTime
	}
	if req.EndTime != nil {
		end = *req.EndTime
	}
	slot, err := parseSlot(day, start, end)
	if err != nil {
		return nil, err
	}
	merged.DayOfWeek = slot.Day
	merged.StartTime = slot.Start
	merged.EndTime = slot.End

	if err := s.resolveRoomAndFaculty(ctx, merged.RoomID, merged.FacultyID); err != nil {
		return nil, err
	}

	draft := models.ScheduleDraft{
		SectionCourseID: merged.SectionCourseID,
		SectionID:       merged.SectionID,
		RoomID:          merged.RoomID,
		FacultyID:       merged.FacultyID,
		Slot:            slot,
	}
	report, err := s.detector.Check(ctx, draft, id)
	if err != nil {
		return nil, err
	}
	if report.HasConflicts() {
		return nil, scheduleConflictError(report)
	}

	if err := s.commitWithRecheck(ctx, draft, id, func() error { return s.repo.Update(ctx, &merged) }); err != nil {
		return nil, err
	}

	if oldSectionID != merged.SectionID {
		s.invalidateTimetable(ctx, oldSectionID)
	}
	s.afterMutation(ctx, "updated", merged)
	return s.Get(ctx, merged.ID)
}

// Delete removes a schedule assignment. Schedules have no downstream
// dependents, so the delete is unconditional once the record is found.
func (s *ScheduleService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("schedule", id)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}

	s.afterMutation(ctx, "deleted", *existing)
	return nil
}

// commitWithRecheck performs the write; when the store rejects it through an
// overlap constraint or serialization failure (a concurrent mutation won the
// race since our read), it re-runs detection once to produce a report, and
// if that read finds nothing (the winner is already gone), retries the write
// a single time before giving up with a conflict.
func (s *ScheduleService) commitWithRecheck(ctx context.Context, draft models.ScheduleDraft, excludeID string, write func() error) error {
	err := write()
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrCommitConflict) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule")
	}

	report, checkErr := s.detector.Check(ctx, draft, excludeID)
	if checkErr == nil && report.HasConflicts() {
		return scheduleConflictError(report)
	}

	if err := write(); err != nil {
		if errors.Is(err, repository.ErrCommitConflict) {
			return scheduleConflictError(models.ConflictReport{})
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist schedule")
	}
	return nil
}

func (s *ScheduleService) reresolveOffering(ctx context.Context, currentID string, sectionID, courseID *string) (*models.SectionCourse, error) {
	current, err := s.offerings.FindByID(ctx, currentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section course")
	}
	targetSection := current.SectionID
	targetCourse := current.CourseID
	if sectionID != nil {
		targetSection = *sectionID
	}
	if courseID != nil {
		targetCourse = *courseID
	}

	offering, err := s.offerings.FindBySectionAndCourse(ctx, targetSection, targetCourse)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section_course", fmt.Sprintf("%s/%s", targetSection, targetCourse))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section course")
	}
	return offering, nil
}

func (s *ScheduleService) resolveRoomAndFaculty(ctx context.Context, roomID string, facultyID *string) error {
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.NotFound("room", roomID)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve room")
	}
	if facultyID != nil {
		if _, err := s.faculty.FindByID(ctx, *facultyID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.NotFound("faculty", *facultyID)
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve faculty")
		}
	}
	return nil
}

// afterMutation handles everything that must never fail the committed
// mutation: cache invalidation and the notification sink.
func (s *ScheduleService) afterMutation(ctx context.Context, action string, schedule models.Schedule) {
	s.invalidateTimetable(ctx, schedule.SectionID)

	if s.notifier == nil {
		return
	}
	s.notifier.ScheduleChanged(models.ScheduleEvent{
		Action:          action,
		ScheduleID:      schedule.ID,
		SectionCourseID: schedule.SectionCourseID,
		SectionID:       schedule.SectionID,
		RoomID:          schedule.RoomID,
		FacultyID:       schedule.FacultyID,
		DayOfWeek:       schedule.DayOfWeek,
		StartTime:       schedule.StartTime,
		EndTime:         schedule.EndTime,
		OccurredAt:      time.Now().UTC(),
	})
}

func (s *ScheduleService) invalidateTimetable(ctx context.Context, sectionID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, sectionTimetableKey(sectionID))
	}
}

func sectionTimetableKey(sectionID string) string {
	return "timetable:section:" + sectionID
}

func parseSlot(day, start, end string) (models.Interval, error) {
	dow, err := models.ParseDayOfWeek(day)
	if err != nil {
		return models.Interval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	startAt, err := models.ParseTimeOfDay(start)
	if err != nil {
		return models.Interval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	endAt, err := models.ParseTimeOfDay(end)
	if err != nil {
		return models.Interval{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	slot, err := models.NewInterval(dow, startAt, endAt)
	if err != nil {
		return models.Interval{}, appErrors.Wrap(err, appErrors.ErrInvalidInterval.Code, appErrors.ErrInvalidInterval.Status, err.Error())
	}
	return slot, nil
}

func scheduleConflictError(report models.ConflictReport) error {
	e := appErrors.Clone(appErrors.ErrScheduleConflict, "")
	e.Details = report
	return e
}
