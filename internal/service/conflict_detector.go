package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
)

type conflictReader interface {
	ListByRoomAndDay(ctx context.Context, roomID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error)
	ListByFacultyAndDay(ctx context.Context, facultyID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error)
	ListBySectionAndDay(ctx context.Context, sectionID string, day models.DayOfWeek, excludeID string) ([]models.Schedule, error)
}

type conflictObserver interface {
	ObserveConflict(kind models.ConflictKind)
}

// ConflictDetector evaluates a candidate assignment against committed
// schedules along three independent axes: the room cannot host two meetings
// at once, a faculty member cannot teach in two places at once, and a
// section's students cannot sit in two meetings at once. The detector is
// read-only, so create and update validation share it; updates pass their
// own id as the exclusion so an unchanged re-save does not flag itself.
type ConflictDetector struct {
	schedules conflictReader
	metrics   conflictObserver
	logger    *zap.Logger
}

// NewConflictDetector builds a detector. The metrics observer is optional.
func NewConflictDetector(schedules conflictReader, metrics conflictObserver, logger *zap.Logger) *ConflictDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConflictDetector{schedules: schedules, metrics: metrics, logger: logger}
}

// Check returns every collision the draft triggers. All axes are evaluated
// even after a hit; a single candidate can conflict on more than one axis
// and callers get the complete picture.
func (d *ConflictDetector) Check(ctx context.Context, draft models.ScheduleDraft, excludeID string) (models.ConflictReport, error) {
	var report models.ConflictReport

	roomPeers, err := d.schedules.ListByRoomAndDay(ctx, draft.RoomID, draft.Slot.Day, excludeID)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room schedules")
	}
	d.collect(&report, models.RoomConflict, draft.Slot, roomPeers)

	if draft.FacultyID != nil {
		facultyPeers, err := d.schedules.ListByFacultyAndDay(ctx, *draft.FacultyID, draft.Slot.Day, excludeID)
		if err != nil {
			return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty schedules")
		}
		d.collect(&report, models.FacultyConflict, draft.Slot, facultyPeers)
	}

	sectionPeers, err := d.schedules.ListBySectionAndDay(ctx, draft.SectionID, draft.Slot.Day, excludeID)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section schedules")
	}
	d.collect(&report, models.SectionConflict, draft.Slot, sectionPeers)

	if report.HasConflicts() {
		d.logger.Info("schedule conflicts detected",
			zap.String("room_id", draft.RoomID),
			zap.String("section_id", draft.SectionID),
			zap.String("day", string(draft.Slot.Day)),
			zap.Int("conflicts", len(report.Conflicts)),
		)
	}
	return report, nil
}

func (d *ConflictDetector) collect(report *models.ConflictReport, kind models.ConflictKind, slot models.Interval, peers []models.Schedule) {
	for _, peer := range peers {
		if !slot.Overlaps(peer.Interval()) {
			continue
		}
		report.Add(kind, peer)
		if d.metrics != nil {
			d.metrics.ObserveConflict(kind)
		}
	}
}
