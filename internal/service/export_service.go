package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/acadops/timetable-api/internal/models"
	appErrors "github.com/acadops/timetable-api/pkg/errors"
	"github.com/acadops/timetable-api/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportResult carries rendered bytes plus HTTP presentation hints.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

type timetableReader interface {
	SectionTimetable(ctx context.Context, sectionID string) ([]models.ScheduleDetail, error)
}

// ExportService renders a section's weekly timetable as CSV or PDF.
type ExportService struct {
	timetables timetableReader
	sections   sectionReader
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	rowLimit   int
	logger     *zap.Logger
}

// NewExportService instantiates ExportService. A rowLimit of zero disables
// truncation.
func NewExportService(timetables timetableReader, sections sectionReader, rowLimit int, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		sections:   sections,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		rowLimit:   rowLimit,
		logger:     logger,
	}
}

// SectionTimetable renders the timetable of one section.
func (s *ExportService) SectionTimetable(ctx context.Context, sectionID string, format ExportFormat) (*ExportResult, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("section", sectionID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve section")
	}

	schedules, err := s.timetables.SectionTimetable(ctx, sectionID)
	if err != nil {
		return nil, err
	}
	if s.rowLimit > 0 && len(schedules) > s.rowLimit {
		s.logger.Warn("timetable export truncated",
			zap.String("section_id", sectionID),
			zap.Int("rows", len(schedules)),
			zap.Int("limit", s.rowLimit),
		)
		schedules = schedules[:s.rowLimit]
	}

	dataset := buildTimetableDataset(schedules)
	title := fmt.Sprintf("Timetable %s", section.SectionCode)

	switch format {
	case FormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("timetable-%s.csv", section.SectionCode),
		}, nil
	case FormatPDF:
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("timetable-%s.pdf", section.SectionCode),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func buildTimetableDataset(schedules []models.ScheduleDetail) export.Dataset {
	headers := []string{"Day", "Start", "End", "Course", "Title", "Room", "Faculty"}
	rows := make([]map[string]string, 0, len(schedules))
	for _, sched := range schedules {
		faculty := ""
		if sched.FacultyName != nil {
			faculty = *sched.FacultyName
		}
		rows = append(rows, map[string]string{
			"Day":     string(sched.DayOfWeek),
			"Start":   sched.StartTime.String(),
			"End":     sched.EndTime.String(),
			"Course":  sched.CourseCode,
			"Title":   sched.CourseTitle,
			"Room":    sched.RoomCode,
			"Faculty": faculty,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}
