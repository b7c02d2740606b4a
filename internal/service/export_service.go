package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
	"github.com/campusplan/scheduler-api/pkg/export"
	"github.com/campusplan/scheduler-api/pkg/jobs"
)

// ExportFormat names a supported timetable rendering.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportRunReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleRun, error)
}

// ExportTicket identifies a queued export and where to fetch it.
type ExportTicket struct {
	Token     string       `json:"token"`
	Format    ExportFormat `json:"format"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

type exportPayload struct {
	Filename string `json:"filename"`
	Content  []byte `json:"content"`
}

type exportJobPayload struct {
	Token  string
	RunID  string
	Format ExportFormat
}

// ExportService renders timetable exports in the background and parks
// the result in the cache until the client fetches it.
type ExportService struct {
	runs      exportRunReader
	allocs    allocationReader
	cache     scheduleCache
	csv       csvRenderer
	pdf       pdfRenderer
	queue     *jobs.Queue
	logger    *zap.Logger
	resultTTL time.Duration
}

// NewExportService constructs an ExportService and its worker queue.
func NewExportService(runs exportRunReader, allocs allocationReader, cache scheduleCache, logger *zap.Logger, workers, retries int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ExportService{
		runs:      runs,
		allocs:    allocs,
		cache:     cache,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		logger:    logger,
		resultTTL: time.Hour,
	}
	s.queue = jobs.NewQueue("timetable-exports", s.handleJob, jobs.QueueConfig{
		Workers:    workers,
		MaxRetries: retries,
		Logger:     logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules an export of the run's timetable and returns a
// ticket the client can poll.
func (s *ExportService) Enqueue(ctx context.Context, runID string, format ExportFormat) (*ExportTicket, error) {
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if _, err := s.runs.FindByID(ctx, runID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
	}

	token := uuid.NewString()
	job := jobs.Job{
		ID:      token,
		Type:    "render-timetable",
		Payload: exportJobPayload{Token: token, RunID: runID, Format: format},
	}
	if err := s.queue.Enqueue(job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue is full")
	}
	return &ExportTicket{
		Token:     token,
		Format:    format,
		ExpiresAt: time.Now().UTC().Add(s.resultTTL),
	}, nil
}

// Fetch returns a finished export, or NotFound while it is still
// rendering or after it expired.
func (s *ExportService) Fetch(ctx context.Context, token string) (string, []byte, error) {
	if s.cache == nil {
		return "", nil, appErrors.Clone(appErrors.ErrInternal, "export cache unavailable")
	}
	var payload exportPayload
	if err := s.cache.Get(ctx, exportCacheKey(token), &payload); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return "", nil, appErrors.Clone(appErrors.ErrNotFound, "export not ready or expired")
		}
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export")
	}
	return payload.Filename, payload.Content, nil
}

// Render produces the export synchronously, bypassing the queue.
func (s *ExportService) Render(ctx context.Context, runID string, format ExportFormat) (string, []byte, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		return "", nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
	}
	return s.render(ctx, run, format)
}

func (s *ExportService) handleJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(exportJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	run, err := s.runs.FindByID(ctx, payload.RunID)
	if err != nil {
		return fmt.Errorf("load run %s: %w", payload.RunID, err)
	}
	filename, content, err := s.render(ctx, run, payload.Format)
	if err != nil {
		return err
	}
	if s.cache == nil {
		return fmt.Errorf("export cache unavailable")
	}
	if err := s.cache.Set(ctx, exportCacheKey(payload.Token), exportPayload{Filename: filename, Content: content}, s.resultTTL); err != nil {
		return fmt.Errorf("store export %s: %w", payload.Token, err)
	}
	s.logger.Info("timetable export rendered",
		zap.String("token", payload.Token),
		zap.String("run_id", payload.RunID),
		zap.String("format", string(payload.Format)),
		zap.Int("bytes", len(content)))
	return nil
}

func (s *ExportService) render(ctx context.Context, run *models.ScheduleRun, format ExportFormat) (string, []byte, error) {
	allocations, err := s.allocs.ListByRun(ctx, nil, run.ID)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}
	dataset := timetableDataset(allocations)

	filename := fmt.Sprintf("timetable-%s-v%d.%s", run.TermID, run.Version, format)
	switch format {
	case ExportFormatCSV:
		content, renderErr := s.csv.Render(dataset)
		if renderErr != nil {
			return "", nil, appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return filename, content, nil
	case ExportFormatPDF:
		title := fmt.Sprintf("Timetable %s (version %d)", run.TermID, run.Version)
		content, renderErr := s.pdf.Render(dataset, title)
		if renderErr != nil {
			return "", nil, appErrors.Wrap(renderErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return filename, content, nil
	default:
		return "", nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func timetableDataset(allocations []models.Allocation) export.Dataset {
	sorted := make([]models.Allocation, len(allocations))
	copy(sorted, allocations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].DayOfWeek != sorted[j].DayOfWeek {
			return sorted[i].DayOfWeek < sorted[j].DayOfWeek
		}
		if sorted[i].StartHour != sorted[j].StartHour {
			return sorted[i].StartHour < sorted[j].StartHour
		}
		return sorted[i].RoomID < sorted[j].RoomID
	})

	headers := []string{"Day", "Start", "End", "Section", "Type", "Room", "Faculty"}
	rows := make([]map[string]string, 0, len(sorted))
	for _, allocation := range sorted {
		facultyID := ""
		if allocation.FacultyID != nil {
			facultyID = *allocation.FacultyID
		}
		rows = append(rows, map[string]string{
			"Day":     dayName(allocation.DayOfWeek),
			"Start":   strconv.Itoa(allocation.StartHour) + ":00",
			"End":     strconv.Itoa(allocation.EndHour) + ":00",
			"Section": allocation.SectionID,
			"Type":    allocation.BlockType,
			"Room":    allocation.RoomID,
			"Faculty": facultyID,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func dayName(day int) string {
	names := map[int]string{
		1: "Monday", 2: "Tuesday", 3: "Wednesday", 4: "Thursday",
		5: "Friday", 6: "Saturday", 7: "Sunday",
	}
	if name, ok := names[day]; ok {
		return name
	}
	return strconv.Itoa(day)
}

func exportCacheKey(token string) string {
	return "export:" + token
}
