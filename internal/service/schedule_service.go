package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type scheduleRunRepository interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleRun, error)
	FindLockedByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) (*models.ScheduleRun, error)
	ListByTerm(ctx context.Context, termID string) ([]models.ScheduleRun, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleRunStatus) error
	Delete(ctx context.Context, id string) error
}

type allocationReader interface {
	List(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, int, error)
	ListByRun(ctx context.Context, exec sqlx.ExtContext, runID string) ([]models.Allocation, error)
}

type overrideReader interface {
	ListEffective(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.Override, error)
	InvalidateByRun(ctx context.Context, exec sqlx.ExtContext, runID string) (int64, error)
}

type scheduleCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ScheduleService answers effective-schedule queries and manages the
// run lifecycle (lock, supersede, delete draft).
type ScheduleService struct {
	runs      scheduleRunRepository
	allocs    allocationReader
	overrides overrideReader
	cache     scheduleCache
	tx        txProvider
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewScheduleService wires schedule query dependencies.
func NewScheduleService(runs scheduleRunRepository, allocs allocationReader, overrides overrideReader, cache scheduleCache, tx txProvider, logger *zap.Logger, cacheTTL time.Duration) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ScheduleService{
		runs:      runs,
		allocs:    allocs,
		overrides: overrides,
		cache:     cache,
		tx:        tx,
		logger:    logger,
		cacheTTL:  cacheTTL,
	}
}

// Query returns allocations matching the filter. When weekStart is
// provided, ACTIVE overrides for that week shadow their allocations and
// appear as extra OVERRIDE entries.
func (s *ScheduleService) Query(ctx context.Context, query dto.ScheduleQuery) ([]dto.AllocationResponse, *models.Pagination, error) {
	runID := query.RunID
	if runID == "" {
		if query.TermID == "" {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "termId or runId is required")
		}
		run, err := s.runs.FindLockedByTerm(ctx, nil, query.TermID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no locked schedule for this term")
			}
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locked run")
		}
		runID = run.ID
	}

	var weekStart *time.Time
	if query.WeekStart != "" {
		parsed, err := parseWeekStart(query.WeekStart)
		if err != nil {
			return nil, nil, err
		}
		weekStart = &parsed
	}

	cacheKey := scheduleCacheKey(runID, query)
	if s.cache != nil {
		var cached scheduleQueryPayload
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached.Entries, cached.Pagination, nil
		}
	}

	filter := models.AllocationFilter{
		RunID:     runID,
		RoomID:    query.RoomID,
		FacultyID: query.FacultyID,
		SectionID: query.SectionID,
		DayOfWeek: query.DayOfWeek,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	allocations, total, err := s.allocs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list allocations")
	}

	overridesByAlloc := map[string]models.Override{}
	if weekStart != nil {
		overrides, listErr := s.overrides.ListEffective(ctx, nil, runID, *weekStart)
		if listErr != nil {
			return nil, nil, appErrors.Wrap(listErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
		}
		for _, override := range overrides {
			overridesByAlloc[override.AllocationID] = override
		}
	}

	entries := make([]dto.AllocationResponse, 0, len(allocations)+len(overridesByAlloc))
	for _, allocation := range allocations {
		entry := dto.AllocationResponse{
			AllocationID: allocation.ID,
			RunID:        allocation.RunID,
			SectionID:    allocation.SectionID,
			BlockType:    allocation.BlockType,
			RoomID:       allocation.RoomID,
			FacultyID:    allocation.FacultyID,
			DayOfWeek:    allocation.DayOfWeek,
			StartHour:    allocation.StartHour,
			EndHour:      allocation.EndHour,
			Source:       "RUN",
		}
		if override, ok := overridesByAlloc[allocation.ID]; ok {
			entry.Overridden = true
			entry.OverrideID = override.ID
			entries = append(entries, entry)
			entries = append(entries, dto.AllocationResponse{
				AllocationID: allocation.ID,
				RunID:        allocation.RunID,
				SectionID:    allocation.SectionID,
				BlockType:    allocation.BlockType,
				RoomID:       override.RoomID,
				FacultyID:    allocation.FacultyID,
				DayOfWeek:    override.DayOfWeek,
				StartHour:    override.StartHour,
				EndHour:      override.EndHour,
				OverrideID:   override.ID,
				Source:       "OVERRIDE",
			})
			continue
		}
		entries = append(entries, entry)
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	if s.cache != nil {
		payload := scheduleQueryPayload{Entries: entries, Pagination: pagination}
		if cacheErr := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); cacheErr != nil {
			s.logger.Warn("schedule cache write failed", zap.Error(cacheErr))
		}
	}
	return entries, pagination, nil
}

// ListRuns returns every run version for a term, newest first.
func (s *ScheduleService) ListRuns(ctx context.Context, termID string) ([]models.ScheduleRun, error) {
	if termID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "termId is required")
	}
	runs, err := s.runs.ListByTerm(ctx, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule runs")
	}
	return runs, nil
}

// GetRun loads one run by id.
func (s *ScheduleService) GetRun(ctx context.Context, runID string) (*models.ScheduleRun, error) {
	run, err := s.runs.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule run")
	}
	return run, nil
}

// Lock promotes a draft run to LOCKED. Any previously locked run for
// the term is superseded and its overrides invalidated, all in one
// transaction.
func (s *ScheduleService) Lock(ctx context.Context, runID string) (*models.ScheduleRun, error) {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status == models.ScheduleRunStatusLocked {
		return run, nil
	}
	if run.Status != models.ScheduleRunStatusDraft {
		return nil, appErrors.Clone(appErrors.ErrConflict, "only draft runs can be locked")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	prior, findErr := s.runs.FindLockedByTerm(ctx, tx, run.TermID)
	if findErr != nil && !errors.Is(findErr, sql.ErrNoRows) {
		err = appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load locked run")
		return nil, err
	}
	if prior != nil {
		if err = s.runs.UpdateStatus(ctx, tx, prior.ID, models.ScheduleRunStatusSuperseded); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to supersede prior run")
			return nil, err
		}
		invalidated, invErr := s.overrides.InvalidateByRun(ctx, tx, prior.ID)
		if invErr != nil {
			err = appErrors.Wrap(invErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate prior overrides")
			return nil, err
		}
		s.logger.Info("superseded prior locked run",
			zap.String("prior_run_id", prior.ID),
			zap.Int64("overrides_invalidated", invalidated))
	}

	if err = s.runs.UpdateStatus(ctx, tx, run.ID, models.ScheduleRunStatusLocked); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock run")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit lock transaction")
		return nil, err
	}

	s.invalidateCache(ctx, run.TermID)
	run.Status = models.ScheduleRunStatusLocked
	s.logger.Info("schedule run locked", zap.String("run_id", run.ID), zap.String("term_id", run.TermID), zap.Int("version", run.Version))
	return run, nil
}

// DeleteDraft removes a draft run and its allocations.
func (s *ScheduleService) DeleteDraft(ctx context.Context, runID string) error {
	run, err := s.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Status != models.ScheduleRunStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft runs can be deleted")
	}
	if err := s.runs.Delete(ctx, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule run not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule run")
	}
	s.invalidateCache(ctx, run.TermID)
	return nil
}

func (s *ScheduleService) invalidateCache(ctx context.Context, termID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "schedule:*"); err != nil {
		s.logger.Warn("schedule cache invalidation failed", zap.String("term_id", termID), zap.Error(err))
	}
}

type scheduleQueryPayload struct {
	Entries    []dto.AllocationResponse `json:"entries"`
	Pagination *models.Pagination       `json:"pagination"`
}

func scheduleCacheKey(runID string, query dto.ScheduleQuery) string {
	return fmt.Sprintf("schedule:%s:%s:%s:%s:%d:%s:%d:%d",
		runID, query.RoomID, query.FacultyID, query.SectionID, query.DayOfWeek, query.WeekStart, query.Page, query.PageSize)
}

// parseWeekStart accepts an ISO date and normalises it to the Monday of
// its week so override lookups match regardless of the day supplied.
func parseWeekStart(value string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "weekStart must be an ISO date (YYYY-MM-DD)")
	}
	offset := (int(parsed.Weekday()) + 6) % 7
	return parsed.AddDate(0, 0, -offset), nil
}
