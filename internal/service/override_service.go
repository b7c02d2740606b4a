package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/engine"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type overrideRepository interface {
	Create(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error
	ListEffective(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.Override, error)
	List(ctx context.Context, runID, allocationID, status string, weekStart *time.Time, page, size int) ([]models.Override, int, error)
	FindByID(ctx context.Context, id string) (*models.Override, error)
	Delete(ctx context.Context, id string) error
}

type allocationLocker interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Allocation, error)
	LockByRun(ctx context.Context, exec sqlx.ExtContext, runID string) ([]models.Allocation, error)
}

type makeupReader interface {
	ListApprovedMakeups(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.MakeupRequest, error)
}

type runReader interface {
	FindByID(ctx context.Context, id string) (*models.ScheduleRun, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type sectionReader interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type overrideLister interface {
	ListEffective(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.Override, error)
}

// OverrideService validates and applies live overrides on locked runs.
// Validation and insert happen inside one transaction holding row locks
// on the run's allocations, so two concurrent overrides can never both
// pass the conflict check for the same slot.
type OverrideService struct {
	overrides overrideRepository
	allocs    allocationLocker
	checker   slotChecker
	runs      runReader
	cache     scheduleCache
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOverrideService wires override dependencies.
func NewOverrideService(
	overrides overrideRepository,
	allocs allocationLocker,
	makeups makeupReader,
	runs runReader,
	rooms roomReader,
	sections sectionReader,
	cache scheduleCache,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *OverrideService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{
		overrides: overrides,
		allocs:    allocs,
		checker: slotChecker{
			allocs:    allocs,
			overrides: overrides,
			makeups:   makeups,
			rooms:     rooms,
			sections:  sections,
		},
		runs:      runs,
		cache:     cache,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// Create validates the proposed slot against the effective schedule of
// the target week and stores the override. Rejection leaves the original
// allocation untouched and names the colliding entry.
func (s *OverrideService) Create(ctx context.Context, req dto.CreateOverrideRequest, requestedBy string) (*dto.OverrideResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
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

	allocation, loadErr := s.allocs.FindByID(ctx, tx, req.AllocationID)
	if loadErr != nil {
		if errors.Is(loadErr, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
			return nil, err
		}
		err = appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
		return nil, err
	}

	run, loadErr := s.runs.FindByID(ctx, allocation.RunID)
	if loadErr != nil {
		err = appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule run")
		return nil, err
	}
	if run.Status != models.ScheduleRunStatusLocked {
		err = appErrors.Clone(appErrors.ErrLocked, "overrides apply only to the locked schedule")
		return nil, err
	}

	if err = s.checker.check(ctx, tx, allocation, weekStart, allocation.ID, req.RoomID, req.DayOfWeek, req.StartHour, req.EndHour); err != nil {
		return nil, err
	}

	override := &models.Override{
		AllocationID: allocation.ID,
		RunID:        allocation.RunID,
		WeekStart:    weekStart,
		DayOfWeek:    req.DayOfWeek,
		StartHour:    req.StartHour,
		EndHour:      req.EndHour,
		RoomID:       req.RoomID,
		Permanent:    req.Permanent,
		RequestedBy:  requestedBy,
	}
	if err = s.overrides.Create(ctx, tx, override); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store override")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit override")
		return nil, err
	}

	if s.cache != nil {
		if cacheErr := s.cache.DeleteByPattern(ctx, "schedule:*"); cacheErr != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.Error(cacheErr))
		}
	}
	s.logger.Info("override created",
		zap.String("override_id", override.ID),
		zap.String("allocation_id", allocation.ID),
		zap.String("week_start", weekStart.Format("2006-01-02")),
		zap.Bool("permanent", override.Permanent))

	return overrideResponse(override), nil
}

// List returns overrides matching the query.
func (s *OverrideService) List(ctx context.Context, query dto.OverrideQuery) ([]dto.OverrideResponse, *models.Pagination, error) {
	var weekStart *time.Time
	if query.WeekStart != "" {
		parsed, err := parseWeekStart(query.WeekStart)
		if err != nil {
			return nil, nil, err
		}
		weekStart = &parsed
	}
	overrides, total, err := s.overrides.List(ctx, query.RunID, query.AllocationID, query.Status, weekStart, query.Page, query.PageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	responses := make([]dto.OverrideResponse, 0, len(overrides))
	for i := range overrides {
		responses = append(responses, *overrideResponse(&overrides[i]))
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return responses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Cancel removes an override, restoring the underlying allocation.
func (s *OverrideService) Cancel(ctx context.Context, id string) error {
	if _, err := s.overrides.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "override not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load override")
	}
	if err := s.overrides.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "override not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete override")
	}
	if s.cache != nil {
		if cacheErr := s.cache.DeleteByPattern(ctx, "schedule:*"); cacheErr != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.Error(cacheErr))
		}
	}
	return nil
}

// slotChecker rebuilds a week's effective occupancy under row locks and
// runs proposed placements through the engine's conflict predicate. It
// backs both overrides and makeup approvals so the two flows can never
// disagree on what counts as a collision.
type slotChecker struct {
	allocs    allocationLocker
	overrides overrideLister
	makeups   makeupReader
	rooms     roomReader
	sections  sectionReader
}

// check validates one proposed slot. skipAllocID carves the moving
// allocation itself out of the snapshot; pass "" when adding a meeting.
func (c slotChecker) check(ctx context.Context, tx *sqlx.Tx, allocation *models.Allocation, weekStart time.Time, skipAllocID, roomID string, dayOfWeek, startHour, endHour int) error {
	allocations, err := c.allocs.LockByRun(ctx, tx, allocation.RunID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to lock run allocations")
	}
	overrides, err := c.overrides.ListEffective(ctx, tx, allocation.RunID, weekStart)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overrides")
	}
	makeups, err := c.makeups.ListApprovedMakeups(ctx, tx, allocation.RunID, weekStart)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approved makeups")
	}

	occ, entriesByRef := buildEffectiveOccupancy(allocations, overrides, makeups, skipAllocID)

	room, err := c.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	if room.Status != models.RoomStatusActive {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "room is not active")
	}
	section, err := c.sections.FindByID(ctx, allocation.SectionID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	facultyID := ""
	if allocation.FacultyID != nil {
		facultyID = *allocation.FacultyID
	}
	requiredFeatures := section.LectureFeatures
	if allocation.BlockType == string(engine.BlockLab) {
		requiredFeatures = section.LabFeatures
	}
	unit := engine.DemandUnit{
		SectionID:    allocation.SectionID,
		CourseCode:   section.CourseCode,
		Type:         engine.BlockType(allocation.BlockType),
		Hours:        endHour - startHour,
		StudentCount: section.StudentCount,
		Features:     engine.Feature(requiredFeatures),
		FacultyID:    facultyID,
	}
	engineRoom := engine.Room{
		ID:       room.ID,
		Building: room.Building,
		Code:     room.Code,
		Capacity: room.Capacity,
		Features: engine.Feature(room.Features),
		Active:   true,
	}

	// The override grid spans the full week regardless of the run's
	// original operating window; room and faculty collisions plus
	// capacity and features remain hard.
	model := &engine.Model{
		Rooms: []engine.Room{engineRoom},
		Days:  []engine.Day{1, 2, 3, 4, 5, 6, 7},
		Start: 0,
		End:   24,
	}
	tr := engine.TimeRange{StartHour: startHour, EndHour: endHour}
	if violation := engine.CheckPlacement(model, occ, unit, engineRoom, engine.Day(dayOfWeek), tr); violation != nil {
		conflict := models.AllocationConflict{
			RoomID:    roomID,
			DayOfWeek: dayOfWeek,
			StartHour: startHour,
			EndHour:   endHour,
			Dimension: violation.Dimension,
			Source:    "PROPOSED",
		}
		if violation.Colliding != nil {
			if origin, ok := entriesByRef[violation.Colliding.Ref]; ok {
				conflict = origin
				conflict.Dimension = violation.Dimension
			}
		}
		return appErrors.Wrap(&models.ConflictError{
			Message:  fmt.Sprintf("proposed slot conflicts on %s", violation.Dimension),
			Conflict: conflict,
		}, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "override rejected")
	}
	return nil
}

// buildEffectiveOccupancy folds run allocations, week overrides and
// approved makeups into one occupancy index. Overridden allocations
// occupy their replacement slot, not the original.
func buildEffectiveOccupancy(allocations []models.Allocation, overrides []models.Override, makeups []models.MakeupRequest, skipAllocID string) (*engine.Occupancy, map[string]models.AllocationConflict) {
	overridesByAlloc := make(map[string]models.Override, len(overrides))
	for _, override := range overrides {
		overridesByAlloc[override.AllocationID] = override
	}

	occ := engine.NewOccupancy()
	entries := make(map[string]models.AllocationConflict)
	add := func(ref string, source string, allocation models.Allocation, roomID string, day, start, end int) {
		facultyID := ""
		if allocation.FacultyID != nil {
			facultyID = *allocation.FacultyID
		}
		occ.Add(engine.Entry{
			Ref:       ref,
			SectionID: allocation.SectionID,
			RoomID:    roomID,
			FacultyID: facultyID,
			Day:       engine.Day(day),
			Time:      engine.TimeRange{StartHour: start, EndHour: end},
		})
		entries[ref] = models.AllocationConflict{
			AllocationID: allocation.ID,
			SectionID:    allocation.SectionID,
			RoomID:       roomID,
			FacultyID:    facultyID,
			DayOfWeek:    day,
			StartHour:    start,
			EndHour:      end,
			Source:       source,
		}
	}

	for _, allocation := range allocations {
		if allocation.ID == skipAllocID {
			continue
		}
		if override, ok := overridesByAlloc[allocation.ID]; ok {
			add("override-"+override.ID, "OVERRIDE", allocation, override.RoomID, override.DayOfWeek, override.StartHour, override.EndHour)
			continue
		}
		add("alloc-"+allocation.ID, "RUN", allocation, allocation.RoomID, allocation.DayOfWeek, allocation.StartHour, allocation.EndHour)
	}

	allocsByID := make(map[string]models.Allocation, len(allocations))
	for _, allocation := range allocations {
		allocsByID[allocation.ID] = allocation
	}
	for _, makeup := range makeups {
		origin, ok := allocsByID[makeup.AllocationID]
		if !ok {
			continue
		}
		add("makeup-"+makeup.ID, "MAKEUP", origin, makeup.RoomID, makeup.DayOfWeek, makeup.StartHour, makeup.EndHour)
	}
	return occ, entries
}

func overrideResponse(override *models.Override) *dto.OverrideResponse {
	return &dto.OverrideResponse{
		OverrideID:   override.ID,
		AllocationID: override.AllocationID,
		RunID:        override.RunID,
		WeekStart:    override.WeekStart.Format("2006-01-02"),
		DayOfWeek:    override.DayOfWeek,
		StartHour:    override.StartHour,
		EndHour:      override.EndHour,
		RoomID:       override.RoomID,
		Permanent:    override.Permanent,
		Status:       string(override.Status),
	}
}
