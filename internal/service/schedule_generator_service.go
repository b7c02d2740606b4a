package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/engine"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type roomCatalog interface {
	ListActive(ctx context.Context) ([]models.Room, error)
}

type sectionCatalog interface {
	ListByTerm(ctx context.Context, termID string) ([]models.Section, error)
}

type facultyCatalog interface {
	ListActive(ctx context.Context) ([]models.Faculty, error)
}

type scheduleRunWriter interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error
}

type allocationWriter interface {
	BulkInsert(ctx context.Context, exec sqlx.ExtContext, allocations []models.Allocation) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type engineObserver interface {
	ObserveEngineRun(elapsed time.Duration, iterations, placed, unplaced int)
}

// EngineTuning carries solver parameters sourced from configuration.
type EngineTuning struct {
	ProposalTTL     time.Duration
	IterationBudget int
	TimeBudget      time.Duration
	DefaultSeed     int64
	MaxBlockHours   int
	InitialTemp     float64
	CoolingRate     float64
	Weights         engine.Weights
}

// ScheduleGeneratorService builds timetable proposals from the room,
// section and faculty catalogs and persists accepted proposals as
// versioned schedule runs.
type ScheduleGeneratorService struct {
	rooms     roomCatalog
	sections  sectionCatalog
	faculty   facultyCatalog
	runs      scheduleRunWriter
	allocs    allocationWriter
	tx        txProvider
	metrics   engineObserver
	validator *validator.Validate
	logger    *zap.Logger
	tuning    EngineTuning
	store     *proposalStore
}

// NewScheduleGeneratorService wires generator dependencies.
func NewScheduleGeneratorService(
	rooms roomCatalog,
	sections sectionCatalog,
	faculty facultyCatalog,
	runs scheduleRunWriter,
	allocs allocationWriter,
	tx txProvider,
	metrics engineObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	tuning EngineTuning,
) *ScheduleGeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if tuning.ProposalTTL <= 0 {
		tuning.ProposalTTL = 30 * time.Minute
	}
	return &ScheduleGeneratorService{
		rooms:     rooms,
		sections:  sections,
		faculty:   faculty,
		runs:      runs,
		allocs:    allocs,
		tx:        tx,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		tuning:    tuning,
		store:     newProposalStore(tuning.ProposalTTL),
	}
}

// Generate snapshots the catalogs, runs the solver and stores the
// resulting proposal for a later Save.
func (s *ScheduleGeneratorService) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule generation payload")
	}

	model, err := s.buildModel(ctx, req)
	if err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.tuning.TimeBudget > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.tuning.TimeBudget)
		defer cancel()
	}

	result, err := engine.Solve(runCtx, model)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "scheduling run failed")
	}
	if s.metrics != nil {
		s.metrics.ObserveEngineRun(result.Elapsed, result.Iterations, len(result.Placements), len(result.Unplaced))
	}

	proposal := scheduleProposal{
		ProposalID:  uuid.NewString(),
		TermID:      req.TermID,
		Result:      result,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	s.logger.Info("schedule proposal generated",
		zap.String("proposal_id", proposal.ProposalID),
		zap.String("term_id", req.TermID),
		zap.Int64("seed", result.Seed),
		zap.Int("placed", len(result.Placements)),
		zap.Int("unplaced", len(result.Unplaced)),
		zap.Float64("penalty", result.Penalty))

	return proposalResponse(proposal), nil
}

// Save persists a proposal as a new DRAFT schedule run with its
// allocations in one transaction. Incomplete proposals are rejected
// unless the caller explicitly allows a partial save.
func (s *ScheduleGeneratorService) Save(ctx context.Context, req dto.SaveScheduleRequest) (*dto.ScheduleRunResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save schedule payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	if !proposal.Result.Complete() && !req.AllowPartial {
		return nil, appErrors.Wrap(
			&engine.UnplaceableSectionError{Unplaced: proposal.Result.Unplaced},
			appErrors.ErrUnplaceable.Code, appErrors.ErrUnplaceable.Status,
			fmt.Sprintf("%d demand units could not be placed", len(proposal.Result.Unplaced)))
	}
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
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

	metaPayload := map[string]any{
		"penalty":    proposal.Result.Penalty,
		"iterations": proposal.Result.Iterations,
		"elapsedMs":  proposal.Result.Elapsed.Milliseconds(),
		"unplaced":   proposal.Result.Unplaced,
		"generated":  proposal.RequestedAt,
		"algorithm":  "greedy_annealing_v1",
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode run metadata")
		return nil, err
	}

	run := &models.ScheduleRun{
		TermID: proposal.TermID,
		Status: models.ScheduleRunStatusDraft,
		Seed:   proposal.Result.Seed,
		Meta:   types.JSONText(metaBytes),
	}
	if err = s.runs.CreateVersioned(ctx, tx, run); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule run")
		return nil, err
	}

	allocations := make([]models.Allocation, 0, len(proposal.Result.Placements))
	for _, p := range proposal.Result.Placements {
		var facultyID *string
		if p.FacultyID != "" {
			id := p.FacultyID
			facultyID = &id
		}
		allocations = append(allocations, models.Allocation{
			RunID:     run.ID,
			TermID:    proposal.TermID,
			SectionID: p.SectionID,
			RoomID:    p.RoomID,
			FacultyID: facultyID,
			BlockType: string(p.Type),
			DayOfWeek: int(p.Day),
			StartHour: p.StartHour,
			EndHour:   p.EndHour,
		})
	}
	if err = s.allocs.BulkInsert(ctx, tx, allocations); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist allocations")
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule run")
		return nil, err
	}

	s.store.Delete(req.ProposalID)
	s.logger.Info("schedule run saved",
		zap.String("run_id", run.ID),
		zap.String("term_id", run.TermID),
		zap.Int("version", run.Version),
		zap.Int("allocations", len(allocations)))

	return &dto.ScheduleRunResponse{
		RunID:       run.ID,
		TermID:      run.TermID,
		Version:     run.Version,
		Status:      string(run.Status),
		Seed:        run.Seed,
		Allocations: len(allocations),
		Penalty:     proposal.Result.Penalty,
	}, nil
}

// GetProposal returns a stored proposal if it has not expired.
func (s *ScheduleGeneratorService) GetProposal(id string) (*dto.GenerateScheduleResponse, error) {
	proposal, ok := s.store.Get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
	}
	return proposalResponse(proposal), nil
}

// buildModel snapshots the catalogs and converts them into the solver's
// immutable input. Data-level infeasibility surfaces as a typed
// validation or configuration error.
func (s *ScheduleGeneratorService) buildModel(ctx context.Context, req dto.GenerateScheduleRequest) (*engine.Model, error) {
	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}
	if len(req.IncludedRoomIDs) > 0 {
		rooms = filterRoomsByID(rooms, req.IncludedRoomIDs)
		if len(rooms) == 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no active rooms match the requested subset")
		}
	}
	sections, err := s.sections.ListByTerm(ctx, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sections")
	}
	if len(sections) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no sections registered for this term")
	}
	if len(req.IncludedSectionIDs) > 0 {
		sections = filterSectionsByID(sections, req.IncludedSectionIDs)
		if len(sections) == 0 {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no sections in this term match the requested subset")
		}
	}
	faculty, err := s.faculty.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
	}

	engineRooms := make([]engine.Room, 0, len(rooms))
	for _, room := range rooms {
		engineRooms = append(engineRooms, engine.Room{
			ID:       room.ID,
			Building: room.Building,
			Code:     room.Code,
			Capacity: room.Capacity,
			Features: engine.Feature(room.Features),
			Floor:    room.Floor,
			Active:   room.Status == models.RoomStatusActive,
		})
	}

	engineSections := make([]engine.Section, 0, len(sections))
	for _, section := range sections {
		facultyID := ""
		if section.FacultyID != nil {
			facultyID = *section.FacultyID
		}
		engineSections = append(engineSections, engine.Section{
			ID:              section.ID,
			CourseCode:      section.CourseCode,
			Label:           section.Label,
			StudentCount:    section.StudentCount,
			LectureHours:    section.LectureHours,
			LabHours:        section.LabHours,
			LectureFeatures: engine.Feature(section.LectureFeatures),
			LabFeatures:     engine.Feature(section.LabFeatures),
			FacultyID:       facultyID,
		})
	}

	engineFaculty := make([]engine.Faculty, 0, len(faculty))
	for _, member := range faculty {
		unavailable, windowErr := decodeWindows(member.Unavailable)
		if windowErr != nil {
			return nil, appErrors.Wrap(windowErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("corrupt availability data for faculty %s", member.ID))
		}
		preferred, windowErr := decodeWindows(member.Preferred)
		if windowErr != nil {
			return nil, appErrors.Wrap(windowErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("corrupt availability data for faculty %s", member.ID))
		}
		engineFaculty = append(engineFaculty, engine.Faculty{
			ID:             member.ID,
			MaxWeeklyHours: member.MaxWeeklyHours,
			Unavailable:    unavailable,
			Preferred:      preferred,
		})
	}

	cfg := s.engineConfig(req)
	model, err := engine.BuildModel(engineRooms, engineSections, engineFaculty, cfg)
	if err != nil {
		switch typed := err.(type) {
		case *engine.ConfigurationError:
			return nil, appErrors.Wrap(typed, appErrors.ErrConfiguration.Code, appErrors.ErrConfiguration.Status, typed.Reason)
		case *engine.ValidationError:
			return nil, appErrors.Wrap(typed, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, typed.Error())
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build scheduling model")
		}
	}
	return model, nil
}

func (s *ScheduleGeneratorService) engineConfig(req dto.GenerateScheduleRequest) engine.Config {
	cfg := engine.Config{
		OperatingStart:    req.StartHour,
		OperatingEnd:      req.EndHour,
		Seed:              s.tuning.DefaultSeed,
		IterationBudget:   s.tuning.IterationBudget,
		TimeBudget:        s.tuning.TimeBudget,
		MaxBlockHours:     s.tuning.MaxBlockHours,
		InitialTemp:       s.tuning.InitialTemp,
		CoolingRate:       s.tuning.CoolingRate,
		IgnoreWeeklyHours: req.IgnoreWeeklyHours,
		Weights:           s.tuning.Weights,
	}
	for _, day := range req.Days {
		cfg.Days = append(cfg.Days, engine.Day(day))
	}
	for _, day := range req.OnlineDays {
		cfg.OnlineDays = append(cfg.OnlineDays, engine.Day(day))
	}
	if req.Seed != nil {
		cfg.Seed = *req.Seed
	}
	if req.IterationBudget > 0 {
		cfg.IterationBudget = req.IterationBudget
	}
	if req.MaxBlockHours > 0 {
		cfg.MaxBlockHours = req.MaxBlockHours
	}
	return cfg
}

func filterRoomsByID(rooms []models.Room, ids []string) []models.Room {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	filtered := make([]models.Room, 0, len(ids))
	for _, room := range rooms {
		if _, ok := wanted[room.ID]; ok {
			filtered = append(filtered, room)
		}
	}
	return filtered
}

func filterSectionsByID(sections []models.Section, ids []string) []models.Section {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	filtered := make([]models.Section, 0, len(ids))
	for _, section := range sections {
		if _, ok := wanted[section.ID]; ok {
			filtered = append(filtered, section)
		}
	}
	return filtered
}

func decodeWindows(raw types.JSONText) ([]engine.Window, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var stored []models.FacultyWindow
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode availability windows: %w", err)
	}
	windows := make([]engine.Window, 0, len(stored))
	for _, w := range stored {
		windows = append(windows, engine.Window{
			Day:       engine.Day(w.DayOfWeek),
			StartHour: w.StartHour,
			EndHour:   w.EndHour,
		})
	}
	return windows, nil
}

func proposalResponse(proposal scheduleProposal) *dto.GenerateScheduleResponse {
	placements := make([]dto.PlacementProposal, 0, len(proposal.Result.Placements))
	for _, p := range proposal.Result.Placements {
		var facultyID *string
		if p.FacultyID != "" {
			id := p.FacultyID
			facultyID = &id
		}
		placements = append(placements, dto.PlacementProposal{
			SectionID:  p.SectionID,
			CourseCode: p.CourseCode,
			BlockType:  string(p.Type),
			RoomID:     p.RoomID,
			Building:   p.Building,
			DayOfWeek:  int(p.Day),
			StartHour:  p.StartHour,
			EndHour:    p.EndHour,
			FacultyID:  facultyID,
		})
	}
	unplaced := make([]dto.UnplacedSection, 0, len(proposal.Result.Unplaced))
	for _, u := range proposal.Result.Unplaced {
		unplaced = append(unplaced, dto.UnplacedSection{
			SectionID:  u.SectionID,
			CourseCode: u.CourseCode,
			BlockType:  string(u.Type),
			Hours:      u.Hours,
			Reason:     u.Reason,
		})
	}
	return &dto.GenerateScheduleResponse{
		ProposalID: proposal.ProposalID,
		TermID:     proposal.TermID,
		Complete:   proposal.Result.Complete(),
		Placements: placements,
		Unplaced:   unplaced,
		Stats: dto.EngineStats{
			Iterations: proposal.Result.Iterations,
			Penalty:    proposal.Result.Penalty,
			Seed:       proposal.Result.Seed,
			ElapsedMS:  proposal.Result.Elapsed.Milliseconds(),
		},
	}
}

// --- Proposal store ---

type scheduleProposal struct {
	ProposalID  string
	TermID      string
	Result      *engine.Result
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]scheduleProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]scheduleProposal),
	}
}

func (s *proposalStore) Save(proposal scheduleProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (scheduleProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return scheduleProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return scheduleProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
