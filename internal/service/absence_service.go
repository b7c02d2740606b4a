package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type absenceRepository interface {
	CreateAbsence(ctx context.Context, absence *models.Absence) error
	FindAbsenceByID(ctx context.Context, id string) (*models.Absence, error)
	ListAbsencesByFaculty(ctx context.Context, facultyID string) ([]models.Absence, error)
	CreateMakeup(ctx context.Context, makeup *models.MakeupRequest) error
	FindMakeupByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.MakeupRequest, error)
	ListPendingMakeups(ctx context.Context) ([]models.MakeupRequest, error)
	ListApprovedMakeups(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.MakeupRequest, error)
	UpdateMakeupStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.MakeupStatus, decidedBy string) error
}

// AbsenceService records faculty absences and runs the makeup approval
// workflow. Approving a makeup re-validates the proposed slot against
// the effective schedule under row locks, exactly like an override.
type AbsenceService struct {
	absences  absenceRepository
	allocs    allocationLocker
	checker   slotChecker
	runs      runReader
	tx        txProvider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAbsenceService wires absence dependencies.
func NewAbsenceService(
	absences absenceRepository,
	allocs allocationLocker,
	overrides overrideLister,
	runs runReader,
	rooms roomReader,
	sections sectionReader,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *AbsenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{
		absences:  absences,
		allocs:    allocs,
		checker: slotChecker{
			allocs:    allocs,
			overrides: overrides,
			makeups:   absences,
			rooms:     rooms,
			sections:  sections,
		},
		runs:      runs,
		tx:        tx,
		validator: validate,
		logger:    logger,
	}
}

// ReportAbsence records a faculty absence for one allocation date.
func (s *AbsenceService) ReportAbsence(ctx context.Context, req dto.ReportAbsenceRequest, facultyID string) (*models.Absence, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid absence payload")
	}
	allocation, err := s.allocs.FindByID(ctx, nil, req.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}
	if allocation.FacultyID == nil || *allocation.FacultyID != facultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "allocation is not assigned to this faculty")
	}
	date, parseErr := time.Parse("2006-01-02", req.Date)
	if parseErr != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be an ISO date (YYYY-MM-DD)")
	}

	absence := &models.Absence{
		AllocationID: allocation.ID,
		FacultyID:    facultyID,
		Date:         date,
		Reason:       req.Reason,
	}
	if err := s.absences.CreateAbsence(ctx, absence); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record absence")
	}
	s.logger.Info("absence reported",
		zap.String("absence_id", absence.ID),
		zap.String("allocation_id", allocation.ID),
		zap.String("faculty_id", facultyID))
	return absence, nil
}

// ListAbsences returns the faculty member's reported absences.
func (s *AbsenceService) ListAbsences(ctx context.Context, facultyID string) ([]models.Absence, error) {
	absences, err := s.absences.ListAbsencesByFaculty(ctx, facultyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list absences")
	}
	return absences, nil
}

// RequestMakeup files a pending makeup request. The slot is only
// reserved once an administrator approves it.
func (s *AbsenceService) RequestMakeup(ctx context.Context, req dto.CreateMakeupRequest, facultyID string) (*dto.MakeupResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid makeup payload")
	}
	allocation, err := s.allocs.FindByID(ctx, nil, req.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}
	if allocation.FacultyID == nil || *allocation.FacultyID != facultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "allocation is not assigned to this faculty")
	}
	if req.AbsenceID != nil {
		if _, err := s.absences.FindAbsenceByID(ctx, *req.AbsenceID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "absence not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load absence")
		}
	}
	weekStart, err := parseWeekStart(req.WeekStart)
	if err != nil {
		return nil, err
	}

	makeup := &models.MakeupRequest{
		AbsenceID:    req.AbsenceID,
		AllocationID: allocation.ID,
		FacultyID:    facultyID,
		WeekStart:    weekStart,
		DayOfWeek:    req.DayOfWeek,
		StartHour:    req.StartHour,
		EndHour:      req.EndHour,
		RoomID:       req.RoomID,
	}
	if err := s.absences.CreateMakeup(ctx, makeup); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record makeup request")
	}
	s.logger.Info("makeup requested",
		zap.String("makeup_id", makeup.ID),
		zap.String("allocation_id", allocation.ID),
		zap.String("faculty_id", facultyID))
	return makeupResponse(makeup), nil
}

// ListPending returns undecided makeup requests for review.
func (s *AbsenceService) ListPending(ctx context.Context) ([]dto.MakeupResponse, error) {
	makeups, err := s.absences.ListPendingMakeups(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list makeup requests")
	}
	responses := make([]dto.MakeupResponse, 0, len(makeups))
	for i := range makeups {
		responses = append(responses, *makeupResponse(&makeups[i]))
	}
	return responses, nil
}

// DecideMakeup approves or rejects a pending request. Approval replays
// the proposed slot through the conflict predicate under row locks; a
// collision rejects the decision and the request stays pending.
func (s *AbsenceService) DecideMakeup(ctx context.Context, makeupID string, req dto.DecideMakeupRequest, decidedBy string) (*dto.MakeupResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid decision payload")
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

	makeup, loadErr := s.absences.FindMakeupByID(ctx, tx, makeupID)
	if loadErr != nil {
		if errors.Is(loadErr, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "makeup request not found")
			return nil, err
		}
		err = appErrors.Wrap(loadErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load makeup request")
		return nil, err
	}
	if makeup.Status != models.MakeupStatusPending {
		err = appErrors.Clone(appErrors.ErrConflict, "makeup request already decided")
		return nil, err
	}

	status := models.MakeupStatusRejected
	if req.Approve {
		status = models.MakeupStatusApproved
		if err = s.checkMakeupSlot(ctx, tx, makeup); err != nil {
			return nil, err
		}
	}

	if err = s.absences.UpdateMakeupStatus(ctx, tx, makeup.ID, status, decidedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrConflict, "makeup request already decided")
			return nil, err
		}
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update makeup status")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit makeup decision")
		return nil, err
	}

	makeup.Status = status
	decided := decidedBy
	makeup.DecidedBy = &decided
	s.logger.Info("makeup decided",
		zap.String("makeup_id", makeup.ID),
		zap.String("status", string(status)),
		zap.String("decided_by", decidedBy))
	return makeupResponse(makeup), nil
}

func (s *AbsenceService) checkMakeupSlot(ctx context.Context, tx *sqlx.Tx, makeup *models.MakeupRequest) error {
	allocation, err := s.allocs.FindByID(ctx, tx, makeup.AllocationID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation")
	}
	run, err := s.runs.FindByID(ctx, allocation.RunID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule run")
	}
	if run.Status != models.ScheduleRunStatusLocked {
		return appErrors.Clone(appErrors.ErrLocked, "makeups apply only to the locked schedule")
	}

	// A makeup adds a meeting instead of moving one, so nothing is
	// carved out of the snapshot.
	return s.checker.check(ctx, tx, allocation, makeup.WeekStart, "", makeup.RoomID, makeup.DayOfWeek, makeup.StartHour, makeup.EndHour)
}

func makeupResponse(makeup *models.MakeupRequest) *dto.MakeupResponse {
	return &dto.MakeupResponse{
		MakeupID:     makeup.ID,
		AllocationID: makeup.AllocationID,
		AbsenceID:    makeup.AbsenceID,
		FacultyID:    makeup.FacultyID,
		WeekStart:    makeup.WeekStart.Format("2006-01-02"),
		DayOfWeek:    makeup.DayOfWeek,
		StartHour:    makeup.StartHour,
		EndHour:      makeup.EndHour,
		RoomID:       makeup.RoomID,
		Status:       string(makeup.Status),
	}
}
