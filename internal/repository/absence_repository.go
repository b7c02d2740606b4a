package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusplan/scheduler-api/internal/models"
)

// AbsenceRepository persists faculty absences and makeup requests.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs an AbsenceRepository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

func (r *AbsenceRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const absenceColumns = `id, allocation_id, faculty_id, date, reason, status, created_at`
const makeupColumns = `id, absence_id, allocation_id, faculty_id, week_start, day_of_week, start_hour, end_hour, room_id, status, decided_by, created_at, updated_at`

// CreateAbsence records a reported absence.
func (r *AbsenceRepository) CreateAbsence(ctx context.Context, absence *models.Absence) error {
	if absence.ID == "" {
		absence.ID = uuid.NewString()
	}
	if absence.Status == "" {
		absence.Status = models.AbsenceStatusReported
	}
	absence.CreatedAt = time.Now().UTC()

	const query = `
INSERT INTO absences (id, allocation_id, faculty_id, date, reason, status, created_at)
VALUES (:id, :allocation_id, :faculty_id, :date, :reason, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, absence); err != nil {
		return fmt.Errorf("insert absence: %w", err)
	}
	return nil
}

// FindAbsenceByID fetches one absence.
func (r *AbsenceRepository) FindAbsenceByID(ctx context.Context, id string) (*models.Absence, error) {
	query := fmt.Sprintf("SELECT %s FROM absences WHERE id = $1", absenceColumns)
	var absence models.Absence
	if err := r.db.GetContext(ctx, &absence, query, id); err != nil {
		return nil, err
	}
	return &absence, nil
}

// ListAbsencesByFaculty returns a faculty member's absences, newest first.
func (r *AbsenceRepository) ListAbsencesByFaculty(ctx context.Context, facultyID string) ([]models.Absence, error) {
	query := fmt.Sprintf("SELECT %s FROM absences WHERE faculty_id = $1 ORDER BY date DESC", absenceColumns)
	var absences []models.Absence
	if err := r.db.SelectContext(ctx, &absences, query, facultyID); err != nil {
		return nil, fmt.Errorf("list faculty absences: %w", err)
	}
	return absences, nil
}

// CreateMakeup records a pending makeup request.
func (r *AbsenceRepository) CreateMakeup(ctx context.Context, makeup *models.MakeupRequest) error {
	if makeup.ID == "" {
		makeup.ID = uuid.NewString()
	}
	if makeup.Status == "" {
		makeup.Status = models.MakeupStatusPending
	}
	now := time.Now().UTC()
	makeup.CreatedAt = now
	makeup.UpdatedAt = now

	const query = `
INSERT INTO makeup_requests (id, absence_id, allocation_id, faculty_id, week_start, day_of_week, start_hour, end_hour, room_id, status, decided_by, created_at, updated_at)
VALUES (:id, :absence_id, :allocation_id, :faculty_id, :week_start, :day_of_week, :start_hour, :end_hour, :room_id, :status, :decided_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, makeup); err != nil {
		return fmt.Errorf("insert makeup request: %w", err)
	}
	return nil
}

// FindMakeupByID fetches one makeup request.
func (r *AbsenceRepository) FindMakeupByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.MakeupRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM makeup_requests WHERE id = $1", makeupColumns)
	var makeup models.MakeupRequest
	if err := sqlx.GetContext(ctx, r.exec(exec), &makeup, query, id); err != nil {
		return nil, err
	}
	return &makeup, nil
}

// ListPendingMakeups returns undecided makeup requests, oldest first.
func (r *AbsenceRepository) ListPendingMakeups(ctx context.Context) ([]models.MakeupRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM makeup_requests WHERE status = 'PENDING' ORDER BY created_at", makeupColumns)
	var makeups []models.MakeupRequest
	if err := r.db.SelectContext(ctx, &makeups, query); err != nil {
		return nil, fmt.Errorf("list pending makeups: %w", err)
	}
	return makeups, nil
}

// ListApprovedMakeups returns APPROVED makeups for a run and week so the
// conflict checker can treat them as occupied slots.
func (r *AbsenceRepository) ListApprovedMakeups(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.MakeupRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM makeup_requests
WHERE status = 'APPROVED' AND week_start = $2
AND allocation_id IN (SELECT id FROM allocations WHERE run_id = $1)
ORDER BY created_at`, makeupColumns)
	var makeups []models.MakeupRequest
	if err := sqlx.SelectContext(ctx, r.exec(exec), &makeups, query, runID, weekStart); err != nil {
		return nil, fmt.Errorf("list approved makeups: %w", err)
	}
	return makeups, nil
}

// UpdateMakeupStatus decides a pending makeup inside the caller's transaction.
func (r *AbsenceRepository) UpdateMakeupStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.MakeupStatus, decidedBy string) error {
	const query = `UPDATE makeup_requests SET status = $1, decided_by = $2, updated_at = $3 WHERE id = $4 AND status = 'PENDING'`
	result, err := r.exec(exec).ExecContext(ctx, query, status, decidedBy, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update makeup status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("makeup rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
