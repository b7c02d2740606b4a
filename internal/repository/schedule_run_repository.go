package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/campusplan/scheduler-api/internal/models"
)

// ScheduleRunRepository persists versioned scheduling runs.
type ScheduleRunRepository struct {
	db *sqlx.DB
}

// NewScheduleRunRepository constructs a ScheduleRunRepository.
func NewScheduleRunRepository(db *sqlx.DB) *ScheduleRunRepository {
	return &ScheduleRunRepository{db: db}
}

func (r *ScheduleRunRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const runColumns = `id, term_id, version, status, seed, meta, created_at, updated_at`

// CreateVersioned inserts a run assigning the next version for the term.
func (r *ScheduleRunRepository) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error {
	if run == nil {
		return fmt.Errorf("run payload is nil")
	}
	if run.TermID == "" {
		return fmt.Errorf("term_id is required")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.ScheduleRunStatusDraft
	}
	if len(run.Meta) == 0 {
		run.Meta = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	target := r.exec(exec)

	const nextVersionQuery = `SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_runs WHERE term_id = $1`
	if err := sqlx.GetContext(ctx, target, &run.Version, nextVersionQuery, run.TermID); err != nil {
		return fmt.Errorf("compute next run version: %w", err)
	}

	const insertQuery = `
INSERT INTO schedule_runs (id, term_id, version, status, seed, meta, created_at, updated_at)
VALUES (:id, :term_id, :version, :status, :seed, :meta, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, target, insertQuery, run); err != nil {
		return fmt.Errorf("insert schedule run: %w", err)
	}
	return nil
}

// FindByID loads a run by its identifier.
func (r *ScheduleRunRepository) FindByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_runs WHERE id = $1", runColumns)
	var run models.ScheduleRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		return nil, err
	}
	return &run, nil
}

// FindLockedByTerm returns the currently locked run for a term, if any.
func (r *ScheduleRunRepository) FindLockedByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) (*models.ScheduleRun, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_runs WHERE term_id = $1 AND status = 'LOCKED' LIMIT 1", runColumns)
	var run models.ScheduleRun
	if err := sqlx.GetContext(ctx, r.exec(exec), &run, query, termID); err != nil {
		return nil, err
	}
	return &run, nil
}

// ListByTerm returns all run versions for a term, newest first.
func (r *ScheduleRunRepository) ListByTerm(ctx context.Context, termID string) ([]models.ScheduleRun, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_runs WHERE term_id = $1 ORDER BY version DESC", runColumns)
	var runs []models.ScheduleRun
	if err := r.db.SelectContext(ctx, &runs, query, termID); err != nil {
		return nil, fmt.Errorf("list schedule runs: %w", err)
	}
	return runs, nil
}

// UpdateStatus transitions a run status inside the caller's transaction.
func (r *ScheduleRunRepository) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleRunStatus) error {
	target := r.exec(exec)
	const query = `UPDATE schedule_runs SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := target.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a draft run and cascades to its allocations.
func (r *ScheduleRunRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM schedule_runs WHERE id = $1 AND status = 'DRAFT'", id)
	if err != nil {
		return fmt.Errorf("delete schedule run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
