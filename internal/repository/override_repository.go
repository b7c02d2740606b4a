package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusplan/scheduler-api/internal/models"
)

// OverrideRepository persists weekly overrides on locked allocations.
type OverrideRepository struct {
	db *sqlx.DB
}

// NewOverrideRepository constructs an OverrideRepository.
func NewOverrideRepository(db *sqlx.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const overrideColumns = `id, allocation_id, run_id, week_start, day_of_week, start_hour, end_hour, room_id, permanent, status, requested_by, created_at, updated_at`

// Create inserts an override inside the caller's transaction.
func (r *OverrideRepository) Create(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error {
	if override == nil {
		return fmt.Errorf("override payload is nil")
	}
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	if override.Status == "" {
		override.Status = models.OverrideStatusActive
	}
	now := time.Now().UTC()
	override.CreatedAt = now
	override.UpdatedAt = now

	const query = `
INSERT INTO overrides (id, allocation_id, run_id, week_start, day_of_week, start_hour, end_hour, room_id, permanent, status, requested_by, created_at, updated_at)
VALUES (:id, :allocation_id, :run_id, :week_start, :day_of_week, :start_hour, :end_hour, :room_id, :permanent, :status, :requested_by, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, r.exec(exec), query, override); err != nil {
		return fmt.Errorf("insert override: %w", err)
	}
	return nil
}

// ListEffective returns ACTIVE overrides applying to the given run and
// week: the week's own overrides plus permanent ones from prior weeks.
func (r *OverrideRepository) ListEffective(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.Override, error) {
	query := fmt.Sprintf(`SELECT %s FROM overrides
WHERE run_id = $1 AND status = 'ACTIVE' AND (week_start = $2 OR (permanent = TRUE AND week_start <= $2))
ORDER BY created_at`, overrideColumns)
	var overrides []models.Override
	if err := sqlx.SelectContext(ctx, r.exec(exec), &overrides, query, runID, weekStart); err != nil {
		return nil, fmt.Errorf("list effective overrides: %w", err)
	}
	return overrides, nil
}

// List returns overrides matching filters along with total count.
func (r *OverrideRepository) List(ctx context.Context, runID, allocationID, status string, weekStart *time.Time, page, size int) ([]models.Override, int, error) {
	base := "FROM overrides WHERE 1=1"
	var conditions []string
	var args []interface{}

	if runID != "" {
		conditions = append(conditions, fmt.Sprintf("run_id = $%d", len(args)+1))
		args = append(args, runID)
	}
	if allocationID != "" {
		conditions = append(conditions, fmt.Sprintf("allocation_id = $%d", len(args)+1))
		args = append(args, allocationID)
	}
	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, status)
	}
	if weekStart != nil {
		conditions = append(conditions, fmt.Sprintf("week_start = $%d", len(args)+1))
		args = append(args, *weekStart)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", overrideColumns, base, size, offset)
	var overrides []models.Override
	if err := r.db.SelectContext(ctx, &overrides, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list overrides: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count overrides: %w", err)
	}

	return overrides, total, nil
}

// FindByID fetches one override.
func (r *OverrideRepository) FindByID(ctx context.Context, id string) (*models.Override, error) {
	query := fmt.Sprintf("SELECT %s FROM overrides WHERE id = $1", overrideColumns)
	var override models.Override
	if err := r.db.GetContext(ctx, &override, query, id); err != nil {
		return nil, err
	}
	return &override, nil
}

// InvalidateByRun marks every ACTIVE override of a run INVALIDATED.
// Called when the run is superseded by a newer locked run.
func (r *OverrideRepository) InvalidateByRun(ctx context.Context, exec sqlx.ExtContext, runID string) (int64, error) {
	const query = `UPDATE overrides SET status = 'INVALIDATED', updated_at = $1 WHERE run_id = $2 AND status = 'ACTIVE'`
	result, err := r.exec(exec).ExecContext(ctx, query, time.Now().UTC(), runID)
	if err != nil {
		return 0, fmt.Errorf("invalidate run overrides: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("override rows affected: %w", err)
	}
	return affected, nil
}

// Delete cancels an override.
func (r *OverrideRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM overrides WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("override rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
