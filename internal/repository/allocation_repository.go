package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusplan/scheduler-api/internal/models"
)

// AllocationRepository persists the room/time assignments of a run.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs an AllocationRepository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

func (r *AllocationRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const allocationColumns = `id, run_id, term_id, section_id, room_id, faculty_id, block_type, day_of_week, start_hour, end_hour, created_at`

// BulkInsert stores all allocations of a run inside the caller's transaction.
func (r *AllocationRepository) BulkInsert(ctx context.Context, exec sqlx.ExtContext, allocations []models.Allocation) error {
	if len(allocations) == 0 {
		return nil
	}
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
INSERT INTO allocations (id, run_id, term_id, section_id, room_id, faculty_id, block_type, day_of_week, start_hour, end_hour, created_at)
VALUES (:id, :run_id, :term_id, :section_id, :room_id, :faculty_id, :block_type, :day_of_week, :start_hour, :end_hour, :created_at)`
	for i := range allocations {
		if allocations[i].ID == "" {
			allocations[i].ID = uuid.NewString()
		}
		allocations[i].CreatedAt = now
		if _, err := sqlx.NamedExecContext(ctx, target, query, allocations[i]); err != nil {
			return fmt.Errorf("insert allocation: %w", err)
		}
	}
	return nil
}

// List returns allocations matching filters along with total count.
func (r *AllocationRepository) List(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, int, error) {
	base := "FROM allocations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RunID != "" {
		conditions = append(conditions, fmt.Sprintf("run_id = $%d", len(args)+1))
		args = append(args, filter.RunID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, fmt.Sprintf("room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.FacultyID != "" {
		conditions = append(conditions, fmt.Sprintf("faculty_id = $%d", len(args)+1))
		args = append(args, filter.FacultyID)
	}
	if filter.SectionID != "" {
		conditions = append(conditions, fmt.Sprintf("section_id = $%d", len(args)+1))
		args = append(args, filter.SectionID)
	}
	if filter.DayOfWeek > 0 {
		conditions = append(conditions, fmt.Sprintf("day_of_week = $%d", len(args)+1))
		args = append(args, filter.DayOfWeek)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY day_of_week, start_hour, room_id LIMIT %d OFFSET %d", allocationColumns, base, size, offset)
	var allocations []models.Allocation
	if err := r.db.SelectContext(ctx, &allocations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list allocations: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count allocations: %w", err)
	}

	return allocations, total, nil
}

// ListByRun returns every allocation of a run in grid order.
func (r *AllocationRepository) ListByRun(ctx context.Context, exec sqlx.ExtContext, runID string) ([]models.Allocation, error) {
	query := fmt.Sprintf("SELECT %s FROM allocations WHERE run_id = $1 ORDER BY day_of_week, start_hour, room_id", allocationColumns)
	var allocations []models.Allocation
	if err := sqlx.SelectContext(ctx, r.exec(exec), &allocations, query, runID); err != nil {
		return nil, fmt.Errorf("list run allocations: %w", err)
	}
	return allocations, nil
}

// FindByID fetches one allocation.
func (r *AllocationRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Allocation, error) {
	query := fmt.Sprintf("SELECT %s FROM allocations WHERE id = $1", allocationColumns)
	var allocation models.Allocation
	if err := sqlx.GetContext(ctx, r.exec(exec), &allocation, query, id); err != nil {
		return nil, err
	}
	return &allocation, nil
}

// LockByRun acquires row locks on a run's allocations so override
// validation and insert observe a stable schedule snapshot.
func (r *AllocationRepository) LockByRun(ctx context.Context, exec sqlx.ExtContext, runID string) ([]models.Allocation, error) {
	query := fmt.Sprintf("SELECT %s FROM allocations WHERE run_id = $1 ORDER BY id FOR UPDATE", allocationColumns)
	var allocations []models.Allocation
	if err := sqlx.SelectContext(ctx, r.exec(exec), &allocations, query, runID); err != nil {
		return nil, fmt.Errorf("lock run allocations: %w", err)
	}
	return allocations, nil
}
