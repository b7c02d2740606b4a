package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/scheduler-api/internal/models"
)

func newOverrideRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOverrideRepositoryCreateDefaultsStatus(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO overrides")).
		WithArgs(sqlmock.AnyArg(), "alloc-1", "run-1", sqlmock.AnyArg(), 3, 14, 16, "room-2", false, string(models.OverrideStatusActive), "admin", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	override := &models.Override{
		AllocationID: "alloc-1",
		RunID:        "run-1",
		WeekStart:    time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC),
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
		RequestedBy:  "admin",
	}
	err := repo.Create(context.Background(), nil, override)
	require.NoError(t, err)
	assert.NotEmpty(t, override.ID)
	assert.Equal(t, models.OverrideStatusActive, override.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryListEffectiveIncludesPermanent(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	weekStart := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "allocation_id", "run_id", "week_start", "day_of_week", "start_hour", "end_hour", "room_id", "permanent", "status", "requested_by", "created_at", "updated_at"}).
		AddRow("ovr-1", "alloc-1", "run-1", weekStart, 3, 14, 16, "room-2", false, string(models.OverrideStatusActive), "admin", time.Now(), time.Now()).
		AddRow("ovr-2", "alloc-2", "run-1", weekStart.AddDate(0, 0, -7), 2, 9, 11, "room-3", true, string(models.OverrideStatusActive), "admin", time.Now(), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE run_id = $1 AND status = 'ACTIVE' AND (week_start = $2 OR (permanent = TRUE AND week_start <= $2))")).
		WithArgs("run-1", weekStart).
		WillReturnRows(rows)

	overrides, err := repo.ListEffective(context.Background(), nil, "run-1", weekStart)
	require.NoError(t, err)
	require.Len(t, overrides, 2)
	assert.True(t, overrides[1].Permanent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOverrideRepositoryInvalidateByRun(t *testing.T) {
	db, mock, cleanup := newOverrideRepoMock(t)
	defer cleanup()
	repo := NewOverrideRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE overrides SET status = 'INVALIDATED', updated_at = $1 WHERE run_id = $2 AND status = 'ACTIVE'")).
		WithArgs(sqlmock.AnyArg(), "run-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := repo.InvalidateByRun(context.Background(), nil, "run-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
