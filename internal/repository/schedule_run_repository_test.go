package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/scheduler-api/internal/models"
)

func newScheduleRunRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRunRepositoryCreateVersioned(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewScheduleRunRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(version), 0) + 1 FROM schedule_runs WHERE term_id = $1")).
		WithArgs("term-1").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedule_runs")).
		WithArgs(sqlmock.AnyArg(), "term-1", 3, string(models.ScheduleRunStatusDraft), int64(42), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.ScheduleRun{
		TermID: "term-1",
		Seed:   42,
		Meta:   types.JSONText(`{"penalty":1.5}`),
	}
	err := repo.CreateVersioned(context.Background(), nil, payload)
	require.NoError(t, err)
	assert.Equal(t, 3, payload.Version)
	assert.NotEmpty(t, payload.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRunRepositoryFindLockedByTerm(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewScheduleRunRepository(db)

	rows := sqlmock.NewRows([]string{"id", "term_id", "version", "status", "seed", "meta", "created_at", "updated_at"}).
		AddRow("run-1", "term-1", 2, string(models.ScheduleRunStatusLocked), int64(7), types.JSONText(`{}`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM schedule_runs WHERE term_id = $1 AND status = 'LOCKED' LIMIT 1")).
		WithArgs("term-1").
		WillReturnRows(rows)

	run, err := repo.FindLockedByTerm(context.Background(), nil, "term-1")
	require.NoError(t, err)
	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, models.ScheduleRunStatusLocked, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRunRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewScheduleRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_runs SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.ScheduleRunStatusSuperseded), sqlmock.AnyArg(), "run-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), nil, "run-missing", models.ScheduleRunStatusSuperseded)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRunRepositoryDeleteGuardsStatus(t *testing.T) {
	db, mock, cleanup := newScheduleRunRepoMock(t)
	defer cleanup()
	repo := NewScheduleRunRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_runs WHERE id = $1 AND status = 'DRAFT'")).
		WithArgs("run-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "run-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
