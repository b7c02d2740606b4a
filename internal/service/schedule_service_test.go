package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

func TestScheduleServiceQueryResolvesLockedRun(t *testing.T) {
	fixture := newScheduleFixture(t)

	entries, pagination, err := fixture.service.Query(context.Background(), dto.ScheduleQuery{TermID: "term-1"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, "RUN", entries[0].Source)
	assert.Equal(t, 1, pagination.TotalCount)
}

func TestScheduleServiceQueryRequiresTermOrRun(t *testing.T) {
	fixture := newScheduleFixture(t)

	_, _, err := fixture.service.Query(context.Background(), dto.ScheduleQuery{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceQueryMergesWeekOverrides(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.overrides.effective = []models.Override{{
		ID: "ovr-1", AllocationID: "alloc-1", RunID: "run-locked",
		WeekStart: mustDate(t, "2026-09-07"), DayOfWeek: 4, StartHour: 10, EndHour: 12,
		RoomID: "room-9", Status: models.OverrideStatusActive,
	}}

	entries, _, err := fixture.service.Query(context.Background(), dto.ScheduleQuery{
		RunID:     "run-locked",
		WeekStart: "2026-09-07",
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	original := entries[0]
	assert.True(t, original.Overridden)
	assert.Equal(t, "ovr-1", original.OverrideID)
	assert.Equal(t, "RUN", original.Source)

	replacement := entries[1]
	assert.Equal(t, "OVERRIDE", replacement.Source)
	assert.Equal(t, "room-9", replacement.RoomID)
	assert.Equal(t, 4, replacement.DayOfWeek)
	assert.Equal(t, 10, replacement.StartHour)
}

func TestScheduleServiceLockSupersedesPriorRun(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	locked, err := fixture.service.Lock(context.Background(), "run-draft")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleRunStatusLocked, locked.Status)
	assert.Equal(t, models.ScheduleRunStatusSuperseded, fixture.runs.statuses["run-locked"])
	assert.Equal(t, models.ScheduleRunStatusLocked, fixture.runs.statuses["run-draft"])
	assert.Equal(t, "run-locked", fixture.overrides.invalidatedRun)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestScheduleServiceLockIsIdempotent(t *testing.T) {
	fixture := newScheduleFixture(t)

	locked, err := fixture.service.Lock(context.Background(), "run-locked")
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleRunStatusLocked, locked.Status)
	assert.Empty(t, fixture.overrides.invalidatedRun)
}

func TestScheduleServiceLockRejectsSuperseded(t *testing.T) {
	fixture := newScheduleFixture(t)
	fixture.runs.items["run-old"] = &models.ScheduleRun{
		ID: "run-old", TermID: "term-1", Version: 1, Status: models.ScheduleRunStatusSuperseded,
	}

	_, err := fixture.service.Lock(context.Background(), "run-old")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestScheduleServiceDeleteDraftOnly(t *testing.T) {
	fixture := newScheduleFixture(t)

	require.NoError(t, fixture.service.DeleteDraft(context.Background(), "run-draft"))

	err := fixture.service.DeleteDraft(context.Background(), "run-locked")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestParseWeekStartSnapsToMonday(t *testing.T) {
	cases := map[string]string{
		"2026-09-07": "2026-09-07", // Monday stays put
		"2026-09-09": "2026-09-07", // Wednesday
		"2026-09-13": "2026-09-07", // Sunday belongs to the prior Monday
	}
	for input, want := range cases {
		got, err := parseWeekStart(input)
		require.NoError(t, err)
		assert.Equal(t, want, got.Format("2006-01-02"), "input %s", input)
	}

	_, err := parseWeekStart("not-a-date")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type scheduleFixture struct {
	service   *ScheduleService
	runs      *runRepoStub
	overrides *overrideReaderStub
	mock      sqlmock.Sqlmock
}

func newScheduleFixture(t *testing.T) *scheduleFixture {
	t.Helper()
	txProvider, mock := newTxProviderMock(t)

	runs := &runRepoStub{
		items: map[string]*models.ScheduleRun{
			"run-draft":  {ID: "run-draft", TermID: "term-1", Version: 2, Status: models.ScheduleRunStatusDraft},
			"run-locked": {ID: "run-locked", TermID: "term-1", Version: 1, Status: models.ScheduleRunStatusLocked},
		},
		statuses: map[string]models.ScheduleRunStatus{},
	}
	allocs := &allocationReaderStub{items: []models.Allocation{{
		ID: "alloc-1", RunID: "run-locked", TermID: "term-1", SectionID: "sec-1",
		RoomID: "room-1", FacultyID: ptr("fac-1"), BlockType: "LECTURE",
		DayOfWeek: 1, StartHour: 8, EndHour: 10,
	}}}
	overrides := &overrideReaderStub{}

	service := NewScheduleService(runs, allocs, overrides, nil, txProvider, zap.NewNop(), time.Minute)
	return &scheduleFixture{service: service, runs: runs, overrides: overrides, mock: mock}
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

type runRepoStub struct {
	items    map[string]*models.ScheduleRun
	statuses map[string]models.ScheduleRunStatus
}

func (s *runRepoStub) FindByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	if run, ok := s.items[id]; ok {
		copied := *run
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *runRepoStub) FindLockedByTerm(ctx context.Context, exec sqlx.ExtContext, termID string) (*models.ScheduleRun, error) {
	for _, run := range s.items {
		if run.TermID == termID && run.Status == models.ScheduleRunStatusLocked {
			copied := *run
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *runRepoStub) ListByTerm(ctx context.Context, termID string) ([]models.ScheduleRun, error) {
	var out []models.ScheduleRun
	for _, run := range s.items {
		if run.TermID == termID {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (s *runRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleRunStatus) error {
	run, ok := s.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	run.Status = status
	s.statuses[id] = status
	return nil
}

func (s *runRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

type allocationReaderStub struct {
	items []models.Allocation
}

func (s *allocationReaderStub) List(ctx context.Context, filter models.AllocationFilter) ([]models.Allocation, int, error) {
	var out []models.Allocation
	for _, item := range s.items {
		if filter.RunID != "" && item.RunID != filter.RunID {
			continue
		}
		out = append(out, item)
	}
	return out, len(out), nil
}

func (s *allocationReaderStub) ListByRun(ctx context.Context, exec sqlx.ExtContext, runID string) ([]models.Allocation, error) {
	out, _, err := s.List(ctx, models.AllocationFilter{RunID: runID})
	return out, err
}

type overrideReaderStub struct {
	effective      []models.Override
	invalidatedRun string
}

func (s *overrideReaderStub) ListEffective(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.Override, error) {
	return s.effective, nil
}

func (s *overrideReaderStub) InvalidateByRun(ctx context.Context, exec sqlx.ExtContext, runID string) (int64, error) {
	s.invalidatedRun = runID
	return int64(len(s.effective)), nil
}
