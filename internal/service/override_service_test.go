package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

func TestOverrideServiceCreateSuccess(t *testing.T) {
	fixture := newOverrideFixture(t)
	fixture.mockBeginCommit()

	resp, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "alloc-1", resp.AllocationID)
	assert.Equal(t, 3, resp.DayOfWeek)
	assert.Len(t, fixture.overrides.created, 1)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestOverrideServiceCreateNormalisesWeekStart(t *testing.T) {
	fixture := newOverrideFixture(t)
	fixture.mockBeginCommit()

	// 2026-09-10 is a Thursday; storage should snap to Monday the 7th.
	resp, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-10",
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "2026-09-07", resp.WeekStart)
}

func TestOverrideServiceCreateRoomConflict(t *testing.T) {
	fixture := newOverrideFixture(t)
	// alloc-2 already holds room-2 on Wednesday 14-16.
	fixture.allocs.items = append(fixture.allocs.items, models.Allocation{
		ID: "alloc-2", RunID: "run-1", TermID: "term-1", SectionID: "sec-2",
		RoomID: "room-2", FacultyID: ptr("fac-2"), BlockType: "LECTURE",
		DayOfWeek: 3, StartHour: 14, EndHour: 16,
	})
	fixture.mockBeginRollback()

	_, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    3,
		StartHour:    15,
		EndHour:      17,
		RoomID:       "room-2",
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	var conflictErr *models.ConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, "alloc-2", conflictErr.Conflict.AllocationID)
	assert.Equal(t, "RUN", conflictErr.Conflict.Source)
	assert.Empty(t, fixture.overrides.created)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestOverrideServiceCreateFacultyConflict(t *testing.T) {
	fixture := newOverrideFixture(t)
	// The same faculty member teaches sec-2 in another room at the target time.
	fixture.allocs.items = append(fixture.allocs.items, models.Allocation{
		ID: "alloc-2", RunID: "run-1", TermID: "term-1", SectionID: "sec-2",
		RoomID: "room-3", FacultyID: ptr("fac-1"), BlockType: "LECTURE",
		DayOfWeek: 3, StartHour: 14, EndHour: 16,
	})
	fixture.mockBeginRollback()

	_, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "admin")
	require.Error(t, err)
	var conflictErr *models.ConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, "fac-1", conflictErr.Conflict.FacultyID)
}

func TestOverrideServiceCreateSkipsOwnAllocation(t *testing.T) {
	// Moving alloc-1 into the slot it already occupies must not collide
	// with itself.
	fixture := newOverrideFixture(t)
	fixture.mockBeginCommit()

	_, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    1,
		StartHour:    8,
		EndHour:      10,
		RoomID:       "room-1",
	}, "admin")
	require.NoError(t, err)
}

func TestOverrideServiceCreateRejectsDraftRun(t *testing.T) {
	fixture := newOverrideFixture(t)
	fixture.runs.run.Status = models.ScheduleRunStatusDraft
	fixture.mockBeginRollback()

	_, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLocked.Code, appErrors.FromError(err).Code)
}

func TestOverrideServiceCreateRejectsInactiveRoom(t *testing.T) {
	fixture := newOverrideFixture(t)
	fixture.rooms.items["room-2"].Status = models.RoomStatusMaintenance
	fixture.mockBeginRollback()

	_, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestOverrideServiceCancel(t *testing.T) {
	fixture := newOverrideFixture(t)
	fixture.overrides.existing = []models.Override{{ID: "ovr-1", AllocationID: "alloc-1", RunID: "run-1"}}

	require.NoError(t, fixture.service.Cancel(context.Background(), "ovr-1"))

	err := fixture.service.Cancel(context.Background(), "ovr-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestOverrideServiceCreateLocksRunBeforeWeekReads(t *testing.T) {
	// The conflict check is only sound if the run's allocations are
	// row-locked inside the transaction before the week state is read
	// and the override inserted.
	fixture := newOverrideFixture(t)
	recorder := &txCallRecorder{}
	fixture.allocs.recorder = recorder
	fixture.overrides.recorder = recorder
	fixture.makeups.recorder = recorder
	fixture.mockBeginCommit()

	_, err := fixture.service.Create(context.Background(), dto.CreateOverrideRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    3,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "admin")
	require.NoError(t, err)

	require.Equal(t, []string{
		"find allocation",
		"lock run allocations",
		"list effective overrides",
		"list approved makeups",
		"create override",
	}, recorder.calls)
	for i, exec := range recorder.execs {
		_, isTx := exec.(*sqlx.Tx)
		assert.True(t, isTx, "call %q ran outside the transaction", recorder.calls[i])
	}
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

// --- Fixtures ---

type overrideFixture struct {
	service   *OverrideService
	overrides *overrideRepoStub
	allocs    *allocationLockerStub
	makeups   *makeupReaderStub
	runs      *runReaderStub
	rooms     *roomReaderStub
	mock      sqlmock.Sqlmock
}

// txCallRecorder tracks the order of repository calls and the executor
// each one received.
type txCallRecorder struct {
	calls []string
	execs []sqlx.ExtContext
}

func (r *txCallRecorder) note(name string, exec sqlx.ExtContext) {
	if r == nil {
		return
	}
	r.calls = append(r.calls, name)
	r.execs = append(r.execs, exec)
}

func (f *overrideFixture) mockBeginCommit() {
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
}

func (f *overrideFixture) mockBeginRollback() {
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()
}

func newOverrideFixture(t *testing.T) *overrideFixture {
	t.Helper()
	txProvider, mock := newTxProviderMock(t)

	allocs := &allocationLockerStub{items: []models.Allocation{{
		ID: "alloc-1", RunID: "run-1", TermID: "term-1", SectionID: "sec-1",
		RoomID: "room-1", FacultyID: ptr("fac-1"), BlockType: "LECTURE",
		DayOfWeek: 1, StartHour: 8, EndHour: 10,
	}}}
	overrides := &overrideRepoStub{}
	makeups := &makeupReaderStub{}
	runs := &runReaderStub{run: &models.ScheduleRun{ID: "run-1", TermID: "term-1", Version: 1, Status: models.ScheduleRunStatusLocked}}
	rooms := &roomReaderStub{items: map[string]*models.Room{
		"room-1": {ID: "room-1", Building: "ENG", Code: "101", Capacity: 40, Status: models.RoomStatusActive},
		"room-2": {ID: "room-2", Building: "ENG", Code: "102", Capacity: 40, Status: models.RoomStatusActive},
		"room-3": {ID: "room-3", Building: "ENG", Code: "103", Capacity: 40, Status: models.RoomStatusActive},
	}}
	sections := &sectionReaderStub{items: map[string]*models.Section{
		"sec-1": {ID: "sec-1", CourseCode: "CS101", StudentCount: 30, LectureHours: 2, TermID: "term-1", FacultyID: ptr("fac-1")},
		"sec-2": {ID: "sec-2", CourseCode: "CS102", StudentCount: 30, LectureHours: 2, TermID: "term-1", FacultyID: ptr("fac-2")},
	}}

	service := NewOverrideService(overrides, allocs, makeups, runs, rooms, sections, nil, txProvider, validator.New(), zap.NewNop())
	return &overrideFixture{
		service:   service,
		overrides: overrides,
		allocs:    allocs,
		makeups:   makeups,
		runs:      runs,
		rooms:     rooms,
		mock:      mock,
	}
}

type overrideRepoStub struct {
	created   []models.Override
	existing  []models.Override
	effective []models.Override
	recorder  *txCallRecorder
}

func (s *overrideRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, override *models.Override) error {
	s.recorder.note("create override", exec)
	override.ID = "ovr-new"
	override.Status = models.OverrideStatusActive
	s.created = append(s.created, *override)
	return nil
}

func (s *overrideRepoStub) ListEffective(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.Override, error) {
	s.recorder.note("list effective overrides", exec)
	return s.effective, nil
}

func (s *overrideRepoStub) List(ctx context.Context, runID, allocationID, status string, weekStart *time.Time, page, size int) ([]models.Override, int, error) {
	return s.existing, len(s.existing), nil
}

func (s *overrideRepoStub) FindByID(ctx context.Context, id string) (*models.Override, error) {
	for i := range s.existing {
		if s.existing[i].ID == id {
			return &s.existing[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *overrideRepoStub) Delete(ctx context.Context, id string) error {
	for i := range s.existing {
		if s.existing[i].ID == id {
			s.existing = append(s.existing[:i], s.existing[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type allocationLockerStub struct {
	items    []models.Allocation
	recorder *txCallRecorder
}

func (s *allocationLockerStub) FindByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.Allocation, error) {
	s.recorder.note("find allocation", exec)
	for i := range s.items {
		if s.items[i].ID == id {
			return &s.items[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *allocationLockerStub) LockByRun(ctx context.Context, exec sqlx.ExtContext, runID string) ([]models.Allocation, error) {
	s.recorder.note("lock run allocations", exec)
	var out []models.Allocation
	for _, item := range s.items {
		if item.RunID == runID {
			out = append(out, item)
		}
	}
	return out, nil
}

type makeupReaderStub struct {
	approved []models.MakeupRequest
	recorder *txCallRecorder
}

func (s *makeupReaderStub) ListApprovedMakeups(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.MakeupRequest, error) {
	s.recorder.note("list approved makeups", exec)
	return s.approved, nil
}

type runReaderStub struct {
	run *models.ScheduleRun
}

func (s *runReaderStub) FindByID(ctx context.Context, id string) (*models.ScheduleRun, error) {
	if s.run == nil || s.run.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.run, nil
}

type roomReaderStub struct {
	items map[string]*models.Room
}

func (s *roomReaderStub) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if room, ok := s.items[id]; ok {
		return room, nil
	}
	return nil, sql.ErrNoRows
}

type sectionReaderStub struct {
	items map[string]*models.Section
}

func (s *sectionReaderStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if section, ok := s.items[id]; ok {
		return section, nil
	}
	return nil, sql.ErrNoRows
}
