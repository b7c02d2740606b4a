package service

import (
	"context"
	"database/sql"
	"fmt"
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

func TestScheduleGeneratorServiceGenerateSuccess(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:    "term-1",
		StartHour: 7,
		EndHour:   19,
		Days:      []int{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	assert.NotEmpty(t, resp.ProposalID)
	assert.Len(t, resp.Placements, 2)
	assert.Empty(t, resp.Unplaced)
	for _, p := range resp.Placements {
		assert.GreaterOrEqual(t, p.StartHour, 7)
		assert.LessOrEqual(t, p.EndHour, 19)
	}
}

func TestScheduleGeneratorServiceGenerateNoSections(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{noSections: true})

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:    "term-1",
		StartHour: 7,
		EndHour:   19,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceGenerateDeterministicSeed(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})
	seed := int64(42)
	req := dto.GenerateScheduleRequest{
		TermID:    "term-1",
		StartHour: 7,
		EndHour:   19,
		Seed:      &seed,
	}

	first, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	second, err := service.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, seed, first.Stats.Seed)
}

func TestScheduleGeneratorServiceGenerateSubsetFilters(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:             "term-1",
		StartHour:          7,
		EndHour:            19,
		IncludedSectionIDs: []string{"sec-2"},
		IncludedRoomIDs:    []string{"room-2"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	require.Len(t, resp.Placements, 1)
	assert.Equal(t, "sec-2", resp.Placements[0].SectionID)
	assert.Equal(t, "room-2", resp.Placements[0].RoomID)
}

func TestScheduleGeneratorServiceGenerateSubsetWithoutMatches(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:             "term-1",
		StartHour:          7,
		EndHour:            19,
		IncludedSectionIDs: []string{"sec-other-term"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:          "term-1",
		StartHour:       7,
		EndHour:         19,
		IncludedRoomIDs: []string{"room-demolished"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceSaveDraft(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	runs := &runWriterStub{}
	allocs := &allocationWriterStub{}
	service := newGeneratorFixture(t, generatorFixtureConfig{tx: txProvider, runs: runs, allocs: allocs})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:    "term-1",
		StartHour: 7,
		EndHour:   19,
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	saved, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.NoError(t, err)
	assert.Equal(t, "term-1", saved.TermID)
	assert.Equal(t, models.ScheduleRunStatusDraft, models.ScheduleRunStatus(saved.Status))
	assert.Equal(t, len(resp.Placements), saved.Allocations)
	assert.Len(t, allocs.inserted, len(resp.Placements))
	assert.NoError(t, mock.ExpectationsWereMet())

	// A saved proposal is consumed.
	_, err = service.GetProposal(resp.ProposalID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestScheduleGeneratorServiceSaveRejectsIncomplete(t *testing.T) {
	txProvider, mock := newTxProviderMock(t)
	service := newGeneratorFixture(t, generatorFixtureConfig{tx: txProvider, oversubscribed: true})

	resp, err := service.Generate(context.Background(), dto.GenerateScheduleRequest{
		TermID:    "term-1",
		StartHour: 8,
		EndHour:   10,
		Days:      []int{1},
	})
	require.NoError(t, err)
	require.False(t, resp.Complete)
	require.NotEmpty(t, resp.Unplaced)

	_, err = service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnplaceable.Code, appErrors.FromError(err).Code)

	// Partial saves are an explicit opt-in.
	mock.ExpectBegin()
	mock.ExpectCommit()
	saved, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: resp.ProposalID, AllowPartial: true})
	require.NoError(t, err)
	assert.Greater(t, saved.Allocations, 0)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleGeneratorServiceSaveUnknownProposal(t *testing.T) {
	service := newGeneratorFixture(t, generatorFixtureConfig{})

	_, err := service.Save(context.Background(), dto.SaveScheduleRequest{ProposalID: "missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type generatorFixtureConfig struct {
	noSections     bool
	oversubscribed bool
	tx             txProvider
	runs           scheduleRunWriter
	allocs         allocationWriter
}

func newGeneratorFixture(t *testing.T, cfg generatorFixtureConfig) *ScheduleGeneratorService {
	t.Helper()

	rooms := roomCatalogStub{rooms: []models.Room{
		{ID: "room-1", Building: "ENG", Code: "101", Capacity: 40, Status: models.RoomStatusActive},
		{ID: "room-2", Building: "ENG", Code: "102", Capacity: 40, Status: models.RoomStatusActive},
	}}
	sections := sectionCatalogStub{sections: []models.Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 30, LectureHours: 2, TermID: "term-1", FacultyID: ptr("fac-1")},
		{ID: "sec-2", CourseCode: "CS102", StudentCount: 30, LectureHours: 2, TermID: "term-1", FacultyID: ptr("fac-2")},
	}}
	if cfg.noSections {
		sections.sections = nil
	}
	if cfg.oversubscribed {
		// One room, one day, a two-hour window: only one of the two
		// sections can land.
		rooms.rooms = rooms.rooms[:1]
	}
	faculty := facultyCatalogStub{faculty: []models.Faculty{
		{ID: "fac-1", FullName: "A. Turing", MaxWeeklyHours: 20, Active: true},
		{ID: "fac-2", FullName: "G. Hopper", MaxWeeklyHours: 20, Active: true},
	}}

	runs := cfg.runs
	if runs == nil {
		runs = &runWriterStub{}
	}
	allocs := cfg.allocs
	if allocs == nil {
		allocs = &allocationWriterStub{}
	}
	tx := cfg.tx
	if tx == nil {
		tx = noopTxProvider{}
	}

	return NewScheduleGeneratorService(
		rooms,
		sections,
		faculty,
		runs,
		allocs,
		tx,
		nil,
		validator.New(),
		zap.NewNop(),
		EngineTuning{ProposalTTL: time.Hour, IterationBudget: 500},
	)
}

func ptr(v string) *string { return &v }

type roomCatalogStub struct {
	rooms []models.Room
}

func (s roomCatalogStub) ListActive(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type sectionCatalogStub struct {
	sections []models.Section
}

func (s sectionCatalogStub) ListByTerm(ctx context.Context, termID string) ([]models.Section, error) {
	return s.sections, nil
}

type facultyCatalogStub struct {
	faculty []models.Faculty
}

func (s facultyCatalogStub) ListActive(ctx context.Context) ([]models.Faculty, error) {
	return s.faculty, nil
}

type runWriterStub struct {
	created []models.ScheduleRun
}

func (s *runWriterStub) CreateVersioned(ctx context.Context, exec sqlx.ExtContext, run *models.ScheduleRun) error {
	run.ID = fmt.Sprintf("run-%d", len(s.created)+1)
	run.Version = len(s.created) + 1
	s.created = append(s.created, *run)
	return nil
}

type allocationWriterStub struct {
	inserted []models.Allocation
}

func (s *allocationWriterStub) BulkInsert(ctx context.Context, exec sqlx.ExtContext, allocations []models.Allocation) error {
	s.inserted = append(s.inserted, allocations...)
	return nil
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type txProviderMock struct {
	db *sqlx.DB
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}
