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

func TestAbsenceServiceReportAbsence(t *testing.T) {
	fixture := newAbsenceFixture(t)

	absence, err := fixture.service.ReportAbsence(context.Background(), dto.ReportAbsenceRequest{
		AllocationID: "alloc-1",
		Date:         "2026-09-09",
		Reason:       "conference travel",
	}, "fac-1")
	require.NoError(t, err)
	assert.Equal(t, "fac-1", absence.FacultyID)
	assert.Len(t, fixture.absences.absences, 1)
}

func TestAbsenceServiceReportAbsenceRejectsForeignAllocation(t *testing.T) {
	fixture := newAbsenceFixture(t)

	_, err := fixture.service.ReportAbsence(context.Background(), dto.ReportAbsenceRequest{
		AllocationID: "alloc-1",
		Date:         "2026-09-09",
	}, "fac-other")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAbsenceServiceRequestMakeup(t *testing.T) {
	fixture := newAbsenceFixture(t)

	resp, err := fixture.service.RequestMakeup(context.Background(), dto.CreateMakeupRequest{
		AllocationID: "alloc-1",
		WeekStart:    "2026-09-07",
		DayOfWeek:    5,
		StartHour:    14,
		EndHour:      16,
		RoomID:       "room-2",
	}, "fac-1")
	require.NoError(t, err)
	assert.Equal(t, string(models.MakeupStatusPending), resp.Status)
}

func TestAbsenceServiceDecideMakeupApprove(t *testing.T) {
	fixture := newAbsenceFixture(t)
	fixture.absences.makeups = []models.MakeupRequest{{
		ID: "mk-1", AllocationID: "alloc-1", FacultyID: "fac-1",
		WeekStart: mustDate(t, "2026-09-07"), DayOfWeek: 5, StartHour: 14, EndHour: 16,
		RoomID: "room-2", Status: models.MakeupStatusPending,
	}}
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	resp, err := fixture.service.DecideMakeup(context.Background(), "mk-1", dto.DecideMakeupRequest{Approve: true}, "admin")
	require.NoError(t, err)
	assert.Equal(t, string(models.MakeupStatusApproved), resp.Status)
	assert.Equal(t, models.MakeupStatusApproved, fixture.absences.makeups[0].Status)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestAbsenceServiceDecideMakeupApproveConflict(t *testing.T) {
	fixture := newAbsenceFixture(t)
	// The requested slot collides with alloc-2 already sitting in room-2
	// on Friday afternoon.
	fixture.allocs.items = append(fixture.allocs.items, models.Allocation{
		ID: "alloc-2", RunID: "run-1", TermID: "term-1", SectionID: "sec-2",
		RoomID: "room-2", FacultyID: ptr("fac-2"), BlockType: "LECTURE",
		DayOfWeek: 5, StartHour: 15, EndHour: 17,
	})
	fixture.absences.makeups = []models.MakeupRequest{{
		ID: "mk-1", AllocationID: "alloc-1", FacultyID: "fac-1",
		WeekStart: mustDate(t, "2026-09-07"), DayOfWeek: 5, StartHour: 14, EndHour: 16,
		RoomID: "room-2", Status: models.MakeupStatusPending,
	}}
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectRollback()

	_, err := fixture.service.DecideMakeup(context.Background(), "mk-1", dto.DecideMakeupRequest{Approve: true}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.MakeupStatusPending, fixture.absences.makeups[0].Status, "a rejected decision leaves the request pending")
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestAbsenceServiceDecideMakeupFacultyDoubleBooked(t *testing.T) {
	fixture := newAbsenceFixture(t)
	// fac-1 already teaches alloc-1 Monday 8-10; a makeup in a free room
	// at the same time still double-books the faculty member.
	fixture.absences.makeups = []models.MakeupRequest{{
		ID: "mk-1", AllocationID: "alloc-1", FacultyID: "fac-1",
		WeekStart: mustDate(t, "2026-09-07"), DayOfWeek: 1, StartHour: 9, EndHour: 11,
		RoomID: "room-2", Status: models.MakeupStatusPending,
	}}
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectRollback()

	_, err := fixture.service.DecideMakeup(context.Background(), "mk-1", dto.DecideMakeupRequest{Approve: true}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.MakeupStatusPending, fixture.absences.makeups[0].Status)
}

func TestAbsenceServiceDecideMakeupReject(t *testing.T) {
	fixture := newAbsenceFixture(t)
	// Rejection skips the conflict check entirely, so even a colliding
	// slot can be declined.
	fixture.allocs.items = append(fixture.allocs.items, models.Allocation{
		ID: "alloc-2", RunID: "run-1", TermID: "term-1", SectionID: "sec-2",
		RoomID: "room-2", FacultyID: ptr("fac-2"), BlockType: "LECTURE",
		DayOfWeek: 5, StartHour: 14, EndHour: 16,
	})
	fixture.absences.makeups = []models.MakeupRequest{{
		ID: "mk-1", AllocationID: "alloc-1", FacultyID: "fac-1",
		WeekStart: mustDate(t, "2026-09-07"), DayOfWeek: 5, StartHour: 14, EndHour: 16,
		RoomID: "room-2", Status: models.MakeupStatusPending,
	}}
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	resp, err := fixture.service.DecideMakeup(context.Background(), "mk-1", dto.DecideMakeupRequest{Approve: false}, "admin")
	require.NoError(t, err)
	assert.Equal(t, string(models.MakeupStatusRejected), resp.Status)
}

func TestAbsenceServiceDecideMakeupAlreadyDecided(t *testing.T) {
	fixture := newAbsenceFixture(t)
	fixture.absences.makeups = []models.MakeupRequest{{
		ID: "mk-1", AllocationID: "alloc-1", FacultyID: "fac-1",
		WeekStart: mustDate(t, "2026-09-07"), DayOfWeek: 5, StartHour: 14, EndHour: 16,
		RoomID: "room-2", Status: models.MakeupStatusApproved,
	}}
	fixture.mock.ExpectBegin()
	fixture.mock.ExpectRollback()

	_, err := fixture.service.DecideMakeup(context.Background(), "mk-1", dto.DecideMakeupRequest{Approve: true}, "admin")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

// --- Fixtures ---

type absenceFixture struct {
	service  *AbsenceService
	absences *absenceRepoStub
	allocs   *allocationLockerStub
	mock     sqlmock.Sqlmock
}

func newAbsenceFixture(t *testing.T) *absenceFixture {
	t.Helper()
	txProvider, mock := newTxProviderMock(t)

	absences := &absenceRepoStub{}
	allocs := &allocationLockerStub{items: []models.Allocation{{
		ID: "alloc-1", RunID: "run-1", TermID: "term-1", SectionID: "sec-1",
		RoomID: "room-1", FacultyID: ptr("fac-1"), BlockType: "LECTURE",
		DayOfWeek: 1, StartHour: 8, EndHour: 10,
	}}}
	overrides := &overrideRepoStub{}
	runs := &runReaderStub{run: &models.ScheduleRun{ID: "run-1", TermID: "term-1", Version: 1, Status: models.ScheduleRunStatusLocked}}
	rooms := &roomReaderStub{items: map[string]*models.Room{
		"room-1": {ID: "room-1", Building: "ENG", Code: "101", Capacity: 40, Status: models.RoomStatusActive},
		"room-2": {ID: "room-2", Building: "ENG", Code: "102", Capacity: 40, Status: models.RoomStatusActive},
	}}
	sections := &sectionReaderStub{items: map[string]*models.Section{
		"sec-1": {ID: "sec-1", CourseCode: "CS101", StudentCount: 30, LectureHours: 2, TermID: "term-1", FacultyID: ptr("fac-1")},
		"sec-2": {ID: "sec-2", CourseCode: "CS102", StudentCount: 30, LectureHours: 2, TermID: "term-1", FacultyID: ptr("fac-2")},
	}}

	service := NewAbsenceService(absences, allocs, overrides, runs, rooms, sections, txProvider, validator.New(), zap.NewNop())
	return &absenceFixture{service: service, absences: absences, allocs: allocs, mock: mock}
}

type absenceRepoStub struct {
	absences []models.Absence
	makeups  []models.MakeupRequest
}

func (s *absenceRepoStub) CreateAbsence(ctx context.Context, absence *models.Absence) error {
	absence.ID = fmt.Sprintf("abs-%d", len(s.absences)+1)
	absence.Status = models.AbsenceStatusReported
	s.absences = append(s.absences, *absence)
	return nil
}

func (s *absenceRepoStub) FindAbsenceByID(ctx context.Context, id string) (*models.Absence, error) {
	for i := range s.absences {
		if s.absences[i].ID == id {
			return &s.absences[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *absenceRepoStub) ListAbsencesByFaculty(ctx context.Context, facultyID string) ([]models.Absence, error) {
	var out []models.Absence
	for _, absence := range s.absences {
		if absence.FacultyID == facultyID {
			out = append(out, absence)
		}
	}
	return out, nil
}

func (s *absenceRepoStub) CreateMakeup(ctx context.Context, makeup *models.MakeupRequest) error {
	makeup.ID = fmt.Sprintf("mk-%d", len(s.makeups)+1)
	makeup.Status = models.MakeupStatusPending
	s.makeups = append(s.makeups, *makeup)
	return nil
}

func (s *absenceRepoStub) FindMakeupByID(ctx context.Context, exec sqlx.ExtContext, id string) (*models.MakeupRequest, error) {
	for i := range s.makeups {
		if s.makeups[i].ID == id {
			copied := s.makeups[i]
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *absenceRepoStub) ListPendingMakeups(ctx context.Context) ([]models.MakeupRequest, error) {
	var out []models.MakeupRequest
	for _, makeup := range s.makeups {
		if makeup.Status == models.MakeupStatusPending {
			out = append(out, makeup)
		}
	}
	return out, nil
}

func (s *absenceRepoStub) ListApprovedMakeups(ctx context.Context, exec sqlx.ExtContext, runID string, weekStart time.Time) ([]models.MakeupRequest, error) {
	var out []models.MakeupRequest
	for _, makeup := range s.makeups {
		if makeup.Status == models.MakeupStatusApproved {
			out = append(out, makeup)
		}
	}
	return out, nil
}

func (s *absenceRepoStub) UpdateMakeupStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.MakeupStatus, decidedBy string) error {
	for i := range s.makeups {
		if s.makeups[i].ID == id && s.makeups[i].Status == models.MakeupStatusPending {
			s.makeups[i].Status = status
			s.makeups[i].DecidedBy = &decidedBy
			return nil
		}
	}
	return sql.ErrNoRows
}
