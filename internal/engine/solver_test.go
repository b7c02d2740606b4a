package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solveFixture(t *testing.T, rooms []Room, sections []Section, faculty []Faculty, mutate func(*Config)) *Result {
	t.Helper()
	cfg := testConfig()
	cfg.IterationBudget = 2000
	if mutate != nil {
		mutate(&cfg)
	}
	model, err := BuildModel(rooms, sections, faculty, cfg)
	require.NoError(t, err)
	result, err := Solve(context.Background(), model)
	require.NoError(t, err)
	return result
}

func assertHardInvariants(t *testing.T, rooms []Room, result *Result) {
	t.Helper()
	for i, a := range result.Placements {
		for _, b := range result.Placements[i+1:] {
			if a.Day != b.Day {
				continue
			}
			overlap := TimeRange{StartHour: a.StartHour, EndHour: a.EndHour}.
				Overlaps(TimeRange{StartHour: b.StartHour, EndHour: b.EndHour})
			if !overlap {
				continue
			}
			assert.NotEqual(t, a.RoomID, b.RoomID, "room double booked: %+v vs %+v", a, b)
			if a.FacultyID != "" {
				assert.NotEqual(t, a.FacultyID, b.FacultyID, "faculty double booked: %+v vs %+v", a, b)
			}
		}
	}
}

func TestSolvePlacesAllUnitsAndHonoursInvariants(t *testing.T) {
	rooms := testRooms()
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 28, LectureHours: 3, FacultyID: "fac-1"},
		{ID: "sec-2", CourseCode: "CS102", StudentCount: 45, LectureHours: 3, LectureFeatures: FeatureProjector, FacultyID: "fac-1"},
		{ID: "sec-3", CourseCode: "BIO201", StudentCount: 20, LectureHours: 2, LabHours: 3, LabFeatures: FeatureLabEquipment, FacultyID: "fac-2"},
	}
	faculty := []Faculty{{ID: "fac-1"}, {ID: "fac-2"}}

	result := solveFixture(t, rooms, sections, faculty, nil)

	assert.Empty(t, result.Unplaced)
	assert.Len(t, result.Placements, 5)
	assertHardInvariants(t, rooms, result)

	roomIndex := map[string]Room{}
	for _, room := range rooms {
		roomIndex[room.ID] = room
	}
	for _, p := range result.Placements {
		room := roomIndex[p.RoomID]
		assert.GreaterOrEqual(t, room.Capacity, sectionStudentCount(sections, p.SectionID), "capacity invariant for %s", p.SectionID)
		assert.GreaterOrEqual(t, p.StartHour, 7)
		assert.LessOrEqual(t, p.EndHour, 19)
	}
}

func sectionStudentCount(sections []Section, id string) int {
	for _, s := range sections {
		if s.ID == id {
			return s.StudentCount
		}
	}
	return 0
}

func TestSolveAssignsFeatureMatchedRoom(t *testing.T) {
	// Capacity 40 + projector only fits room-b.
	rooms := []Room{
		{ID: "room-a", Building: "Main", Code: "101", Capacity: 30, Active: true},
		{ID: "room-b", Building: "Main", Code: "201", Capacity: 50, Features: FeatureAC | FeatureProjector, Active: true},
	}
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS300", StudentCount: 40, LectureHours: 3, LectureFeatures: FeatureProjector},
	}

	result := solveFixture(t, rooms, sections, nil, nil)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, "room-b", result.Placements[0].RoomID)
}

func TestSolveReportsUnplacedNeverDropsUnits(t *testing.T) {
	// One room, one day, four hours of grid; ten 2-hour sections cannot fit.
	rooms := []Room{{ID: "room-a", Building: "Main", Code: "101", Capacity: 100, Active: true}}
	var sections []Section
	for i := 0; i < 10; i++ {
		sections = append(sections, Section{
			ID:           "sec-" + string(rune('a'+i)),
			CourseCode:   "CRS",
			StudentCount: 10,
			LectureHours: 2,
		})
	}

	result := solveFixture(t, rooms, sections, nil, func(cfg *Config) {
		cfg.Days = []Day{1}
		cfg.OperatingStart = 8
		cfg.OperatingEnd = 12
	})

	assert.Len(t, result.Placements, 2)
	assert.Len(t, result.Unplaced, 8)
	assert.Equal(t, len(sections), len(result.Placements)+len(result.Unplaced))
	for _, u := range result.Unplaced {
		assert.NotEmpty(t, u.Reason)
	}
}

func TestSolveHonoursFacultyUnavailability(t *testing.T) {
	rooms := testRooms()
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 2, FacultyID: "fac-1"},
	}
	// fac-1 can only teach Monday 7-9; everything else is blocked.
	faculty := []Faculty{{
		ID: "fac-1",
		Unavailable: []Window{
			{Day: 1, StartHour: 9, EndHour: 19},
			{Day: 2, StartHour: 7, EndHour: 19},
			{Day: 3, StartHour: 7, EndHour: 19},
			{Day: 4, StartHour: 7, EndHour: 19},
			{Day: 5, StartHour: 7, EndHour: 19},
		},
	}}

	result := solveFixture(t, rooms, sections, faculty, nil)
	require.Len(t, result.Placements, 1)
	assert.Equal(t, Day(1), result.Placements[0].Day)
	assert.Equal(t, 7, result.Placements[0].StartHour)
	assert.Equal(t, 9, result.Placements[0].EndHour)
}

func TestSolveHonoursFacultyWeeklyHourCap(t *testing.T) {
	rooms := testRooms()
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 3, FacultyID: "fac-1"},
		{ID: "sec-2", CourseCode: "CS102", StudentCount: 10, LectureHours: 3, FacultyID: "fac-1"},
	}
	// Both sections together need six hours; fac-1 may only teach four.
	faculty := []Faculty{{ID: "fac-1", MaxWeeklyHours: 4}}

	result := solveFixture(t, rooms, sections, faculty, nil)

	require.Len(t, result.Placements, 1)
	require.Len(t, result.Unplaced, 1)
	assert.Equal(t, "assigned faculty has reached the weekly hour limit", result.Unplaced[0].Reason)

	total := 0
	for _, p := range result.Placements {
		total += p.EndHour - p.StartHour
	}
	assert.LessOrEqual(t, total, 4)
}

func TestSolveIgnoreWeeklyHoursLiftsCap(t *testing.T) {
	rooms := testRooms()
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 3, FacultyID: "fac-1"},
		{ID: "sec-2", CourseCode: "CS102", StudentCount: 10, LectureHours: 3, FacultyID: "fac-1"},
	}
	faculty := []Faculty{{ID: "fac-1", MaxWeeklyHours: 4}}

	result := solveFixture(t, rooms, sections, faculty, func(cfg *Config) {
		cfg.IgnoreWeeklyHours = true
	})

	assert.Empty(t, result.Unplaced)
	assert.Len(t, result.Placements, 2)
	assertHardInvariants(t, rooms, result)
}

func TestSolveDeterministicForSeed(t *testing.T) {
	build := func(seed int64) *Result {
		cfg := testConfig()
		cfg.IterationBudget = 3000
		cfg.Seed = seed
		sections := []Section{
			{ID: "sec-1", CourseCode: "CS101", StudentCount: 28, LectureHours: 3, FacultyID: "fac-1"},
			{ID: "sec-2", CourseCode: "CS102", StudentCount: 45, LectureHours: 4, LectureFeatures: FeatureProjector, FacultyID: "fac-2"},
			{ID: "sec-3", CourseCode: "BIO201", StudentCount: 20, LectureHours: 2, LabHours: 2, LabFeatures: FeatureLabEquipment, FacultyID: "fac-1"},
		}
		faculty := []Faculty{{ID: "fac-1"}, {ID: "fac-2", Preferred: []Window{{Day: 2, StartHour: 8, EndHour: 12}}}}
		model, err := BuildModel(testRooms(), sections, faculty, cfg)
		require.NoError(t, err)
		result, err := Solve(context.Background(), model)
		require.NoError(t, err)
		return result
	}

	first := build(99)
	second := build(99)
	assert.Equal(t, first.Placements, second.Placements)
	assert.Equal(t, first.Unplaced, second.Unplaced)
	assert.Equal(t, first.Penalty, second.Penalty)

	other := build(100)
	assert.Equal(t, len(first.Placements), len(other.Placements))
}

func TestSolveReturnsBestEffortOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 2},
	}
	cfg := testConfig()
	cfg.IterationBudget = 1 << 20
	model, err := BuildModel(testRooms(), sections, nil, cfg)
	require.NoError(t, err)

	result, err := Solve(ctx, model)
	require.NoError(t, err)
	// Greedy construction still runs; annealing stops immediately.
	assert.Len(t, result.Placements, 1)
	assert.Less(t, result.Iterations, 1<<20)
}

func TestSolvePrefersFacultyPreferredWindows(t *testing.T) {
	rooms := testRooms()
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 2, FacultyID: "fac-1"},
	}
	faculty := []Faculty{{ID: "fac-1", Preferred: []Window{{Day: 4, StartHour: 10, EndHour: 14}}}}

	result := solveFixture(t, rooms, sections, faculty, func(cfg *Config) {
		cfg.IterationBudget = 5000
		cfg.Weights = Weights{Preference: 4, Gap: 2, Continuity: 2}
	})

	require.Len(t, result.Placements, 1)
	p := result.Placements[0]
	assert.Equal(t, Day(4), p.Day)
	assert.GreaterOrEqual(t, p.StartHour, 10)
	assert.LessOrEqual(t, p.EndHour, 14)
	assert.Zero(t, result.Penalty)
}
