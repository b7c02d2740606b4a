package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRooms() []Room {
	return []Room{
		{ID: "room-a", Building: "Main", Code: "101", Capacity: 30, Features: FeatureWhiteboard, Active: true},
		{ID: "room-b", Building: "Main", Code: "201", Capacity: 50, Features: FeatureAC | FeatureProjector | FeatureWhiteboard, Active: true},
		{ID: "room-c", Building: "Annex", Code: "L1", Capacity: 25, Features: FeatureLabEquipment | FeatureAC, Active: true},
	}
}

func testConfig() Config {
	return Config{
		OperatingStart: 7,
		OperatingEnd:   19,
		Days:           []Day{1, 2, 3, 4, 5},
		Seed:           42,
	}
}

func TestBuildModelSplitsWeeklyHours(t *testing.T) {
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 20, LectureHours: 4, LabHours: 2, LabFeatures: FeatureLabEquipment},
	}

	model, err := BuildModel(testRooms(), sections, nil, testConfig())
	require.NoError(t, err)

	// 4 lecture hours split 2+2, lab stays one block.
	require.Len(t, model.Units, 3)
	assert.Equal(t, BlockLecture, model.Units[0].Type)
	assert.Equal(t, 2, model.Units[0].Hours)
	assert.Equal(t, 2, model.Units[1].Hours)
	assert.Equal(t, BlockLab, model.Units[2].Type)
	assert.Equal(t, 2, model.Units[2].Hours)
}

func TestBuildModelRejectsZeroHourSection(t *testing.T) {
	sections := []Section{{ID: "sec-0", CourseCode: "NULL1", StudentCount: 10}}

	_, err := BuildModel(testRooms(), sections, nil, testConfig())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 1)
	assert.Equal(t, "sec-0", validationErr.Issues[0].SectionID)
}

func TestBuildModelReportsInfeasibleSection(t *testing.T) {
	sections := []Section{
		{ID: "sec-big", CourseCode: "CS500", StudentCount: 500, LectureHours: 3},
	}

	_, err := BuildModel(testRooms(), sections, nil, testConfig())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Len(t, validationErr.Issues, 1)
	assert.Equal(t, "sec-big", validationErr.Issues[0].SectionID)
	assert.Contains(t, validationErr.Issues[0].Reason, "capacity")
}

func TestBuildModelExcludesInactiveRooms(t *testing.T) {
	rooms := testRooms()
	rooms[1].Active = false
	sections := []Section{
		{ID: "sec-1", CourseCode: "CS101", StudentCount: 40, LectureHours: 3, LectureFeatures: FeatureProjector},
	}

	// Only room-b satisfies capacity 40 + projector; deactivating it
	// must surface as infeasible input, not a silent placement in room-a.
	_, err := BuildModel(rooms, sections, nil, testConfig())
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestBuildModelConfigurationErrors(t *testing.T) {
	sections := []Section{{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 2}}

	cfg := testConfig()
	cfg.OperatingEnd = cfg.OperatingStart
	_, err := BuildModel(testRooms(), sections, nil, cfg)
	var confErr *ConfigurationError
	require.ErrorAs(t, err, &confErr)

	cfg = testConfig()
	cfg.OnlineDays = []Day{1, 2, 3, 4, 5}
	_, err = BuildModel(testRooms(), sections, nil, cfg)
	require.ErrorAs(t, err, &confErr)
	assert.Contains(t, confErr.Reason, "online")
}

func TestBuildModelExcludesOnlineDays(t *testing.T) {
	sections := []Section{{ID: "sec-1", CourseCode: "CS101", StudentCount: 10, LectureHours: 2}}
	cfg := testConfig()
	cfg.OnlineDays = []Day{3}

	model, err := BuildModel(testRooms(), sections, nil, cfg)
	require.NoError(t, err)
	assert.Equal(t, []Day{1, 2, 4, 5}, model.Days)
}
