package engine

import "time"

// Day is an ISO weekday index, 1 = Monday .. 7 = Sunday.
type Day int

// BlockType distinguishes lecture and laboratory demand.
type BlockType string

const (
	BlockLecture BlockType = "LECTURE"
	BlockLab     BlockType = "LAB"
)

// Feature is a bitmask of room capabilities.
type Feature uint16

const (
	FeatureAC Feature = 1 << iota
	FeatureProjector
	FeatureWhiteboard
	FeaturePWDAccess
	FeatureTV
	FeatureLabEquipment
)

// HasAll reports whether f contains every feature in required.
func (f Feature) HasAll(required Feature) bool {
	return f&required == required
}

// Room is a schedulable space.
type Room struct {
	ID       string
	Building string
	Code     string
	Capacity int
	Features Feature
	Floor    int
	Active   bool
}

// Section is one unit of instruction requesting weekly hours.
type Section struct {
	ID              string
	CourseCode      string
	Label           string
	StudentCount    int
	LectureHours    int
	LabHours        int
	LectureFeatures Feature
	LabFeatures     Feature
	FacultyID       string
}

// Window is a day-scoped hour range, end exclusive.
type Window struct {
	Day       Day
	StartHour int
	EndHour   int
}

// Contains reports whether the range [start,end) falls inside the window on day.
func (w Window) Contains(day Day, start, end int) bool {
	return w.Day == day && start >= w.StartHour && end <= w.EndHour
}

// Faculty carries availability used by the hard and soft constraints.
type Faculty struct {
	ID             string
	MaxWeeklyHours int
	Unavailable    []Window
	Preferred      []Window
}

// TimeRange is an hour range within a day, end exclusive.
type TimeRange struct {
	StartHour int
	EndHour   int
}

// Overlaps reports whether two ranges intersect.
func (t TimeRange) Overlaps(o TimeRange) bool {
	return t.StartHour < o.EndHour && o.StartHour < t.EndHour
}

// DemandUnit is one contiguous block of required instructional time.
type DemandUnit struct {
	Index        int
	SectionID    string
	CourseCode   string
	Label        string
	Type         BlockType
	Hours        int
	StudentCount int
	Features     Feature
	FacultyID    string

	// candidateRooms holds indexes into Model.Rooms that satisfy
	// capacity and feature requirements. Computed by the builder.
	candidateRooms []int
}

// CandidateRooms exposes the precomputed feasible room indexes.
func (u DemandUnit) CandidateRooms() []int {
	return u.candidateRooms
}

// Weights tunes the soft-constraint penalty sum.
type Weights struct {
	Preference float64
	Gap        float64
	Balance    float64
	Continuity float64
}

// DefaultWeights mirrors the documented policy defaults.
func DefaultWeights() Weights {
	return Weights{Preference: 4, Gap: 2, Balance: 1, Continuity: 2}
}

// Config parameterises a scheduling run. IgnoreWeeklyHours lifts the
// per-faculty weekly hour cap for the run; it requires an explicit
// admin opt-in upstream.
type Config struct {
	OperatingStart    int
	OperatingEnd      int
	Days              []Day
	OnlineDays        []Day
	Seed              int64
	IterationBudget   int
	TimeBudget        time.Duration
	MaxBlockHours     int
	InitialTemp       float64
	CoolingRate       float64
	IgnoreWeeklyHours bool
	Weights           Weights
}

// Model is the immutable input to Solve. Build it with BuildModel;
// a Model is never mutated by a run, so read-only sharing is safe.
type Model struct {
	Rooms   []Room
	Units   []DemandUnit
	Faculty map[string]Faculty
	Days    []Day
	Start   int
	End     int
	Config  Config
}

// HoursPerDay returns the number of schedulable hours in a day.
func (m *Model) HoursPerDay() int {
	return m.End - m.Start
}
