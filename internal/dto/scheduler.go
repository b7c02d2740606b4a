package dto

// GenerateScheduleRequest instructs the engine to build a proposal for a
// term. IncludedSectionIDs/IncludedRoomIDs restrict the run to a subset
// of the catalog; empty means everything. IgnoreWeeklyHours lifts the
// per-faculty weekly hour cap for this run.
type GenerateScheduleRequest struct {
	TermID             string         `json:"termId" validate:"required"`
	StartHour          int            `json:"startHour" validate:"min=0,max=23"`
	EndHour            int            `json:"endHour" validate:"min=1,max=24"`
	Days               []int          `json:"days" validate:"omitempty,dive,min=1,max=7"`
	OnlineDays         []int          `json:"onlineDays" validate:"omitempty,dive,min=1,max=7"`
	IncludedSectionIDs []string       `json:"includedSectionIds" validate:"omitempty,dive,required"`
	IncludedRoomIDs    []string       `json:"includedRoomIds" validate:"omitempty,dive,required"`
	Seed               *int64         `json:"seed"`
	IterationBudget    int            `json:"iterationBudget" validate:"omitempty,min=1"`
	MaxBlockHours      int            `json:"maxBlockHours" validate:"omitempty,min=1,max=8"`
	IgnoreWeeklyHours  bool           `json:"ignoreWeeklyHours"`
	Meta               map[string]any `json:"meta"`
}

// PlacementProposal is one generated room/time assignment.
type PlacementProposal struct {
	SectionID  string  `json:"sectionId"`
	CourseCode string  `json:"courseCode"`
	BlockType  string  `json:"blockType"`
	RoomID     string  `json:"roomId"`
	Building   string  `json:"building"`
	DayOfWeek  int     `json:"dayOfWeek"`
	StartHour  int     `json:"startHour"`
	EndHour    int     `json:"endHour"`
	FacultyID  *string `json:"facultyId,omitempty"`
}

// UnplacedSection reports demand the engine could not place, with the
// dominant reason observed while trying.
type UnplacedSection struct {
	SectionID  string `json:"sectionId"`
	CourseCode string `json:"courseCode"`
	BlockType  string `json:"blockType"`
	Hours      int    `json:"hours"`
	Reason     string `json:"reason"`
}

// SectionIssue describes one pre-solve validation failure.
type SectionIssue struct {
	SectionID string `json:"sectionId"`
	BlockType string `json:"blockType,omitempty"`
	Reason    string `json:"reason"`
}

// EngineStats summarises the solver run.
type EngineStats struct {
	Iterations int     `json:"iterations"`
	Penalty    float64 `json:"penalty"`
	Seed       int64   `json:"seed"`
	ElapsedMS  int64   `json:"elapsedMs"`
}

// GenerateScheduleResponse returns the built proposal.
type GenerateScheduleResponse struct {
	ProposalID string              `json:"proposalId"`
	TermID     string              `json:"termId"`
	Complete   bool                `json:"complete"`
	Placements []PlacementProposal `json:"placements"`
	Unplaced   []UnplacedSection   `json:"unplaced"`
	Stats      EngineStats         `json:"stats"`
}

// SaveScheduleRequest persists a proposal as a schedule run.
type SaveScheduleRequest struct {
	ProposalID   string `json:"proposalId" validate:"required"`
	AllowPartial bool   `json:"allowPartial"`
}

// ScheduleRunResponse summarises a persisted run.
type ScheduleRunResponse struct {
	RunID       string  `json:"runId"`
	TermID      string  `json:"termId"`
	Version     int     `json:"version"`
	Status      string  `json:"status"`
	Seed        int64   `json:"seed"`
	Allocations int     `json:"allocations"`
	Penalty     float64 `json:"penalty"`
}

// ScheduleQuery filters allocation listings.
type ScheduleQuery struct {
	TermID    string `form:"termId" json:"termId"`
	RunID     string `form:"runId" json:"runId"`
	RoomID    string `form:"roomId" json:"roomId"`
	FacultyID string `form:"facultyId" json:"facultyId"`
	SectionID string `form:"sectionId" json:"sectionId"`
	DayOfWeek int    `form:"dayOfWeek" json:"dayOfWeek" validate:"omitempty,min=1,max=7"`
	WeekStart string `form:"weekStart" json:"weekStart"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
}

// AllocationResponse is one effective schedule entry. Overridden marks
// entries shadowed by an active override for the queried week.
type AllocationResponse struct {
	AllocationID string  `json:"allocationId"`
	RunID        string  `json:"runId"`
	SectionID    string  `json:"sectionId"`
	CourseCode   string  `json:"courseCode,omitempty"`
	BlockType    string  `json:"blockType"`
	RoomID       string  `json:"roomId"`
	FacultyID    *string `json:"facultyId,omitempty"`
	DayOfWeek    int     `json:"dayOfWeek"`
	StartHour    int     `json:"startHour"`
	EndHour      int     `json:"endHour"`
	Overridden   bool    `json:"overridden,omitempty"`
	OverrideID   string  `json:"overrideId,omitempty"`
	Source       string  `json:"source"`
}
