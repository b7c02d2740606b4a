package engine

import "time"

// Placement assigns one demand unit to a room, day and hour range.
type Placement struct {
	Unit       int       `json:"unit"`
	SectionID  string    `json:"section_id"`
	CourseCode string    `json:"course_code"`
	Type       BlockType `json:"type"`
	RoomID     string    `json:"room_id"`
	Building   string    `json:"building"`
	Day        Day       `json:"day"`
	StartHour  int       `json:"start_hour"`
	EndHour    int       `json:"end_hour"`
	FacultyID  string    `json:"faculty_id,omitempty"`
}

// UnplacedUnit reports a demand unit the search could not place and the
// hard constraint that blocked it most often.
type UnplacedUnit struct {
	Unit       int       `json:"unit"`
	SectionID  string    `json:"section_id"`
	CourseCode string    `json:"course_code"`
	Type       BlockType `json:"type"`
	Hours      int       `json:"hours"`
	Reason     string    `json:"reason"`
}

// Result is the immutable output of a scheduling run. The invariant
// len(Placements)+len(Unplaced) == len(Model.Units) always holds.
type Result struct {
	Placements []Placement    `json:"placements"`
	Unplaced   []UnplacedUnit `json:"unplaced"`
	Penalty    float64        `json:"penalty"`
	Iterations int            `json:"iterations"`
	Seed       int64          `json:"seed"`
	Elapsed    time.Duration  `json:"elapsed"`
}

// Complete reports whether every demand unit was placed.
func (r *Result) Complete() bool {
	return len(r.Unplaced) == 0
}
