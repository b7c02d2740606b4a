package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ScheduleRunStatus models a run lifecycle. A LOCKED run is the
// canonical schedule for its term; locking a new run supersedes the
// previous one and invalidates its overrides.
type ScheduleRunStatus string

const (
	ScheduleRunStatusDraft      ScheduleRunStatus = "DRAFT"
	ScheduleRunStatusLocked     ScheduleRunStatus = "LOCKED"
	ScheduleRunStatusSuperseded ScheduleRunStatus = "SUPERSEDED"
)

// ScheduleRun captures one versioned scheduling engine execution for a term.
type ScheduleRun struct {
	ID        string            `db:"id" json:"id"`
	TermID    string            `db:"term_id" json:"term_id"`
	Version   int               `db:"version" json:"version"`
	Status    ScheduleRunStatus `db:"status" json:"status"`
	Seed      int64             `db:"seed" json:"seed"`
	Meta      types.JSONText    `db:"meta" json:"meta"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// Allocation is one finalized (section, room, day, hour range)
// assignment produced by a scheduling run.
type Allocation struct {
	ID        string    `db:"id" json:"id"`
	RunID     string    `db:"run_id" json:"run_id"`
	TermID    string    `db:"term_id" json:"term_id"`
	SectionID string    `db:"section_id" json:"section_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	FacultyID *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	BlockType string    `db:"block_type" json:"block_type"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartHour int       `db:"start_hour" json:"start_hour"`
	EndHour   int       `db:"end_hour" json:"end_hour"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AllocationFilter describes query params for the schedule query layer.
type AllocationFilter struct {
	RunID     string
	TermID    string
	RoomID    string
	FacultyID string
	SectionID string
	DayOfWeek int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// AllocationConflict names an effective-schedule entry colliding with a
// proposed placement.
type AllocationConflict struct {
	AllocationID string `json:"allocation_id"`
	SectionID    string `json:"section_id"`
	RoomID       string `json:"room_id"`
	FacultyID    string `json:"faculty_id,omitempty"`
	DayOfWeek    int    `json:"day_of_week"`
	StartHour    int    `json:"start_hour"`
	EndHour      int    `json:"end_hour"`
	Dimension    string `json:"dimension"`
	Source       string `json:"source"`
}

// ConflictError is returned when a proposed override or makeup collides
// with the effective schedule. The original allocation stays untouched.
type ConflictError struct {
	Message  string               `json:"message"`
	Conflict AllocationConflict   `json:"conflict"`
	Errors   []AllocationConflict `json:"errors,omitempty"`
}

// Error implements the error interface for conflict errors.
func (e *ConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
