package models

import "time"

// OverrideStatus models the override lifecycle. INVALIDATED overrides
// belonged to a superseded run and no longer shadow anything.
type OverrideStatus string

const (
	OverrideStatusActive      OverrideStatus = "ACTIVE"
	OverrideStatusInvalidated OverrideStatus = "INVALIDATED"
)

// Override shadows a locked allocation with a replacement day/time/room
// for one academic week. It never mutates the allocation it targets and
// expires with its week unless marked permanent.
type Override struct {
	ID           string         `db:"id" json:"id"`
	AllocationID string         `db:"allocation_id" json:"allocation_id"`
	RunID        string         `db:"run_id" json:"run_id"`
	WeekStart    time.Time      `db:"week_start" json:"week_start"`
	DayOfWeek    int            `db:"day_of_week" json:"day_of_week"`
	StartHour    int            `db:"start_hour" json:"start_hour"`
	EndHour      int            `db:"end_hour" json:"end_hour"`
	RoomID       string         `db:"room_id" json:"room_id"`
	Permanent    bool           `db:"permanent" json:"permanent"`
	Status       OverrideStatus `db:"status" json:"status"`
	RequestedBy  string         `db:"requested_by" json:"requested_by"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// AbsenceStatus tracks acknowledgement of a reported absence.
type AbsenceStatus string

const (
	AbsenceStatusReported     AbsenceStatus = "REPORTED"
	AbsenceStatusAcknowledged AbsenceStatus = "ACKNOWLEDGED"
)

// Absence is a faculty-reported non-attendance for one allocation date.
type Absence struct {
	ID           string        `db:"id" json:"id"`
	AllocationID string        `db:"allocation_id" json:"allocation_id"`
	FacultyID    string        `db:"faculty_id" json:"faculty_id"`
	Date         time.Time     `db:"date" json:"date"`
	Reason       string        `db:"reason" json:"reason"`
	Status       AbsenceStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// MakeupStatus tracks the approval workflow of a makeup request.
type MakeupStatus string

const (
	MakeupStatusPending  MakeupStatus = "PENDING"
	MakeupStatusApproved MakeupStatus = "APPROVED"
	MakeupStatusRejected MakeupStatus = "REJECTED"
)

// MakeupRequest proposes a replacement meeting for a missed allocation.
// Approval re-validates it against the effective schedule first.
type MakeupRequest struct {
	ID           string       `db:"id" json:"id"`
	AbsenceID    *string      `db:"absence_id" json:"absence_id,omitempty"`
	AllocationID string       `db:"allocation_id" json:"allocation_id"`
	FacultyID    string       `db:"faculty_id" json:"faculty_id"`
	WeekStart    time.Time    `db:"week_start" json:"week_start"`
	DayOfWeek    int          `db:"day_of_week" json:"day_of_week"`
	StartHour    int          `db:"start_hour" json:"start_hour"`
	EndHour      int          `db:"end_hour" json:"end_hour"`
	RoomID       string       `db:"room_id" json:"room_id"`
	Status       MakeupStatus `db:"status" json:"status"`
	DecidedBy    *string      `db:"decided_by" json:"decided_by,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}
