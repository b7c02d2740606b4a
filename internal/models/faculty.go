package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// EmploymentType distinguishes load rules for faculty members.
type EmploymentType string

const (
	EmploymentFullTime EmploymentType = "FULL_TIME"
	EmploymentPartTime EmploymentType = "PART_TIME"
	EmploymentVisiting EmploymentType = "VISITING"
)

// Faculty is a teaching staff member with availability windows.
// Unavailable and Preferred hold JSON arrays of FacultyWindow.
type Faculty struct {
	ID             string         `db:"id" json:"id"`
	FullName       string         `db:"full_name" json:"full_name"`
	Department     string         `db:"department" json:"department"`
	MaxWeeklyHours int            `db:"max_weekly_hours" json:"max_weekly_hours"`
	EmploymentType EmploymentType `db:"employment_type" json:"employment_type"`
	Unavailable    types.JSONText `db:"unavailable" json:"unavailable,omitempty"`
	Preferred      types.JSONText `db:"preferred" json:"preferred,omitempty"`
	Active         bool           `db:"active" json:"active"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// FacultyWindow is a day-scoped hour range inside availability JSON.
type FacultyWindow struct {
	DayOfWeek int `json:"day_of_week"`
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// FacultyFilter describes query params for listing faculty.
type FacultyFilter struct {
	Department string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
