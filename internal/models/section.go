package models

import "time"

// Section is one scheduled unit of instruction for a term.
// lecture_hours + lab_hours must be positive before the section may
// enter a scheduling run.
type Section struct {
	ID              string    `db:"id" json:"id"`
	CourseCode      string    `db:"course_code" json:"course_code"`
	CourseName      string    `db:"course_name" json:"course_name"`
	Label           string    `db:"label" json:"label"`
	YearLevel       int       `db:"year_level" json:"year_level"`
	StudentCount    int       `db:"student_count" json:"student_count"`
	LectureHours    int       `db:"lecture_hours" json:"lecture_hours"`
	LabHours        int       `db:"lab_hours" json:"lab_hours"`
	LectureFeatures int64     `db:"lecture_features" json:"lecture_features"`
	LabFeatures     int64     `db:"lab_features" json:"lab_features"`
	TermID          string    `db:"term_id" json:"term_id"`
	FacultyID       *string   `db:"faculty_id" json:"faculty_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// SectionFilter describes query params for listing sections.
type SectionFilter struct {
	TermID    string
	FacultyID string
	YearLevel int
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
