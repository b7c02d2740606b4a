package dto

// AvailabilityWindow is a day-scoped hour range.
type AvailabilityWindow struct {
	DayOfWeek int `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartHour int `json:"startHour" validate:"min=0,max=23"`
	EndHour   int `json:"endHour" validate:"required,min=1,max=24,gtfield=StartHour"`
}

// CreateFacultyRequest registers a faculty member with availability.
type CreateFacultyRequest struct {
	FullName       string               `json:"fullName" validate:"required,max=200"`
	Department     string               `json:"department" validate:"required,max=120"`
	MaxWeeklyHours int                  `json:"maxWeeklyHours" validate:"required,min=1,max=60"`
	EmploymentType string               `json:"employmentType" validate:"required,oneof=FULL_TIME PART_TIME VISITING"`
	Unavailable    []AvailabilityWindow `json:"unavailable" validate:"omitempty,dive"`
	Preferred      []AvailabilityWindow `json:"preferred" validate:"omitempty,dive"`
}

// UpdateFacultyRequest patches a faculty member. Nil fields are left untouched.
type UpdateFacultyRequest struct {
	FullName       *string               `json:"fullName" validate:"omitempty,max=200"`
	Department     *string               `json:"department" validate:"omitempty,max=120"`
	MaxWeeklyHours *int                  `json:"maxWeeklyHours" validate:"omitempty,min=1,max=60"`
	EmploymentType *string               `json:"employmentType" validate:"omitempty,oneof=FULL_TIME PART_TIME VISITING"`
	Unavailable    *[]AvailabilityWindow `json:"unavailable" validate:"omitempty,dive"`
	Preferred      *[]AvailabilityWindow `json:"preferred" validate:"omitempty,dive"`
	Active         *bool                 `json:"active"`
}

// FacultyResponse is the API view of a faculty member.
type FacultyResponse struct {
	ID             string               `json:"id"`
	FullName       string               `json:"fullName"`
	Department     string               `json:"department"`
	MaxWeeklyHours int                  `json:"maxWeeklyHours"`
	EmploymentType string               `json:"employmentType"`
	Unavailable    []AvailabilityWindow `json:"unavailable,omitempty"`
	Preferred      []AvailabilityWindow `json:"preferred,omitempty"`
	Active         bool                 `json:"active"`
}

// FacultyQuery filters faculty listings.
type FacultyQuery struct {
	Department string `form:"department" json:"department"`
	Active     *bool  `form:"active" json:"active"`
	Search     string `form:"search" json:"search"`
	Page       int    `form:"page" json:"page"`
	PageSize   int    `form:"pageSize" json:"pageSize"`
}
