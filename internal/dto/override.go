package dto

// CreateOverrideRequest moves one locked allocation to a new day/time/room
// for a single week (or permanently). Validated atomically against the
// effective schedule before it is stored.
type CreateOverrideRequest struct {
	AllocationID string `json:"allocationId" validate:"required"`
	WeekStart    string `json:"weekStart" validate:"required,datetime=2006-01-02"`
	DayOfWeek    int    `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartHour    int    `json:"startHour" validate:"min=0,max=23"`
	EndHour      int    `json:"endHour" validate:"required,min=1,max=24,gtfield=StartHour"`
	RoomID       string `json:"roomId" validate:"required"`
	Permanent    bool   `json:"permanent"`
}

// OverrideResponse echoes a stored override.
type OverrideResponse struct {
	OverrideID   string `json:"overrideId"`
	AllocationID string `json:"allocationId"`
	RunID        string `json:"runId"`
	WeekStart    string `json:"weekStart"`
	DayOfWeek    int    `json:"dayOfWeek"`
	StartHour    int    `json:"startHour"`
	EndHour      int    `json:"endHour"`
	RoomID       string `json:"roomId"`
	Permanent    bool   `json:"permanent"`
	Status       string `json:"status"`
}

// OverrideQuery filters override listings.
type OverrideQuery struct {
	RunID        string `form:"runId" json:"runId"`
	AllocationID string `form:"allocationId" json:"allocationId"`
	WeekStart    string `form:"weekStart" json:"weekStart"`
	Status       string `form:"status" json:"status"`
	Page         int    `form:"page" json:"page"`
	PageSize     int    `form:"pageSize" json:"pageSize"`
}

// ReportAbsenceRequest records faculty non-attendance for one meeting date.
type ReportAbsenceRequest struct {
	AllocationID string `json:"allocationId" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason       string `json:"reason" validate:"omitempty,max=500"`
}

// CreateMakeupRequest proposes a replacement meeting for a missed class.
type CreateMakeupRequest struct {
	AllocationID string  `json:"allocationId" validate:"required"`
	AbsenceID    *string `json:"absenceId"`
	WeekStart    string  `json:"weekStart" validate:"required,datetime=2006-01-02"`
	DayOfWeek    int     `json:"dayOfWeek" validate:"required,min=1,max=7"`
	StartHour    int     `json:"startHour" validate:"min=0,max=23"`
	EndHour      int     `json:"endHour" validate:"required,min=1,max=24,gtfield=StartHour"`
	RoomID       string  `json:"roomId" validate:"required"`
}

// DecideMakeupRequest approves or rejects a pending makeup request.
type DecideMakeupRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" validate:"omitempty,max=500"`
}

// MakeupResponse echoes a stored makeup request.
type MakeupResponse struct {
	MakeupID     string  `json:"makeupId"`
	AllocationID string  `json:"allocationId"`
	AbsenceID    *string `json:"absenceId,omitempty"`
	FacultyID    string  `json:"facultyId"`
	WeekStart    string  `json:"weekStart"`
	DayOfWeek    int     `json:"dayOfWeek"`
	StartHour    int     `json:"startHour"`
	EndHour      int     `json:"endHour"`
	RoomID       string  `json:"roomId"`
	Status       string  `json:"status"`
}
