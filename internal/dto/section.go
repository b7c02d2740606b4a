package dto

// CreateSectionRequest registers a section's weekly demand for a term.
type CreateSectionRequest struct {
	CourseCode      string   `json:"courseCode" validate:"required,max=40"`
	CourseName      string   `json:"courseName" validate:"required,max=200"`
	Label           string   `json:"label" validate:"required,max=40"`
	YearLevel       int      `json:"yearLevel" validate:"required,min=1,max=8"`
	StudentCount    int      `json:"studentCount" validate:"required,min=1"`
	LectureHours    int      `json:"lectureHours" validate:"min=0,max=20"`
	LabHours        int      `json:"labHours" validate:"min=0,max=20"`
	LectureFeatures []string `json:"lectureFeatures" validate:"omitempty,dive,oneof=AC PROJECTOR WHITEBOARD PWD_ACCESS TV LAB_EQUIPMENT"`
	LabFeatures     []string `json:"labFeatures" validate:"omitempty,dive,oneof=AC PROJECTOR WHITEBOARD PWD_ACCESS TV LAB_EQUIPMENT"`
	TermID          string   `json:"termId" validate:"required"`
	FacultyID       *string  `json:"facultyId"`
}

// UpdateSectionRequest patches a section. Nil fields are left untouched.
type UpdateSectionRequest struct {
	CourseName      *string   `json:"courseName" validate:"omitempty,max=200"`
	Label           *string   `json:"label" validate:"omitempty,max=40"`
	YearLevel       *int      `json:"yearLevel" validate:"omitempty,min=1,max=8"`
	StudentCount    *int      `json:"studentCount" validate:"omitempty,min=1"`
	LectureHours    *int      `json:"lectureHours" validate:"omitempty,min=0,max=20"`
	LabHours        *int      `json:"labHours" validate:"omitempty,min=0,max=20"`
	LectureFeatures *[]string `json:"lectureFeatures" validate:"omitempty,dive,oneof=AC PROJECTOR WHITEBOARD PWD_ACCESS TV LAB_EQUIPMENT"`
	LabFeatures     *[]string `json:"labFeatures" validate:"omitempty,dive,oneof=AC PROJECTOR WHITEBOARD PWD_ACCESS TV LAB_EQUIPMENT"`
	FacultyID       *string   `json:"facultyId"`
}

// SectionResponse is the API view of a section.
type SectionResponse struct {
	ID              string   `json:"id"`
	CourseCode      string   `json:"courseCode"`
	CourseName      string   `json:"courseName"`
	Label           string   `json:"label"`
	YearLevel       int      `json:"yearLevel"`
	StudentCount    int      `json:"studentCount"`
	LectureHours    int      `json:"lectureHours"`
	LabHours        int      `json:"labHours"`
	LectureFeatures []string `json:"lectureFeatures"`
	LabFeatures     []string `json:"labFeatures"`
	TermID          string   `json:"termId"`
	FacultyID       *string  `json:"facultyId,omitempty"`
}

// SectionQuery filters section listings.
type SectionQuery struct {
	TermID    string `form:"termId" json:"termId"`
	FacultyID string `form:"facultyId" json:"facultyId"`
	YearLevel int    `form:"yearLevel" json:"yearLevel" validate:"omitempty,min=1,max=8"`
	Search    string `form:"search" json:"search"`
	Page      int    `form:"page" json:"page"`
	PageSize  int    `form:"pageSize" json:"pageSize"`
}
