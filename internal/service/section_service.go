package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context, filter models.SectionFilter) ([]models.Section, int, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, id string) error
}

type facultyReader interface {
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
}

// SectionService manages the section catalog.
type SectionService struct {
	sections  sectionRepository
	faculty   facultyReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs a SectionService.
func NewSectionService(sections sectionRepository, faculty facultyReader, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{sections: sections, faculty: faculty, validator: validate, logger: logger}
}

// List returns sections matching the query.
func (s *SectionService) List(ctx context.Context, query dto.SectionQuery) ([]dto.SectionResponse, *models.Pagination, error) {
	sections, total, err := s.sections.List(ctx, models.SectionFilter{
		TermID:    query.TermID,
		FacultyID: query.FacultyID,
		YearLevel: query.YearLevel,
		Search:    query.Search,
		Page:      query.Page,
		PageSize:  query.PageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	responses := make([]dto.SectionResponse, 0, len(sections))
	for i := range sections {
		responses = append(responses, sectionResponse(&sections[i]))
	}
	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return responses, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one section.
func (s *SectionService) Get(ctx context.Context, id string) (*dto.SectionResponse, error) {
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	resp := sectionResponse(section)
	return &resp, nil
}

// Create registers a section. Total weekly hours must be positive and
// the assigned faculty member, if any, must exist.
func (s *SectionService) Create(ctx context.Context, req dto.CreateSectionRequest) (*dto.SectionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if req.LectureHours+req.LabHours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section requires at least one weekly hour")
	}
	if err := s.ensureFaculty(ctx, req.FacultyID); err != nil {
		return nil, err
	}

	section := &models.Section{
		CourseCode:      req.CourseCode,
		CourseName:      req.CourseName,
		Label:           req.Label,
		YearLevel:       req.YearLevel,
		StudentCount:    req.StudentCount,
		LectureHours:    req.LectureHours,
		LabHours:        req.LabHours,
		LectureFeatures: models.ParseFeatures(req.LectureFeatures),
		LabFeatures:     models.ParseFeatures(req.LabFeatures),
		TermID:          req.TermID,
		FacultyID:       req.FacultyID,
	}
	if err := s.sections.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	s.logger.Info("section created", zap.String("section_id", section.ID), zap.String("course_code", section.CourseCode))
	resp := sectionResponse(section)
	return &resp, nil
}

// Update patches a section.
func (s *SectionService) Update(ctx context.Context, id string, req dto.UpdateSectionRequest) (*dto.SectionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	section, err := s.sections.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	if req.CourseName != nil {
		section.CourseName = *req.CourseName
	}
	if req.Label != nil {
		section.Label = *req.Label
	}
	if req.YearLevel != nil {
		section.YearLevel = *req.YearLevel
	}
	if req.StudentCount != nil {
		section.StudentCount = *req.StudentCount
	}
	if req.LectureHours != nil {
		section.LectureHours = *req.LectureHours
	}
	if req.LabHours != nil {
		section.LabHours = *req.LabHours
	}
	if req.LectureFeatures != nil {
		section.LectureFeatures = models.ParseFeatures(*req.LectureFeatures)
	}
	if req.LabFeatures != nil {
		section.LabFeatures = models.ParseFeatures(*req.LabFeatures)
	}
	if req.FacultyID != nil {
		if err := s.ensureFaculty(ctx, req.FacultyID); err != nil {
			return nil, err
		}
		section.FacultyID = req.FacultyID
	}
	if section.LectureHours+section.LabHours <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "section requires at least one weekly hour")
	}

	if err := s.sections.Update(ctx, section); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	resp := sectionResponse(section)
	return &resp, nil
}

// Delete removes a section.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if err := s.sections.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}
	return nil
}

func (s *SectionService) ensureFaculty(ctx context.Context, facultyID *string) error {
	if facultyID == nil || *facultyID == "" || s.faculty == nil {
		return nil
	}
	if _, err := s.faculty.FindByID(ctx, *facultyID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	return nil
}

func sectionResponse(section *models.Section) dto.SectionResponse {
	return dto.SectionResponse{
		ID:              section.ID,
		CourseCode:      section.CourseCode,
		CourseName:      section.CourseName,
		Label:           section.Label,
		YearLevel:       section.YearLevel,
		StudentCount:    section.StudentCount,
		LectureHours:    section.LectureHours,
		LabHours:        section.LabHours,
		LectureFeatures: models.FeatureNames(section.LectureFeatures),
		LabFeatures:     models.FeatureNames(section.LabFeatures),
		TermID:          section.TermID,
		FacultyID:       section.FacultyID,
	}
}
