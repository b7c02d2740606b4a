package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type facultyRepository interface {
	List(ctx context.Context, filter models.FacultyFilter) ([]models.Faculty, int, error)
	FindByID(ctx context.Context, id string) (*models.Faculty, error)
	Create(ctx context.Context, member *models.Faculty) error
	Update(ctx context.Context, member *models.Faculty) error
}

// FacultyService manages the faculty catalog and availability windows.
type FacultyService struct {
	faculty   facultyRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFacultyService constructs a FacultyService.
func NewFacultyService(faculty facultyRepository, validate *validator.Validate, logger *zap.Logger) *FacultyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FacultyService{faculty: faculty, validator: validate, logger: logger}
}

// List returns faculty matching the query.
func (s *FacultyService) List(ctx context.Context, query dto.FacultyQuery) ([]dto.FacultyResponse, *models.Pagination, error) {
	members, total, err := s.faculty.List(ctx, models.FacultyFilter{
		Department: query.Department,
		Active:     query.Active,
		Search:     query.Search,
		Page:       query.Page,
		PageSize:   query.PageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faculty")
	}
	responses := make([]dto.FacultyResponse, 0, len(members))
	for i := range members {
		resp, convErr := facultyResponse(&members[i])
		if convErr != nil {
			return nil, nil, convErr
		}
		responses = append(responses, *resp)
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

// Get loads one faculty member.
func (s *FacultyService) Get(ctx context.Context, id string) (*dto.FacultyResponse, error) {
	member, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}
	return facultyResponse(member)
}

// Create registers a faculty member.
func (s *FacultyService) Create(ctx context.Context, req dto.CreateFacultyRequest) (*dto.FacultyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	unavailable, err := encodeWindows(req.Unavailable)
	if err != nil {
		return nil, err
	}
	preferred, err := encodeWindows(req.Preferred)
	if err != nil {
		return nil, err
	}

	member := &models.Faculty{
		FullName:       req.FullName,
		Department:     req.Department,
		MaxWeeklyHours: req.MaxWeeklyHours,
		EmploymentType: models.EmploymentType(req.EmploymentType),
		Unavailable:    unavailable,
		Preferred:      preferred,
		Active:         true,
	}
	if err := s.faculty.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faculty member")
	}
	s.logger.Info("faculty created", zap.String("faculty_id", member.ID), zap.String("department", member.Department))
	return facultyResponse(member)
}

// Update patches a faculty member. Availability changes only affect
// future scheduling runs; existing allocations are untouched.
func (s *FacultyService) Update(ctx context.Context, id string, req dto.UpdateFacultyRequest) (*dto.FacultyResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faculty payload")
	}
	member, err := s.faculty.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty member")
	}

	if req.FullName != nil {
		member.FullName = *req.FullName
	}
	if req.Department != nil {
		member.Department = *req.Department
	}
	if req.MaxWeeklyHours != nil {
		member.MaxWeeklyHours = *req.MaxWeeklyHours
	}
	if req.EmploymentType != nil {
		member.EmploymentType = models.EmploymentType(*req.EmploymentType)
	}
	if req.Unavailable != nil {
		encoded, encErr := encodeWindows(*req.Unavailable)
		if encErr != nil {
			return nil, encErr
		}
		member.Unavailable = encoded
	}
	if req.Preferred != nil {
		encoded, encErr := encodeWindows(*req.Preferred)
		if encErr != nil {
			return nil, encErr
		}
		member.Preferred = encoded
	}
	if req.Active != nil {
		member.Active = *req.Active
	}

	if err := s.faculty.Update(ctx, member); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faculty member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faculty member")
	}
	return facultyResponse(member)
}

func encodeWindows(windows []dto.AvailabilityWindow) (types.JSONText, error) {
	stored := make([]models.FacultyWindow, 0, len(windows))
	for _, w := range windows {
		stored = append(stored, models.FacultyWindow{
			DayOfWeek: w.DayOfWeek,
			StartHour: w.StartHour,
			EndHour:   w.EndHour,
		})
	}
	encoded, err := json.Marshal(stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode availability windows")
	}
	return types.JSONText(encoded), nil
}

func facultyResponse(member *models.Faculty) (*dto.FacultyResponse, error) {
	decode := func(raw types.JSONText) ([]dto.AvailabilityWindow, error) {
		if len(raw) == 0 {
			return nil, nil
		}
		var stored []models.FacultyWindow
		if err := json.Unmarshal(raw, &stored); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode availability windows")
		}
		windows := make([]dto.AvailabilityWindow, 0, len(stored))
		for _, w := range stored {
			windows = append(windows, dto.AvailabilityWindow{
				DayOfWeek: w.DayOfWeek,
				StartHour: w.StartHour,
				EndHour:   w.EndHour,
			})
		}
		return windows, nil
	}

	unavailable, err := decode(member.Unavailable)
	if err != nil {
		return nil, err
	}
	preferred, err := decode(member.Preferred)
	if err != nil {
		return nil, err
	}
	return &dto.FacultyResponse{
		ID:             member.ID,
		FullName:       member.FullName,
		Department:     member.Department,
		MaxWeeklyHours: member.MaxWeeklyHours,
		EmploymentType: string(member.EmploymentType),
		Unavailable:    unavailable,
		Preferred:      preferred,
		Active:         member.Active,
	}, nil
}
