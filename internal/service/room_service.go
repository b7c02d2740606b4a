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

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	ExistsByCode(ctx context.Context, building, code, excludeID string) (bool, error)
	Create(ctx context.Context, room *models.Room) error
	Update(ctx context.Context, room *models.Room) error
	HasAllocations(ctx context.Context, roomID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

// RoomService manages the room catalog.
type RoomService struct {
	rooms     roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs a RoomService.
func NewRoomService(rooms roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{rooms: rooms, validator: validate, logger: logger}
}

// List returns rooms matching the query.
func (s *RoomService) List(ctx context.Context, query dto.RoomQuery) ([]dto.RoomResponse, *models.Pagination, error) {
	rooms, total, err := s.rooms.List(ctx, models.RoomFilter{
		Building: query.Building,
		Status:   query.Status,
		RoomType: query.RoomType,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	responses := make([]dto.RoomResponse, 0, len(rooms))
	for i := range rooms {
		responses = append(responses, roomResponse(&rooms[i]))
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

// Get loads one room.
func (s *RoomService) Get(ctx context.Context, id string) (*dto.RoomResponse, error) {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	resp := roomResponse(room)
	return &resp, nil
}

// Create registers a room after checking building/code uniqueness.
func (s *RoomService) Create(ctx context.Context, req dto.CreateRoomRequest) (*dto.RoomResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	exists, err := s.rooms.ExistsByCode(ctx, req.Building, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "room code already in use in this building")
	}

	room := &models.Room{
		Building: req.Building,
		Code:     req.Code,
		Capacity: req.Capacity,
		RoomType: models.RoomType(req.RoomType),
		Features: models.ParseFeatures(req.Features),
		Floor:    req.Floor,
		Status:   models.RoomStatusActive,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create room")
	}
	s.logger.Info("room created", zap.String("room_id", room.ID), zap.String("building", room.Building), zap.String("code", room.Code))
	resp := roomResponse(room)
	return &resp, nil
}

// Update patches a room. Changing status to INACTIVE leaves past
// allocations intact; the room simply stops being schedulable.
func (s *RoomService) Update(ctx context.Context, id string, req dto.UpdateRoomRequest) (*dto.RoomResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	if req.Building != nil {
		room.Building = *req.Building
	}
	if req.Code != nil {
		room.Code = *req.Code
	}
	if req.Building != nil || req.Code != nil {
		exists, checkErr := s.rooms.ExistsByCode(ctx, room.Building, room.Code, room.ID)
		if checkErr != nil {
			return nil, appErrors.Wrap(checkErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "room code already in use in this building")
		}
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.RoomType != nil {
		room.RoomType = models.RoomType(*req.RoomType)
	}
	if req.Features != nil {
		room.Features = models.ParseFeatures(*req.Features)
	}
	if req.Floor != nil {
		room.Floor = *req.Floor
	}
	if req.Status != nil {
		room.Status = models.RoomStatus(*req.Status)
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update room")
	}
	resp := roomResponse(room)
	return &resp, nil
}

// Delete removes a room, or deactivates it when allocations reference it.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	room, err := s.rooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}

	referenced, err := s.rooms.HasAllocations(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room allocations")
	}
	if referenced {
		room.Status = models.RoomStatusInactive
		if err := s.rooms.Update(ctx, room); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate room")
		}
		s.logger.Info("room deactivated instead of deleted", zap.String("room_id", id))
		return nil
	}

	if err := s.rooms.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete room")
	}
	return nil
}

func roomResponse(room *models.Room) dto.RoomResponse {
	return dto.RoomResponse{
		ID:       room.ID,
		Building: room.Building,
		Code:     room.Code,
		Capacity: room.Capacity,
		RoomType: string(room.RoomType),
		Features: models.FeatureNames(room.Features),
		Floor:    room.Floor,
		Status:   string(room.Status),
	}
}
