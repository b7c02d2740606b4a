package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	"github.com/campusplan/scheduler-api/internal/service"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
	"github.com/campusplan/scheduler-api/pkg/response"
)

type facultyManager interface {
	List(ctx context.Context, query dto.FacultyQuery) ([]dto.FacultyResponse, *models.Pagination, error)
	Get(ctx context.Context, id string) (*dto.FacultyResponse, error)
	Create(ctx context.Context, req dto.CreateFacultyRequest) (*dto.FacultyResponse, error)
	Update(ctx context.Context, id string, req dto.UpdateFacultyRequest) (*dto.FacultyResponse, error)
}

// FacultyHandler exposes the faculty catalog endpoints.
type FacultyHandler struct {
	service facultyManager
}

// NewFacultyHandler constructs the handler.
func NewFacultyHandler(svc *service.FacultyService) *FacultyHandler {
	return &FacultyHandler{service: svc}
}

// List godoc
// @Summary List faculty members
// @Tags Faculty
// @Produce json
// @Param department query string false "Department"
// @Param active query bool false "Active flag"
// @Param search query string false "Name search"
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *FacultyHandler) List(c *gin.Context) {
	query := dto.FacultyQuery{
		Department: c.Query("department"),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page"),
		PageSize:   queryInt(c, "pageSize"),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			query.Active = &active
		}
	}
	faculty, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, faculty, pagination)
}

// Get godoc
// @Summary Get one faculty member
// @Tags Faculty
// @Produce json
// @Param id path string true "Faculty ID"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [get]
func (h *FacultyHandler) Get(c *gin.Context) {
	member, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}

// Create godoc
// @Summary Register a faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param payload body dto.CreateFacultyRequest true "Faculty payload"
// @Success 201 {object} response.Envelope
// @Router /faculty [post]
func (h *FacultyHandler) Create(c *gin.Context) {
	var req dto.CreateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	member, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// Update godoc
// @Summary Update a faculty member
// @Tags Faculty
// @Accept json
// @Produce json
// @Param id path string true "Faculty ID"
// @Param payload body dto.UpdateFacultyRequest true "Faculty payload"
// @Success 200 {object} response.Envelope
// @Router /faculty/{id} [patch]
func (h *FacultyHandler) Update(c *gin.Context) {
	var req dto.UpdateFacultyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid faculty payload"))
		return
	}
	member, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, member, nil)
}
