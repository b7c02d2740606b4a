package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	"github.com/campusplan/scheduler-api/internal/service"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
	"github.com/campusplan/scheduler-api/pkg/middleware/auth"
	"github.com/campusplan/scheduler-api/pkg/response"
)

type overrideManager interface {
	Create(ctx context.Context, req dto.CreateOverrideRequest, requestedBy string) (*dto.OverrideResponse, error)
	List(ctx context.Context, query dto.OverrideQuery) ([]dto.OverrideResponse, *models.Pagination, error)
	Cancel(ctx context.Context, id string) error
}

// OverrideHandler exposes the live override endpoints.
type OverrideHandler struct {
	service overrideManager
}

// NewOverrideHandler constructs the handler.
func NewOverrideHandler(svc *service.OverrideService) *OverrideHandler {
	return &OverrideHandler{service: svc}
}

// Create godoc
// @Summary Create a weekly override on a locked allocation
// @Description Validates the proposed slot against the effective schedule atomically. A conflict rejects the override and names the colliding entry.
// @Tags Overrides
// @Accept json
// @Produce json
// @Param payload body dto.CreateOverrideRequest true "Override payload"
// @Success 201 {object} response.Envelope
// @Router /overrides [post]
func (h *OverrideHandler) Create(c *gin.Context) {
	var req dto.CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid override payload"))
		return
	}
	requestedBy := auth.FacultyID(c)
	if requestedBy == "" {
		requestedBy = auth.Role(c)
	}
	result, err := h.service.Create(c.Request.Context(), req, requestedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// List godoc
// @Summary List overrides
// @Tags Overrides
// @Produce json
// @Param runId query string false "Run ID"
// @Param allocationId query string false "Allocation ID"
// @Param weekStart query string false "Week start date (YYYY-MM-DD)"
// @Param status query string false "Override status"
// @Success 200 {object} response.Envelope
// @Router /overrides [get]
func (h *OverrideHandler) List(c *gin.Context) {
	query := dto.OverrideQuery{
		RunID:        c.Query("runId"),
		AllocationID: c.Query("allocationId"),
		WeekStart:    c.Query("weekStart"),
		Status:       c.Query("status"),
		Page:         queryInt(c, "page"),
		PageSize:     queryInt(c, "pageSize"),
	}
	overrides, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overrides, pagination)
}

// Cancel godoc
// @Summary Cancel an override
// @Tags Overrides
// @Param id path string true "Override ID"
// @Success 204
// @Router /overrides/{id} [delete]
func (h *OverrideHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
