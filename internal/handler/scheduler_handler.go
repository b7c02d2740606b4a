package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/service"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
	"github.com/campusplan/scheduler-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error)
	Save(ctx context.Context, req dto.SaveScheduleRequest) (*dto.ScheduleRunResponse, error)
	GetProposal(id string) (*dto.GenerateScheduleResponse, error)
}

// SchedulerHandler exposes the schedule generation endpoints.
type SchedulerHandler struct {
	service scheduleGenerator
}

// NewSchedulerHandler constructs the handler.
func NewSchedulerHandler(svc *service.ScheduleGeneratorService) *SchedulerHandler {
	return &SchedulerHandler{service: svc}
}

// Generate godoc
// @Summary Generate a timetable proposal for a term
// @Description Snapshots the room, section and faculty catalogs and runs the scheduling engine. The proposal stays in memory until saved or expired.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.GenerateScheduleRequest true "Generation payload"
// @Success 200 {object} response.Envelope
// @Router /scheduler/generate [post]
func (h *SchedulerHandler) Generate(c *gin.Context) {
	var req dto.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Save godoc
// @Summary Persist a proposal as a draft schedule run
// @Description Rejects incomplete proposals unless allowPartial is set. The saved run is DRAFT until locked.
// @Tags Scheduler
// @Accept json
// @Produce json
// @Param payload body dto.SaveScheduleRequest true "Save payload"
// @Success 201 {object} response.Envelope
// @Router /scheduler/save [post]
func (h *SchedulerHandler) Save(c *gin.Context) {
	var req dto.SaveScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid save payload"))
		return
	}
	run, err := h.service.Save(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, run)
}

// Proposal godoc
// @Summary Fetch a stored proposal
// @Tags Scheduler
// @Produce json
// @Param id path string true "Proposal ID"
// @Success 200 {object} response.Envelope
// @Router /scheduler/proposals/{id} [get]
func (h *SchedulerHandler) Proposal(c *gin.Context) {
	result, err := h.service.GetProposal(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
