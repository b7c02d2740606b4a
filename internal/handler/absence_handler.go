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

type absenceManager interface {
	ReportAbsence(ctx context.Context, req dto.ReportAbsenceRequest, facultyID string) (*models.Absence, error)
	ListAbsences(ctx context.Context, facultyID string) ([]models.Absence, error)
	RequestMakeup(ctx context.Context, req dto.CreateMakeupRequest, facultyID string) (*dto.MakeupResponse, error)
	ListPending(ctx context.Context) ([]dto.MakeupResponse, error)
	DecideMakeup(ctx context.Context, makeupID string, req dto.DecideMakeupRequest, decidedBy string) (*dto.MakeupResponse, error)
}

// AbsenceHandler exposes absence reporting and the makeup workflow.
type AbsenceHandler struct {
	service absenceManager
}

// NewAbsenceHandler constructs the handler.
func NewAbsenceHandler(svc *service.AbsenceService) *AbsenceHandler {
	return &AbsenceHandler{service: svc}
}

// Report godoc
// @Summary Report an absence for one of your allocations
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body dto.ReportAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Router /absences [post]
func (h *AbsenceHandler) Report(c *gin.Context) {
	var req dto.ReportAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid absence payload"))
		return
	}
	facultyID := auth.FacultyID(c)
	if facultyID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "faculty identity required"))
		return
	}
	absence, err := h.service.ReportAbsence(c.Request.Context(), req, facultyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, absence)
}

// List godoc
// @Summary List your reported absences
// @Tags Absences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	facultyID := auth.FacultyID(c)
	if facultyID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "faculty identity required"))
		return
	}
	absences, err := h.service.ListAbsences(c.Request.Context(), facultyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, absences, nil)
}

// RequestMakeup godoc
// @Summary Request a makeup meeting for a missed class
// @Tags Absences
// @Accept json
// @Produce json
// @Param payload body dto.CreateMakeupRequest true "Makeup payload"
// @Success 201 {object} response.Envelope
// @Router /makeups [post]
func (h *AbsenceHandler) RequestMakeup(c *gin.Context) {
	var req dto.CreateMakeupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid makeup payload"))
		return
	}
	facultyID := auth.FacultyID(c)
	if facultyID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "faculty identity required"))
		return
	}
	makeup, err := h.service.RequestMakeup(c.Request.Context(), req, facultyID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, makeup)
}

// PendingMakeups godoc
// @Summary List pending makeup requests
// @Tags Absences
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /makeups/pending [get]
func (h *AbsenceHandler) PendingMakeups(c *gin.Context) {
	makeups, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, makeups, nil)
}

// DecideMakeup godoc
// @Summary Approve or reject a pending makeup request
// @Description Approval re-validates the proposed slot against the effective schedule; a conflict rejects the decision.
// @Tags Absences
// @Accept json
// @Produce json
// @Param id path string true "Makeup ID"
// @Param payload body dto.DecideMakeupRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /makeups/{id}/decide [post]
func (h *AbsenceHandler) DecideMakeup(c *gin.Context) {
	var req dto.DecideMakeupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}
	decidedBy := auth.FacultyID(c)
	if decidedBy == "" {
		decidedBy = auth.Role(c)
	}
	makeup, err := h.service.DecideMakeup(c.Request.Context(), c.Param("id"), req, decidedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, makeup, nil)
}
