package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campusplan/scheduler-api/internal/dto"
	"github.com/campusplan/scheduler-api/internal/models"
	"github.com/campusplan/scheduler-api/internal/service"
	"github.com/campusplan/scheduler-api/pkg/response"
)

type scheduleQuerier interface {
	Query(ctx context.Context, query dto.ScheduleQuery) ([]dto.AllocationResponse, *models.Pagination, error)
	ListRuns(ctx context.Context, termID string) ([]models.ScheduleRun, error)
	GetRun(ctx context.Context, runID string) (*models.ScheduleRun, error)
	Lock(ctx context.Context, runID string) (*models.ScheduleRun, error)
	DeleteDraft(ctx context.Context, runID string) error
}

type timetableExporter interface {
	Enqueue(ctx context.Context, runID string, format service.ExportFormat) (*service.ExportTicket, error)
	Fetch(ctx context.Context, token string) (string, []byte, error)
}

// ScheduleHandler exposes effective-schedule queries and the run lifecycle.
type ScheduleHandler struct {
	service  scheduleQuerier
	exporter timetableExporter
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc *service.ScheduleService, exporter *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{service: svc, exporter: exporter}
}

// Query godoc
// @Summary Query the effective schedule
// @Description Filters by room, faculty, section or day. Providing weekStart merges that week's active overrides into the view.
// @Tags Schedule
// @Produce json
// @Param termId query string false "Term ID (defaults to its locked run)"
// @Param runId query string false "Run ID"
// @Param roomId query string false "Room ID"
// @Param facultyId query string false "Faculty ID"
// @Param sectionId query string false "Section ID"
// @Param dayOfWeek query int false "ISO day of week (1-7)"
// @Param weekStart query string false "Week start date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) Query(c *gin.Context) {
	query := dto.ScheduleQuery{
		TermID:    c.Query("termId"),
		RunID:     c.Query("runId"),
		RoomID:    c.Query("roomId"),
		FacultyID: c.Query("facultyId"),
		SectionID: c.Query("sectionId"),
		WeekStart: c.Query("weekStart"),
		Page:      queryInt(c, "page"),
		PageSize:  queryInt(c, "pageSize"),
		DayOfWeek: queryInt(c, "dayOfWeek"),
	}
	entries, pagination, err := h.service.Query(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// Runs godoc
// @Summary List schedule run versions for a term
// @Tags Schedule
// @Produce json
// @Param termId query string true "Term ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs [get]
func (h *ScheduleHandler) Runs(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context(), c.Query("termId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, runs, nil)
}

// Run godoc
// @Summary Get one schedule run
// @Tags Schedule
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs/{id} [get]
func (h *ScheduleHandler) Run(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// Lock godoc
// @Summary Lock a draft run as the canonical term schedule
// @Description Supersedes the previously locked run and invalidates its overrides atomically.
// @Tags Schedule
// @Produce json
// @Param id path string true "Run ID"
// @Success 200 {object} response.Envelope
// @Router /schedule/runs/{id}/lock [post]
func (h *ScheduleHandler) Lock(c *gin.Context) {
	run, err := h.service.Lock(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, run, nil)
}

// DeleteRun godoc
// @Summary Delete a draft run
// @Tags Schedule
// @Param id path string true "Run ID"
// @Success 204
// @Router /schedule/runs/{id} [delete]
func (h *ScheduleHandler) DeleteRun(c *gin.Context) {
	if err := h.service.DeleteDraft(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Queue a timetable export
// @Tags Schedule
// @Produce json
// @Param id path string true "Run ID"
// @Param format query string true "csv or pdf"
// @Success 202 {object} response.Envelope
// @Router /schedule/runs/{id}/export [post]
func (h *ScheduleHandler) Export(c *gin.Context) {
	ticket, err := h.exporter.Enqueue(c.Request.Context(), c.Param("id"), service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, ticket, nil)
}

// Download godoc
// @Summary Download a finished export
// @Tags Schedule
// @Produce octet-stream
// @Param token path string true "Export token"
// @Success 200 {file} binary
// @Router /schedule/exports/{token} [get]
func (h *ScheduleHandler) Download(c *gin.Context) {
	filename, content, err := h.exporter.Fetch(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/octet-stream", content)
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}
