package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/campusplan/scheduler-api/internal/dto"
	appErrors "github.com/campusplan/scheduler-api/pkg/errors"
)

type scheduleGeneratorMock struct {
	captured dto.GenerateScheduleRequest
	saveErr  error
}

func (m *scheduleGeneratorMock) Generate(ctx context.Context, req dto.GenerateScheduleRequest) (*dto.GenerateScheduleResponse, error) {
	m.captured = req
	return &dto.GenerateScheduleResponse{ProposalID: "proposal-1", TermID: req.TermID, Complete: true}, nil
}

func (m *scheduleGeneratorMock) Save(ctx context.Context, req dto.SaveScheduleRequest) (*dto.ScheduleRunResponse, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &dto.ScheduleRunResponse{RunID: "run-1", TermID: "term-1", Version: 1, Status: "DRAFT"}, nil
}

func (m *scheduleGeneratorMock) GetProposal(id string) (*dto.GenerateScheduleResponse, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "proposal not found or expired")
}

func TestSchedulerHandlerGenerate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleGeneratorMock{}
	handler := &SchedulerHandler{service: mockSvc}

	payload := []byte(`{"termId":"term-1","startHour":7,"endHour":19,"days":[1,2,3,4,5]}`)
	req, _ := http.NewRequest(http.MethodPost, "/scheduler/generate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "term-1", mockSvc.captured.TermID)
	require.Equal(t, 19, mockSvc.captured.EndHour)
}

func TestSchedulerHandlerGenerateBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SchedulerHandler{service: &scheduleGeneratorMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/scheduler/generate", bytes.NewReader([]byte(`{"termId":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Generate(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSchedulerHandlerSaveCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SchedulerHandler{service: &scheduleGeneratorMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/scheduler/save", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, http.StatusCreated, w.Code)
}

func TestSchedulerHandlerSaveUnplaceable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SchedulerHandler{service: &scheduleGeneratorMock{
		saveErr: appErrors.Clone(appErrors.ErrUnplaceable, "2 demand units could not be placed"),
	}}

	req, _ := http.NewRequest(http.MethodPost, "/scheduler/save", bytes.NewReader([]byte(`{"proposalId":"proposal-1"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.Save(c)

	require.Equal(t, appErrors.ErrUnplaceable.Status, w.Code)
}

func TestSchedulerHandlerProposalNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &SchedulerHandler{service: &scheduleGeneratorMock{}}

	req, _ := http.NewRequest(http.MethodGet, "/scheduler/proposals/missing", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Proposal(c)

	require.Equal(t, http.StatusNotFound, w.Code)
}
