package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/dto"
	internalmiddleware "github.com/acadplan/acadplan-api/internal/middleware"
	"github.com/acadplan/acadplan-api/internal/models"
)

type conflictDetectorMock struct {
	report        *dto.ConflictReport
	resolved      *models.ScheduleConflict
	capturedReq   dto.ResolveConflictRequest
	institutionID string
	scheduleID    string
	err           error
}

func (m *conflictDetectorMock) DetectForSchedule(_ context.Context, institutionID, scheduleID string) (*dto.ConflictReport, error) {
	m.institutionID = institutionID
	m.scheduleID = scheduleID
	return m.report, m.err
}

func (m *conflictDetectorMock) DetectPublished(_ context.Context, institutionID string) (*dto.ConflictReport, error) {
	m.institutionID = institutionID
	return m.report, m.err
}

func (m *conflictDetectorMock) Resolve(_ context.Context, institutionID, userID string, req dto.ResolveConflictRequest) (*models.ScheduleConflict, error) {
	m.institutionID = institutionID
	m.capturedReq = req
	return m.resolved, m.err
}

func (m *conflictDetectorMock) ListResolved(_ context.Context, institutionID, scheduleID string) ([]models.ScheduleConflict, error) {
	m.institutionID = institutionID
	m.scheduleID = scheduleID
	return nil, m.err
}

func conflictRouter(mockSvc *conflictDetectorMock) *gin.Engine {
	handler := NewConflictHandler(mockSvc, nil)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "coord-1", InstitutionID: "inst-1", Role: models.RoleCoordinator})
		c.Next()
	})
	router.GET("/schedules/:id/conflicts", handler.DetectForSchedule)
	router.GET("/conflicts", handler.DetectPublished)
	router.POST("/conflicts/resolve", handler.Resolve)
	return router
}

func TestDetectForScheduleHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictDetectorMock{report: &dto.ConflictReport{
		ScheduleIDs: []string{"sched-1"},
		Conflicts: []models.Conflict{
			{ConflictType: models.ConflictTeacherDoubleBooking, ScheduleID: "sched-1", EntryIDs: []string{"e1", "e2"}},
		},
	}}
	router := conflictRouter(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/schedules/sched-1/conflicts", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "inst-1", mockSvc.institutionID)
	require.Equal(t, "sched-1", mockSvc.scheduleID)

	var envelope struct {
		Data dto.ConflictReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Conflicts, 1)
	require.Equal(t, models.ConflictTeacherDoubleBooking, envelope.Data.Conflicts[0].ConflictType)
}

func TestDetectPublishedHandlerEmptyReport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictDetectorMock{report: &dto.ConflictReport{ScheduleIDs: []string{}, Conflicts: []models.Conflict{}}}
	router := conflictRouter(mockSvc)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/conflicts", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.ConflictReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Empty(t, envelope.Data.Conflicts)
}

func TestResolveHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &conflictDetectorMock{resolved: &models.ScheduleConflict{ID: "conflict-1"}}
	router := conflictRouter(mockSvc)

	payload := []byte(`{"schedule_id":"sched-1","conflict_type":"teacher_double_booking","description":"double booked","entry_ids":["e1","e2"]}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/conflicts/resolve", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, "sched-1", mockSvc.capturedReq.ScheduleID)
	require.Equal(t, []string{"e1", "e2"}, mockSvc.capturedReq.EntryIDs)
}

func TestResolveHandlerMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := conflictRouter(&conflictDetectorMock{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/conflicts/resolve", bytes.NewReader([]byte(`{"schedule_id":`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
