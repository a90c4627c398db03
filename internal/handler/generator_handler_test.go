package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/acadplan-api/internal/dto"
	internalmiddleware "github.com/acadplan/acadplan-api/internal/middleware"
	"github.com/acadplan/acadplan-api/internal/models"
)

type generatorMock struct {
	institutionID string
	scheduleID    string
	response      *dto.GenerateResponse
	err           error
}

func (m *generatorMock) Generate(_ context.Context, institutionID, scheduleID string) (*dto.GenerateResponse, error) {
	m.institutionID = institutionID
	m.scheduleID = scheduleID
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func generatorTestClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "coord-1", InstitutionID: "inst-1", Role: models.RoleCoordinator}
}

func TestGenerateHandlerSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &generatorMock{response: &dto.GenerateResponse{ScheduleID: "sched-1", EntriesCreated: 10}}
	handler := NewGeneratorHandler(mockSvc, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, generatorTestClaims())
		c.Next()
	})
	router.POST("/schedules/:id/generate", handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedules/sched-1/generate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "inst-1", mockSvc.institutionID)
	require.Equal(t, "sched-1", mockSvc.scheduleID)
}

func TestGenerateHandlerUnauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGeneratorHandler(&generatorMock{}, nil)

	router := gin.New()
	router.POST("/schedules/:id/generate", internalmiddleware.RBAC(string(models.RoleAdmin)), handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedules/sched-1/generate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateHandlerForbiddenForTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewGeneratorHandler(&generatorMock{}, nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", InstitutionID: "inst-1", Role: models.RoleTeacher})
		c.Next()
	})
	router.POST("/schedules/:id/generate", internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleCoordinator)), handler.Generate)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/schedules/sched-1/generate", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
