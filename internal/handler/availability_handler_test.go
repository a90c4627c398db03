package handler

import (
	"bytes"
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

type availabilityManagerMock struct {
	teacherID string
	captured  dto.ReplaceAvailabilityRequest
}

func (m *availabilityManagerMock) List(_ context.Context, _, teacherID string) ([]models.TeacherAvailability, error) {
	m.teacherID = teacherID
	return []models.TeacherAvailability{{TeacherID: teacherID, DayOfWeek: 1}}, nil
}

func (m *availabilityManagerMock) Replace(_ context.Context, _, teacherID string, req dto.ReplaceAvailabilityRequest) ([]models.TeacherAvailability, error) {
	m.teacherID = teacherID
	m.captured = req
	return nil, nil
}

func availabilityRouter(mockSvc *availabilityManagerMock, claims *models.JWTClaims) *gin.Engine {
	handler := NewAvailabilityHandler(mockSvc)
	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(internalmiddleware.ContextUserKey, claims)
			c.Next()
		})
	}
	guard := internalmiddleware.RBAC(string(models.RoleAdmin), string(models.RoleCoordinator), "SELF")
	router.GET("/teachers/:id/availability", guard, handler.List)
	router.PUT("/teachers/:id/availability", guard, handler.Replace)
	return router
}

func TestAvailabilityListAsCoordinator(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityManagerMock{}
	router := availabilityRouter(mockSvc, &models.JWTClaims{UserID: "coord-1", InstitutionID: "inst-1", Role: models.RoleCoordinator})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/teachers/teacher-1/availability", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "teacher-1", mockSvc.teacherID)
}

func TestAvailabilityReplaceAsSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityManagerMock{}
	router := availabilityRouter(mockSvc, &models.JWTClaims{UserID: "teacher-1", InstitutionID: "inst-1", Role: models.RoleTeacher})

	payload := []byte(`{"windows":[{"day_of_week":1,"start_time":"08:00","end_time":"12:00","is_available":true}]}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/teachers/teacher-1/availability", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, mockSvc.captured.Windows, 1)
}

func TestAvailabilityReplaceForbiddenForOtherTeacher(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &availabilityManagerMock{}
	router := availabilityRouter(mockSvc, &models.JWTClaims{UserID: "teacher-2", InstitutionID: "inst-1", Role: models.RoleTeacher})

	payload := []byte(`{"windows":[]}`)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, "/teachers/teacher-1/availability", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	require.Empty(t, mockSvc.teacherID)
}
