package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/response"
)

type availabilityManager interface {
	List(ctx context.Context, institutionID, teacherID string) ([]models.TeacherAvailability, error)
	Replace(ctx context.Context, institutionID, teacherID string, req dto.ReplaceAvailabilityRequest) ([]models.TeacherAvailability, error)
}

// AvailabilityHandler manages teacher availability windows.
type AvailabilityHandler struct {
	service availabilityManager
}

// NewAvailabilityHandler constructs an availability handler.
func NewAvailabilityHandler(svc availabilityManager) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// List godoc
// @Summary List a teacher's availability windows
// @Tags Availability
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *AvailabilityHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	windows, err := h.service.List(c.Request.Context(), claims.InstitutionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}

// Replace godoc
// @Summary Replace a teacher's availability windows
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body dto.ReplaceAvailabilityRequest true "Windows payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [put]
func (h *AvailabilityHandler) Replace(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ReplaceAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	windows, err := h.service.Replace(c.Request.Context(), claims.InstitutionID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, windows, nil)
}
