package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/service"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/response"
)

type scheduleGenerator interface {
	Generate(ctx context.Context, institutionID, scheduleID string) (*dto.GenerateResponse, error)
}

// GeneratorHandler triggers automatic schedule generation.
type GeneratorHandler struct {
	service scheduleGenerator
	metrics *service.MetricsService
}

// NewGeneratorHandler constructs a generator handler.
func NewGeneratorHandler(svc scheduleGenerator, metrics *service.MetricsService) *GeneratorHandler {
	return &GeneratorHandler{service: svc, metrics: metrics}
}

// Generate godoc
// @Summary Generate entries for a draft schedule
// @Tags Generator
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/generate [post]
func (h *GeneratorHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	result, err := h.service.Generate(c.Request.Context(), claims.InstitutionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordGeneration(result.EntriesCreated, result.TotalUnmetHours)
	response.JSON(c, http.StatusOK, result, nil)
}
