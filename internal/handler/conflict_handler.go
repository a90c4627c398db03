package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/acadplan-api/internal/dto"
	"github.com/acadplan/acadplan-api/internal/models"
	"github.com/acadplan/acadplan-api/internal/service"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/response"
)

type conflictDetector interface {
	DetectForSchedule(ctx context.Context, institutionID, scheduleID string) (*dto.ConflictReport, error)
	DetectPublished(ctx context.Context, institutionID string) (*dto.ConflictReport, error)
	Resolve(ctx context.Context, institutionID, userID string, req dto.ResolveConflictRequest) (*models.ScheduleConflict, error)
	ListResolved(ctx context.Context, institutionID, scheduleID string) ([]models.ScheduleConflict, error)
}

// ConflictHandler exposes conflict detection and resolution tracking.
type ConflictHandler struct {
	service conflictDetector
	metrics *service.MetricsService
}

// NewConflictHandler constructs a conflict handler.
func NewConflictHandler(svc conflictDetector, metrics *service.MetricsService) *ConflictHandler {
	return &ConflictHandler{service: svc, metrics: metrics}
}

// DetectForSchedule godoc
// @Summary Detect conflicts within one schedule
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/conflicts [get]
func (h *ConflictHandler) DetectForSchedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.DetectForSchedule(c.Request.Context(), claims.InstitutionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record(report)
	response.JSON(c, http.StatusOK, report, nil)
}

// DetectPublished godoc
// @Summary Detect conflicts across all published schedules
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) DetectPublished(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	report, err := h.service.DetectPublished(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.record(report)
	response.JSON(c, http.StatusOK, report, nil)
}

// Resolve godoc
// @Summary Record a conflict as resolved
// @Tags Conflicts
// @Accept json
// @Produce json
// @Param payload body dto.ResolveConflictRequest true "Conflict payload"
// @Success 201 {object} response.Envelope
// @Router /conflicts/resolve [post]
func (h *ConflictHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Resolve(c.Request.Context(), claims.InstitutionID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// ListResolved godoc
// @Summary List resolved conflicts of a schedule
// @Tags Conflicts
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/conflicts/resolved [get]
func (h *ConflictHandler) ListResolved(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.service.ListResolved(c.Request.Context(), claims.InstitutionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

func (h *ConflictHandler) record(report *dto.ConflictReport) {
	h.metrics.RecordCacheLookup(report.FromCache)
	if report.FromCache {
		return
	}
	counts := map[models.ConflictType]int{}
	for _, conflict := range report.Conflicts {
		counts[conflict.ConflictType]++
	}
	for conflictType, count := range counts {
		h.metrics.RecordConflicts(string(conflictType), count)
	}
}
