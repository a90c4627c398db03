package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/acadplan-api/internal/models"
	"github.com/acadplan/acadplan-api/internal/service"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/response"
)

// ExportHandler manages schedule export jobs and signed downloads.
type ExportHandler struct {
	service *service.ExportService
	metrics *service.MetricsService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(svc *service.ExportService, metrics *service.MetricsService) *ExportHandler {
	return &ExportHandler{service: svc, metrics: metrics}
}

type exportRequest struct {
	Format string `json:"format"`
}

// Enqueue godoc
// @Summary Queue an export of a schedule
// @Tags Exports
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body exportRequest true "Export format (csv or pdf)"
// @Success 202 {object} response.Envelope
// @Router /schedules/{id}/export [post]
func (h *ExportHandler) Enqueue(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	format := models.ExportFormat(strings.ToLower(req.Format))

	job, err := h.service.Enqueue(c.Request.Context(), claims.InstitutionID, claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordExportJob(string(job.Status))
	response.JSON(c, http.StatusAccepted, job, nil)
}

// Get godoc
// @Summary Get export job status
// @Tags Exports
// @Produce json
// @Param id path string true "Export job ID"
// @Success 200 {object} response.Envelope
// @Router /exports/{id} [get]
func (h *ExportHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	job, err := h.service.Get(c.Request.Context(), claims.InstitutionID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download an export via signed token
// @Tags Exports
// @Produce octet-stream
// @Param token query string true "Signed download token"
// @Success 200 {file} file
// @Router /exports/download [get]
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing token"))
		return
	}

	file, filename, err := h.service.ResolveDownload(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export file"))
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(filename, ".csv"):
		contentType = "text/csv"
	case strings.HasSuffix(filename, ".pdf"):
		contentType = "application/pdf"
	}

	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", filename),
	})
}
