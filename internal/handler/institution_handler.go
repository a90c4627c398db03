package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/acadplan-api/internal/service"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/response"
)

// InstitutionHandler exposes the caller's institution profile.
type InstitutionHandler struct {
	service *service.InstitutionService
}

// NewInstitutionHandler constructs an institution handler.
func NewInstitutionHandler(svc *service.InstitutionService) *InstitutionHandler {
	return &InstitutionHandler{service: svc}
}

// Get godoc
// @Summary Get own institution
// @Tags Institutions
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /institution [get]
func (h *InstitutionHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	inst, err := h.service.Get(c.Request.Context(), claims.InstitutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}

// Update godoc
// @Summary Update own institution
// @Tags Institutions
// @Accept json
// @Produce json
// @Param payload body service.UpdateInstitutionRequest true "Institution payload"
// @Success 200 {object} response.Envelope
// @Router /institution [put]
func (h *InstitutionHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpdateInstitutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inst, err := h.service.Update(c.Request.Context(), claims.InstitutionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, inst, nil)
}
