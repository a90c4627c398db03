package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadplan/acadplan-api/internal/service"
	appErrors "github.com/acadplan/acadplan-api/pkg/errors"
	"github.com/acadplan/acadplan-api/pkg/response"
)

// AssignmentHandler manages teacher-subject assignment requests.
type AssignmentHandler struct {
	service *service.AssignmentService
}

// NewAssignmentHandler constructs an assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{service: svc}
}

// Request godoc
// @Summary Request a subject assignment (teacher)
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.RequestAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Request(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.RequestAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.service.Request(c.Request.Context(), claims.InstitutionID, claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// List godoc
// @Summary List institution assignments
// @Tags Assignments
// @Produce json
// @Param status query string false "Filter by status (pending, approved, declined)"
// @Success 200 {object} response.Envelope
// @Router /assignments [get]
func (h *AssignmentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignments, err := h.service.List(c.Request.Context(), claims.InstitutionID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// ListMine godoc
// @Summary List the caller's own assignments
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments/mine [get]
func (h *AssignmentHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignments, err := h.service.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Approve godoc
// @Summary Approve a pending assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/approve [post]
func (h *AssignmentHandler) Approve(c *gin.Context) {
	h.decide(c, true)
}

// Decline godoc
// @Summary Decline a pending assignment
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/decline [post]
func (h *AssignmentHandler) Decline(c *gin.Context) {
	h.decide(c, false)
}

func (h *AssignmentHandler) decide(c *gin.Context, approve bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	assignment, err := h.service.Decide(c.Request.Context(), claims.InstitutionID, claims.UserID, c.Param("id"), approve)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}
