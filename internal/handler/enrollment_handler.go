package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// EnrollmentHandler exposes club membership endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

type enrollStudentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

// Enroll godoc
// @Summary Enroll a student into a club
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param payload body enrollStudentRequest true "Student reference"
// @Success 201 {object} response.Envelope
// @Router /clubs/{id}/students [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req enrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.enrollments.Enroll(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// EnrollBatch godoc
// @Summary Enroll a batch of (club, student) pairs atomically
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.EnrollBatchRequest true "Selections"
// @Success 201 {object} response.Envelope
// @Router /club-selections [post]
func (h *EnrollmentHandler) EnrollBatch(c *gin.Context) {
	var req service.EnrollBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	inserted, err := h.enrollments.EnrollBatch(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, gin.H{"enrolled": inserted}, nil)
}

// Remove godoc
// @Summary Remove a student from a club
// @Tags Enrollments
// @Produce json
// @Param id path string true "Club ID"
// @Param selectionId path string true "Selection ID"
// @Success 204
// @Router /clubs/{id}/students/{selectionId} [delete]
func (h *EnrollmentHandler) Remove(c *gin.Context) {
	if err := h.enrollments.Remove(c.Request.Context(), c.Param("selectionId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
