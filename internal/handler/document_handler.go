package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// DocumentHandler serves rendered contract PDFs.
type DocumentHandler struct {
	documents *service.DocumentService
}

// NewDocumentHandler constructs DocumentHandler.
func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type combinedDocumentRequest struct {
	Kinds []string `json:"kinds"`
}

// Render godoc
// @Summary Download the PDF of a student's latest contract of one kind
// @Tags Documents
// @Produce application/pdf
// @Param kind path string true "Contract kind slug"
// @Param studentId path string true "Student ID"
// @Success 200 {file} byte
// @Router /documents/{kind}/{studentId} [get]
func (h *DocumentHandler) Render(c *gin.Context) {
	kind, ok := models.ParseContractKind(c.Param("kind"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown contract kind "+c.Param("kind")))
		return
	}
	doc, err := h.documents.Render(c.Request.Context(), kind, c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}

// RenderCombined godoc
// @Summary Download one PDF combining a student's contracts
// @Description Empty kinds means every kind the student has a contract for.
// @Tags Documents
// @Accept json
// @Produce application/pdf
// @Param studentId path string true "Student ID"
// @Param payload body combinedDocumentRequest false "Kind slugs to include"
// @Success 200 {file} byte
// @Router /documents/combined/{studentId} [post]
func (h *DocumentHandler) RenderCombined(c *gin.Context) {
	var req combinedDocumentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	kinds := make([]models.ContractKind, 0, len(req.Kinds))
	for _, slug := range req.Kinds {
		kind, ok := models.ParseContractKind(slug)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown contract kind "+slug))
			return
		}
		kinds = append(kinds, kind)
	}
	doc, err := h.documents.RenderCombined(c.Request.Context(), c.Param("studentId"), kinds)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
