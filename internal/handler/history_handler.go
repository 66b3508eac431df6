package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// HistoryHandler serves the aggregated cross-kind contract history.
type HistoryHandler struct {
	history *service.HistoryService
}

// NewHistoryHandler constructs HistoryHandler.
func NewHistoryHandler(history *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func historyFilterFromQuery(c *gin.Context) (models.HistoryFilter, error) {
	var filter models.HistoryFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if slug := c.Query("kind"); slug != "" {
		kind, ok := models.ParseContractKind(slug)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "unknown contract kind "+slug)
		}
		filter.Kind = kind
	}
	return filter, nil
}

// List godoc
// @Summary Aggregated contract history across all kinds, newest first
// @Tags History
// @Produce json
// @Param search query string false "Search by student name or national id"
// @Param kind query string false "Restrict to one contract kind"
// @Success 200 {object} response.Envelope
// @Router /history [get]
func (h *HistoryHandler) List(c *gin.Context) {
	filter, err := historyFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.history.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// BulkDelete godoc
// @Summary Delete contracts across kinds, reporting partial failures
// @Tags History
// @Accept json
// @Produce json
// @Param payload body service.BulkDeleteHistoryRequest true "Items to delete"
// @Success 200 {object} response.Envelope
// @Router /history [delete]
func (h *HistoryHandler) BulkDelete(c *gin.Context) {
	var req service.BulkDeleteHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "items must be a non-empty array"))
		return
	}
	report, err := h.history.BulkDelete(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if report.Outcome() == "partial" {
		status = http.StatusMultiStatus
	}
	response.JSON(c, status, report, nil)
}

// Export godoc
// @Summary Export the history view as CSV or PDF
// @Tags History
// @Produce text/csv
// @Param format query string false "csv (default) or pdf"
// @Param search query string false "Search by student name or national id"
// @Param kind query string false "Restrict to one contract kind"
// @Success 200 {file} byte
// @Router /history/export [get]
func (h *HistoryHandler) Export(c *gin.Context) {
	filter, err := historyFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := strings.ToLower(c.DefaultQuery("format", "csv"))
	var content []byte
	var contentType string
	switch format {
	case "csv":
		content, err = h.history.ExportCSV(c.Request.Context(), filter)
		contentType = "text/csv"
	case "pdf":
		content, err = h.history.ExportPDF(c.Request.Context(), filter)
		contentType = "application/pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("sozlesme-gecmisi-%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, content)
}
