package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
)

type historyDeleterStub struct {
	failIDs map[string]bool
}

func (s *historyDeleterStub) List(ctx context.Context, kind models.ContractKind) ([]models.ContractDetail, error) {
	return nil, nil
}

func (s *historyDeleterStub) Delete(ctx context.Context, kind models.ContractKind, id string) error {
	if s.failIDs[id] {
		return errors.New("boom")
	}
	return nil
}

func TestHistoryHandlerListUnknownKind(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/history?kind=lunchbox", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandlerBulkDeleteInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/history", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BulkDelete(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryHandlerBulkDeletePartialReturns207(t *testing.T) {
	gin.SetMode(gin.TestMode)
	history := service.NewHistoryService(&historyDeleterStub{failIDs: map[string]bool{"c2": true}}, nil, nil, nil, nil)
	handler := NewHistoryHandler(history)

	body, _ := json.Marshal(service.BulkDeleteHistoryRequest{Items: []models.HistoryItemRef{
		{Kind: models.KindMeal, ID: "c1"},
		{Kind: models.KindBook, ID: "c2"},
	}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodDelete, "/history", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.BulkDelete(c)
	require.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Contains(t, w.Body.String(), `"succeeded":1`)
	assert.Contains(t, w.Body.String(), `"failed":1`)
}

func TestHistoryHandlerExportUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewHistoryHandler(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/history/export?format=xml", nil)
	c.Request = req

	handler.Export(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
