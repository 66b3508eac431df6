package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/models"
	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// ContractHandler serves the per-kind contract endpoints. One handler covers
// all six kinds; RegisterRoutes mounts the same lifecycle under each kind's
// route slug.
type ContractHandler struct {
	contracts *service.ContractService
}

// NewContractHandler constructs ContractHandler.
func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// RegisterRoutes mounts list/get/create/update/delete plus bulk delete for
// every contract kind, e.g. /new-registrations, /meal-contracts.
func (h *ContractHandler) RegisterRoutes(rg *gin.RouterGroup) {
	for _, kind := range models.ContractKinds {
		group := rg.Group("/" + kind.RouteSlug())
		group.GET("", h.List(kind))
		group.GET("/:id", h.Get(kind))
		group.POST("", h.Create(kind))
		group.PUT("/:id", h.Update(kind))
		group.DELETE("/:id", h.Delete(kind))
		group.POST("/bulk-delete", h.DeleteMany(kind))
	}
}

// List godoc
// @Summary List contracts of one kind, newest first
// @Tags Contracts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /new-registrations [get]
func (h *ContractHandler) List(kind models.ContractKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		contracts, err := h.contracts.List(c.Request.Context(), kind)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, contracts, nil)
	}
}

// Get godoc
// @Summary Get one contract
// @Tags Contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Envelope
// @Router /new-registrations/{id} [get]
func (h *ContractHandler) Get(kind models.ContractKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		contract, err := h.contracts.Get(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, contract, nil)
	}
}

// Create godoc
// @Summary Create a contract
// @Tags Contracts
// @Accept json
// @Produce json
// @Param payload body service.CreateContractRequest true "Contract payload"
// @Success 201 {object} response.Envelope
// @Router /new-registrations [post]
func (h *ContractHandler) Create(kind models.ContractKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.CreateContractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
		contract, err := h.contracts.Create(c.Request.Context(), kind, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, contract)
	}
}

// Update godoc
// @Summary Replace a contract's payload wholesale
// @Tags Contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param payload body service.UpdateContractRequest true "Contract payload"
// @Success 200 {object} response.Envelope
// @Router /new-registrations/{id} [put]
func (h *ContractHandler) Update(kind models.ContractKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.UpdateContractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
		contract, err := h.contracts.Update(c.Request.Context(), kind, c.Param("id"), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, contract, nil)
	}
}

// Delete godoc
// @Summary Delete one contract
// @Tags Contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 204
// @Router /new-registrations/{id} [delete]
func (h *ContractHandler) Delete(kind models.ContractKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := h.contracts.Delete(c.Request.Context(), kind, c.Param("id")); err != nil {
			response.Error(c, err)
			return
		}
		response.NoContent(c)
	}
}

// DeleteMany godoc
// @Summary Delete a batch of contracts of one kind
// @Tags Contracts
// @Accept json
// @Produce json
// @Param payload body service.DeleteContractsRequest true "Contract IDs"
// @Success 200 {object} response.Envelope
// @Router /new-registrations/bulk-delete [post]
func (h *ContractHandler) DeleteMany(kind models.ContractKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.DeleteContractsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "ids must be a non-empty array"))
			return
		}
		deleted, err := h.contracts.DeleteMany(c.Request.Context(), kind, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, gin.H{"deleted": deleted}, nil)
	}
}
