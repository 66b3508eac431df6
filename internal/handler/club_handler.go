package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-office-api/internal/service"
	appErrors "github.com/noah-isme/school-office-api/pkg/errors"
	"github.com/noah-isme/school-office-api/pkg/response"
)

// ClubHandler exposes club endpoints.
type ClubHandler struct {
	clubs *service.ClubService
}

// NewClubHandler constructs ClubHandler.
func NewClubHandler(clubs *service.ClubService) *ClubHandler {
	return &ClubHandler{clubs: clubs}
}

// List godoc
// @Summary List clubs with member counts
// @Tags Clubs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /clubs [get]
func (h *ClubHandler) List(c *gin.Context) {
	clubs, err := h.clubs.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clubs, nil)
}

// Get godoc
// @Summary Get club detail with members
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 200 {object} response.Envelope
// @Router /clubs/{id} [get]
func (h *ClubHandler) Get(c *gin.Context) {
	club, err := h.clubs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, club, nil)
}

// Create godoc
// @Summary Create club
// @Tags Clubs
// @Accept json
// @Produce json
// @Param payload body service.ClubPayload true "Club payload"
// @Success 201 {object} response.Envelope
// @Router /clubs [post]
func (h *ClubHandler) Create(c *gin.Context) {
	var req service.ClubPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	club, err := h.clubs.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, club)
}

// Update godoc
// @Summary Update club
// @Tags Clubs
// @Accept json
// @Produce json
// @Param id path string true "Club ID"
// @Param payload body service.ClubPayload true "Club payload"
// @Success 200 {object} response.Envelope
// @Router /clubs/{id} [put]
func (h *ClubHandler) Update(c *gin.Context) {
	var req service.ClubPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	club, err := h.clubs.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, club, nil)
}

// Delete godoc
// @Summary Delete club and its enrollments
// @Tags Clubs
// @Produce json
// @Param id path string true "Club ID"
// @Success 204
// @Router /clubs/{id} [delete]
func (h *ClubHandler) Delete(c *gin.Context) {
	if err := h.clubs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
