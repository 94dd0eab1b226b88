package handler

import (
	"net/http"

	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"

	"github.com/gin-gonic/gin"
)

type HelperHandler struct {
	helpers *repository.HelperRepository
}

func NewHelperHandler(helpers *repository.HelperRepository) *HelperHandler {
	return &HelperHandler{helpers: helpers}
}

func (h *HelperHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	helper, err := h.helpers.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, helper)
}

// SetAvailability toggles whether the calling helper shows up in nearby searches.
func (h *HelperHandler) SetAvailability(c *gin.Context) {
	var req struct {
		Available *bool `json:"available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "available is required")
		return
	}
	ctx := c.Request.Context()
	helper, err := h.helpers.FindByUserID(ctx, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.helpers.SetAvailability(ctx, helper.ID, *req.Available); err != nil {
		respondError(c, err)
		return
	}
	helper.IsAvailable = *req.Available
	respondOK(c, http.StatusOK, helper)
}
