package handler

import (
	"net/http"
	"strings"

	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"
	"github.com/VishalMahato/LifeLine-sub001/pkg/location"

	"github.com/gin-gonic/gin"
)

type NGOHandler struct {
	ngos *repository.NGORepository
}

func NewNGOHandler(ngos *repository.NGORepository) *NGOHandler {
	return &NGOHandler{ngos: ngos}
}

// Create registers an NGO owned by the caller.
func (h *NGOHandler) Create(c *gin.Context) {
	var req struct {
		Name        string    `json:"name" binding:"required"`
		Description string    `json:"description"`
		Phone       string    `json:"phone"`
		Email       string    `json:"email"`
		Services    []string  `json:"services"`
		Coordinates []float64 `json:"coordinates" binding:"required"`
		Address     string    `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := location.FromSlice(req.Coordinates)
	if !ok {
		respondMessage(c, http.StatusBadRequest, "coordinates: must be [longitude, latitude]")
		return
	}
	if err := models.ValidatePoint(p); err != nil {
		respondError(c, err)
		return
	}
	n := &models.NGO{
		UserID:      middleware.GetUserID(c),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		Services:    strings.Join(req.Services, ","),
		Latitude:    p.Lat,
		Longitude:   p.Lng,
		Address:     req.Address,
		IsActive:    true,
	}
	if err := h.ngos.Create(c.Request.Context(), n); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, n)
}

func (h *NGOHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.ngos.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, n)
}
