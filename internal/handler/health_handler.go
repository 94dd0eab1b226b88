package handler

import (
	"net/http"

	"github.com/VishalMahato/LifeLine-sub001/internal/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	if err := database.Ping(c.Request.Context(), h.db); err != nil {
		respondMessage(c, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"status": "ok"})
}
