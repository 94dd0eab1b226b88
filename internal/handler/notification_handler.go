package handler

import (
	"net/http"
	"strconv"

	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	list, err := h.svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), id, middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// Pending lists channel rows due for delivery, for the external dispatcher.
func (h *NotificationHandler) Pending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.svc.Pending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// RecordAttempt accepts a dispatcher's delivery report for one channel.
func (h *NotificationHandler) RecordAttempt(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
		Error  string `json:"error"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	ch, err := h.svc.RecordAttempt(c.Request.Context(), id, req.Status, req.Error)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, ch)
}
