package handler

import (
	"net/http"

	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type SOSHandler struct {
	svc *service.SOSService
}

func NewSOSHandler(svc *service.SOSService) *SOSHandler {
	return &SOSHandler{svc: svc}
}

func (h *SOSHandler) Trigger(c *gin.Context) {
	var in service.SOSInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Trigger(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, res)
}
