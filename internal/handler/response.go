package handler

import (
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"

	"github.com/gin-gonic/gin"
)

func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "message": msg})
}

// respondError maps the domain error taxonomy onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		respondMessage(c, http.StatusBadRequest, ve.Error())
	case errors.Is(err, domain.ErrReferentialIntegrity):
		respondMessage(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondMessage(c, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		respondMessage(c, http.StatusForbidden, "forbidden")
	case errors.Is(err, domain.ErrStoreUnavailable):
		log.Printf("[http] %s %s request_id=%s: %v", c.Request.Method, c.FullPath(), middleware.GetRequestID(c), err)
		respondMessage(c, http.StatusServiceUnavailable, "service unavailable")
	default:
		log.Printf("[http] %s %s request_id=%s: %v", c.Request.Method, c.FullPath(), middleware.GetRequestID(c), err)
		respondMessage(c, http.StatusInternalServerError, "internal error")
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondMessage(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryFloat parses a required float query parameter.
func queryFloat(c *gin.Context, name string) (float64, bool) {
	v, err := strconv.ParseFloat(c.Query(name), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		respondMessage(c, http.StatusBadRequest, name+" must be a number")
		return 0, false
	}
	return v, true
}

// queryFloatDefault parses an optional float query parameter.
func queryFloatDefault(c *gin.Context, name string, def float64) (float64, bool) {
	if c.Query(name) == "" {
		return def, true
	}
	return queryFloat(c, name)
}
