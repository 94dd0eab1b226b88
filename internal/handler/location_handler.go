package handler

import (
	"net/http"

	"github.com/VishalMahato/LifeLine-sub001/config"
	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

type LocationHandler struct {
	svc *service.LocationService
	cfg config.LocationConfig
}

func NewLocationHandler(svc *service.LocationService, cfg config.LocationConfig) *LocationHandler {
	return &LocationHandler{svc: svc, cfg: cfg}
}

// caller resolves the authenticated user into a location owner.
func (h *LocationHandler) caller(c *gin.Context) (service.Owner, bool) {
	owner, err := h.svc.Identity().ResolveRole(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return service.Owner{}, false
	}
	return owner, true
}

// Create stores a location for the caller. Admins may record one on behalf
// of a helper by passing helper_id.
func (h *LocationHandler) Create(c *gin.Context) {
	var req struct {
		service.CreateLocationInput
		HelperID *uint `json:"helper_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	owner, ok := h.caller(c)
	if !ok {
		return
	}
	if req.HelperID != nil {
		switch {
		case owner.IsAdmin():
			owner = service.Owner{Role: domain.RoleHelper, HelperID: req.HelperID}
		case owner.HelperID == nil || *owner.HelperID != *req.HelperID:
			respondError(c, domain.ErrForbidden)
			return
		}
	}
	loc, err := h.svc.CreateLocation(c.Request.Context(), owner, req.CreateLocationInput)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, loc)
}

func (h *LocationHandler) List(c *gin.Context) {
	owner, ok := h.caller(c)
	if !ok {
		return
	}
	list, err := h.svc.ListMine(c.Request.Context(), owner, c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, list)
}

// Get returns one location with its stale flag; ?threshold= overrides the
// configured age in minutes.
func (h *LocationHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	threshold, ok := queryFloatDefault(c, "threshold", h.cfg.StaleAfterMinutes)
	if !ok {
		return
	}
	owner, ok := h.caller(c)
	if !ok {
		return
	}
	loc, err := h.svc.Get(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"location": loc, "stale": h.svc.IsStale(loc, threshold)})
}

func (h *LocationHandler) UpdateCurrent(c *gin.Context) {
	var in service.CurrentLocationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	loc, err := h.svc.UpdateCurrentLocation(c.Request.Context(), middleware.GetUserID(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, loc)
}

func (h *LocationHandler) Verify(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	loc, err := h.svc.Verify(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, loc)
}

func (h *LocationHandler) Deactivate(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	owner, ok := h.caller(c)
	if !ok {
		return
	}
	loc, err := h.svc.Deactivate(c.Request.Context(), owner, id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, loc)
}

func (h *LocationHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	owner, ok := h.caller(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), owner, id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"id": id})
}

// nearbyQuery reads lat, lng and the optional radius (meters).
func (h *LocationHandler) nearbyQuery(c *gin.Context) (lng, lat, radius float64, ok bool) {
	if lat, ok = queryFloat(c, "lat"); !ok {
		return
	}
	if lng, ok = queryFloat(c, "lng"); !ok {
		return
	}
	radius, ok = queryFloatDefault(c, "radius", h.cfg.DefaultRadiusMeters)
	return
}

// Nearby lists raw active locations around a point; staff only.
func (h *LocationHandler) Nearby(c *gin.Context) {
	lng, lat, radius, ok := h.nearbyQuery(c)
	if !ok {
		return
	}
	rows, err := h.svc.FindNearby(c.Request.Context(), lng, lat, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		out = append(out, gin.H{"location": r.Location, "distance_meters": r.DistanceMeters})
	}
	respondOK(c, http.StatusOK, out)
}

func (h *LocationHandler) NearbyHelpers(c *gin.Context) {
	lng, lat, radius, ok := h.nearbyQuery(c)
	if !ok {
		return
	}
	cards, err := h.svc.FindNearbyHelpers(c.Request.Context(), lng, lat, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, cards)
}

func (h *LocationHandler) NearbyNGOs(c *gin.Context) {
	lng, lat, radius, ok := h.nearbyQuery(c)
	if !ok {
		return
	}
	ngos, err := h.svc.FindNearbyNGOs(c.Request.Context(), lng, lat, radius)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, ngos)
}
