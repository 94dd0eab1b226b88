package handler

import (
	"net/http"
	"slices"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"
	"github.com/VishalMahato/LifeLine-sub001/internal/middleware"
	"github.com/VishalMahato/LifeLine-sub001/internal/models"
	"github.com/VishalMahato/LifeLine-sub001/internal/repository"

	"github.com/gin-gonic/gin"
)

type MedicalHandler struct {
	repo *repository.MedicalProfileRepository
}

func NewMedicalHandler(repo *repository.MedicalProfileRepository) *MedicalHandler {
	return &MedicalHandler{repo: repo}
}

func (h *MedicalHandler) Get(c *gin.Context) {
	m, err := h.repo.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, m)
}

// Put replaces the caller's medical profile, creating it on first use.
func (h *MedicalHandler) Put(c *gin.Context) {
	var req struct {
		BloodGroup            string `json:"blood_group"`
		Allergies             string `json:"allergies"`
		Conditions            string `json:"conditions"`
		Medications           string `json:"medications"`
		EmergencyContactName  string `json:"emergency_contact_name"`
		EmergencyContactPhone string `json:"emergency_contact_phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.BloodGroup != "" && !slices.Contains(models.BloodGroups, req.BloodGroup) {
		respondError(c, domain.Invalid("blood_group", "unsupported value %q", req.BloodGroup))
		return
	}
	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	m, err := h.repo.GetByUserID(ctx, userID)
	if repository.IsNotFound(err) {
		m, err = &models.MedicalProfile{UserID: userID}, nil
	}
	if err != nil {
		respondError(c, err)
		return
	}
	m.BloodGroup = req.BloodGroup
	m.Allergies = req.Allergies
	m.Conditions = req.Conditions
	m.Medications = req.Medications
	m.EmergencyContactName = req.EmergencyContactName
	m.EmergencyContactPhone = req.EmergencyContactPhone
	if err := h.repo.Upsert(ctx, m); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, m)
}
