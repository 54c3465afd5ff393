package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/dto"
	"github.com/yukikurage/eventhub-api/internal/middleware"
	"github.com/yukikurage/eventhub-api/internal/services"
	"go.uber.org/zap"
)

// ProfileHandler serves the caller's own profile.
type ProfileHandler struct {
	profileService *services.ProfileService
	logger         *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profileService *services.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

// GetProfile returns the caller's profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	detail, err := h.profileService.Get(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*detail))
}

// UpdateProfile changes phone number and bio. Identity fields, role and
// participating events are read-only and ignored when submitted.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	type UpdateProfileRequest struct {
		PhoneNumber *string `json:"phone_number"`
		Bio         *string `json:"bio"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	detail, err := h.profileService.Update(c.Request.Context(), middleware.GetActor(c), services.UpdateProfileInput{
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
	})
	if err != nil {
		h.respondProfileError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProfileDTO(*detail))
}

func (h *ProfileHandler) respondProfileError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}
	respondInternalError(c, h.logger, err)
}
