package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/dto"
	apierrors "github.com/yukikurage/eventhub-api/internal/errors"
	"github.com/yukikurage/eventhub-api/internal/middleware"
	"github.com/yukikurage/eventhub-api/internal/services"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"go.uber.org/zap"
)

// OrganizationHandler serves organizations and their memberships.
type OrganizationHandler struct {
	orgService   *services.OrganizationService
	eventService *services.EventService
	logger       *zap.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgService *services.OrganizationService, eventService *services.EventService, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgService:   orgService,
		eventService: eventService,
		logger:       logger,
	}
}

type organizationRequest struct {
	Name             *string `json:"name" binding:"omitempty,max=255"`
	Description      *string `json:"description"`
	Email            *string `json:"email" binding:"omitempty,email"`
	Website          *string `json:"website" binding:"omitempty,url"`
	Phone            *string `json:"phone" binding:"omitempty,max=20"`
	Address          *string `json:"address"`
	City             *string `json:"city" binding:"omitempty,max=100"`
	Country          *string `json:"country" binding:"omitempty,max=100"`
	LogoURL          *string `json:"logo_url" binding:"omitempty,url"`
	CoverImageURL    *string `json:"cover_image_url" binding:"omitempty,url"`
	TwitterHandle    *string `json:"twitter_handle" binding:"omitempty,max=50"`
	FacebookURL      *string `json:"facebook_url" binding:"omitempty,url"`
	LinkedinURL      *string `json:"linkedin_url" binding:"omitempty,url"`
	InstagramHandle  *string `json:"instagram_handle" binding:"omitempty,max=50"`
	OrganizationType *string `json:"organization_type"`
	EstablishedDate  *string `json:"established_date"`
}

func (r organizationRequest) input() services.OrganizationInput {
	return services.OrganizationInput{
		Name:             r.Name,
		Description:      r.Description,
		Email:            r.Email,
		Website:          r.Website,
		Phone:            r.Phone,
		Address:          r.Address,
		City:             r.City,
		Country:          r.Country,
		LogoURL:          r.LogoURL,
		CoverImageURL:    r.CoverImageURL,
		TwitterHandle:    r.TwitterHandle,
		FacebookURL:      r.FacebookURL,
		LinkedinURL:      r.LinkedinURL,
		InstagramHandle:  r.InstagramHandle,
		OrganizationType: r.OrganizationType,
		EstablishedDate:  r.EstablishedDate,
	}
}

// ListOrganizations returns every organization in its public view
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	details, total, err := h.orgService.List(c.Request.Context(), middleware.GetActor(c), params)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": dto.ToOrganizationViews(details),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// CreateOrganization creates an organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	detail, err := h.orgService.Create(c.Request.Context(), middleware.GetActor(c), req.input())
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToOrganizationView(*detail))
}

// GetOrganization returns the view the caller is entitled to
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	detail, err := h.orgService.Get(c.Request.Context(), middleware.GetActor(c), orgID)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationView(*detail))
}

// UpdateOrganization changes organization fields. Owner only.
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	detail, err := h.orgService.Update(c.Request.Context(), middleware.GetActor(c), orgID, req.input())
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationView(*detail))
}

// DeleteOrganization removes an organization. Owner only.
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	if err := h.orgService.Delete(c.Request.Context(), middleware.GetActor(c), orgID); err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// MyOrganizations lists organizations the caller owns or collaborates on
func (h *OrganizationHandler) MyOrganizations(c *gin.Context) {
	details, err := h.orgService.Mine(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": dto.ToOrganizationViews(details),
	})
}

// FollowedOrganizations lists organizations the caller follows
func (h *OrganizationHandler) FollowedOrganizations(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	details, total, err := h.orgService.Followed(c.Request.Context(), middleware.GetActor(c), params)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"organizations": dto.ToOrganizationViews(details),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// OrganizationEvents lists an organization's events, filtered by status for
// callers outside the organization
func (h *OrganizationHandler) OrganizationEvents(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}
	params := utils.GetPaginationParams(c)

	details, total, err := h.eventService.ForOrganization(c.Request.Context(), middleware.GetActor(c), orgID, params)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": dto.ToEventDTOs(details),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListCollaborators lists an organization's collaborators. Owner only.
func (h *OrganizationHandler) ListCollaborators(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	users, err := h.orgService.Collaborators(c.Request.Context(), middleware.GetActor(c), orgID)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collaborators": dto.ToUserDTOs(users),
	})
}

// AddCollaborator grants collaborator rights to a user with the ORGANIZER role
func (h *OrganizationHandler) AddCollaborator(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	type AddCollaboratorRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddCollaboratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.Validation(c, "user_id", "User ID is required.")
		return
	}

	users, err := h.orgService.AddCollaborator(c.Request.Context(), middleware.GetActor(c), orgID, req.UserID)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":        "Collaborator added.",
		"collaborators": dto.ToUserDTOs(users),
	})
}

// RemoveCollaborator revokes collaborator rights
func (h *OrganizationHandler) RemoveCollaborator(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}
	userID, ok := utils.ParseIDParam(c, "user_id")
	if !ok {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	users, err := h.orgService.RemoveCollaborator(c.Request.Context(), middleware.GetActor(c), orgID, userID)
	if err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":        "Collaborator removed.",
		"collaborators": dto.ToUserDTOs(users),
	})
}

// FollowOrganization adds the caller to the followers
func (h *OrganizationHandler) FollowOrganization(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	if err := h.orgService.Follow(c.Request.Context(), middleware.GetActor(c), orgID); err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":       "You are now following this organization.",
		"is_following": true,
	})
}

// UnfollowOrganization removes the caller from the followers
func (h *OrganizationHandler) UnfollowOrganization(c *gin.Context) {
	orgID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid organization ID")
		return
	}

	if err := h.orgService.Unfollow(c.Request.Context(), middleware.GetActor(c), orgID); err != nil {
		h.respondOrganizationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"detail":       "You have unfollowed this organization.",
		"is_following": false,
	})
}

func (h *OrganizationHandler) respondOrganizationError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrOrganizationNotFound):
		apierrors.NotFound(c, "Organization not found.")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found.")
	case errors.Is(err, services.ErrOrganizationNameTaken):
		apierrors.Conflict(c, "Organization with this name already exists.")
	case errors.Is(err, services.ErrOrganizationEmailTaken):
		apierrors.Conflict(c, "Organization with this email already exists.")
	case errors.Is(err, services.ErrOrganizationConflict):
		apierrors.Conflict(c, "")
	case errors.Is(err, services.ErrAlreadyFollowing):
		apierrors.Conflict(c, "You are already following this organization.")
	case errors.Is(err, services.ErrNotFollowing):
		apierrors.Conflict(c, "You are not following this organization.")
	case errors.Is(err, services.ErrAlreadyCollaborator):
		apierrors.Validation(c, "user_id", "User is already a collaborator.")
	case errors.Is(err, services.ErrNotCollaborator):
		apierrors.Validation(c, "user_id", "User is not a collaborator.")
	case errors.Is(err, services.ErrCollaboratorNotOrganizer):
		apierrors.Validation(c, "user_id", "Only users with the ORGANIZER role can be collaborators.")
	case errors.Is(err, services.ErrOwnerCannotCollaborate):
		apierrors.Validation(c, "user_id", "The owner cannot be added as a collaborator.")
	default:
		respondInternalError(c, h.logger, err)
	}
}
