package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/dto"
	apierrors "github.com/yukikurage/eventhub-api/internal/errors"
	"github.com/yukikurage/eventhub-api/internal/middleware"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"go.uber.org/zap"
)

// NotificationHandler serves the caller's notifications.
type NotificationHandler struct {
	notificationService *services.NotificationService
	logger              *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// ListNotifications returns the caller's notifications, newest first
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	notifications, total, err := h.notificationService.List(c.Request.Context(), middleware.GetActor(c), params)
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": dto.ToNotificationDTOs(notifications),
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// GetNotification returns one of the caller's notifications
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	h.withNotification(c, h.notificationService.Get)
}

// MarkAsRead sets the read flag
func (h *NotificationHandler) MarkAsRead(c *gin.Context) {
	h.withNotification(c, h.notificationService.MarkRead)
}

// MarkAsUnread clears the read flag
func (h *NotificationHandler) MarkAsUnread(c *gin.Context) {
	h.withNotification(c, h.notificationService.MarkUnread)
}

func (h *NotificationHandler) withNotification(c *gin.Context, load func(context.Context, access.Actor, uint64) (*models.Notification, error)) {
	notificationID, ok := utils.ParseIDParam(c, "id")
	if !ok {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	notification, err := load(c.Request.Context(), middleware.GetActor(c), notificationID)
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToNotificationDTO(*notification))
}

// MarkAllAsRead sets the read flag on every unread notification of the caller
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// UnreadCount returns the number of unread notifications
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	unread, err := h.notificationService.UnreadCount(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

// CreateNotification sends a notification to a user. Admin only.
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	type CreateNotificationRequest struct {
		UserID  uint64 `json:"user_id" binding:"required"`
		Title   string `json:"title" binding:"required,max=255"`
		Message string `json:"message"`
	}

	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	notification, err := h.notificationService.Create(c.Request.Context(), middleware.GetActor(c), services.CreateNotificationInput{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
	})
	if err != nil {
		h.respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToNotificationDTO(*notification))
}

func (h *NotificationHandler) respondNotificationError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		apierrors.NotFound(c, "Notification not found.")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.Validation(c, "user_id", "User not found.")
	default:
		respondInternalError(c, h.logger, err)
	}
}
