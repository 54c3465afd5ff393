package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"gorm.io/gorm"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService manages the per-user notification log. Every operation
// is scoped to the actor; other users' notifications are reported as missing.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(notificationRepo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
	}
}

// CreateNotificationInput describes a notification addressed to one user.
type CreateNotificationInput struct {
	UserID  uint64
	Title   string
	Message string
}

// List returns the actor's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, actor access.Actor, params utils.PaginationParams) ([]models.Notification, int64, error) {
	if !actor.IsAuthenticated() {
		return nil, 0, access.ErrAuthenticationRequired
	}
	notifications, total, err := s.notificationRepo.ListForUser(ctx, actor.UserID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

// Get returns one of the actor's notifications.
func (s *NotificationService) Get(ctx context.Context, actor access.Actor, id uint64) (*models.Notification, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	notification, err := s.notificationRepo.FindForUser(ctx, id, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	return notification, nil
}

// MarkRead flags a notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, actor access.Actor, id uint64) (*models.Notification, error) {
	return s.setRead(ctx, actor, id, true)
}

// MarkUnread flags a notification as unread.
func (s *NotificationService) MarkUnread(ctx context.Context, actor access.Actor, id uint64) (*models.Notification, error) {
	return s.setRead(ctx, actor, id, false)
}

func (s *NotificationService) setRead(ctx context.Context, actor access.Actor, id uint64, read bool) (*models.Notification, error) {
	notification, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if notification.IsRead == read {
		return notification, nil
	}

	if err := s.notificationRepo.SetRead(ctx, id, actor.UserID, read); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	notification.IsRead = read
	return notification, nil
}

// MarkAllRead flags every unread notification of the actor as read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, actor access.Actor) (int64, error) {
	if !actor.IsAuthenticated() {
		return 0, access.ErrAuthenticationRequired
	}
	updated, err := s.notificationRepo.MarkAllRead(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return updated, nil
}

// UnreadCount counts the actor's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, actor access.Actor) (int64, error) {
	if !actor.IsAuthenticated() {
		return 0, access.ErrAuthenticationRequired
	}
	count, err := s.notificationRepo.CountUnread(ctx, actor.UserID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// Create sends a notification to a user. Only administrators may do this.
func (s *NotificationService) Create(ctx context.Context, actor access.Actor, input CreateNotificationInput) (*models.Notification, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}
	if actor.Role != models.RoleAdmin {
		return nil, &access.Denial{Reason: "Only administrators can send notifications."}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title", "This field may not be blank.")
	}

	if _, err := s.userRepo.FindByID(ctx, input.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	notification := &models.Notification{
		UserID:  input.UserID,
		Title:   title,
		Message: input.Message,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return notification, nil
}
