package repository

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/utils"
)

// ErrAlreadyParticipant is returned when a participation row already exists.
var ErrAlreadyParticipant = errors.New("repository: user already participates in event")

// UserRepository defines the interface for user and profile data access
type UserRepository interface {
	// CreateWithProfile creates a user and its profile within a single transaction.
	CreateWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error

	// FindByID finds a user by ID with the profile preloaded
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// EnsureProfile returns the user's profile, creating a default one if missing
	EnsureProfile(ctx context.Context, userID uint64) (*models.Profile, error)

	// UpdateProfile persists profile changes
	UpdateProfile(ctx context.Context, profile *models.Profile) error
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(ctx context.Context, org *models.Organization) error

	// FindByID finds an organization by ID with its owner preloaded
	FindByID(ctx context.Context, id uint64) (*models.Organization, error)

	// NameTaken reports whether another organization already uses name
	NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error)

	// EmailTaken reports whether another organization already uses email
	EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error)

	// Update updates an organization
	Update(ctx context.Context, org *models.Organization) error

	// Delete deletes an organization and all related data
	Delete(ctx context.Context, id uint64) error

	// List lists organizations ordered by name
	List(ctx context.Context, params utils.PaginationParams) ([]models.Organization, int64, error)

	// ListOwnedBy lists organizations owned by the user
	ListOwnedBy(ctx context.Context, userID uint64) ([]models.Organization, error)

	// ListCollaboratingFor lists organizations the user collaborates on
	ListCollaboratingFor(ctx context.Context, userID uint64) ([]models.Organization, error)

	// ListFollowedBy lists organizations the user follows
	ListFollowedBy(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.Organization, int64, error)

	// MemberOrganizationIDs returns IDs of organizations the user owns or collaborates on
	MemberOrganizationIDs(ctx context.Context, userID uint64) ([]uint64, error)

	// IsCollaborator reports whether the user collaborates on the organization
	IsCollaborator(ctx context.Context, organizationID, userID uint64) (bool, error)

	// AddCollaborator adds a collaborator to an organization
	AddCollaborator(ctx context.Context, organizationID, userID uint64) error

	// RemoveCollaborator removes a collaborator and reports whether one existed
	RemoveCollaborator(ctx context.Context, organizationID, userID uint64) (bool, error)

	// ListCollaborators lists the collaborating users of an organization
	ListCollaborators(ctx context.Context, organizationID uint64) ([]models.User, error)

	// AddFollower records a follow; a duplicate yields gorm.ErrDuplicatedKey
	AddFollower(ctx context.Context, organizationID, userID uint64) error

	// RemoveFollower removes a follow and reports whether one existed
	RemoveFollower(ctx context.Context, organizationID, userID uint64) (bool, error)

	// FollowedAmong returns which of the given organizations the user follows
	FollowedAmong(ctx context.Context, userID uint64, organizationIDs []uint64) (map[uint64]bool, error)

	// CountActiveEvents counts active events per organization
	CountActiveEvents(ctx context.Context, organizationIDs []uint64) (map[uint64]int64, error)
}

// EventRepository defines the interface for event data access
type EventRepository interface {
	// Create creates a new event
	Create(ctx context.Context, event *models.Event) error

	// FindByID finds an event by ID with organizer and organization preloaded
	FindByID(ctx context.Context, id uint64) (*models.Event, error)

	// Update updates an event
	Update(ctx context.Context, event *models.Event) error

	// UpdateStatus sets the status of an event
	UpdateStatus(ctx context.Context, id uint64, status models.EventStatus) error

	// Delete deletes an event with its participations and interests
	Delete(ctx context.Context, id uint64) error

	// List retrieves events with filtering and pagination
	List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error)

	// AddParticipant registers the user if capacity allows. It returns false when
	// the event is full and ErrAlreadyParticipant when already registered.
	AddParticipant(ctx context.Context, eventID, userID uint64, joinedAt time.Time) (bool, error)

	// RemoveParticipant removes a registration and reports whether one existed
	RemoveParticipant(ctx context.Context, eventID, userID uint64) (bool, error)

	// IsParticipant reports whether the user is registered
	IsParticipant(ctx context.Context, eventID, userID uint64) (bool, error)

	// CountParticipants counts registrations of an event
	CountParticipants(ctx context.Context, eventID uint64) (int64, error)

	// ListParticipants lists registered users ordered by join time
	ListParticipants(ctx context.Context, eventID uint64) ([]models.User, error)

	// ParticipatingEventIDs lists the events a user is registered for
	ParticipatingEventIDs(ctx context.Context, userID uint64) ([]uint64, error)

	// AddInterest marks the event as interesting; a duplicate yields gorm.ErrDuplicatedKey
	AddInterest(ctx context.Context, eventID, userID uint64) error

	// RemoveInterest removes an interest mark and reports whether one existed
	RemoveInterest(ctx context.Context, eventID, userID uint64) (bool, error)

	// Stats returns participation and interest aggregates for events as seen by userID
	Stats(ctx context.Context, eventIDs []uint64, userID uint64) (map[uint64]EventStats, error)
}

// EventStats aggregates per-event counters for one viewer
type EventStats struct {
	ParticipantCount int64
	InterestCount    int64
	IsParticipating  bool
	IsInterested     bool
}

// EventFilter holds filtering options for listing events
type EventFilter struct {
	OrganizationID *uint64
	OrganizerID    *uint64
	ParticipantID  *uint64
	InterestedID   *uint64
	Categories     []string
	DateFrom       *time.Time
	DateTo         *time.Time
	Search         string

	// AllStatuses disables status filtering. Otherwise only Active events are
	// returned, plus events of MemberOrganizationIDs in any status.
	AllStatuses           bool
	MemberOrganizationIDs []uint64

	SortDesc   bool
	Pagination utils.PaginationParams
}

// NotificationRepository defines the interface for notification data access.
// Every lookup is scoped to the owning user.
type NotificationRepository interface {
	// Create creates a new notification
	Create(ctx context.Context, notification *models.Notification) error

	// ListForUser lists a user's notifications, newest first
	ListForUser(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.Notification, int64, error)

	// FindForUser finds a notification owned by the user
	FindForUser(ctx context.Context, id, userID uint64) (*models.Notification, error)

	// SetRead sets the read flag of a notification owned by the user
	SetRead(ctx context.Context, id, userID uint64, read bool) error

	// MarkAllRead marks every unread notification of the user as read
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)

	// CountUnread counts unread notifications of the user
	CountUnread(ctx context.Context, userID uint64) (int64, error)
}
