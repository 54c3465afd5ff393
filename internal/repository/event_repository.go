package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yukikurage/eventhub-api/internal/database"
	"github.com/yukikurage/eventhub-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormEventRepository is a GORM implementation of EventRepository
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *gorm.DB) EventRepository {
	return &GormEventRepository{db: db}
}

// Create creates a new event
func (r *GormEventRepository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Organizer", "Organization").Create(event).Error
}

// FindByID finds an event by ID
func (r *GormEventRepository) FindByID(ctx context.Context, id uint64) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).
		Preload("Organizer").
		Preload("Organization").
		First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// Update updates an event
func (r *GormEventRepository) Update(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Organizer", "Organization").Save(event).Error
}

// UpdateStatus sets the status of an event
func (r *GormEventRepository) UpdateStatus(ctx context.Context, id uint64, status models.EventStatus) error {
	return r.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Delete deletes an event and its participations in a transaction
func (r *GormEventRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("event_id = ?", id).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", id).Delete(&models.EventInterest{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Event{}, id).Error
	})
}

// List retrieves events with filtering and pagination
func (r *GormEventRepository) List(ctx context.Context, filter EventFilter) ([]models.Event, int64, error) {
	var events []models.Event

	query := r.db.WithContext(ctx).Model(&models.Event{})

	// Apply filters
	if filter.OrganizationID != nil {
		query = query.Where("events.organization_id = ?", *filter.OrganizationID)
	}
	if filter.OrganizerID != nil {
		query = query.Where("events.organizer_id = ?", *filter.OrganizerID)
	}
	if filter.ParticipantID != nil {
		sub := r.db.Model(&models.EventParticipant{}).
			Select("1").
			Where("event_participants.event_id = events.id").
			Where("event_participants.user_id = ?", *filter.ParticipantID)
		query = query.Where("EXISTS (?)", sub)
	}
	if filter.InterestedID != nil {
		sub := r.db.Model(&models.EventInterest{}).
			Select("1").
			Where("event_interests.event_id = events.id").
			Where("event_interests.user_id = ?", *filter.InterestedID)
		query = query.Where("EXISTS (?)", sub)
	}
	if len(filter.Categories) > 0 {
		query = query.Where("events.category IN ?", filter.Categories)
	}
	if filter.DateFrom != nil {
		query = query.Where("events.date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("events.date <= ?", *filter.DateTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"(LOWER(events.name) LIKE ? OR LOWER(events.description) LIKE ? OR LOWER(events.category) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if !filter.AllStatuses {
		if len(filter.MemberOrganizationIDs) > 0 {
			query = query.Where("(events.status = ? OR events.organization_id IN ?)",
				models.EventStatusActive, filter.MemberOrganizationIDs)
		} else {
			query = query.Where("events.status = ?", models.EventStatusActive)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortDesc {
		listQuery = listQuery.Order("events.date DESC").Order("events.id DESC")
	} else {
		listQuery = listQuery.Order("events.date ASC").Order("events.id ASC")
	}
	if filter.Pagination.Limit > 0 {
		listQuery = listQuery.Scopes(database.Paginate(filter.Pagination))
	}

	if err := listQuery.Preload("Organizer").Preload("Organization").Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// AddParticipant registers the user when the event still has room. The event
// row is locked for the duration of the transaction and the capacity check and
// insert run as one statement, so concurrent joins cannot over-admit.
func (r *GormEventRepository) AddParticipant(ctx context.Context, eventID, userID uint64, joinedAt time.Time) (bool, error) {
	var inserted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lock := tx.Model(&models.Event{}).Select("id").Where("id = ?", eventID)
		if tx.Dialector.Name() != database.DriverSQLite {
			lock = lock.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var locked []uint64
		if err := lock.Pluck("id", &locked).Error; err != nil {
			return err
		}
		if len(locked) == 0 {
			return gorm.ErrRecordNotFound
		}

		var existing int64
		if err := tx.Model(&models.EventParticipant{}).
			Where("event_id = ? AND user_id = ?", eventID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrAlreadyParticipant
		}

		result := tx.Exec(`
			INSERT INTO event_participants (event_id, user_id, joined_at)
			SELECT e.id, ?, ?
			FROM events e
			WHERE e.id = ?
			  AND (e.capacity IS NULL OR e.capacity <= 0
			       OR (SELECT COUNT(*) FROM event_participants p WHERE p.event_id = e.id) < e.capacity)
		`, userID, joinedAt, eventID)
		if result.Error != nil {
			if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
				return ErrAlreadyParticipant
			}
			return result.Error
		}

		inserted = result.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}

// RemoveParticipant removes a registration and reports whether one existed
func (r *GormEventRepository) RemoveParticipant(ctx context.Context, eventID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventParticipant{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// IsParticipant reports whether the user is registered
func (r *GormEventRepository) IsParticipant(ctx context.Context, eventID, userID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountParticipants counts registrations of an event
func (r *GormEventRepository) CountParticipants(ctx context.Context, eventID uint64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListParticipants lists registered users ordered by join time
func (r *GormEventRepository) ListParticipants(ctx context.Context, eventID uint64) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN event_participants ep ON ep.user_id = users.id").
		Where("ep.event_id = ?", eventID).
		Order("ep.joined_at ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ParticipatingEventIDs lists the events a user is registered for
func (r *GormEventRepository) ParticipatingEventIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	ids := []uint64{}
	if err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("user_id = ?", userID).
		Order("event_id ASC").
		Pluck("event_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// AddInterest marks the event as interesting to the user
func (r *GormEventRepository) AddInterest(ctx context.Context, eventID, userID uint64) error {
	return r.db.WithContext(ctx).Create(&models.EventInterest{
		EventID:   eventID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}).Error
}

// RemoveInterest removes an interest mark and reports whether one existed
func (r *GormEventRepository) RemoveInterest(ctx context.Context, eventID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Delete(&models.EventInterest{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

type eventCount struct {
	EventID uint64
	Total   int64
}

// Stats returns participation and interest aggregates for events as seen by userID
func (r *GormEventRepository) Stats(ctx context.Context, eventIDs []uint64, userID uint64) (map[uint64]EventStats, error) {
	stats := make(map[uint64]EventStats, len(eventIDs))
	if len(eventIDs) == 0 {
		return stats, nil
	}

	var participants, interests []eventCount
	if err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&participants).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.EventInterest{}).
		Select("event_id, COUNT(*) AS total").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&interests).Error; err != nil {
		return nil, err
	}

	for _, row := range participants {
		s := stats[row.EventID]
		s.ParticipantCount = row.Total
		stats[row.EventID] = s
	}
	for _, row := range interests {
		s := stats[row.EventID]
		s.InterestCount = row.Total
		stats[row.EventID] = s
	}

	if userID == 0 {
		return stats, nil
	}

	var joined, interested []uint64
	if err := r.db.WithContext(ctx).Model(&models.EventParticipant{}).
		Where("user_id = ? AND event_id IN ?", userID, eventIDs).
		Pluck("event_id", &joined).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Model(&models.EventInterest{}).
		Where("user_id = ? AND event_id IN ?", userID, eventIDs).
		Pluck("event_id", &interested).Error; err != nil {
		return nil, err
	}

	for _, id := range joined {
		s := stats[id]
		s.IsParticipating = true
		stats[id] = s
	}
	for _, id := range interested {
		s := stats[id]
		s.IsInterested = true
		stats[id] = s
	}

	return stats, nil
}
