package models

import (
	"time"

	"gorm.io/gorm"
)

type EventStatus string

const (
	EventStatusActive    EventStatus = "Active"
	EventStatusCancelled EventStatus = "Cancelled"
)

type Event struct {
	ID             uint64      `gorm:"primarykey" json:"id"`
	Name           string      `gorm:"type:varchar(100);not null" json:"name"`
	Date           time.Time   `gorm:"not null;index" json:"date"`
	Location       string      `gorm:"type:varchar(300)" json:"location"`
	Description    string      `gorm:"type:varchar(300)" json:"description"`
	Category       string      `gorm:"type:varchar(100);index" json:"category"`
	Capacity       *int        `json:"capacity"`
	Status         EventStatus `gorm:"type:varchar(10);not null;default:'Active';index" json:"status"`
	OrganizerID    uint64      `gorm:"not null;index" json:"organizer_id"`
	OrganizationID uint64      `gorm:"not null;index" json:"organization_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`

	// Relations
	Organizer    User               `gorm:"foreignKey:OrganizerID" json:"-"`
	Organization Organization       `gorm:"foreignKey:OrganizationID" json:"-"`
	Participants []EventParticipant `gorm:"foreignKey:EventID" json:"-"`
}

// BeforeSave stores a zero capacity as unlimited.
func (e *Event) BeforeSave(tx *gorm.DB) error {
	if e.Capacity != nil && *e.Capacity == 0 {
		e.Capacity = nil
	}
	return nil
}

// IsCancelled reports whether the event has been cancelled.
func (e Event) IsCancelled() bool {
	return e.Status == EventStatusCancelled
}

// EventParticipant is a registration of a user for an event.
type EventParticipant struct {
	EventID  uint64    `gorm:"primarykey" json:"event_id"`
	UserID   uint64    `gorm:"primarykey" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`

	// Relations
	Event Event `gorm:"foreignKey:EventID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}

// EventInterest marks an event as interesting to a user.
type EventInterest struct {
	EventID   uint64    `gorm:"primarykey" json:"event_id"`
	UserID    uint64    `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Event Event `gorm:"foreignKey:EventID" json:"-"`
	User  User  `gorm:"foreignKey:UserID" json:"-"`
}
