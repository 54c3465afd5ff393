package dto

import (
	"time"

	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
)

// EventDTO represents an event in API responses
type EventDTO struct {
	ID               uint64             `json:"id"`
	Name             string             `json:"name"`
	Date             time.Time          `json:"date"`
	Location         string             `json:"location"`
	Description      string             `json:"description"`
	Capacity         *int               `json:"capacity"`
	Category         string             `json:"category"`
	Organizer        uint64             `json:"organizer"`
	OrganizerName    string             `json:"organizer_name"`
	CreatedBy        string             `json:"created_by"`
	Organization     uint64             `json:"organization"`
	OrganizationID   uint64             `json:"organization_id"`
	OrganizationName string             `json:"organization_name"`
	Status           models.EventStatus `json:"status"`
	ParticipantCount int64              `json:"participant_count"`
	InterestCount    int64              `json:"interest_count"`
	IsParticipating  bool               `json:"is_participating"`
	IsInterested     bool               `json:"is_interested"`
	IsFull           bool               `json:"is_full"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// ParticipationDTO is returned by join and leave
type ParticipationDTO struct {
	Detail           string `json:"detail"`
	ParticipantCount int64  `json:"participant_count"`
	IsParticipating  bool   `json:"is_participating"`
	IsFull           bool   `json:"is_full"`
}

// InterestDTO is returned by interest changes
type InterestDTO struct {
	IsInterested  bool  `json:"is_interested"`
	InterestCount int64 `json:"interest_count"`
}

// ToEventDTO converts an event detail to EventDTO
func ToEventDTO(detail services.EventDetail) EventDTO {
	event := detail.Event
	return EventDTO{
		ID:               event.ID,
		Name:             event.Name,
		Date:             event.Date,
		Location:         event.Location,
		Description:      event.Description,
		Capacity:         event.Capacity,
		Category:         event.Category,
		Organizer:        event.OrganizerID,
		OrganizerName:    event.Organizer.Username,
		CreatedBy:        event.Organizer.Username,
		Organization:     event.OrganizationID,
		OrganizationID:   event.OrganizationID,
		OrganizationName: event.Organization.Name,
		Status:           event.Status,
		ParticipantCount: detail.ParticipantCount,
		InterestCount:    detail.InterestCount,
		IsParticipating:  detail.IsParticipating,
		IsInterested:     detail.IsInterested,
		IsFull:           detail.IsFull,
		CreatedAt:        event.CreatedAt,
		UpdatedAt:        event.UpdatedAt,
	}
}

// ToEventDTOs converts a batch of event details
func ToEventDTOs(details []services.EventDetail) []EventDTO {
	dtos := make([]EventDTO, len(details))
	for i, detail := range details {
		dtos[i] = ToEventDTO(detail)
	}
	return dtos
}

// ToParticipationDTO converts a participation result
func ToParticipationDTO(result services.ParticipationResult) ParticipationDTO {
	return ParticipationDTO{
		Detail:           result.Detail(),
		ParticipantCount: result.ParticipantCount,
		IsParticipating:  result.IsParticipating,
		IsFull:           result.IsFull,
	}
}

// ToInterestDTO converts an interest result
func ToInterestDTO(result services.InterestResult) InterestDTO {
	return InterestDTO{
		IsInterested:  result.IsInterested,
		InterestCount: result.InterestCount,
	}
}
