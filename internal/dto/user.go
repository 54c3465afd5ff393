package dto

import (
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uint64 `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CurrentUserDTO represents the authenticated user
type CurrentUserDTO struct {
	UserDTO
	Role models.Role `json:"role"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	User        CurrentUserDTO `json:"user"`
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresAt   int64          `json:"expires_at"`
}

// ProfileDTO represents the caller's own profile
type ProfileDTO struct {
	ID                  uint64      `json:"id"`
	UserID              uint64      `json:"user_id"`
	Username            string      `json:"username"`
	Email               string      `json:"email"`
	FirstName           string      `json:"first_name"`
	LastName            string      `json:"last_name"`
	Role                models.Role `json:"role"`
	PhoneNumber         string      `json:"phone_number"`
	Bio                 string      `json:"bio"`
	ParticipatingEvents []uint64    `json:"participating_events"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// ToUserDTOs converts a slice of users
func ToUserDTOs(users []models.User) []UserDTO {
	dtos := make([]UserDTO, len(users))
	for i, user := range users {
		dtos[i] = ToUserDTO(user)
	}
	return dtos
}

// ToCurrentUserDTO converts a user with its profile
func ToCurrentUserDTO(user models.User) CurrentUserDTO {
	dto := CurrentUserDTO{UserDTO: ToUserDTO(user), Role: models.RoleAttendee}
	if user.Profile != nil {
		dto.Role = user.Profile.Role
	}
	return dto
}

// ToProfileDTO converts a profile detail to ProfileDTO
func ToProfileDTO(detail services.ProfileDetail) ProfileDTO {
	events := detail.ParticipatingEventIDs
	if events == nil {
		events = []uint64{}
	}
	return ProfileDTO{
		ID:                  detail.Profile.ID,
		UserID:              detail.User.ID,
		Username:            detail.User.Username,
		Email:               detail.User.Email,
		FirstName:           detail.User.FirstName,
		LastName:            detail.User.LastName,
		Role:                detail.Profile.Role,
		PhoneNumber:         detail.Profile.PhoneNumber,
		Bio:                 detail.Profile.Bio,
		ParticipatingEvents: events,
	}
}
