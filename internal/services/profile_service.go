package services

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
)

// ProfileService exposes the caller's own profile.
type ProfileService struct {
	userRepo  repository.UserRepository
	eventRepo repository.EventRepository
}

// NewProfileService creates a new ProfileService.
func NewProfileService(userRepo repository.UserRepository, eventRepo repository.EventRepository) *ProfileService {
	return &ProfileService{
		userRepo:  userRepo,
		eventRepo: eventRepo,
	}
}

// ProfileDetail is a profile together with its user and registrations.
type ProfileDetail struct {
	User                  models.User
	Profile               models.Profile
	ParticipatingEventIDs []uint64
}

// UpdateProfileInput holds the writable profile fields. Nil means unchanged.
type UpdateProfileInput struct {
	PhoneNumber *string
	Bio         *string
}

// Get returns the actor's profile, creating it if it is missing.
func (s *ProfileService) Get(ctx context.Context, actor access.Actor) (*ProfileDetail, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}

	user, err := s.userRepo.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	profile, err := s.userRepo.EnsureProfile(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	eventIDs, err := s.eventRepo.ParticipatingEventIDs(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}

	return &ProfileDetail{
		User:                  *user,
		Profile:               *profile,
		ParticipatingEventIDs: eventIDs,
	}, nil
}

// Update changes the writable fields of the actor's profile.
func (s *ProfileService) Update(ctx context.Context, actor access.Actor, input UpdateProfileInput) (*ProfileDetail, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}

	if input.PhoneNumber != nil && utf8.RuneCountInString(*input.PhoneNumber) > constants.MaxPhoneLength {
		return nil, invalid("phone_number", fmt.Sprintf("Ensure this field has no more than %d characters.", constants.MaxPhoneLength))
	}

	profile, err := s.userRepo.EnsureProfile(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}

	if input.PhoneNumber != nil {
		profile.PhoneNumber = *input.PhoneNumber
	}
	if input.Bio != nil {
		profile.Bio = *input.Bio
	}

	if err := s.userRepo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	return s.Get(ctx, actor)
}
