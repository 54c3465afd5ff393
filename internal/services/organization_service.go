package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrOrganizationNotFound     = errors.New("organization not found")
	ErrOrganizationNameTaken    = errors.New("organization with this name already exists")
	ErrOrganizationEmailTaken   = errors.New("organization with this email already exists")
	ErrOrganizationConflict     = errors.New("organization conflicts with an existing one")
	ErrAlreadyCollaborator      = errors.New("user is already a collaborator")
	ErrNotCollaborator          = errors.New("user is not a collaborator")
	ErrCollaboratorNotOrganizer = errors.New("only users with the ORGANIZER role can be collaborators")
	ErrOwnerCannotCollaborate   = errors.New("the owner cannot be added as a collaborator")
	ErrAlreadyFollowing         = errors.New("you are already following this organization")
	ErrNotFollowing             = errors.New("you are not following this organization")
)

// OrganizationService provides business logic for organization operations.
type OrganizationService struct {
	orgRepo  repository.OrganizationRepository
	userRepo repository.UserRepository
}

// NewOrganizationService creates a new OrganizationService.
func NewOrganizationService(orgRepo repository.OrganizationRepository, userRepo repository.UserRepository) *OrganizationService {
	return &OrganizationService{
		orgRepo:  orgRepo,
		userRepo: userRepo,
	}
}

// OrganizationDetail is an organization resolved for one caller.
type OrganizationDetail struct {
	Organization  models.Organization
	Relationship  access.Relationship
	View          access.View
	EventCount    int64
	IsFollowing   bool
	Collaborators []models.User
}

// OrganizationInput carries organization fields. Nil fields are left unchanged.
type OrganizationInput struct {
	Name             *string
	Description      *string
	Email            *string
	Website          *string
	Phone            *string
	Address          *string
	City             *string
	Country          *string
	LogoURL          *string
	CoverImageURL    *string
	TwitterHandle    *string
	FacebookURL      *string
	LinkedinURL      *string
	InstagramHandle  *string
	OrganizationType *string
	EstablishedDate  *string
}

// Relationship resolves the actor's standing towards an organization.
func (s *OrganizationService) Relationship(ctx context.Context, actor access.Actor, org *models.Organization) (access.Relationship, error) {
	isCollaborator := false
	if actor.IsAuthenticated() && actor.UserID != org.OwnerID {
		ok, err := s.orgRepo.IsCollaborator(ctx, org.ID, actor.UserID)
		if err != nil {
			return access.RelationshipAnonymous, fmt.Errorf("failed to check collaborator: %w", err)
		}
		isCollaborator = ok
	}
	return access.Relate(actor, org.OwnerID, isCollaborator), nil
}

func (s *OrganizationService) find(ctx context.Context, id uint64) (*models.Organization, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return org, nil
}

// Load finds an organization and resolves the actor's relationship to it.
func (s *OrganizationService) Load(ctx context.Context, actor access.Actor, id uint64) (*models.Organization, access.Relationship, error) {
	org, err := s.find(ctx, id)
	if err != nil {
		return nil, access.RelationshipAnonymous, err
	}
	rel, err := s.Relationship(ctx, actor, org)
	if err != nil {
		return nil, access.RelationshipAnonymous, err
	}
	return org, rel, nil
}

// detail builds caller-specific details for a batch of organizations.
func (s *OrganizationService) detail(ctx context.Context, actor access.Actor, orgs []models.Organization, rels []access.Relationship) ([]OrganizationDetail, error) {
	ids := make([]uint64, len(orgs))
	for i, org := range orgs {
		ids[i] = org.ID
	}

	counts, err := s.orgRepo.CountActiveEvents(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count events: %w", err)
	}
	followed, err := s.orgRepo.FollowedAmong(ctx, actor.UserID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load follows: %w", err)
	}

	details := make([]OrganizationDetail, len(orgs))
	for i, org := range orgs {
		view := access.SelectView(rels[i])
		details[i] = OrganizationDetail{
			Organization: org,
			Relationship: rels[i],
			View:         view,
			EventCount:   counts[org.ID],
			IsFollowing:  followed[org.ID],
		}
		if view == access.ViewOwner {
			collaborators, err := s.orgRepo.ListCollaborators(ctx, org.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to list collaborators: %w", err)
			}
			details[i].Collaborators = collaborators
		}
	}
	return details, nil
}

func (s *OrganizationService) detailOne(ctx context.Context, actor access.Actor, org *models.Organization, rel access.Relationship) (*OrganizationDetail, error) {
	details, err := s.detail(ctx, actor, []models.Organization{*org}, []access.Relationship{rel})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func publicRelationships(n int) []access.Relationship {
	rels := make([]access.Relationship, n)
	for i := range rels {
		rels[i] = access.RelationshipOther
	}
	return rels
}

// List returns organizations in their public view.
func (s *OrganizationService) List(ctx context.Context, actor access.Actor, params utils.PaginationParams) ([]OrganizationDetail, int64, error) {
	orgs, total, err := s.orgRepo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list organizations: %w", err)
	}
	details, err := s.detail(ctx, actor, orgs, publicRelationships(len(orgs)))
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// Get returns an organization in the view selected by the actor's relationship.
func (s *OrganizationService) Get(ctx context.Context, actor access.Actor, id uint64) (*OrganizationDetail, error) {
	org, rel, err := s.Load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return s.detailOne(ctx, actor, org, rel)
}

// Create creates an organization owned by the actor.
func (s *OrganizationService) Create(ctx context.Context, actor access.Actor, input OrganizationInput) (*OrganizationDetail, error) {
	if err := access.CanCreateOrganization(actor); err != nil {
		return nil, err
	}
	if input.Name == nil {
		return nil, invalid("name", "This field is required.")
	}

	org := &models.Organization{OwnerID: actor.UserID}
	if err := s.apply(ctx, org, input); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Create(ctx, org); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateError(ctx, org)
		}
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return s.Get(ctx, actor, org.ID)
}

// Update changes organization fields. Only the owner may update; the owner
// itself never changes.
func (s *OrganizationService) Update(ctx context.Context, actor access.Actor, id uint64, input OrganizationInput) (*OrganizationDetail, error) {
	org, rel, err := s.Load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageOrganization(actor, rel); err != nil {
		return nil, err
	}

	if err := s.apply(ctx, org, input); err != nil {
		return nil, err
	}

	if err := s.orgRepo.Update(ctx, org); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, s.duplicateError(ctx, org)
		}
		return nil, fmt.Errorf("failed to update organization: %w", err)
	}

	return s.Get(ctx, actor, org.ID)
}

// duplicateError names the unique column a failed write collided with.
func (s *OrganizationService) duplicateError(ctx context.Context, org *models.Organization) error {
	if taken, err := s.orgRepo.NameTaken(ctx, org.Name, org.ID); err == nil && taken {
		return ErrOrganizationNameTaken
	}
	if org.Email != nil {
		if taken, err := s.orgRepo.EmailTaken(ctx, *org.Email, org.ID); err == nil && taken {
			return ErrOrganizationEmailTaken
		}
	}
	return ErrOrganizationConflict
}

// Delete removes an organization together with its events and memberships.
func (s *OrganizationService) Delete(ctx context.Context, actor access.Actor, id uint64) error {
	_, rel, err := s.Load(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := access.CanManageOrganization(actor, rel); err != nil {
		return err
	}

	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

// Mine returns the organizations the actor owns followed by those the actor
// collaborates on.
func (s *OrganizationService) Mine(ctx context.Context, actor access.Actor) ([]OrganizationDetail, error) {
	if !actor.IsAuthenticated() {
		return nil, access.ErrAuthenticationRequired
	}

	owned, err := s.orgRepo.ListOwnedBy(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned organizations: %w", err)
	}
	collaborating, err := s.orgRepo.ListCollaboratingFor(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborating organizations: %w", err)
	}

	orgs := append(owned, collaborating...)
	rels := make([]access.Relationship, 0, len(orgs))
	for range owned {
		rels = append(rels, access.RelationshipOwner)
	}
	for range collaborating {
		rels = append(rels, access.RelationshipCollaborator)
	}

	return s.detail(ctx, actor, orgs, rels)
}

// Followed returns the organizations the actor follows.
func (s *OrganizationService) Followed(ctx context.Context, actor access.Actor, params utils.PaginationParams) ([]OrganizationDetail, int64, error) {
	if !actor.IsAuthenticated() {
		return nil, 0, access.ErrAuthenticationRequired
	}

	orgs, total, err := s.orgRepo.ListFollowedBy(ctx, actor.UserID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list followed organizations: %w", err)
	}
	details, err := s.detail(ctx, actor, orgs, publicRelationships(len(orgs)))
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// Collaborators lists an organization's collaborators. Owner only.
func (s *OrganizationService) Collaborators(ctx context.Context, actor access.Actor, id uint64) ([]models.User, error) {
	_, rel, err := s.Load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageOrganization(actor, rel); err != nil {
		return nil, err
	}

	users, err := s.orgRepo.ListCollaborators(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborators: %w", err)
	}
	return users, nil
}

// AddCollaborator grants the collaborator relationship to a user holding the
// ORGANIZER role. The role is checked only here; a later role change does not
// revoke the relationship.
func (s *OrganizationService) AddCollaborator(ctx context.Context, actor access.Actor, id, userID uint64) ([]models.User, error) {
	org, rel, err := s.Load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageOrganization(actor, rel); err != nil {
		return nil, err
	}

	target, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if target.ID == org.OwnerID {
		return nil, ErrOwnerCannotCollaborate
	}
	if target.Profile == nil || target.Profile.Role != models.RoleOrganizer {
		return nil, ErrCollaboratorNotOrganizer
	}

	exists, err := s.orgRepo.IsCollaborator(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check collaborator: %w", err)
	}
	if exists {
		return nil, ErrAlreadyCollaborator
	}

	if err := s.orgRepo.AddCollaborator(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyCollaborator
		}
		return nil, fmt.Errorf("failed to add collaborator: %w", err)
	}

	return s.Collaborators(ctx, actor, id)
}

// RemoveCollaborator revokes the collaborator relationship.
func (s *OrganizationService) RemoveCollaborator(ctx context.Context, actor access.Actor, id, userID uint64) ([]models.User, error) {
	_, rel, err := s.Load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := access.CanManageOrganization(actor, rel); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	removed, err := s.orgRepo.RemoveCollaborator(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove collaborator: %w", err)
	}
	if !removed {
		return nil, ErrNotCollaborator
	}

	return s.Collaborators(ctx, actor, id)
}

// Follow adds the actor to the organization's followers.
func (s *OrganizationService) Follow(ctx context.Context, actor access.Actor, id uint64) error {
	if !actor.IsAuthenticated() {
		return access.ErrAuthenticationRequired
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	if err := s.orgRepo.AddFollower(ctx, id, actor.UserID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyFollowing
		}
		return fmt.Errorf("failed to follow organization: %w", err)
	}
	return nil
}

// Unfollow removes the actor from the organization's followers.
func (s *OrganizationService) Unfollow(ctx context.Context, actor access.Actor, id uint64) error {
	if !actor.IsAuthenticated() {
		return access.ErrAuthenticationRequired
	}
	if _, err := s.find(ctx, id); err != nil {
		return err
	}

	removed, err := s.orgRepo.RemoveFollower(ctx, id, actor.UserID)
	if err != nil {
		return fmt.Errorf("failed to unfollow organization: %w", err)
	}
	if !removed {
		return ErrNotFollowing
	}
	return nil
}

// apply validates input and copies it onto org.
func (s *OrganizationService) apply(ctx context.Context, org *models.Organization, input OrganizationInput) error {
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return invalid("name", "This field may not be blank.")
		}
		taken, err := s.orgRepo.NameTaken(ctx, name, org.ID)
		if err != nil {
			return fmt.Errorf("failed to check organization name: %w", err)
		}
		if taken {
			return ErrOrganizationNameTaken
		}
		org.Name = name
	}

	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if email == "" {
			org.Email = nil
		} else {
			taken, err := s.orgRepo.EmailTaken(ctx, email, org.ID)
			if err != nil {
				return fmt.Errorf("failed to check organization email: %w", err)
			}
			if taken {
				return ErrOrganizationEmailTaken
			}
			org.Email = &email
		}
	}

	if input.OrganizationType != nil {
		orgType := models.OrganizationType(strings.TrimSpace(*input.OrganizationType))
		if !orgType.Valid() {
			return invalid("organization_type", fmt.Sprintf("%q is not a valid choice.", orgType))
		}
		org.OrganizationType = orgType
	}

	if input.EstablishedDate != nil {
		value := strings.TrimSpace(*input.EstablishedDate)
		if value == "" {
			org.EstablishedDate = nil
		} else {
			date, err := time.Parse(constants.DateLayout, value)
			if err != nil {
				return invalid("established_date", "Date has wrong format. Use YYYY-MM-DD.")
			}
			org.EstablishedDate = &date
		}
	}

	assignString(&org.Description, input.Description)
	assignString(&org.Website, input.Website)
	assignString(&org.Phone, input.Phone)
	assignString(&org.Address, input.Address)
	assignString(&org.City, input.City)
	assignString(&org.Country, input.Country)
	assignString(&org.TwitterHandle, input.TwitterHandle)
	assignString(&org.FacebookURL, input.FacebookURL)
	assignString(&org.LinkedinURL, input.LinkedinURL)
	assignString(&org.InstagramHandle, input.InstagramHandle)
	assignOptional(&org.LogoURL, input.LogoURL)
	assignOptional(&org.CoverImageURL, input.CoverImageURL)

	return nil
}

func assignString(dst *string, value *string) {
	if value != nil {
		*dst = strings.TrimSpace(*value)
	}
}

func assignOptional(dst **string, value *string) {
	if value == nil {
		return
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		*dst = nil
		return
	}
	*dst = &trimmed
}
