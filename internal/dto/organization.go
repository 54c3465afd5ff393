package dto

import (
	"time"

	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
)

// OrganizationView is one of PublicOrganizationView, CollaboratorOrganizationView
// or OwnerOrganizationView.
type OrganizationView interface {
	organizationView()
}

// PublicOrganizationView is returned to anonymous callers and non-members.
// It never carries the owner id or the update timestamp.
type PublicOrganizationView struct {
	ID               uint64                  `json:"id"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description"`
	Email            *string                 `json:"email"`
	Website          string                  `json:"website"`
	Phone            string                  `json:"phone"`
	Address          string                  `json:"address"`
	City             string                  `json:"city"`
	Country          string                  `json:"country"`
	LogoURL          *string                 `json:"logo_url"`
	CoverImageURL    *string                 `json:"cover_image_url"`
	TwitterHandle    string                  `json:"twitter_handle"`
	FacebookURL      string                  `json:"facebook_url"`
	LinkedinURL      string                  `json:"linkedin_url"`
	InstagramHandle  string                  `json:"instagram_handle"`
	OrganizationType models.OrganizationType `json:"organization_type"`
	EstablishedDate  *string                 `json:"established_date"`
	OwnerName        string                  `json:"owner_name"`
	EventCount       int64                   `json:"event_count"`
	IsFollowing      bool                    `json:"is_following"`
	CreatedAt        time.Time               `json:"created_at"`
}

// CollaboratorOrganizationView is returned to collaborators.
type CollaboratorOrganizationView struct {
	PublicOrganizationView
	IsCollaborator bool `json:"is_collaborator"`
}

// OwnerOrganizationView is returned to the owner.
type OwnerOrganizationView struct {
	PublicOrganizationView
	OwnerID        uint64    `json:"owner_id"`
	Collaborators  []UserDTO `json:"collaborators"`
	IsCollaborator bool      `json:"is_collaborator"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (PublicOrganizationView) organizationView()       {}
func (CollaboratorOrganizationView) organizationView() {}
func (OwnerOrganizationView) organizationView()        {}

// ToPublicOrganizationView builds the public representation
func ToPublicOrganizationView(detail services.OrganizationDetail) PublicOrganizationView {
	org := detail.Organization

	var established *string
	if org.EstablishedDate != nil {
		formatted := org.EstablishedDate.Format(constants.DateLayout)
		established = &formatted
	}

	return PublicOrganizationView{
		ID:               org.ID,
		Name:             org.Name,
		Description:      org.Description,
		Email:            org.Email,
		Website:          org.Website,
		Phone:            org.Phone,
		Address:          org.Address,
		City:             org.City,
		Country:          org.Country,
		LogoURL:          org.LogoURL,
		CoverImageURL:    org.CoverImageURL,
		TwitterHandle:    org.TwitterHandle,
		FacebookURL:      org.FacebookURL,
		LinkedinURL:      org.LinkedinURL,
		InstagramHandle:  org.InstagramHandle,
		OrganizationType: org.OrganizationType,
		EstablishedDate:  established,
		OwnerName:        org.Owner.FullName(),
		EventCount:       detail.EventCount,
		IsFollowing:      detail.IsFollowing,
		CreatedAt:        org.CreatedAt,
	}
}

// ToOrganizationView selects the representation the caller is entitled to
func ToOrganizationView(detail services.OrganizationDetail) OrganizationView {
	public := ToPublicOrganizationView(detail)

	switch detail.View {
	case access.ViewOwner:
		return OwnerOrganizationView{
			PublicOrganizationView: public,
			OwnerID:                detail.Organization.OwnerID,
			Collaborators:          ToUserDTOs(detail.Collaborators),
			IsCollaborator:         false,
			UpdatedAt:              detail.Organization.UpdatedAt,
		}
	case access.ViewCollaborator:
		return CollaboratorOrganizationView{
			PublicOrganizationView: public,
			IsCollaborator:         true,
		}
	default:
		return public
	}
}

// ToOrganizationViews converts a batch of organization details
func ToOrganizationViews(details []services.OrganizationDetail) []OrganizationView {
	views := make([]OrganizationView, len(details))
	for i, detail := range details {
		views[i] = ToOrganizationView(detail)
	}
	return views
}
