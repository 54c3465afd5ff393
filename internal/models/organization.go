package models

import "time"

type OrganizationType string

const (
	OrganizationTypeCompany     OrganizationType = "COMPANY"
	OrganizationTypeNonProfit   OrganizationType = "NON_PROFIT"
	OrganizationTypeCommunity   OrganizationType = "COMMUNITY"
	OrganizationTypeEducational OrganizationType = "EDUCATIONAL"
	OrganizationTypeGovernment  OrganizationType = "GOVERNMENT"
	OrganizationTypeOther       OrganizationType = "OTHER"
)

// Valid reports whether t is a known organization type. The empty type is allowed.
func (t OrganizationType) Valid() bool {
	switch t {
	case "", OrganizationTypeCompany, OrganizationTypeNonProfit, OrganizationTypeCommunity,
		OrganizationTypeEducational, OrganizationTypeGovernment, OrganizationTypeOther:
		return true
	}
	return false
}

type Organization struct {
	ID               uint64           `gorm:"primarykey" json:"id"`
	Name             string           `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description      string           `gorm:"type:text" json:"description"`
	Email            *string          `gorm:"type:varchar(254);uniqueIndex" json:"email"`
	Website          string           `gorm:"type:varchar(200)" json:"website"`
	Phone            string           `gorm:"type:varchar(20)" json:"phone"`
	Address          string           `gorm:"type:text" json:"address"`
	City             string           `gorm:"type:varchar(100)" json:"city"`
	Country          string           `gorm:"type:varchar(100)" json:"country"`
	LogoURL          *string          `gorm:"type:varchar(200)" json:"logo_url"`
	CoverImageURL    *string          `gorm:"type:varchar(200)" json:"cover_image_url"`
	TwitterHandle    string           `gorm:"type:varchar(50)" json:"twitter_handle"`
	FacebookURL      string           `gorm:"type:varchar(200)" json:"facebook_url"`
	LinkedinURL      string           `gorm:"type:varchar(200)" json:"linkedin_url"`
	InstagramHandle  string           `gorm:"type:varchar(50)" json:"instagram_handle"`
	OrganizationType OrganizationType `gorm:"type:varchar(20)" json:"organization_type"`
	EstablishedDate  *time.Time       `gorm:"type:date" json:"established_date"`
	OwnerID          uint64           `gorm:"not null;index" json:"owner_id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`

	// Relations
	Owner         User                       `gorm:"foreignKey:OwnerID" json:"-"`
	Collaborators []OrganizationCollaborator `gorm:"foreignKey:OrganizationID" json:"-"`
	Events        []Event                    `gorm:"foreignKey:OrganizationID" json:"-"`
}
