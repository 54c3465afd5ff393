package repository

import (
	"context"
	"time"

	"github.com/yukikurage/eventhub-api/internal/database"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates a new organization
func (r *GormOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Omit("Owner").Create(org).Error
}

// FindByID finds an organization by ID
func (r *GormOrganizationRepository) FindByID(ctx context.Context, id uint64) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).Preload("Owner").First(&org, id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// NameTaken reports whether another organization already uses name
func (r *GormOrganizationRepository) NameTaken(ctx context.Context, name string, excludeID uint64) (bool, error) {
	return r.exists(ctx, "name = ?", name, excludeID)
}

// EmailTaken reports whether another organization already uses email
func (r *GormOrganizationRepository) EmailTaken(ctx context.Context, email string, excludeID uint64) (bool, error) {
	return r.exists(ctx, "email = ?", email, excludeID)
}

func (r *GormOrganizationRepository) exists(ctx context.Context, cond string, value string, excludeID uint64) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Organization{}).Where(cond, value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates an organization
func (r *GormOrganizationRepository) Update(ctx context.Context, org *models.Organization) error {
	return r.db.WithContext(ctx).Omit("Owner").Save(org).Error
}

// Delete deletes an organization and all related data in a transaction
func (r *GormOrganizationRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		eventIDs := tx.Model(&models.Event{}).Select("id").Where("organization_id = ?", id)

		// Delete participations and interests of the organization's events
		if err := tx.Where("event_id IN (?)", eventIDs).Delete(&models.EventParticipant{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id IN (?)", eventIDs).Delete(&models.EventInterest{}).Error; err != nil {
			return err
		}

		// Delete events
		if err := tx.Where("organization_id = ?", id).Delete(&models.Event{}).Error; err != nil {
			return err
		}

		// Delete collaborators and followers
		if err := tx.Where("organization_id = ?", id).Delete(&models.OrganizationCollaborator{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ?", id).Delete(&models.OrganizationFollower{}).Error; err != nil {
			return err
		}

		// Delete organization
		if err := tx.Delete(&models.Organization{}, id).Error; err != nil {
			return err
		}

		return nil
	})
}

// List lists organizations ordered by name
func (r *GormOrganizationRepository) List(ctx context.Context, params utils.PaginationParams) ([]models.Organization, int64, error) {
	var orgs []models.Organization
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Organization{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Owner").
		Order("name ASC").
		Scopes(database.Paginate(params)).
		Find(&orgs).Error; err != nil {
		return nil, 0, err
	}

	return orgs, total, nil
}

// ListOwnedBy lists organizations owned by the user
func (r *GormOrganizationRepository) ListOwnedBy(ctx context.Context, userID uint64) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.WithContext(ctx).Preload("Owner").
		Where("owner_id = ?", userID).
		Order("name ASC").
		Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListCollaboratingFor lists organizations the user collaborates on
func (r *GormOrganizationRepository) ListCollaboratingFor(ctx context.Context, userID uint64) ([]models.Organization, error) {
	var orgs []models.Organization
	if err := r.db.WithContext(ctx).Preload("Owner").
		Joins("JOIN organization_collaborators oc ON oc.organization_id = organizations.id").
		Where("oc.user_id = ? AND organizations.owner_id <> ?", userID, userID).
		Order("organizations.name ASC").
		Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// ListFollowedBy lists organizations the user follows
func (r *GormOrganizationRepository) ListFollowedBy(ctx context.Context, userID uint64, params utils.PaginationParams) ([]models.Organization, int64, error) {
	var orgs []models.Organization
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Organization{}).
		Joins("JOIN organization_followers f ON f.organization_id = organizations.id").
		Where("f.user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.Preload("Owner").
		Order("organizations.name ASC").
		Scopes(database.Paginate(params)).
		Find(&orgs).Error; err != nil {
		return nil, 0, err
	}

	return orgs, total, nil
}

// MemberOrganizationIDs returns IDs of organizations the user owns or collaborates on
func (r *GormOrganizationRepository) MemberOrganizationIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var owned []uint64
	if err := r.db.WithContext(ctx).Model(&models.Organization{}).
		Where("owner_id = ?", userID).
		Pluck("id", &owned).Error; err != nil {
		return nil, err
	}

	var collaborating []uint64
	if err := r.db.WithContext(ctx).Model(&models.OrganizationCollaborator{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &collaborating).Error; err != nil {
		return nil, err
	}

	return append(owned, collaborating...), nil
}

// IsCollaborator reports whether the user collaborates on the organization
func (r *GormOrganizationRepository) IsCollaborator(ctx context.Context, organizationID, userID uint64) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrganizationCollaborator{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddCollaborator adds a collaborator to an organization
func (r *GormOrganizationRepository) AddCollaborator(ctx context.Context, organizationID, userID uint64) error {
	return r.db.WithContext(ctx).Create(&models.OrganizationCollaborator{
		OrganizationID: organizationID,
		UserID:         userID,
		CreatedAt:      time.Now(),
	}).Error
}

// RemoveCollaborator removes a collaborator from an organization
func (r *GormOrganizationRepository) RemoveCollaborator(ctx context.Context, organizationID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&models.OrganizationCollaborator{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ListCollaborators lists the collaborating users of an organization
func (r *GormOrganizationRepository) ListCollaborators(ctx context.Context, organizationID uint64) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Joins("JOIN organization_collaborators oc ON oc.user_id = users.id").
		Where("oc.organization_id = ?", organizationID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// AddFollower records that the user follows the organization
func (r *GormOrganizationRepository) AddFollower(ctx context.Context, organizationID, userID uint64) error {
	return r.db.WithContext(ctx).Create(&models.OrganizationFollower{
		OrganizationID: organizationID,
		UserID:         userID,
		CreatedAt:      time.Now(),
	}).Error
}

// RemoveFollower removes a follow and reports whether one existed
func (r *GormOrganizationRepository) RemoveFollower(ctx context.Context, organizationID, userID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&models.OrganizationFollower{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FollowedAmong returns which of the given organizations the user follows
func (r *GormOrganizationRepository) FollowedAmong(ctx context.Context, userID uint64, organizationIDs []uint64) (map[uint64]bool, error) {
	followed := make(map[uint64]bool, len(organizationIDs))
	if userID == 0 || len(organizationIDs) == 0 {
		return followed, nil
	}

	var ids []uint64
	if err := r.db.WithContext(ctx).Model(&models.OrganizationFollower{}).
		Where("user_id = ? AND organization_id IN ?", userID, organizationIDs).
		Pluck("organization_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		followed[id] = true
	}
	return followed, nil
}

// CountActiveEvents counts active events per organization
func (r *GormOrganizationRepository) CountActiveEvents(ctx context.Context, organizationIDs []uint64) (map[uint64]int64, error) {
	counts := make(map[uint64]int64, len(organizationIDs))
	if len(organizationIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		OrganizationID uint64
		Total          int64
	}
	if err := r.db.WithContext(ctx).Model(&models.Event{}).
		Select("organization_id, COUNT(*) AS total").
		Where("organization_id IN ? AND status = ?", organizationIDs, models.EventStatusActive).
		Group("organization_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.OrganizationID] = row.Total
	}
	return counts, nil
}
