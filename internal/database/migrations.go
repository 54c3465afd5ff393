package database

import (
	"fmt"

	"github.com/yukikurage/eventhub-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table managed by the application, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Profile{},
		&models.Organization{},
		&models.OrganizationCollaborator{},
		&models.OrganizationFollower{},
		&models.Event{},
		&models.EventParticipant{},
		&models.EventInterest{},
		&models.Notification{},
	}
}

// Migrate creates or updates the schema and adds secondary indexes.
func Migrate(db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}

	log.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := AddIndexes(db, log); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	log.Info("database migrations completed")
	return nil
}

// AddIndexes adds lookup indexes that the model tags do not declare.
func AddIndexes(db *gorm.DB, log *zap.Logger) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Reverse lookups on join tables
		{"organization_collaborators", "idx_org_collaborators_user_id", "user_id"},
		{"organization_followers", "idx_org_followers_user_id", "user_id"},
		{"event_participants", "idx_event_participants_user_id", "user_id"},
		{"event_interests", "idx_event_interests_user_id", "user_id"},

		// Listing filters
		{"events", "idx_events_organization_status_date", "organization_id, status, date"},
		{"notifications", "idx_notifications_user_is_read", "user_id, is_read"},
	}

	migrator := db.Migrator()
	for _, idx := range indexes {
		if migrator.HasIndex(idx.table, idx.name) {
			log.Debug("index already exists, skipping", zap.String("index", idx.name))
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		log.Info("created index",
			zap.String("index", idx.name),
			zap.String("table", idx.table),
			zap.String("columns", idx.columns),
		)
	}

	return nil
}
