package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/database"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type serviceTestEnv struct {
	db            *gorm.DB
	auth          *AuthService
	profiles      *ProfileService
	organizations *OrganizationService
	events        *EventService
	notifications *NotificationService
}

func setupServiceTestEnv(t *testing.T) serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, zap.NewNop()))

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	organizations := NewOrganizationService(orgRepo, userRepo)

	return serviceTestEnv{
		db:            db,
		auth:          NewAuthService(userRepo),
		profiles:      NewProfileService(userRepo, eventRepo),
		organizations: organizations,
		events:        NewEventService(eventRepo, organizations),
		notifications: NewNotificationService(notificationRepo, userRepo),
	}
}

// signup creates a user with the given role and returns its actor.
func (env serviceTestEnv) signup(t *testing.T, username string, role models.Role) access.Actor {
	t.Helper()

	user, err := env.auth.Signup(context.Background(), SignupInput{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		Password:  "password123",
		Role:      role,
	})
	require.NoError(t, err)

	actor, err := env.auth.ResolveActor(context.Background(), user.ID)
	require.NoError(t, err)
	return actor
}

func (env serviceTestEnv) createOrganization(t *testing.T, owner access.Actor, name string) *OrganizationDetail {
	t.Helper()

	detail, err := env.organizations.Create(context.Background(), owner, OrganizationInput{Name: &name})
	require.NoError(t, err)
	return detail
}

func (env serviceTestEnv) createEvent(t *testing.T, actor access.Actor, organizationID uint64, name string, capacity *int, date time.Time) *EventDetail {
	t.Helper()

	input := EventInput{}
	input.Name.Set, input.Name.Value = true, name
	input.Date.Set, input.Date.Value = true, date
	input.Organization.Set, input.Organization.Value = true, organizationID
	if capacity != nil {
		input.Capacity.Set, input.Capacity.Value = true, *capacity
	}

	detail, err := env.events.Create(context.Background(), actor, input)
	require.NoError(t, err)
	return detail
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
