package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/auth"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/database"
	"github.com/yukikurage/eventhub-api/internal/dto"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
	"github.com/yukikurage/eventhub-api/internal/services"
	"github.com/yukikurage/eventhub-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerTestEnv struct {
	db                  *gorm.DB
	authService         *services.AuthService
	orgService          *services.OrganizationService
	eventService        *services.EventService
	notificationService *services.NotificationService
	auth                *AuthHandler
	profiles            *ProfileHandler
	organizations       *OrganizationHandler
	events              *EventHandler
	notifications       *NotificationHandler
}

func setupHandlerTestEnv(t *testing.T) handlerTestEnv {
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

	authService := services.NewAuthService(userRepo)
	orgService := services.NewOrganizationService(orgRepo, userRepo)
	eventService := services.NewEventService(eventRepo, orgService)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)
	log := zap.NewNop()

	return handlerTestEnv{
		db:                  db,
		authService:         authService,
		orgService:          orgService,
		eventService:        eventService,
		notificationService: notificationService,
		auth:                NewAuthHandler(authService, auth.NewJWTService("secret", 1, "eventhub-test"), log),
		profiles:            NewProfileHandler(services.NewProfileService(userRepo, eventRepo), log),
		organizations:       NewOrganizationHandler(orgService, eventService, log),
		events:              NewEventHandler(eventService, log),
		notifications:       NewNotificationHandler(notificationService, log),
	}
}

func (env handlerTestEnv) signup(t *testing.T, username string, role models.Role) access.Actor {
	t.Helper()

	user, err := env.authService.Signup(context.Background(), services.SignupInput{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		Password:  "password123",
		Role:      role,
	})
	require.NoError(t, err)
	return access.Actor{UserID: user.ID, Role: role}
}

func (env handlerTestEnv) createOrganization(t *testing.T, owner access.Actor, name string) uint64 {
	t.Helper()

	detail, err := env.orgService.Create(context.Background(), owner, services.OrganizationInput{Name: &name})
	require.NoError(t, err)
	return detail.Organization.ID
}

func (env handlerTestEnv) createEvent(t *testing.T, actor access.Actor, organizationID uint64, name string, capacity int) uint64 {
	t.Helper()

	input := services.EventInput{
		Name:         utils.Nullable[string]{Value: name, Set: true},
		Date:         utils.Nullable[time.Time]{Value: time.Now().UTC().Add(72 * time.Hour), Set: true},
		Location:     utils.Nullable[string]{Value: "Hall A", Set: true},
		Organization: utils.Nullable[uint64]{Value: organizationID, Set: true},
	}
	if capacity > 0 {
		input.Capacity = utils.Nullable[int]{Value: capacity, Set: true}
	}

	detail, err := env.eventService.Create(context.Background(), actor, input)
	require.NoError(t, err)
	return detail.Event.ID
}

// testContext builds a request context for actor. Path parameters are given as
// name/value pairs.
func testContext(method, url string, body []byte, actor access.Actor, params ...string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if actor.IsAuthenticated() {
		c.Set(constants.ContextKeyUserID, actor.UserID)
		c.Set(constants.ContextKeyUserRole, actor.Role)
	}
	for i := 0; i+1 < len(params); i += 2 {
		c.Params = append(c.Params, gin.Param{Key: params[i], Value: params[i+1]})
	}

	return c, w
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()

	body, err := json.Marshal(v)
	require.NoError(t, err)
	return body
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

type eventListResponse struct {
	Events     []dto.EventDTO           `json:"events"`
	Pagination utils.PaginationResponse `json:"pagination"`
}

type notificationListResponse struct {
	Notifications []dto.NotificationDTO    `json:"notifications"`
	Pagination    utils.PaginationResponse `json:"pagination"`
}

type participantsResponse struct {
	Participants []dto.UserDTO `json:"participants"`
	Count        int           `json:"count"`
}

type transitionResponse struct {
	Detail string       `json:"detail"`
	Event  dto.EventDTO `json:"event"`
}
