package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/auth"
	"github.com/yukikurage/eventhub-api/internal/config"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/handlers"
	"github.com/yukikurage/eventhub-api/internal/middleware"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/repository"
	"github.com/yukikurage/eventhub-api/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewRouter wires repositories, services, handlers and Gin routes.
func NewRouter(cfg *config.Config, db *gorm.DB, store sessions.Store, logger *zap.Logger) *gin.Engine {
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	authService := services.NewAuthService(userRepo)
	profileService := services.NewProfileService(userRepo, eventRepo)
	orgService := services.NewOrganizationService(orgRepo, userRepo)
	eventService := services.NewEventService(eventRepo, orgService)
	notificationService := services.NewNotificationService(notificationRepo, userRepo)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTExpireHours, cfg.ServiceName)

	authHandler := handlers.NewAuthHandler(authService, jwtService, logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger)
	orgHandler := handlers.NewOrganizationHandler(orgService, eventService, logger)
	eventHandler := handlers.NewEventHandler(eventService, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationService, logger)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.NewRateLimiter(cfg.RateLimitRPM).Handler())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))
	r.Use(middleware.Authenticate(authService, jwtService, logger))

	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":  status,
			"message": "EventHub API is running",
		})
	})

	api := r.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/signup", authHandler.Signup)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/logout", authHandler.Logout)
			authRoutes.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		profile := api.Group("/profile")
		profile.Use(middleware.RequireAuth())
		{
			profile.GET("/me", profileHandler.GetProfile)
			profile.PUT("/me", profileHandler.UpdateProfile)
			profile.PATCH("/me", profileHandler.UpdateProfile)
		}

		orgs := api.Group("/organizations")
		{
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("/me", orgHandler.MyOrganizations)
			orgs.GET("/followed", orgHandler.FollowedOrganizations)
			orgs.GET("/:id", orgHandler.GetOrganization)
			orgs.PUT("/:id", orgHandler.UpdateOrganization)
			orgs.PATCH("/:id", orgHandler.UpdateOrganization)
			orgs.DELETE("/:id", orgHandler.DeleteOrganization)
			orgs.GET("/:id/events", orgHandler.OrganizationEvents)
			orgs.GET("/:id/collaborators", orgHandler.ListCollaborators)
			orgs.POST("/:id/collaborators", orgHandler.AddCollaborator)
			orgs.DELETE("/:id/collaborators/:user_id", orgHandler.RemoveCollaborator)
			orgs.POST("/:id/follow", orgHandler.FollowOrganization)
			orgs.DELETE("/:id/follow", orgHandler.UnfollowOrganization)
			orgs.POST("/:id/unfollow", orgHandler.UnfollowOrganization)
		}

		events := api.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.POST("", eventHandler.CreateEvent)
			events.GET("/upcoming", eventHandler.UpcomingEvents)
			events.GET("/past", eventHandler.PastEvents)
			events.GET("/participating", eventHandler.ParticipatingEvents)
			events.GET("/interested", eventHandler.InterestedEvents)
			events.GET("/organized", eventHandler.OrganizedEvents)
			events.GET("/:id", eventHandler.GetEvent)
			events.PUT("/:id", eventHandler.UpdateEvent)
			events.PATCH("/:id", eventHandler.UpdateEvent)
			events.DELETE("/:id", eventHandler.DeleteEvent)
			events.POST("/:id/cancel", eventHandler.CancelEvent)
			events.POST("/:id/uncancel", eventHandler.UncancelEvent)
			events.POST("/:id/participate", eventHandler.Participate)
			events.DELETE("/:id/participate", eventHandler.LeaveEvent)
			events.POST("/:id/interest", eventHandler.AddInterest)
			events.DELETE("/:id/interest", eventHandler.RemoveInterest)
			events.GET("/:id/participants", eventHandler.ListParticipants)
		}

		notifications := api.Group("/notifications")
		notifications.Use(middleware.RequireAuth())
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("", middleware.RequireRole(models.RoleAdmin), notificationHandler.CreateNotification)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/mark-all-as-read", notificationHandler.MarkAllAsRead)
			notifications.GET("/:id", notificationHandler.GetNotification)
			notifications.POST("/:id/mark-as-read", notificationHandler.MarkAsRead)
			notifications.POST("/:id/mark-as-unread", notificationHandler.MarkAsUnread)
		}
	}

	return r
}
