package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/access"
	"github.com/yukikurage/eventhub-api/internal/auth"
	"github.com/yukikurage/eventhub-api/internal/constants"
	apierrors "github.com/yukikurage/eventhub-api/internal/errors"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
	"go.uber.org/zap"
)

// ActorResolver loads the access actor for a user ID.
type ActorResolver interface {
	ResolveActor(ctx context.Context, userID uint64) (access.Actor, error)
}

// Authenticate identifies the caller from a Bearer token or the login session.
// Requests without credentials continue anonymously; an invalid token is
// rejected.
func Authenticate(resolver ActorResolver, jwtService *auth.JWTService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		userID, fromToken, ok := credentials(c, jwtService)
		if !ok {
			apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "Invalid or expired token."))
			return
		}
		if userID == 0 {
			c.Next()
			return
		}

		actor, err := resolver.ResolveActor(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, services.ErrUserNotFound) {
				logger.Error("failed to resolve actor", zap.Uint64("user_id", userID), zap.Error(err))
				apierrors.AbortWithError(c, http.StatusInternalServerError, apierrors.NewAPIError(apierrors.ErrCodeInternalError, "Internal server error"))
				return
			}
			if fromToken {
				apierrors.AbortWithError(c, http.StatusUnauthorized, apierrors.NewAPIError(apierrors.ErrCodeUnauthorized, "User no longer exists."))
				return
			}
			c.Next()
			return
		}

		c.Set(constants.ContextKeyUserID, actor.UserID)
		c.Set(constants.ContextKeyUserRole, actor.Role)
		c.Next()
	}
}

// credentials extracts the user ID. ok is false when a token was supplied but
// is not valid.
func credentials(c *gin.Context, jwtService *auth.JWTService) (userID uint64, fromToken bool, ok bool) {
	if header := c.GetHeader("Authorization"); header != "" && jwtService != nil {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return 0, true, false
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			return 0, true, false
		}
		id, err := claims.UserID()
		if err != nil {
			return 0, true, false
		}
		return id, true, true
	}

	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return 0, false, true
	}
	session := sessions.Default(c)
	switch v := session.Get(constants.ContextKeyUserID).(type) {
	case uint64:
		return v, false, true
	case uint:
		return uint64(v), false, true
	default:
		return 0, false, true
	}
}

// RequireAuth rejects anonymous requests
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := GetUserID(c); !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole allows only the given profile roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		actor := GetActor(c)
		if !actor.IsAuthenticated() {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			apierrors.Forbidden(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, v != 0
	case uint:
		return uint64(v), v != 0
	case int:
		if v <= 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetActor returns the caller, anonymous when unauthenticated
func GetActor(c *gin.Context) access.Actor {
	userID, ok := GetUserID(c)
	if !ok {
		return access.Anonymous()
	}

	actor := access.Actor{UserID: userID}
	role, _ := c.Get(constants.ContextKeyUserRole)
	switch role := role.(type) {
	case models.Role:
		actor.Role = role
	case string:
		actor.Role = models.Role(role)
	}
	return actor
}
