package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/eventhub-api/internal/auth"
	"github.com/yukikurage/eventhub-api/internal/constants"
	"github.com/yukikurage/eventhub-api/internal/dto"
	apierrors "github.com/yukikurage/eventhub-api/internal/errors"
	"github.com/yukikurage/eventhub-api/internal/middleware"
	"github.com/yukikurage/eventhub-api/internal/models"
	"github.com/yukikurage/eventhub-api/internal/services"
	"go.uber.org/zap"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
	jwtService  *auth.JWTService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, jwtService *auth.JWTService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// Signup registers a new user together with its profile.
func (h *AuthHandler) Signup(c *gin.Context) {
	type SignupRequest struct {
		Username  string      `json:"username" binding:"required,min=3,max=150"`
		Email     string      `json:"email" binding:"required,email"`
		FirstName string      `json:"first_name" binding:"max=150"`
		LastName  string      `json:"last_name" binding:"max=150"`
		Password  string      `json:"password" binding:"required"`
		Role      models.Role `json:"role"`
	}

	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Signup(c.Request.Context(), services.SignupInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCurrentUserDTO(*user))
}

// Login authenticates a user, initializes the session and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	user, err = h.authService.GetUser(c.Request.Context(), user.ID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Set(constants.ContextKeyUserID, user.ID)
	if err := session.Save(); err != nil {
		respondInternalError(c, h.logger, fmt.Errorf("failed to save session: %w", err))
		return
	}

	token, expiresAt, err := h.jwtService.Generate(*user)
	if err != nil {
		respondInternalError(c, h.logger, fmt.Errorf("failed to issue token: %w", err))
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{
		User:        dto.ToCurrentUserDTO(*user),
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt.Unix(),
	})
}

// Logout removes the authentication session.
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		respondInternalError(c, h.logger, fmt.Errorf("failed to clear session: %w", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// GetCurrentUser returns the authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "")
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		h.respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCurrentUserDTO(*user))
}

func (h *AuthHandler) respondAuthError(c *gin.Context, err error) {
	if respondCommonError(c, err) {
		return
	}

	switch {
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.Validation(c, "password", fmt.Sprintf("Password must be at least %d characters.", constants.MinPasswordLength))
	case errors.Is(err, services.ErrUsernameTaken):
		apierrors.Conflict(c, "A user with that username already exists.")
	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "A user with that email already exists.")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c, "Invalid username or password.")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.NotFound(c, "User not found.")
	default:
		respondInternalError(c, h.logger, err)
	}
}
