package api

import (
	"errors"
	"net/http"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/service"
	apperrors "literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	service *service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service *service.UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup handles user registration
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	user, token, err := h.service.CreateUser(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			_ = c.Error(apperrors.NewConflictError("EMAIL_TAKEN", "A user with this email already exists"))
			return
		}
		_ = c.Error(err)
		return
	}

	logger.FromContext(c).Info("User signed up", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// Login handles user authentication
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	user, token, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			_ = c.Error(apperrors.NewUnauthorizedError("INVALID_CREDENTIALS", "Invalid email or password"))
			return
		}
		_ = c.Error(err)
		return
	}

	logger.FromContext(c).Info("User logged in", "user_id", user.ID, "role", user.Role)
	c.JSON(http.StatusOK, gin.H{
		"user":  user.ToResponse(),
		"token": token,
	})
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			_ = c.Error(apperrors.NewNotFoundError("USER_NOT_FOUND", "User not found"))
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}
