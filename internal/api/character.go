package api

import (
	"errors"
	"net/http"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/repository"
	"literary-character-ai/backend/internal/service"
	apperrors "literary-character-ai/backend/pkg/errors"
	"literary-character-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// CharacterHandler serves the character catalog
type CharacterHandler struct {
	service *service.CharacterService
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(service *service.CharacterService) *CharacterHandler {
	return &CharacterHandler{service: service}
}

// ListCharacters returns the catalog, filtered by ?tag= when given
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	characters, err := h.service.List(c.Request.Context(), c.Query("tag"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// ListFeatured returns the characters shown on the landing page
func (h *CharacterHandler) ListFeatured(c *gin.Context) {
	characters, err := h.service.Featured(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// GetCharacter returns a character and the caller's history with it.
// ?new=true skips the history.
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	detail, err := h.service.Detail(c.Request.Context(), userID, id, c.Query("new") == "true")
	if err != nil {
		if errors.Is(err, repository.ErrCharacterNotFound) {
			_ = c.Error(apperrors.NewNotFoundError(service.CodeCharacterNotFound, "Character not found"))
			return
		}
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreateCharacter adds a character to the catalog (admin only)
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	character, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateCharacter) {
			_ = c.Error(apperrors.NewConflictError("CHARACTER_EXISTS", "A character with this name already exists for this book"))
			return
		}
		_ = c.Error(err)
		return
	}

	logger.FromContext(c).Info("Character created", "character_id", character.ID, "name", character.Name)
	c.JSON(http.StatusCreated, character)
}

// UpdateCharacter replaces a character's catalog fields (admin only)
func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	character, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCharacterNotFound):
			_ = c.Error(apperrors.NewNotFoundError(service.CodeCharacterNotFound, "Character not found"))
		case errors.Is(err, service.ErrDuplicateCharacter):
			_ = c.Error(apperrors.NewConflictError("CHARACTER_EXISTS", "A character with this name already exists for this book"))
		default:
			_ = c.Error(err)
		}
		return
	}

	logger.FromContext(c).Info("Character updated", "character_id", character.ID, "name", character.Name)
	c.JSON(http.StatusOK, character)
}
