package api

import (
	"errors"
	"net/http"

	"literary-character-ai/backend/internal/repository"
	"literary-character-ai/backend/internal/service"
	apperrors "literary-character-ai/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// ConversationHandler serves the caller's conversation history
type ConversationHandler struct {
	service *service.ConversationService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(service *service.ConversationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

// ListConversations returns the caller's conversations, most recent first
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	convs, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

// DeleteConversation removes a conversation and all of its messages
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, id); err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			_ = c.Error(apperrors.NewNotFoundError("CONVERSATION_NOT_FOUND", "Conversation not found"))
			return
		}
		_ = c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
