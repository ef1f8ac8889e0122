package api

import (
	"net/http"

	"literary-character-ai/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// ChatHandler serves chat turns over HTTP
type ChatHandler struct {
	service *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(service *service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// Chat runs one turn and responds with {"response": text}
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(invalidRequest(err))
		return
	}

	result, err := h.service.Chat(c.Request.Context(), userID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
