package service

import (
	"context"
	"time"

	"literary-character-ai/backend/internal/repository"
)

// ConversationSummary is one row of the user's conversation history page
type ConversationSummary struct {
	ID            uint      `json:"id"`
	CharacterID   uint      `json:"character_id"`
	CharacterName string    `json:"character_name"`
	Book          string    `json:"book"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ConversationService lists and deletes a user's conversations
type ConversationService struct {
	conversations *repository.ConversationRepository
}

// NewConversationService creates a new conversation service
func NewConversationService(conversations *repository.ConversationRepository) *ConversationService {
	return &ConversationService{conversations: conversations}
}

// List returns the user's conversations, most recently active first
func (s *ConversationService) List(ctx context.Context, userID uint) ([]ConversationSummary, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationSummary, 0, len(convs))
	for _, c := range convs {
		summary := ConversationSummary{
			ID:          c.ID,
			CharacterID: c.CharacterID,
			LastUpdated: c.LastUpdated,
		}
		if c.Character != nil {
			summary.CharacterName = c.Character.Name
			summary.Book = c.Character.Book
		}
		out = append(out, summary)
	}
	return out, nil
}

// Delete removes the conversation and its messages if userID owns it
func (s *ConversationService) Delete(ctx context.Context, userID, conversationID uint) error {
	return s.conversations.Delete(ctx, conversationID, userID)
}
