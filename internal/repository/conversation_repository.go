package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"literary-character-ai/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConversationRepository owns conversations and their messages
type ConversationRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db, now: time.Now}
}

// GetOrCreate returns the conversation for the (user, character) pair,
// creating it when absent. The bool reports whether this call created it.
// Concurrent callers for the same pair all end up with the same row.
func (r *ConversationRepository) GetOrCreate(ctx context.Context, userID, characterID uint) (*models.Conversation, bool, error) {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Character{}).Where("id = ?", characterID).Count(&count).Error; err != nil {
		return nil, false, fmt.Errorf("check character %d: %w", characterID, err)
	}
	if count == 0 {
		return nil, false, ErrCharacterNotFound
	}

	conv := models.Conversation{
		UserID:      userID,
		CharacterID: characterID,
		LastUpdated: r.now().UTC(),
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "character_id"}},
		DoNothing: true,
	}).Create(&conv)
	if res.Error != nil {
		return nil, false, fmt.Errorf("create conversation: %w", res.Error)
	}

	var stored models.Conversation
	err := db.Where("user_id = ? AND character_id = ?", userID, characterID).First(&stored).Error
	if err != nil {
		return nil, false, fmt.Errorf("load conversation: %w", err)
	}

	return &stored, res.RowsAffected > 0, nil
}

// Find returns the conversation for the pair or ErrConversationNotFound
func (r *ConversationRepository) Find(ctx context.Context, userID, characterID uint) (*models.Conversation, error) {
	var conv models.Conversation
	err := r.db.WithContext(ctx).Where("user_id = ? AND character_id = ?", userID, characterID).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("find conversation: %w", err)
	}
	return &conv, nil
}

// ListForUser returns the user's conversations, most recently active first,
// with their characters loaded
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uint) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.WithContext(ctx).
		Preload("Character").
		Where("user_id = ?", userID).
		Order("last_updated DESC").
		Order("id DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

// Delete removes a conversation owned by userID together with all of its
// messages. Conversations owned by someone else read as not found.
func (r *ConversationRepository) Delete(ctx context.Context, conversationID, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv models.Conversation
		err := tx.Where("id = ? AND user_id = ?", conversationID, userID).First(&conv).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConversationNotFound
			}
			return fmt.Errorf("load conversation %d: %w", conversationID, err)
		}

		if err := tx.Where("conversation_id = ?", conv.ID).Delete(&models.ChatMessage{}).Error; err != nil {
			return fmt.Errorf("delete messages: %w", err)
		}
		if err := tx.Delete(&conv).Error; err != nil {
			return fmt.Errorf("delete conversation: %w", err)
		}
		return nil
	})
}

// ClearMessages removes every message of the conversation, keeping the row
func (r *ConversationRepository) ClearMessages(ctx context.Context, conversationID uint) error {
	err := r.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Delete(&models.ChatMessage{}).Error
	if err != nil {
		return fmt.Errorf("clear messages of %d: %w", conversationID, err)
	}
	return nil
}

// AppendMessage stores a message stamped with the current UTC time and moves
// the conversation's last_updated forward in the same transaction
func (r *ConversationRepository) AppendMessage(ctx context.Context, conversationID uint, text string, isUser bool) (*models.ChatMessage, error) {
	msg := &models.ChatMessage{
		ConversationID: conversationID,
		MessageText:    text,
		IsUserMessage:  isUser,
		Timestamp:      r.now().UTC(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Update("last_updated", msg.Timestamp)
		if res.Error != nil {
			return fmt.Errorf("touch conversation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConversationNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return msg, nil
}

// RecentMessages returns up to limit messages in chronological order. With
// excludeLatest the newest message is skipped first, which is how the chat
// flow leaves out the user message it just stored.
func (r *ConversationRepository) RecentMessages(ctx context.Context, conversationID uint, excludeLatest bool, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		return []models.ChatMessage{}, nil
	}

	q := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp DESC").
		Order("id DESC").
		Limit(limit)
	if excludeLatest {
		q = q.Offset(1)
	}

	var msgs []models.ChatMessage
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load recent messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Messages returns the full history of the conversation, oldest first
func (r *ConversationRepository) Messages(ctx context.Context, conversationID uint) ([]models.ChatMessage, error) {
	var msgs []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	return msgs, nil
}
