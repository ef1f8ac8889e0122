package models

import (
	"time"
)

// ChatMessage is one append-only entry of a conversation
type ChatMessage struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ConversationID uint      `json:"conversation_id" gorm:"not null;index:idx_chat_messages_conversation_ts,priority:1"`
	MessageText    string    `json:"message_text" gorm:"type:text;not null"`
	IsUserMessage  bool      `json:"is_user_message" gorm:"not null"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null;index:idx_chat_messages_conversation_ts,priority:2"`
}

// TableName overrides the table name
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Sender names the author side of the message
func (m ChatMessage) Sender() string {
	if m.IsUserMessage {
		return "user"
	}
	return "character"
}
