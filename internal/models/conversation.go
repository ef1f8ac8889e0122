package models

import (
	"time"
)

// Conversation is the single chat thread between one user and one character.
// The composite unique index is what keeps concurrent first turns from
// creating two threads for the same pair.
type Conversation struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	UserID      uint          `json:"user_id" gorm:"not null;uniqueIndex:idx_conversation_user_character"`
	CharacterID uint          `json:"character_id" gorm:"not null;uniqueIndex:idx_conversation_user_character"`
	Character   *Character    `json:"character,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	User        *User         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Messages    []ChatMessage `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	LastUpdated time.Time     `json:"last_updated" gorm:"index"`
	CreatedAt   time.Time     `json:"created_at"`
}
