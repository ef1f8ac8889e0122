// Package repository holds the persistence layer for characters,
// conversations and messages.
package repository

import "errors"

var (
	ErrCharacterNotFound    = errors.New("character not found")
	ErrConversationNotFound = errors.New("conversation not found")
)
