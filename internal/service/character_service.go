package service

import (
	"context"
	"errors"
	"fmt"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/repository"

	"gorm.io/gorm"
)

// ErrDuplicateCharacter is returned when a character with the same name and
// book already exists
var ErrDuplicateCharacter = errors.New("character already exists")

// CharacterDetail is a character together with the caller's conversation
// history with it, oldest first
type CharacterDetail struct {
	Character      *models.Character    `json:"character"`
	ConversationID uint                 `json:"conversation_id,omitempty"`
	History        []models.ChatMessage `json:"history"`
}

// CharacterService serves the character catalog
type CharacterService struct {
	characters    *repository.CharacterRepository
	conversations *repository.ConversationRepository
}

// NewCharacterService creates a new character service
func NewCharacterService(characters *repository.CharacterRepository, conversations *repository.ConversationRepository) *CharacterService {
	return &CharacterService{characters: characters, conversations: conversations}
}

// List returns the catalog, optionally filtered by tag
func (s *CharacterService) List(ctx context.Context, tag string) ([]models.Character, error) {
	return s.characters.List(ctx, tag)
}

// Featured returns the characters shown on the landing page
func (s *CharacterService) Featured(ctx context.Context) ([]models.Character, error) {
	return s.characters.ListFeatured(ctx)
}

// Detail returns the character and, unless fresh is set, the user's existing
// history with it. It never creates a conversation.
func (s *CharacterService) Detail(ctx context.Context, userID, characterID uint, fresh bool) (*CharacterDetail, error) {
	character, err := s.characters.Get(ctx, characterID)
	if err != nil {
		return nil, err
	}

	detail := &CharacterDetail{Character: character, History: []models.ChatMessage{}}
	if fresh {
		return detail, nil
	}

	conv, err := s.conversations.Find(ctx, userID, characterID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			return detail, nil
		}
		return nil, err
	}

	history, err := s.conversations.Messages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	detail.ConversationID = conv.ID
	detail.History = history
	return detail, nil
}

// Create adds a character to the catalog
func (s *CharacterService) Create(ctx context.Context, req *models.CreateCharacterRequest) (*models.Character, error) {
	_, err := s.characters.FindByNameAndBook(ctx, req.Name, req.Book)
	if err == nil {
		return nil, ErrDuplicateCharacter
	}
	if !errors.Is(err, repository.ErrCharacterNotFound) {
		return nil, err
	}

	character := req.ToCharacter()
	if err := s.characters.Create(ctx, character); err != nil {
		// a concurrent create can slip past the lookup above
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCharacter
		}
		return nil, fmt.Errorf("create character %q: %w", req.Name, err)
	}
	return character, nil
}

// Update replaces the catalog fields of an existing character
func (s *CharacterService) Update(ctx context.Context, id uint, req *models.CreateCharacterRequest) (*models.Character, error) {
	character, err := s.characters.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := req.ToCharacter()
	character.Name = changes.Name
	character.Book = changes.Book
	character.Author = changes.Author
	character.Description = changes.Description
	character.Emoji = changes.Emoji
	character.Tags = changes.Tags
	character.ImageURL = changes.ImageURL

	if err := s.characters.Update(ctx, character); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateCharacter
		}
		return nil, err
	}
	return character, nil
}
