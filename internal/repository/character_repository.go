package repository

import (
	"context"
	"errors"
	"fmt"

	"literary-character-ai/backend/internal/models"

	"gorm.io/gorm"
)

// CharacterRepository reads and writes the character catalog. Reads by ID go
// through the optional cache since the chat path resolves a character on
// every turn.
type CharacterRepository struct {
	db    *gorm.DB
	cache CharacterCache
}

// NewCharacterRepository creates a repository; cache may be nil
func NewCharacterRepository(db *gorm.DB, cache CharacterCache) *CharacterRepository {
	return &CharacterRepository{db: db, cache: cache}
}

// Get returns the character with id or ErrCharacterNotFound
func (r *CharacterRepository) Get(ctx context.Context, id uint) (*models.Character, error) {
	if r.cache != nil {
		if c, ok := r.cache.Get(ctx, id); ok {
			return c, nil
		}
	}

	var character models.Character
	if err := r.db.WithContext(ctx).First(&character, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("get character %d: %w", id, err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, &character)
	}

	return &character, nil
}

// List returns all characters ordered by name, optionally limited to those
// carrying tag
func (r *CharacterRepository) List(ctx context.Context, tag string) ([]models.Character, error) {
	var characters []models.Character
	if err := r.db.WithContext(ctx).Order("name ASC").Order("id ASC").Find(&characters).Error; err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}

	if tag == "" {
		return characters, nil
	}

	filtered := make([]models.Character, 0, len(characters))
	for _, c := range characters {
		if c.HasTag(tag) {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// ListFeatured returns the characters that have an image, for the landing page
func (r *CharacterRepository) ListFeatured(ctx context.Context) ([]models.Character, error) {
	var characters []models.Character
	err := r.db.WithContext(ctx).
		Where("image_url IS NOT NULL AND image_url <> ''").
		Order("name ASC").
		Find(&characters).Error
	if err != nil {
		return nil, fmt.Errorf("list featured characters: %w", err)
	}
	return characters, nil
}

// FindByNameAndBook returns the character matching both fields or
// ErrCharacterNotFound
func (r *CharacterRepository) FindByNameAndBook(ctx context.Context, name, book string) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).Where("name = ? AND book = ?", name, book).First(&character).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, fmt.Errorf("find character %q: %w", name, err)
	}
	return &character, nil
}

// Create inserts a new character
func (r *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	if err := r.db.WithContext(ctx).Create(character).Error; err != nil {
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// Update saves every field of character and drops its cached copy
func (r *CharacterRepository) Update(ctx context.Context, character *models.Character) error {
	if err := r.db.WithContext(ctx).Save(character).Error; err != nil {
		return fmt.Errorf("update character %d: %w", character.ID, err)
	}
	if r.cache != nil {
		r.cache.Delete(ctx, character.ID)
	}
	return nil
}
