package models

import (
	"time"

	"gorm.io/datatypes"
)

// Character is a literary persona users can chat with. The chat flow only
// reads characters; they are created by admins or the seed command.
type Character struct {
	ID          uint                        `json:"id" gorm:"primaryKey"`
	Name        string                      `json:"name" gorm:"size:200;not null;uniqueIndex:idx_character_name_book_unique"`
	Book        string                      `json:"book" gorm:"size:200;not null;uniqueIndex:idx_character_name_book_unique"`
	Author      string                      `json:"author" gorm:"size:200;not null"`
	Description string                      `json:"description" gorm:"type:text;not null"`
	Emoji       string                      `json:"emoji,omitempty" gorm:"size:10"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	ImageURL    string                      `json:"image_url,omitempty"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// String renders the character the way it is listed in the catalog
func (c Character) String() string {
	return c.Name + " from " + c.Book
}

// HasTag reports whether the character is tagged with tag
func (c Character) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// CreateCharacterRequest is the admin payload for adding a character
type CreateCharacterRequest struct {
	Name        string   `json:"name" binding:"required,notblank,max=200"`
	Book        string   `json:"book" binding:"required,notblank,max=200"`
	Author      string   `json:"author" binding:"required,notblank,max=200"`
	Description string   `json:"description" binding:"required,notblank"`
	Emoji       string   `json:"emoji" binding:"max=10"`
	Tags        []string `json:"tags"`
	ImageURL    string   `json:"image_url"`
}

// ToCharacter builds the model from the request
func (r *CreateCharacterRequest) ToCharacter() *Character {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return &Character{
		Name:        r.Name,
		Book:        r.Book,
		Author:      r.Author,
		Description: r.Description,
		Emoji:       r.Emoji,
		Tags:        datatypes.JSONSlice[string](tags),
		ImageURL:    r.ImageURL,
	}
}
