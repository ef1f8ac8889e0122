// Package seed loads the character catalog from YAML.
package seed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/repository"
	"literary-character-ai/backend/pkg/logger"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Catalog is the on-disk seed format
type Catalog struct {
	Characters []Entry `yaml:"characters"`
}

// Entry is one character in the catalog
type Entry struct {
	Name        string   `yaml:"name"`
	Book        string   `yaml:"book"`
	Author      string   `yaml:"author"`
	Description string   `yaml:"description"`
	Emoji       string   `yaml:"emoji"`
	Tags        []string `yaml:"tags"`
	ImageURL    string   `yaml:"image_url"`
}

// Result counts what a run did
type Result struct {
	Created int
	Skipped int
}

// LoadFile reads and validates a catalog
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog, rejecting unknown keys
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var catalog Catalog
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("seed: parse catalog: %w", err)
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	return &catalog, nil
}

// Validate checks every entry carries the persona fields the prompt needs
func (c *Catalog) Validate() error {
	seen := make(map[string]struct{}, len(c.Characters))
	for i, e := range c.Characters {
		required := []struct{ field, value string }{
			{"name", e.Name},
			{"book", e.Book},
			{"author", e.Author},
			{"description", e.Description},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				return fmt.Errorf("seed: character %d: %s is required", i, r.field)
			}
		}

		key := strings.TrimSpace(e.Name) + "\x00" + strings.TrimSpace(e.Book)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("seed: character %d: %q from %q is listed twice", i, e.Name, e.Book)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func (e Entry) character() *models.Character {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Character{
		Name:        strings.TrimSpace(e.Name),
		Book:        strings.TrimSpace(e.Book),
		Author:      strings.TrimSpace(e.Author),
		Description: strings.TrimSpace(e.Description),
		Emoji:       e.Emoji,
		Tags:        datatypes.JSONSlice[string](tags),
		ImageURL:    e.ImageURL,
	}
}

// Seeder inserts catalog entries that are not stored yet
type Seeder struct {
	characters *repository.CharacterRepository
	log        *logger.Logger
}

// NewSeeder creates a seeder writing through characters
func NewSeeder(characters *repository.CharacterRepository, log *logger.Logger) *Seeder {
	return &Seeder{characters: characters, log: log}
}

// Run creates every entry whose (name, book) pair is not stored yet.
// Existing characters are left untouched, so runs are idempotent.
func (s *Seeder) Run(ctx context.Context, catalog *Catalog) (Result, error) {
	var res Result
	for _, e := range catalog.Characters {
		c := e.character()

		_, err := s.characters.FindByNameAndBook(ctx, c.Name, c.Book)
		switch {
		case err == nil:
			res.Skipped++
			continue
		case !errors.Is(err, repository.ErrCharacterNotFound):
			return res, err
		}

		if err := s.characters.Create(ctx, c); err != nil {
			// another seeder got there first
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				res.Skipped++
				continue
			}
			return res, err
		}
		s.log.Info("Seeded character", "id", c.ID, "name", c.Name, "book", c.Book)
		res.Created++
	}
	return res, nil
}
