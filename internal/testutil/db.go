// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"literary-character-ai/backend/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory database that lives for the test
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		TranslateError: true,
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// CreateUser inserts a user with a fixed password
func CreateUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := &models.User{Name: "Reader", Email: email, Password: "correct-horse"}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateCharacter inserts a character with the given tags
func CreateCharacter(t *testing.T, db *gorm.DB, name, book string, tags ...string) *models.Character {
	t.Helper()

	if tags == nil {
		tags = []string{}
	}
	character := &models.Character{
		Name:        name,
		Book:        book,
		Author:      "Test Author",
		Description: name + " is a character from " + book + ".",
		Tags:        datatypes.JSONSlice[string](tags),
	}
	require.NoError(t, db.Create(character).Error)
	return character
}
