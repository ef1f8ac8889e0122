package repository

import (
	"context"
	"testing"
	"time"

	"literary-character-ai/backend/internal/models"
	"literary-character-ai/backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestCharacterGet(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCharacterRepository(db, nil)
	holmes := testutil.CreateCharacter(t, db, "Sherlock Holmes", "A Study in Scarlet")

	got, err := repo.Get(context.Background(), holmes.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sherlock Holmes", got.Name)

	_, err = repo.Get(context.Background(), holmes.ID+100)
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}

func TestCharacterGetUsesCache(t *testing.T) {
	db := testutil.NewDB(t)
	cache := NewMemoryCharacterCache(time.Minute, time.Minute)
	repo := NewCharacterRepository(db, cache)
	ctx := context.Background()
	holmes := testutil.CreateCharacter(t, db, "Sherlock Holmes", "A Study in Scarlet")

	_, err := repo.Get(ctx, holmes.ID)
	require.NoError(t, err)

	// bypass the repository so only the cache can still answer
	require.NoError(t, db.Model(&models.Character{}).Where("id = ?", holmes.ID).Update("name", "Mycroft").Error)

	cached, err := repo.Get(ctx, holmes.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sherlock Holmes", cached.Name)

	cached.Name = "changed by caller"
	again, ok := cache.Get(ctx, holmes.ID)
	require.True(t, ok)
	assert.Equal(t, "Sherlock Holmes", again.Name)

	again.Name = "Mycroft"
	require.NoError(t, repo.Update(ctx, again))
	_, ok = cache.Get(ctx, holmes.ID)
	assert.False(t, ok)
}

func TestCharacterCreateRejectsSameNameAndBook(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCharacterRepository(db, nil)
	ctx := context.Background()
	testutil.CreateCharacter(t, db, "Sherlock Holmes", "A Study in Scarlet")

	twin := &models.Character{
		Name:        "Sherlock Holmes",
		Book:        "A Study in Scarlet",
		Author:      "Arthur Conan Doyle",
		Description: "Another Holmes.",
		Tags:        datatypes.JSONSlice[string]{},
	}
	err := repo.Create(ctx, twin)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// same name in a different book is a different character
	other := &models.Character{
		Name:        "Sherlock Holmes",
		Book:        "The Sign of the Four",
		Author:      "Arthur Conan Doyle",
		Description: "Holmes again.",
		Tags:        datatypes.JSONSlice[string]{},
	}
	require.NoError(t, repo.Create(ctx, other))
}

func TestCharacterListByTag(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCharacterRepository(db, nil)
	testutil.CreateCharacter(t, db, "Sherlock Holmes", "A Study in Scarlet", "detective", "victorian")
	testutil.CreateCharacter(t, db, "Elizabeth Bennet", "Pride and Prejudice", "romance")
	testutil.CreateCharacter(t, db, "Hercule Poirot", "The Mysterious Affair at Styles", "detective")

	all, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Elizabeth Bennet", all[0].Name)

	detectives, err := repo.List(context.Background(), "detective")
	require.NoError(t, err)
	require.Len(t, detectives, 2)
	assert.Equal(t, "Hercule Poirot", detectives[0].Name)
	assert.Equal(t, "Sherlock Holmes", detectives[1].Name)
}

func TestCharacterListFeatured(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCharacterRepository(db, nil)
	holmes := testutil.CreateCharacter(t, db, "Sherlock Holmes", "A Study in Scarlet")
	testutil.CreateCharacter(t, db, "Elizabeth Bennet", "Pride and Prejudice")
	require.NoError(t, db.Model(holmes).Update("image_url", "https://img.example/holmes.png").Error)

	featured, err := repo.ListFeatured(context.Background())
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, holmes.ID, featured[0].ID)
}

func TestCharacterFindByNameAndBook(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCharacterRepository(db, nil)
	holmes := testutil.CreateCharacter(t, db, "Sherlock Holmes", "A Study in Scarlet")

	found, err := repo.FindByNameAndBook(context.Background(), "Sherlock Holmes", "A Study in Scarlet")
	require.NoError(t, err)
	assert.Equal(t, holmes.ID, found.ID)

	_, err = repo.FindByNameAndBook(context.Background(), "Sherlock Holmes", "The Sign of the Four")
	assert.ErrorIs(t, err, ErrCharacterNotFound)
}
