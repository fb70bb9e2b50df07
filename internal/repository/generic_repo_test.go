package repository

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupGenericTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Generic{}, &models.FileVersion{}, &models.Profile{})
	require.NoError(t, err)

	return db
}

func TestGenericRepo_Create(t *testing.T) {
	db := setupGenericTestDB(t)
	repo := NewGenericRepository(db)
	ctx := context.Background()

	generic := &models.Generic{Designation: models.DesignationMovie}
	err := repo.Create(ctx, generic)
	require.NoError(t, err)
	assert.NotZero(t, generic.ID)
}

func TestGenericRepo_GetByID(t *testing.T) {
	db := setupGenericTestDB(t)
	repo := NewGenericRepository(db)
	ctx := context.Background()

	generic := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, repo.Create(ctx, generic))

	t.Run("found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, generic.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, models.DesignationGeneric, found.Designation)
	})

	t.Run("not found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGenericRepo_GetByIDWithFileVersions(t *testing.T) {
	db := setupGenericTestDB(t)
	repo := NewGenericRepository(db)
	ctx := context.Background()

	generic := &models.Generic{Designation: models.DesignationMovie}
	require.NoError(t, repo.Create(ctx, generic))

	fvRepo := NewFileVersionRepository(db)
	fv := &models.FileVersion{GenericID: generic.ID, Path: "/lib/movie.mkv", Master: true}
	require.NoError(t, fvRepo.Create(ctx, fv))

	found, err := repo.GetByIDWithFileVersions(ctx, generic.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.FileVersions, 1)
	assert.Equal(t, "/lib/movie.mkv", found.FileVersions[0].Path)
}

func TestGenericRepo_GetByDesignation(t *testing.T) {
	db := setupGenericTestDB(t)
	repo := NewGenericRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Generic{Designation: models.DesignationMovie}))
	require.NoError(t, repo.Create(ctx, &models.Generic{Designation: models.DesignationMovie}))
	require.NoError(t, repo.Create(ctx, &models.Generic{Designation: models.DesignationGeneric}))

	movies, err := repo.GetByDesignation(ctx, models.DesignationMovie)
	require.NoError(t, err)
	assert.Len(t, movies, 2)
}

func TestGenericRepo_Update(t *testing.T) {
	db := setupGenericTestDB(t)
	repo := NewGenericRepository(db)
	ctx := context.Background()

	generic := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, repo.Create(ctx, generic))

	hash := "abc123"
	generic.Hash = &hash
	require.NoError(t, repo.Update(ctx, generic))

	found, err := repo.GetByID(ctx, generic.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Hash)
	assert.Equal(t, "abc123", *found.Hash)
}

func TestGenericRepo_Delete(t *testing.T) {
	db := setupGenericTestDB(t)
	repo := NewGenericRepository(db)
	ctx := context.Background()

	generic := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, repo.Create(ctx, generic))

	require.NoError(t, repo.Delete(ctx, generic.ID))

	found, err := repo.GetByID(ctx, generic.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
