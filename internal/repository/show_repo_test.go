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

func setupShowHierarchyTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Show{}, &models.Season{}, &models.Episode{}, &models.Generic{})
	require.NoError(t, err)

	return db
}

func TestShowRepo_CreateAndGetByTitle(t *testing.T) {
	db := setupShowHierarchyTestDB(t)
	repo := NewShowRepository(db)
	ctx := context.Background()

	show := &models.Show{Title: "Breaking Bad"}
	require.NoError(t, repo.Create(ctx, show))

	found, err := repo.GetByTitle(ctx, "Breaking Bad")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, show.ID, found.ID)
}

func TestShowRepo_GetOrCreateByTitle(t *testing.T) {
	db := setupShowHierarchyTestDB(t)
	repo := NewShowRepository(db)
	ctx := context.Background()

	first, err := repo.GetOrCreateByTitle(ctx, "The Wire")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := repo.GetOrCreateByTitle(ctx, "The Wire")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestShowRepo_Delete(t *testing.T) {
	db := setupShowHierarchyTestDB(t)
	repo := NewShowRepository(db)
	ctx := context.Background()

	show := &models.Show{Title: "Deleted Show"}
	require.NoError(t, repo.Create(ctx, show))
	require.NoError(t, repo.Delete(ctx, show.ID))

	found, err := repo.GetByID(ctx, show.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSeasonRepo_GetOrCreate(t *testing.T) {
	db := setupShowHierarchyTestDB(t)
	showRepo := NewShowRepository(db)
	seasonRepo := NewSeasonRepository(db)
	ctx := context.Background()

	show, err := showRepo.GetOrCreateByTitle(ctx, "Fargo")
	require.NoError(t, err)

	first, err := seasonRepo.GetOrCreate(ctx, show.ID, 1)
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := seasonRepo.GetOrCreate(ctx, show.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	third, err := seasonRepo.GetOrCreate(ctx, show.ID, 2)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	seasons, err := seasonRepo.GetByShowID(ctx, show.ID)
	require.NoError(t, err)
	assert.Len(t, seasons, 2)
}

func TestEpisodeRepo_CreateAndLookup(t *testing.T) {
	db := setupShowHierarchyTestDB(t)
	showRepo := NewShowRepository(db)
	seasonRepo := NewSeasonRepository(db)
	episodeRepo := NewEpisodeRepository(db)
	genericRepo := NewGenericRepository(db)
	ctx := context.Background()

	show, err := showRepo.GetOrCreateByTitle(ctx, "Severance")
	require.NoError(t, err)
	season, err := seasonRepo.GetOrCreate(ctx, show.ID, 1)
	require.NoError(t, err)

	generic := &models.Generic{Designation: models.DesignationEpisode}
	require.NoError(t, genericRepo.Create(ctx, generic))

	episode := &models.Episode{SeasonID: season.ID, Number: 3, GenericID: generic.ID}
	require.NoError(t, episodeRepo.Create(ctx, episode))

	byNumber, err := episodeRepo.GetBySeasonAndNumber(ctx, season.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, byNumber)
	assert.Equal(t, generic.ID, byNumber.GenericID)

	byGeneric, err := episodeRepo.GetByGenericID(ctx, generic.ID)
	require.NoError(t, err)
	require.NotNil(t, byGeneric)
	assert.Equal(t, episode.ID, byGeneric.ID)
}
