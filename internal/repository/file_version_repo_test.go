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

func setupFileVersionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Generic{}, &models.FileVersion{})
	require.NoError(t, err)

	return db
}

func seedGeneric(t *testing.T, db *gorm.DB) uint64 {
	t.Helper()
	generic := &models.Generic{Designation: models.DesignationMovie}
	require.NoError(t, db.Create(generic).Error)
	return generic.ID
}

func TestFileVersionRepo_Create(t *testing.T) {
	db := setupFileVersionTestDB(t)
	repo := NewFileVersionRepository(db)
	ctx := context.Background()
	genericID := seedGeneric(t, db)

	fv := &models.FileVersion{GenericID: genericID, Path: "/lib/movie.mkv", Master: true}
	require.NoError(t, repo.Create(ctx, fv))
	assert.NotZero(t, fv.ID)
}

func TestFileVersionRepo_CreateInBatches_DedupesOnPath(t *testing.T) {
	db := setupFileVersionTestDB(t)
	repo := NewFileVersionRepository(db)
	ctx := context.Background()
	genericID := seedGeneric(t, db)

	existing := &models.FileVersion{GenericID: genericID, Path: "/lib/a.mkv", Master: true}
	require.NoError(t, repo.Create(ctx, existing))

	batch := []*models.FileVersion{
		{GenericID: genericID, Path: "/lib/a.mkv", Master: false}, // duplicate path, skipped
		{GenericID: genericID, Path: "/lib/b.mkv", Master: false},
	}
	require.NoError(t, repo.CreateInBatches(ctx, batch, 0))

	all, err := repo.GetByGenericID(ctx, genericID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestFileVersionRepo_GetByPath(t *testing.T) {
	db := setupFileVersionTestDB(t)
	repo := NewFileVersionRepository(db)
	ctx := context.Background()
	genericID := seedGeneric(t, db)

	fv := &models.FileVersion{GenericID: genericID, Path: "/lib/find-me.mkv", Master: true}
	require.NoError(t, repo.Create(ctx, fv))

	found, err := repo.GetByPath(ctx, "/lib/find-me.mkv")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, fv.ID, found.ID)

	missing, err := repo.GetByPath(ctx, "/lib/nope.mkv")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFileVersionRepo_GetByGenericID_MasterFirst(t *testing.T) {
	db := setupFileVersionTestDB(t)
	repo := NewFileVersionRepository(db)
	ctx := context.Background()
	genericID := seedGeneric(t, db)

	require.NoError(t, repo.Create(ctx, &models.FileVersion{GenericID: genericID, Path: "/lib/extra.mkv", Master: false}))
	require.NoError(t, repo.Create(ctx, &models.FileVersion{GenericID: genericID, Path: "/lib/master.mkv", Master: true}))

	versions, err := repo.GetByGenericID(ctx, genericID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.True(t, versions[0].Master)
}

func TestFileVersionRepo_Update(t *testing.T) {
	db := setupFileVersionTestDB(t)
	repo := NewFileVersionRepository(db)
	ctx := context.Background()
	genericID := seedGeneric(t, db)

	fv := &models.FileVersion{GenericID: genericID, Path: "/lib/movie.mkv", Master: true}
	require.NoError(t, repo.Create(ctx, fv))

	hash := "deadbeef"
	fv.Hash = &hash
	require.NoError(t, repo.Update(ctx, fv))

	found, err := repo.GetByID(ctx, fv.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Hash)
	assert.Equal(t, "deadbeef", *found.Hash)
}

func TestFileVersionRepo_Delete(t *testing.T) {
	db := setupFileVersionTestDB(t)
	repo := NewFileVersionRepository(db)
	ctx := context.Background()
	genericID := seedGeneric(t, db)

	fv := &models.FileVersion{GenericID: genericID, Path: "/lib/movie.mkv", Master: true}
	require.NoError(t, repo.Create(ctx, fv))
	require.NoError(t, repo.Delete(ctx, fv.ID))

	found, err := repo.GetByID(ctx, fv.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
