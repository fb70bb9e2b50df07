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

func setupRejectedFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.RejectedFile{})
	require.NoError(t, err)

	return db
}

func TestRejectedFileRepo_Create(t *testing.T) {
	db := setupRejectedFileTestDB(t)
	repo := NewRejectedFileRepository(db)
	ctx := context.Background()

	rf := &models.RejectedFile{Path: "/lib/.DS_Store", Reason: models.RejectPathContainsIgnoredPath}
	require.NoError(t, repo.Create(ctx, rf))
	assert.NotZero(t, rf.ID)
}

func TestRejectedFileRepo_Create_LatestReasonWins(t *testing.T) {
	db := setupRejectedFileTestDB(t)
	repo := NewRejectedFileRepository(db)
	ctx := context.Background()

	path := "/lib/video.txt"
	require.NoError(t, repo.Create(ctx, &models.RejectedFile{Path: path, Reason: models.RejectExtensionDisallowed}))
	require.NoError(t, repo.Create(ctx, &models.RejectedFile{Path: path, Reason: models.RejectExtensionMissing}))

	found, err := repo.GetByPath(ctx, path)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, models.RejectExtensionMissing, found.Reason)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRejectedFileRepo_Delete(t *testing.T) {
	db := setupRejectedFileTestDB(t)
	repo := NewRejectedFileRepository(db)
	ctx := context.Background()

	rf := &models.RejectedFile{Path: "/lib/ignored", Reason: models.RejectExtensionMissing}
	require.NoError(t, repo.Create(ctx, rf))
	require.NoError(t, repo.Delete(ctx, rf.ID))

	found, err := repo.GetByPath(ctx, "/lib/ignored")
	require.NoError(t, err)
	assert.Nil(t, found)
}
