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

func setupTaskTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.Task{})
	require.NoError(t, err)

	return db
}

func TestTaskRepo_Create(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Variant: models.TaskImportFiles}
	require.NoError(t, repo.Create(ctx, task))
	assert.NotZero(t, task.ID)
	assert.True(t, task.IsPending())
}

func TestTaskRepo_GetPending(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Task{Variant: models.TaskImportFiles}))
	running := &models.Task{Variant: models.TaskHash}
	require.NoError(t, repo.Create(ctx, running))
	running.MarkStarted()
	require.NoError(t, repo.Update(ctx, running))

	pending, err := repo.GetPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.TaskImportFiles, pending[0].Variant)
}

func TestTaskRepo_ClaimNextPending_ClaimsOldestFirst(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	first := &models.Task{Variant: models.TaskImportFiles}
	second := &models.Task{Variant: models.TaskProcessNewFiles}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	claimed, err := repo.ClaimNextPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first.ID, claimed.ID)
	assert.False(t, claimed.IsPending())

	claimedAgain, err := repo.ClaimNextPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimedAgain)
	assert.Equal(t, second.ID, claimedAgain.ID)

	none, err := repo.ClaimNextPending(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestTaskRepo_MarkCompleted(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Variant: models.TaskGenerateProfiles}
	require.NoError(t, repo.Create(ctx, task))

	claimed, err := repo.ClaimNextPending(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	claimed.MarkCompleted(nil)
	require.NoError(t, repo.Update(ctx, claimed))

	found, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, found.IsDone())
	assert.Nil(t, found.LastError)
}

func TestTaskRepo_Delete(t *testing.T) {
	db := setupTaskTestDB(t)
	repo := NewTaskRepository(db)
	ctx := context.Background()

	task := &models.Task{Variant: models.TaskHash}
	require.NoError(t, repo.Create(ctx, task))
	require.NoError(t, repo.Delete(ctx, task.ID))

	found, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
