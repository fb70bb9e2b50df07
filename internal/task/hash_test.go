package task

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHashTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Generic{}, &models.FileVersion{}))
	return db
}

func TestHashHandler_ComputesHashForMastersOnly(t *testing.T) {
	db := setupHashTestDB(t)
	fvRepo := repository.NewFileVersionRepository(db)
	genRepo := repository.NewGenericRepository(db)

	g := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, genRepo.Create(context.Background(), g))

	dir := t.TempDir()
	masterPath := filepath.Join(dir, "master.mkv")
	require.NoError(t, os.WriteFile(masterPath, []byte("hello world"), 0o644))

	master := &models.FileVersion{GenericID: g.ID, Path: masterPath, Master: true}
	nonMaster := &models.FileVersion{GenericID: g.ID, Path: filepath.Join(dir, "other.mp4"), Master: false}
	require.NoError(t, fvRepo.Create(context.Background(), master))
	require.NoError(t, fvRepo.Create(context.Background(), nonMaster))

	h := &HashHandler{FileVersions: fvRepo}
	require.NoError(t, h.Handle(context.Background(), make(chan struct{})))

	reloaded, err := fvRepo.GetByID(context.Background(), master.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Hash)
	assert.NotEmpty(t, *reloaded.Hash)

	reloadedNonMaster, err := fvRepo.GetByID(context.Background(), nonMaster.ID)
	require.NoError(t, err)
	assert.Nil(t, reloadedNonMaster.Hash)
}

func TestHashHandler_StopsBetweenFiles(t *testing.T) {
	db := setupHashTestDB(t)
	fvRepo := repository.NewFileVersionRepository(db)
	genRepo := repository.NewGenericRepository(db)

	g := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, genRepo.Create(context.Background(), g))

	dir := t.TempDir()
	for i := 0; i < 3; i++ {
		path := filepath.Join(dir, string(rune('a'+i))+".mkv")
		require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
		fv := &models.FileVersion{GenericID: g.ID, Path: path, Master: true}
		require.NoError(t, fvRepo.Create(context.Background(), fv))
	}

	h := &HashHandler{FileVersions: fvRepo}
	stopCh := make(chan struct{})
	close(stopCh)

	require.NoError(t, h.Handle(context.Background(), stopCh))

	stillMissing, err := fvRepo.GetMastersMissingHash(context.Background())
	require.NoError(t, err)
	assert.Len(t, stillMissing, 3)
}

func TestHashHandler_SkipsMissingFileWithoutFailingTask(t *testing.T) {
	db := setupHashTestDB(t)
	fvRepo := repository.NewFileVersionRepository(db)
	genRepo := repository.NewGenericRepository(db)

	g := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, genRepo.Create(context.Background(), g))

	fv := &models.FileVersion{GenericID: g.ID, Path: "/nonexistent/path.mkv", Master: true}
	require.NoError(t, fvRepo.Create(context.Background(), fv))

	h := &HashHandler{FileVersions: fvRepo}
	require.NoError(t, h.Handle(context.Background(), make(chan struct{})))

	reloaded, err := fvRepo.GetByID(context.Background(), fv.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Hash)
}
