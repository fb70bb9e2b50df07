package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/transcast-io/transcast/internal/config"
	"github.com/transcast-io/transcast/internal/library"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPipelineTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Generic{}, &models.FileVersion{},
		&models.Show{}, &models.Season{}, &models.Episode{},
		&models.RejectedFile{},
	)
	require.NoError(t, err)

	return db
}

func newTestPipeline(t *testing.T, root string) (*Pipeline, Repos, *gorm.DB) {
	t.Helper()

	db := setupPipelineTestDB(t)
	repos := Repos{
		Generic:      repository.NewGenericRepository(db),
		FileVersion:  repository.NewFileVersionRepository(db),
		Show:         repository.NewShowRepository(db),
		Season:       repository.NewSeasonRepository(db),
		Episode:      repository.NewEpisodeRepository(db),
		RejectedFile: repository.NewRejectedFileRepository(db),
	}
	lib := library.New(nil)

	storageCfg := config.StorageConfig{
		TrackedRoots:      []string{root},
		AllowedExtensions: []string{"mkv", "mp4"},
		IgnoredPathRegex:  []string{`\.DS_Store`},
	}
	ingestionCfg := config.IngestionConfig{SeasonEpisodeRgx: `(?i)S(\d{1,2})E(\d{1,3})`}

	pipeline, err := New(storageCfg, ingestionCfg, repos, lib, nil)
	require.NoError(t, err)

	return pipeline, repos, db
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestPipeline_Enumerate_AcceptsAndRejects(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "movie.mkv"))
	writeFile(t, filepath.Join(root, ".DS_Store"))
	writeFile(t, filepath.Join(root, "readme"))
	writeFile(t, filepath.Join(root, "notes.txt"))

	pipeline, repos, _ := newTestPipeline(t, root)

	accepted, rejected, err := pipeline.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 3, rejected)
	assert.Equal(t, 1, pipeline.PendingCount())

	all, err := repos.RejectedFile.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPipeline_Enumerate_SkipsKnownPaths(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "movie.mkv")
	writeFile(t, path)

	pipeline, _, _ := newTestPipeline(t, root)

	accepted, _, err := pipeline.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)

	// Second enumeration over the same root must not re-accept the path.
	accepted, _, err = pipeline.Enumerate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, accepted)
}

func TestPipeline_Promote_PlainMovie(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Movie Title (2020).mkv"))

	pipeline, repos, _ := newTestPipeline(t, root)

	_, _, err := pipeline.Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, pipeline.Promote(context.Background()))
	assert.Equal(t, 0, pipeline.PendingCount())

	generics, err := repos.Generic.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, generics, 1)
	assert.Equal(t, models.DesignationGeneric, generics[0].Designation)

	versions, err := repos.FileVersion.GetByGenericID(context.Background(), generics[0].ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	assert.True(t, versions[0].Master)
}

func TestPipeline_Promote_EpisodeCreatesShowHierarchy(t *testing.T) {
	root := t.TempDir()
	showDir := filepath.Join(root, "Severance", "Season 01")
	writeFile(t, filepath.Join(showDir, "Severance - S01E02 - Half Loop.mkv"))

	pipeline, repos, _ := newTestPipeline(t, root)

	_, _, err := pipeline.Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, pipeline.Promote(context.Background()))

	shows, err := repos.Show.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, shows, 1)
	assert.Equal(t, "Severance", shows[0].Title)

	seasons, err := repos.Season.GetByShowID(context.Background(), shows[0].ID)
	require.NoError(t, err)
	require.Len(t, seasons, 1)
	assert.Equal(t, 1, seasons[0].Number)

	episodes, err := repos.Episode.GetBySeasonID(context.Background(), seasons[0].ID)
	require.NoError(t, err)
	require.Len(t, episodes, 1)
	assert.Equal(t, 2, episodes[0].Number)

	generics, err := repos.Generic.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, generics, 1)
	assert.Equal(t, models.DesignationEpisode, generics[0].Designation)
}

func TestPipeline_Promote_EpisodeWithoutGrandparentDoesNotCrash(t *testing.T) {
	root := t.TempDir()
	// A season/episode-looking filename directly under the root has no
	// meaningful grandparent directory.
	writeFile(t, filepath.Join(root, "S01E01.mkv"))

	pipeline, repos, _ := newTestPipeline(t, root)

	_, _, err := pipeline.Enumerate(context.Background())
	require.NoError(t, err)
	require.NoError(t, pipeline.Promote(context.Background()))

	generics, err := repos.Generic.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, generics, 1)
}
