package task

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/transcast-io/transcast/internal/models"
	"github.com/transcast-io/transcast/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubExtractor struct {
	meta VideoMetadata
	err  error
}

func (s stubExtractor) Extract(ctx context.Context, path string) (VideoMetadata, error) {
	return s.meta, s.err
}

func setupProfilesTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Generic{}, &models.FileVersion{}, &models.Profile{}))
	return db
}

func TestGenerateProfilesHandler_FillsFieldsAndCreatesProfile(t *testing.T) {
	db := setupProfilesTestDB(t)
	fvRepo := repository.NewFileVersionRepository(db)
	genRepo := repository.NewGenericRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	g := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, genRepo.Create(context.Background(), g))

	fv := &models.FileVersion{GenericID: g.ID, Path: "/lib/movie.mkv", Master: true}
	require.NoError(t, fvRepo.Create(context.Background(), fv))

	extractor := stubExtractor{meta: VideoMetadata{
		Width: 1920, Height: 1080, FrameRate: 23.976, DurationSeconds: 5400, Container: models.ContainerMKV,
	}}

	h := &GenerateProfilesHandler{FileVersions: fvRepo, Profiles: profileRepo, Extractor: extractor}
	require.NoError(t, h.Handle(context.Background(), make(chan struct{})))

	reloaded, err := fvRepo.GetByID(context.Background(), fv.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.ResolutionClass)
	assert.Equal(t, models.ResolutionFHD, *reloaded.ResolutionClass)
	require.NotNil(t, reloaded.Container)
	assert.Equal(t, models.ContainerMKV, *reloaded.Container)

	profiles, err := profileRepo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, models.ResolutionFHD, profiles[0].ResolutionClass)
}

func TestGenerateProfilesHandler_ExtractorFailureSkipsFile(t *testing.T) {
	db := setupProfilesTestDB(t)
	fvRepo := repository.NewFileVersionRepository(db)
	genRepo := repository.NewGenericRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	g := &models.Generic{Designation: models.DesignationGeneric}
	require.NoError(t, genRepo.Create(context.Background(), g))

	fv := &models.FileVersion{GenericID: g.ID, Path: "/lib/broken.mkv", Master: true}
	require.NoError(t, fvRepo.Create(context.Background(), fv))

	extractor := stubExtractor{err: assert.AnError}
	h := &GenerateProfilesHandler{FileVersions: fvRepo, Profiles: profileRepo, Extractor: extractor}
	require.NoError(t, h.Handle(context.Background(), make(chan struct{})))

	reloaded, err := fvRepo.GetByID(context.Background(), fv.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.ResolutionClass)
}

func TestParseFrameRate(t *testing.T) {
	assert.InDelta(t, 23.976, parseFrameRate("24000/1001"), 0.001)
	assert.InDelta(t, 30.0, parseFrameRate("30"), 0.001)
	assert.Equal(t, float64(0), parseFrameRate("0/0"))
}

func TestContainerFromFormatName(t *testing.T) {
	assert.Equal(t, models.ContainerWEBM, containerFromFormatName("matroska,webm"))
	assert.Equal(t, models.ContainerMKV, containerFromFormatName("matroska"))
	assert.Equal(t, models.ContainerMP4, containerFromFormatName("mov,mp4,m4a,3gp,3g2,mj2"))
}
