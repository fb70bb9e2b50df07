package library

import (
	"testing"

	"github.com/transcast-io/transcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLibrary_LoadFromPersistence_MasterFirst(t *testing.T) {
	lib := New(nil)

	generics := []*models.Generic{{BaseModel: models.BaseModel{ID: 1}, Designation: models.DesignationMovie}}
	fileVersions := []*models.FileVersion{
		{BaseModel: models.BaseModel{ID: 10}, GenericID: 1, Path: "/lib/non-master.mp4", Master: false},
		{BaseModel: models.BaseModel{ID: 11}, GenericID: 1, Path: "/lib/master.mkv", Master: true},
	}

	err := lib.LoadFromPersistence(generics, fileVersions, nil, nil, nil)
	require.NoError(t, err)

	g, ok := lib.LookupGeneric(1)
	require.True(t, ok)
	require.Len(t, g.FileVersions, 2)
	assert.True(t, g.FileVersions[0].Master)
	assert.True(t, lib.HasPath("/lib/master.mkv"))
}

func TestLibrary_LoadFromPersistence_MissingMasterFails(t *testing.T) {
	lib := New(nil)

	generics := []*models.Generic{{BaseModel: models.BaseModel{ID: 1}, Designation: models.DesignationMovie}}
	fileVersions := []*models.FileVersion{
		{BaseModel: models.BaseModel{ID: 10}, GenericID: 1, Path: "/lib/a.mp4", Master: false},
	}

	err := lib.LoadFromPersistence(generics, fileVersions, nil, nil, nil)
	assert.Error(t, err)
}

func TestLibrary_LoadFromPersistence_OrphanFileVersionFails(t *testing.T) {
	lib := New(nil)

	fileVersions := []*models.FileVersion{
		{BaseModel: models.BaseModel{ID: 10}, GenericID: 99, Path: "/lib/a.mp4", Master: true},
	}

	err := lib.LoadFromPersistence(nil, fileVersions, nil, nil, nil)
	assert.Error(t, err)
}

func TestLibrary_InsertFileVersion(t *testing.T) {
	lib := New(nil)
	lib.AddGeneric(&models.Generic{BaseModel: models.BaseModel{ID: 5}, Designation: models.DesignationGeneric})

	master := &models.FileVersion{BaseModel: models.BaseModel{ID: 50}, GenericID: 5, Path: "/lib/x.mkv", Master: true}
	ok := lib.InsertFileVersion(master)
	require.True(t, ok)

	nonMaster := &models.FileVersion{BaseModel: models.BaseModel{ID: 51}, GenericID: 5, Path: "/lib/x-h265.mp4", Master: false}
	ok = lib.InsertFileVersion(nonMaster)
	require.True(t, ok)

	g, found := lib.LookupGeneric(5)
	require.True(t, found)
	require.Len(t, g.FileVersions, 2)
	assert.True(t, g.FileVersions[0].Master)
	assert.True(t, lib.HasPath("/lib/x-h265.mp4"))
}

func TestLibrary_InsertFileVersion_MissingParentReturnsFalse(t *testing.T) {
	lib := New(nil)

	fv := &models.FileVersion{GenericID: 404, Path: "/lib/orphan.mkv", Master: true}
	ok := lib.InsertFileVersion(fv)
	assert.False(t, ok)
}

func TestLibrary_ShowAndEpisodeAttachment(t *testing.T) {
	lib := New(nil)

	show := &models.Show{BaseModel: models.BaseModel{ID: 1}, Title: "Severance"}
	lib.AddShow(show)
	show.Seasons = []models.Season{{BaseModel: models.BaseModel{ID: 2}, ShowID: 1, Number: 1}}

	lib.AddGeneric(&models.Generic{BaseModel: models.BaseModel{ID: 3}, Designation: models.DesignationEpisode})
	episode := models.Episode{BaseModel: models.BaseModel{ID: 4}, SeasonID: 2, Number: 1, GenericID: 3}
	lib.AttachEpisode(1, episode)

	assert.True(t, lib.IsEpisodeGeneric(3))

	found, ok := lib.ShowByTitle("Severance")
	require.True(t, ok)
	require.Len(t, found.Seasons, 1)
	require.Len(t, found.Seasons[0].Episodes, 1)
}

func TestLibrary_DumpTrackedPathsAndFileVersions_DoNotPanic(t *testing.T) {
	lib := New(nil)
	lib.AddGeneric(&models.Generic{BaseModel: models.BaseModel{ID: 5}, Designation: models.DesignationGeneric})
	require.True(t, lib.InsertFileVersion(&models.FileVersion{GenericID: 5, Path: "/lib/x.mkv", Master: true}))

	assert.NotPanics(t, lib.DumpTrackedPaths)
	assert.NotPanics(t, lib.DumpFileVersions)
}

func TestLibrary_Stats(t *testing.T) {
	lib := New(nil)
	lib.AddGeneric(&models.Generic{BaseModel: models.BaseModel{ID: 1}})
	lib.AddPath("/lib/a.mkv")
	lib.AddShow(&models.Show{BaseModel: models.BaseModel{ID: 1}, Title: "X"})

	stats := lib.Stats()
	assert.Equal(t, 1, stats.Generics)
	assert.Equal(t, 1, stats.Shows)
	assert.Equal(t, 1, stats.KnownPaths)
}
