package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/transcast-io/transcast/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdopt_CopiesAndRemovesStagingFile(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()

	stagingPath := filepath.Join(srcDir, "artifact.mkv")
	require.NoError(t, os.WriteFile(stagingPath, []byte("encoded bytes"), 0o644))

	targetPath := filepath.Join(dstDir, "nested", "artifact.mkv")
	require.NoError(t, Adopt(stagingPath, targetPath))

	data, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	assert.Equal(t, "encoded bytes", string(data))

	_, err = os.Stat(stagingPath)
	assert.True(t, os.IsNotExist(err))
}

func TestAdopt_MissingStagingFileIsFatal(t *testing.T) {
	dstDir := t.TempDir()
	err := Adopt(filepath.Join(t.TempDir(), "missing.mkv"), filepath.Join(dstDir, "artifact.mkv"))
	require.Error(t, err)
	assert.True(t, core.IsFatal(err))
}

func TestSelfTest_PassesWhenBothDirectoriesAreWritable(t *testing.T) {
	cacheDir := t.TempDir()
	tempDir := t.TempDir()

	status := SelfTest(cacheDir, tempDir, nil)
	assert.Equal(t, StatusPass, status)

	entries, err := os.ReadDir(cacheDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	entries, err = os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSelfTest_FailsWhenCacheDirectoryMissing(t *testing.T) {
	cacheDir := filepath.Join(t.TempDir(), "does-not-exist")
	tempDir := t.TempDir()

	status := SelfTest(cacheDir, tempDir, nil)
	assert.Equal(t, StatusFail, status)
}
