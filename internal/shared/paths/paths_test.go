package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocationsAreHomeRelative(t *testing.T) {
	home, err := Home()
	require.NoError(t, err)

	settings, err := SettingsFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, SettingsDirName, SettingsFileName), settings)

	state, err := StateDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, StateBaseName, StateDirName), state)
}

func TestEnsureOwnerOnlyCreates(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	require.NoError(t, EnsureOwnerOnly(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	if runtime.GOOS != "windows" {
		assert.Equal(t, OwnerOnlyDir, info.Mode().Perm())
	}
}

func TestEnsureOwnerOnlyTightensExisting(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX permissions only")
	}

	dir := filepath.Join(t.TempDir(), "loose")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, EnsureOwnerOnly(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.Equal(t, OwnerOnlyDir, info.Mode().Perm())
}

func TestEnsureOwnerOnlyIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	require.NoError(t, EnsureOwnerOnly(dir))
	require.NoError(t, EnsureOwnerOnly(dir))
}
