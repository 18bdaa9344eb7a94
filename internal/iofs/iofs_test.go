package iofs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEnsureDirs_CreatesDirectories verifies all required
// directories are created.
func TestEnsureDirs_CreatesDirectories(t *testing.T) {
	tmpDir := t.TempDir()

	err := EnsureDirs(tmpDir)
	require.NoError(t, err)

	dirs := []string{
		filepath.Join(tmpDir, ".config", "hktransit"),
		filepath.Join(tmpDir, ".cache", "hktransit"),
		filepath.Join(tmpDir, ".local", "share", "hktransit", "logs"),
	}
	for _, v := range dirs {
		info, err := os.Stat(v)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), v)
	}

	// second call is a no-op
	require.NoError(t, EnsureDirs(tmpDir))
}

// TestEnsureFiles verifies embedded defaults are written once.
func TestEnsureFiles(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, EnsureDirs(tmpDir))

	require.NoError(t, EnsureConfigFile(tmpDir))
	require.NoError(t, EnsurePrecedenceFile(tmpDir))

	cfgPath := filepath.Join(tmpDir, ".config", "hktransit", "config.yaml")
	data, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, ConfigYAML, string(data))
	assert.Contains(t, string(data), "headway_mode")

	// user edits survive
	err = os.WriteFile(cfgPath, []byte("jobs_number: 2\n"), 0644)
	require.NoError(t, err)
	require.NoError(t, EnsureConfigFile(tmpDir))
	data, err = os.ReadFile(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, "jobs_number: 2\n", string(data))

	precPath := filepath.Join(tmpDir, ".config", "hktransit", "precedence.yaml")
	data, err = os.ReadFile(precPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "default:")
}

// TestWriteJSON verifies atomic JSON writes.
func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	in := map[string]int{"places": 3}

	require.NoError(t, WriteJSON(path, in))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file is renamed")

	var out map[string]int
	require.NoError(t, ReadJSON(path, &out))
	assert.Equal(t, in, out)
}

// TestAtomicReplace_Missing keeps destination when temp file is absent.
func TestAtomicReplace_Missing(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "transport.sqlite")
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0644))

	err := AtomicReplace(filepath.Join(dir, "none.tmp"), dst)
	assert.Error(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
