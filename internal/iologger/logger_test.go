package iologger_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/hktransit/internal/iologger"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitFile(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	cfg := config.LogConfig{Format: "json", Level: "info", Destination: "file"}

	err := iologger.Init(dir, cfg, false)
	require.Nil(t, err)
	slog.Info("hello", "stage", "normalize")

	data, err := os.ReadFile(filepath.Join(dir, iologger.LogFile))
	require.Nil(t, err)
	assert.Contains(string(data), `"stage":"normalize"`)

	// a fresh run truncates the log
	err = iologger.Init(dir, cfg, false)
	require.Nil(t, err)
	data, err = os.ReadFile(filepath.Join(dir, iologger.LogFile))
	require.Nil(t, err)
	assert.Empty(data)
}

func TestInitBadDir(t *testing.T) {
	cfg := config.LogConfig{Format: "text", Level: "debug", Destination: "file"}
	err := iologger.Init(filepath.Join(t.TempDir(), "none", "x"), cfg, true)
	assert.NotNil(t, err)

	cfg.Destination = "stderr"
	err = iologger.Init("", cfg, true)
	assert.Nil(t, err)
}
