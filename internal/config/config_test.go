package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/mytube/mytube"
)

// isolate points the user config dir at an empty temporary directory.
func isolate(t *testing.T) string {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	return filepath.Join(dir, AppName)
}

func TestLoad_Defaults(t *testing.T) {
	assert := assert_.New(t)
	dir := isolate(t)
	cwd, err := os.Getwd()
	require_.Nil(t, err)

	c, err := Load("", nil)
	require_.Nil(t, err)
	assert.Equal(mytube.Resolution720p, c.Resolution)
	assert.Equal(cwd, c.SaveDir)
	assert.True(c.PrefixResolution)
	assert.Equal(HistoryBolt, c.HistoryDriver)
	assert.Equal(filepath.Join(dir, "history.db"), c.History)
	assert.Equal(2.0, c.RateLimit)
	assert.False(c.AssumeYes)
}

func TestLoad_FileEnvOverrides(t *testing.T) {
	assert := assert_.New(t)
	dir := isolate(t)
	require_.Nil(t, os.MkdirAll(dir, 0755))
	require_.Nil(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(
		"resolution: 360p\nsave_dir: /videos\nprefix_resolution: false\nhistory_driver: sqlite\n"), 0644))

	c, err := Load("", nil)
	require_.Nil(t, err)
	assert.Equal(mytube.Resolution360p, c.Resolution)
	assert.Equal("/videos", c.SaveDir)
	assert.False(c.PrefixResolution)
	assert.Equal(HistorySQLite, c.HistoryDriver)
	assert.Equal(filepath.Join(dir, "history.sqlite3"), c.History)

	// Environment beats the file
	t.Setenv("MYTUBE_RESOLUTION", "480")
	c, err = Load("", nil)
	require_.Nil(t, err)
	assert.Equal(mytube.Resolution480p, c.Resolution)

	// Overrides beat everything
	c, err = Load("", map[string]any{Keys.Resolution: "144p", Keys.AssumeYes: true})
	require_.Nil(t, err)
	assert.Equal(mytube.Resolution144p, c.Resolution)
	assert.True(c.AssumeYes)
}

func TestLoad_ExplicitFile(t *testing.T) {
	assert := assert_.New(t)
	isolate(t)
	file := filepath.Join(t.TempDir(), "custom.json")
	require_.Nil(t, os.WriteFile(file, []byte(`{"save_dir": "/elsewhere", "history_driver": "none"}`), 0644))

	c, err := Load(file, nil)
	require_.Nil(t, err)
	assert.Equal("/elsewhere", c.SaveDir)
	assert.Equal(HistoryNone, c.HistoryDriver)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.NotNil(err)
}

func TestLoad_Invalid(t *testing.T) {
	assert := assert_.New(t)
	isolate(t)

	_, err := Load("", map[string]any{Keys.SaveDir: "   "})
	assert.True(errors.Is(err, mytube.ErrInvalidSaveDir))
	assert.Equal("Please enter a valid save directory.", mytube.UserMessage(err))

	_, err = Load("", map[string]any{Keys.Resolution: "1080p"})
	assert.True(errors.Is(err, mytube.ErrUnknownResolution))

	_, err = Load("", map[string]any{Keys.HistoryDriver: "postgres"})
	assert.NotNil(err)
}
