package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/notifydo/internal/client/api"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, api.DefaultBaseURL, cfg.Server)
	assert.Equal(t, "state.db", filepath.Base(cfg.StatePath))
	assert.Equal(t, "notifydo", filepath.Base(filepath.Dir(cfg.StatePath)))
	assert.Equal(t, "dueDate", cfg.View.Sort)
	assert.False(t, cfg.View.ShowCompleted)
	assert.False(t, cfg.View.Grouped)
}

func TestLoad_File(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
server = "https://todo.example.com/api"
state-path = "~/state/notifydo.db"

[view]
sort = "priority"
show-completed = true
grouped = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://todo.example.com/api", cfg.Server)
	assert.Equal(t, filepath.Join(home, "state", "notifydo.db"), cfg.StatePath)
	assert.Equal(t, "priority", cfg.View.Sort)
	assert.True(t, cfg.View.ShowCompleted)
	assert.True(t, cfg.View.Grouped)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(writeConfig(t, `server = `))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "state-path = \"/tmp/x.db\"\n[view]\nsort = \"title\"\n"))
	assert.ErrorContains(t, err, "view.sort")
}
