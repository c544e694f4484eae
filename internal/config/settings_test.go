package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	s, err := LoadSettingsFrom(afero.NewMemMapFs(), "/cfg/settings.yml")
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, 5*time.Second, s.Backoff())
	require.NoError(t, s.Validate())
}

func TestLoadSettingsPartialFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/settings.yml", []byte(`
data_dir: /srv/datasets
backend: http
max_attempts: 5
strict_indices: true
`), 0o644))

	s, err := LoadSettingsFrom(fs, "/cfg/settings.yml")
	require.NoError(t, err)

	assert.Equal(t, "/srv/datasets", s.DataDir)
	assert.Equal(t, BackendHTTP, s.Backend)
	assert.Equal(t, 5, s.MaxAttempts)
	assert.True(t, s.StrictIndices)
	assert.Equal(t, "dataset_metadata.json", s.ManifestPath, "unset keys keep defaults")
	assert.Equal(t, 5, s.BackoffSeconds)
}

func TestLoadSettingsBadYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "s.yml", []byte("max_attempts: [oops"), 0o644))

	_, err := LoadSettingsFrom(fs, "s.yml")
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvManifest:       "meta.json",
		EnvBackend:        "http",
		EnvMaxAttempts:    "7",
		EnvBackoffSeconds: "0",
		EnvFailOnError:    "false",
		EnvDataDir:        "  ",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	s := DefaultSettings()
	require.NoError(t, s.ApplyEnv(lookup))

	assert.Equal(t, "meta.json", s.ManifestPath)
	assert.Equal(t, BackendHTTP, s.Backend)
	assert.Equal(t, 7, s.MaxAttempts)
	assert.Equal(t, 0, s.BackoffSeconds)
	assert.False(t, s.FailOnError)
	assert.Equal(t, "data", s.DataDir, "blank values are ignored")
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	lookup := func(k string) (string, bool) {
		switch k {
		case EnvMaxAttempts:
			return "many", true
		case EnvHistory:
			return "perhaps", true
		}
		return "", false
	}

	err := DefaultSettings().ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvMaxAttempts)
	assert.Contains(t, err.Error(), EnvHistory)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown backend", func(s *Settings) { s.Backend = "ftp" }},
		{"zero attempts", func(s *Settings) { s.MaxAttempts = 0 }},
		{"negative backoff", func(s *Settings) { s.BackoffSeconds = -1 }},
		{"empty manifest", func(s *Settings) { s.ManifestPath = "" }},
		{"empty data dir", func(s *Settings) { s.DataDir = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := DefaultSettings()
			tc.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATASET_TEST_ONLY_VALUE=from-file\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("DATASET_TEST_ONLY_VALUE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("DATASET_TEST_ONLY_VALUE"))
}

func TestPathsLiveUnderAppDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("APPDATA", os.Getenv("XDG_CONFIG_HOME"))

	app := GetAppDir()
	assert.Equal(t, AppName, filepath.Base(app))
	assert.Equal(t, filepath.Join(app, "settings.yml"), GetSettingsPath())
	assert.Equal(t, filepath.Join(app, "state", "history.db"), GetHistoryPath())
	assert.Equal(t, filepath.Join(app, "logs"), GetLogsDir())
}

func TestRuntimeDirPrefersXDGRuntimeDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_RUNTIME_DIR is only honoured on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	runtimeDir := t.TempDir()

	t.Setenv("XDG_RUNTIME_DIR", runtimeDir)
	assert.Equal(t, filepath.Join(runtimeDir, AppName), GetRuntimeDir())

	t.Setenv("XDG_RUNTIME_DIR", "")
	assert.Equal(t, GetStateDir(), GetRuntimeDir())
	require.NoError(t, EnsureDirs())
	assert.DirExists(t, GetLogsDir())
}
