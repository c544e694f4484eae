package cli

import (
	"dataset_downloader/internal/config"
	"dataset_downloader/internal/state"
	"dataset_downloader/models"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addSettingsFlags(flags, flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestApplyFlagsOnlyOverridesChanged(t *testing.T) {
	s := config.DefaultSettings()
	s.MaxAttempts = 9
	s.Backend = config.BackendHTTP

	applyFlags(s, parsedFlags(t, "-m", "other.json", "--strict", "--no-history"))

	assert.Equal(t, "other.json", s.ManifestPath)
	assert.True(t, s.StrictIndices)
	assert.False(t, s.HistoryEnabled)
	assert.Equal(t, 9, s.MaxAttempts, "unset flag keeps the configured value")
	assert.Equal(t, config.BackendHTTP, s.Backend)
	assert.True(t, s.FailOnError)
}

func TestApplyFlagsAll(t *testing.T) {
	s := config.DefaultSettings()
	applyFlags(s, parsedFlags(t,
		"--data-dir", "/tmp/ds",
		"--backend", "http",
		"--helper", "/opt/gdown",
		"-r", "4",
		"--backoff", "0",
		"--fail-on-error=false",
	))

	assert.Equal(t, "/tmp/ds", s.DataDir)
	assert.Equal(t, config.BackendHTTP, s.Backend)
	assert.Equal(t, "/opt/gdown", s.HelperPath)
	assert.Equal(t, 4, s.MaxAttempts)
	assert.Equal(t, 0, s.BackoffSeconds)
	assert.False(t, s.FailOnError)
	require.NoError(t, s.Validate())
}

func TestApplyFlagsIgnoresMissingFlags(t *testing.T) {
	flags := pflag.NewFlagSet("history", pflag.ContinueOnError)
	flags.Int("limit", 20, "")
	require.NoError(t, flags.Parse([]string{"--limit", "3"}))

	s := config.DefaultSettings()
	applyFlags(s, flags)
	assert.Equal(t, config.DefaultSettings(), s)
}

func TestFormatManifestTable(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, filepath.Join("data", "b.zip"), []byte("0123456789"), 0o644))

	list := &models.Manifest{Datasets: []models.Dataset{
		{Name: "a.zip", SizeGB: 1.5, Description: "first", FileID: "X"},
		{Name: "b.zip", SizeGB: 0.25, Description: "second", FileID: "Y"},
	}}

	out := formatManifestTable(fs, list, "data")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "a.zip")
	assert.Contains(t, out, "1.5 GB")
	assert.Contains(t, out, "250 MB")
	assert.Contains(t, out, "10 B")
	assert.Contains(t, out, "second")

	assert.Equal(t, "No datasets in manifest.", formatManifestTable(fs, &models.Manifest{}, "data"))
}

func TestFormatHistoryTable(t *testing.T) {
	out := formatHistoryTable([]state.Record{{
		RunID:     "0123456789abcdef",
		Name:      "a.zip",
		Status:    state.StatusCompleted,
		Bytes:     2_000_000,
		DestPath:  "/data/a.zip",
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}})

	assert.Contains(t, out, "01234567")
	assert.NotContains(t, out, "0123456789abcdef")
	assert.Contains(t, out, "2.0 MB")
	assert.Contains(t, out, "hours ago")
	assert.Contains(t, out, state.StatusCompleted)

	assert.Equal(t, "No downloads recorded yet.", formatHistoryTable(nil))
}

func TestAcquireLockRejectsSecondHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.lock")
	orig := lockPath
	lockPath = func() string { return path }
	t.Cleanup(func() { lockPath = orig })

	other := flock.New(path)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)

	err = AcquireLock()
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	require.NoError(t, other.Unlock())
	require.NoError(t, AcquireLock())
	assert.NoError(t, ReleaseLock())
	assert.NoError(t, ReleaseLock())
}

func TestShutdownRunsOnceInReverseOrder(t *testing.T) {
	resetGlobalShutdownCoordinatorForTest()
	t.Cleanup(resetGlobalShutdownCoordinatorForTest)

	var order []int
	registerShutdown(func() error { order = append(order, 1); return nil })
	registerShutdown(func() error { order = append(order, 2); return errors.New("boom") })

	err := executeGlobalShutdown("test")
	assert.ErrorContains(t, err, "boom")
	assert.Equal(t, []int{2, 1}, order)

	assert.Equal(t, err, executeGlobalShutdown("again"))
	assert.Equal(t, []int{2, 1}, order)
}
