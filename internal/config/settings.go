// Package config resolves per-user directories and the settings that drive a
// run. Settings come from defaults, then settings.yml, then DATASET_* environment
// variables (optionally seeded from a .env file); command-line flags win last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Transfer backends.
const (
	BackendGdown = "gdown"
	BackendHTTP  = "http"
)

// Environment variable names.
const (
	EnvManifest       = "DATASET_MANIFEST"
	EnvDataDir        = "DATASET_DATA_DIR"
	EnvBackend        = "DATASET_BACKEND"
	EnvHelper         = "DATASET_HELPER"
	EnvMaxAttempts    = "DATASET_MAX_ATTEMPTS"
	EnvBackoffSeconds = "DATASET_BACKOFF_SECONDS"
	EnvStrictIndices  = "DATASET_STRICT_INDICES"
	EnvFailOnError    = "DATASET_FAIL_ON_ERROR"
	EnvHistory        = "DATASET_HISTORY"
)

// Settings holds everything a run can be configured with.
type Settings struct {
	ManifestPath      string `yaml:"manifest_path"`
	DataDir           string `yaml:"data_dir"`
	Backend           string `yaml:"backend"`
	HelperPath        string `yaml:"helper_path"`
	MaxAttempts       int    `yaml:"max_attempts"`
	BackoffSeconds    int    `yaml:"backoff_seconds"`
	StrictIndices     bool   `yaml:"strict_indices"`
	FailOnError       bool   `yaml:"fail_on_error"`
	HistoryEnabled    bool   `yaml:"history_enabled"`
	LogRetentionCount int    `yaml:"log_retention_count"`
}

// DefaultSettings mirrors the behaviour of running from a repository root:
// dataset_metadata.json next to a data/ directory, gdown, 3 attempts, 5s apart.
func DefaultSettings() *Settings {
	return &Settings{
		ManifestPath:      "dataset_metadata.json",
		DataDir:           "data",
		Backend:           BackendGdown,
		HelperPath:        "gdown",
		MaxAttempts:       3,
		BackoffSeconds:    5,
		StrictIndices:     false,
		FailOnError:       true,
		HistoryEnabled:    true,
		LogRetentionCount: 5,
	}
}

// Backoff returns the retry pause as a duration.
func (s *Settings) Backoff() time.Duration {
	return time.Duration(s.BackoffSeconds) * time.Second
}

// Validate checks that the settings describe a runnable configuration.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendGdown, BackendHTTP:
	default:
		return fmt.Errorf("unknown backend %q (expected %q or %q)", s.Backend, BackendGdown, BackendHTTP)
	}
	if s.ManifestPath == "" {
		return errors.New("manifest path must not be empty")
	}
	if s.DataDir == "" {
		return errors.New("data directory must not be empty")
	}
	if s.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.BackoffSeconds < 0 {
		return fmt.Errorf("backoff must not be negative, got %d", s.BackoffSeconds)
	}
	return nil
}

// LoadSettings reads the user's settings file, falling back to defaults when
// it does not exist.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(afero.NewOsFs(), GetSettingsPath())
}

// LoadSettingsFrom reads settings from path on fs. Keys missing from the file
// keep their default values.
func LoadSettingsFrom(fs afero.Fs, path string) (*Settings, error) {
	settings := DefaultSettings()

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("reading settings %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings %s: %w", path, err)
	}
	return settings, nil
}

// LoadDotEnv loads variables from a .env file into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from DATASET_* variables found through lookup.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}
	flag := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", key, v)
		}
		*dst = b
		return nil
	}

	str(EnvManifest, &s.ManifestPath)
	str(EnvDataDir, &s.DataDir)
	str(EnvBackend, &s.Backend)
	str(EnvHelper, &s.HelperPath)

	return errors.Join(
		num(EnvMaxAttempts, &s.MaxAttempts),
		num(EnvBackoffSeconds, &s.BackoffSeconds),
		flag(EnvStrictIndices, &s.StrictIndices),
		flag(EnvFailOnError, &s.FailOnError),
		flag(EnvHistory, &s.HistoryEnabled),
	)
}
