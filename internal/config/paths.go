package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories this tool owns.
const AppName = "DatasetDownloader"

// GetAppDir is where settings, history and logs live: the platform's user
// config directory (XDG_CONFIG_HOME, %APPDATA%, ~/Library/Application Support)
// plus AppName.
func GetAppDir() string {
	root, err := os.UserConfigDir()
	if err != nil {
		home, _ := os.UserHomeDir()
		root = filepath.Join(home, ".config")
	}
	return filepath.Join(root, AppName)
}

// GetRuntimeDir holds the run lock. XDG_RUNTIME_DIR is preferred on Linux;
// other systems use a per-app directory under the temp dir.
func GetRuntimeDir() string {
	if runtime.GOOS == "linux" {
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			return filepath.Join(dir, AppName)
		}
		return GetStateDir()
	}
	return filepath.Join(os.TempDir(), AppName+"-runtime")
}

func GetStateDir() string {
	return filepath.Join(GetAppDir(), "state")
}

func GetLogsDir() string {
	return filepath.Join(GetAppDir(), "logs")
}

// GetSettingsPath is the optional YAML settings file.
func GetSettingsPath() string {
	return filepath.Join(GetAppDir(), "settings.yml")
}

// GetHistoryPath is the SQLite database backing `history`.
func GetHistoryPath() string {
	return filepath.Join(GetStateDir(), "history.db")
}

// EnsureDirs creates every per-user directory, stopping at the first failure.
func EnsureDirs() error {
	for _, dir := range []string{GetAppDir(), GetStateDir(), GetLogsDir(), GetRuntimeDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
