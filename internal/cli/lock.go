package cli

import (
	"dataset_downloader/internal/config"
	"dataset_downloader/internal/utils"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when another run holds the lock.
var ErrAlreadyRunning = errors.New("another dataset download is already running")

var runLock *flock.Flock

// lockPath is where the run lock lives; overridden in tests.
var lockPath = func() string {
	return filepath.Join(config.GetRuntimeDir(), "run.lock")
}

// AcquireLock takes the per-user run lock without blocking.
func AcquireLock() error {
	path := lockPath()
	l := flock.New(path)
	locked, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock %s: %w", path, err)
	}
	if !locked {
		return fmt.Errorf("%w (lock file %s)", ErrAlreadyRunning, path)
	}
	utils.Debug("Acquired run lock %s", path)
	runLock = l
	return nil
}

// ReleaseLock drops the run lock if held.
func ReleaseLock() error {
	if runLock == nil {
		return nil
	}
	err := runLock.Unlock()
	runLock = nil
	return err
}
