package cli

import (
	"dataset_downloader/internal/utils"
	"errors"
	"fmt"
	"sync"
)

var (
	globalShutdownMu   sync.Mutex
	globalShutdownOnce sync.Once
	globalShutdownErr  error
	globalShutdownFns  []func() error
)

// registerShutdown queues fn to run when the process exits. Functions run in
// reverse registration order.
func registerShutdown(fn func() error) {
	globalShutdownMu.Lock()
	defer globalShutdownMu.Unlock()
	globalShutdownFns = append(globalShutdownFns, fn)
}

func executeGlobalShutdown(reason string) error {
	// Ensure cleanup only happens once even if Execute and a signal race.
	globalShutdownOnce.Do(func() {
		utils.Debug("Executing shutdown (%s)", reason)

		globalShutdownMu.Lock()
		fns := globalShutdownFns
		globalShutdownFns = nil
		globalShutdownMu.Unlock()

		var errs []error
		for i := len(fns) - 1; i >= 0; i-- {
			if err := fns[i](); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			globalShutdownErr = fmt.Errorf("shutdown failed: %w", err)
		}
	})
	return globalShutdownErr
}

func resetGlobalShutdownCoordinatorForTest() {
	globalShutdownMu.Lock()
	defer globalShutdownMu.Unlock()
	globalShutdownOnce = sync.Once{}
	globalShutdownErr = nil
	globalShutdownFns = nil
}
