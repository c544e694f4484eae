package fetch

import (
	"context"
	"dataset_downloader/internal/utils"
	"errors"
	"fmt"
	"io"
	"os/exec"
)

// DefaultHelper is the external Drive download helper.
const DefaultHelper = "gdown"

// ErrHelperNotFound is returned when the helper program cannot be executed.
var ErrHelperNotFound = errors.New("download helper not found")

// ExecTransfer delegates downloads to an external helper program invoked as
// `<helper> <drive-url> -O <output>`. The helper's own progress output is
// streamed to the configured writers.
type ExecTransfer struct {
	program string
	stdout  io.Writer
	stderr  io.Writer
}

// NewExecTransfer creates a transfer that shells out to program.
func NewExecTransfer(program string, stdout, stderr io.Writer) *ExecTransfer {
	if program == "" {
		program = DefaultHelper
	}
	return &ExecTransfer{program: program, stdout: stdout, stderr: stderr}
}

// Args returns the helper arguments for one download.
func (t *ExecTransfer) Args(ref, outputPath string) []string {
	return []string{DriveURL(ref), "-O", outputPath}
}

func (t *ExecTransfer) Download(ctx context.Context, ref, outputPath string) error {
	args := t.Args(ref, outputPath)
	utils.Debug("Running %s %v", t.program, args)

	cmd := exec.CommandContext(ctx, t.program, args...)
	cmd.Stdout = t.stdout
	cmd.Stderr = t.stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return helperNotFound(t.program, err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%s exited: %w", t.program, err)
	}
	return nil
}

// LookupHelper checks that program can be run, so a missing helper is reported
// before any dataset is selected.
func LookupHelper(program string) (string, error) {
	if program == "" {
		program = DefaultHelper
	}
	path, err := exec.LookPath(program)
	if err != nil {
		return "", helperNotFound(program, err)
	}
	return path, nil
}

func helperNotFound(program string, err error) error {
	return fmt.Errorf("%w: %q is not in PATH (install it with 'pip install gdown'): %w", ErrHelperNotFound, program, err)
}
