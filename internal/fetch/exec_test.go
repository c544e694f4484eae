package fetch

import (
	"context"
	"os/exec"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecTransferArgs(t *testing.T) {
	tr := NewExecTransfer("", nil, nil)

	assert.Equal(t, DefaultHelper, tr.program)
	assert.Equal(t,
		[]string{"https://drive.google.com/uc?id=XYZ", "-O", "data/a.zip"},
		tr.Args("XYZ", "data/a.zip"))
}

func TestExecTransferMissingHelper(t *testing.T) {
	tr := NewExecTransfer("definitely-not-a-real-helper-binary", nil, nil)

	err := tr.Download(context.Background(), "XYZ", "data/a.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, exec.ErrNotFound)
	assert.ErrorIs(t, err, ErrHelperNotFound)
	assert.Contains(t, err.Error(), "pip install gdown")
}

func TestLookupHelper(t *testing.T) {
	_, err := LookupHelper("definitely-not-a-real-helper-binary")
	assert.ErrorIs(t, err, ErrHelperNotFound)

	if runtime.GOOS == "windows" {
		return
	}
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	path, err := LookupHelper("true")
	require.NoError(t, err)
	assert.NotEmpty(t, path)
}

func TestExecTransferExitStatus(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on POSIX true/false")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	require.NoError(t, NewExecTransfer("true", nil, nil).Download(context.Background(), "XYZ", "out"))

	err := NewExecTransfer("false", nil, nil).Download(context.Background(), "XYZ", "out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "false exited")
}
