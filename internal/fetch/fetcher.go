// Package fetch performs single download attempts of a remote file reference
// and wraps them in a bounded retry policy. The actual network transfer is
// delegated to a Transfer backend so it can be swapped or stubbed.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/afero"
)

var (
	ErrTransferFailure      = errors.New("transfer failed")
	ErrEmptyOrMissingOutput = errors.New("downloaded file is empty or doesn't exist")
)

// Transfer is the external capability that resolves a remote file reference
// to bytes written at outputPath.
type Transfer interface {
	Download(ctx context.Context, ref, outputPath string) error
}

// TransferFunc adapts a function to the Transfer interface.
type TransferFunc func(ctx context.Context, ref, outputPath string) error

func (f TransferFunc) Download(ctx context.Context, ref, outputPath string) error {
	return f(ctx, ref, outputPath)
}

// Fetcher performs one download attempt. Implementations do not retry.
type Fetcher interface {
	Fetch(ctx context.Context, ref, outputPath string) error
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, ref, outputPath string) error

func (f FetcherFunc) Fetch(ctx context.Context, ref, outputPath string) error {
	return f(ctx, ref, outputPath)
}

// VerifyingFetcher runs a Transfer and then checks that it left a non-empty
// file behind. A transfer that reports success but produced nothing is a failure.
type VerifyingFetcher struct {
	transfer Transfer
	fs       afero.Fs
}

// NewVerifyingFetcher returns a Fetcher that verifies outputs on fs.
func NewVerifyingFetcher(t Transfer, fs afero.Fs) *VerifyingFetcher {
	return &VerifyingFetcher{transfer: t, fs: fs}
}

func (f *VerifyingFetcher) Fetch(ctx context.Context, ref, outputPath string) error {
	if err := f.transfer.Download(ctx, ref, outputPath); err != nil {
		return fmt.Errorf("%w: %w", ErrTransferFailure, err)
	}
	if _, err := Verify(f.fs, outputPath); err != nil {
		return err
	}
	return nil
}

// Verify returns the size of the file at path, or ErrEmptyOrMissingOutput if
// it does not exist, is a directory, or is empty.
func Verify(fs afero.Fs, path string) (int64, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrEmptyOrMissingOutput, path)
	}
	if info.IsDir() || info.Size() == 0 {
		return 0, fmt.Errorf("%w: %s", ErrEmptyOrMissingOutput, path)
	}
	return info.Size(), nil
}

const (
	driveBaseURL = "https://drive.google.com/uc"
)

// DriveURL is the share URL the external helper resolves.
func DriveURL(fileID string) string {
	return driveBaseURL + "?id=" + url.QueryEscape(fileID)
}

// DirectDownloadURL is the export link usable by plain HTTP clients such as wget.
func DirectDownloadURL(fileID string) string {
	return directDownloadURL(driveBaseURL, fileID)
}

func directDownloadURL(base, fileID string) string {
	return base + "?export=download&id=" + url.QueryEscape(fileID)
}
