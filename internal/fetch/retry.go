package fetch

import (
	"context"
	"dataset_downloader/internal/utils"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 5 * time.Second
)

// Policy bounds how often and how patiently a fetch is retried.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration

	// Out receives human-readable retry messages. Nil discards them.
	Out io.Writer

	// Notify, if set, is called before each backoff pause with the attempt
	// number that just failed.
	Notify func(attempt int, err error, wait time.Duration)
}

// DefaultPolicy returns three attempts with a five second pause between them.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     DefaultBackoff,
	}
}

// FetchWithRetry calls f up to p.MaxAttempts times, pausing p.Backoff between
// failed attempts. It reports whether an attempt succeeded and never returns
// an error: exhausting the attempts is a per-dataset failure, not a fatal one.
func FetchWithRetry(ctx context.Context, f Fetcher, ref, outputPath string, p Policy) bool {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Backoff
	if wait < 0 {
		wait = 0
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}

	attempt := 0
	op := func() error {
		attempt++
		fmt.Fprintf(out, "Downloading to %s...\n", outputPath)
		err := f.Fetch(ctx, ref, outputPath)
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil, IsPermanent(err), attempt >= attempts:
			// RetryNotify only recognizes an unwrapped *PermanentError.
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, next time.Duration) {
		utils.Debug("Attempt %d for %s failed: %v", attempt, ref, err)
		fmt.Fprintf(out, "Attempt %d failed: %v. Retrying in %s...\n", attempt, err, next)
		if p.Notify != nil {
			p.Notify(attempt, err, next)
		}
	}

	// op bounds the attempts.
	policy := backoff.WithContext(backoff.NewConstantBackOff(wait), ctx)

	err := backoff.RetryNotify(op, policy, notify)
	if err != nil {
		utils.Debug("Giving up on %s after %d attempts: %v", ref, attempt, err)
		switch {
		case ctx.Err() != nil:
			fmt.Fprintf(out, "✗ Interrupted after %d attempts: %v\n", attempt, err)
		case IsPermanent(err) && attempt < attempts:
			fmt.Fprintf(out, "✗ Failed (not retrying): %v\n", err)
		default:
			fmt.Fprintf(out, "✗ Failed after %d attempts: %v\n", attempt, err)
		}
		return false
	}
	return true
}

// IsPermanent reports whether err cannot be fixed by trying again: the helper
// is not installed, or the server keeps answering with a web page.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrHelperNotFound) || errors.Is(err, ErrUnexpectedContent)
}
