// Package manager orchestrates a download run.
// It coordinates the workflow: loading the manifest, asking which datasets to
// fetch, confirming overwrites, fetching each dataset with retry, recording the
// outcome and printing a summary. Datasets are processed one at a time in
// manifest order.
package manager

import (
	"context"
	"dataset_downloader/internal/fetch"
	"dataset_downloader/internal/manifest"
	"dataset_downloader/internal/prompt"
	"dataset_downloader/internal/selector"
	"dataset_downloader/internal/state"
	"dataset_downloader/internal/utils"
	"dataset_downloader/models"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var rule = strings.Repeat("=", 60)

// Recorder persists outcomes. *state.Store satisfies it.
type Recorder interface {
	Record(ctx context.Context, r state.Record) error
}

// Options configures a run.
type Options struct {
	ManifestPath string
	DataDir      string
	Selection    selector.Options
	Retry        fetch.Policy
}

// Manager drives one interactive run.
type Manager struct {
	fs       afero.Fs
	prompter *prompt.Prompter
	fetcher  fetch.Fetcher
	history  Recorder
	opts     Options
}

// New creates a Manager. fs is used for the manifest, the data directory and
// existence checks; fetcher performs the downloads.
func New(fs afero.Fs, p *prompt.Prompter, f fetch.Fetcher, opts Options) *Manager {
	if opts.ManifestPath == "" {
		opts.ManifestPath = manifest.DefaultPath
	}
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	if opts.Retry.Out == nil {
		opts.Retry.Out = p.Out()
	}
	return &Manager{fs: fs, prompter: p, fetcher: f, opts: opts}
}

// WithHistory records every outcome through r.
func (m *Manager) WithHistory(r Recorder) *Manager {
	m.history = r
	return m
}

// Init prints the startup banner.
func (m *Manager) Init() {
	m.prompter.Println(rule)
	m.prompter.Println("Dataset Download Script")
	m.prompter.Println(rule)
}

// Run executes a full run. Manifest and selection errors are returned and end
// the run early; a user abort returns selector.ErrAborted. Per-dataset failures
// never end the run and are reported only through the summary.
func (m *Manager) Run(ctx context.Context) (*models.Summary, error) {
	m.Init()

	list, err := manifest.Load(m.fs, m.opts.ManifestPath)
	if err != nil {
		m.prompter.Printf("Error: %v\n", err)
		if errors.Is(err, manifest.ErrManifestMissing) {
			m.prompter.Println("Make sure you're in the repository root directory.")
		}
		return nil, err
	}

	if err := m.fs.MkdirAll(m.opts.DataDir, 0o755); err != nil {
		err = fmt.Errorf("creating data directory %s: %w", m.opts.DataDir, err)
		m.prompter.Printf("Error: %v\n", err)
		return nil, err
	}

	m.prompter.Printf("Found %d datasets:\n", list.Len())
	for i, d := range list.Datasets {
		m.prompter.Printf("  %d. %s (%g GB)\n", i+1, d.Name, d.SizeGB)
	}
	m.prompter.Println()
	m.prompter.Println(rule)

	selected, err := selector.Select(list, m.prompter, m.opts.Selection)
	if err != nil {
		if errors.Is(err, selector.ErrAborted) {
			m.prompter.Println("Exiting.")
		} else {
			m.prompter.Printf("Error: %v\n", err)
		}
		return nil, err
	}

	summary := &models.Summary{RunID: uuid.New().String()}
	utils.Debug("Run %s: %d datasets selected", summary.RunID, len(selected))

	m.prompter.Println()
	m.prompter.Println("Starting downloads...")
	m.prompter.Println(strings.Repeat("-", 60))

	for _, d := range selected {
		if ctx.Err() != nil {
			m.prompter.Println("Interrupted, not starting remaining downloads.")
			break
		}
		outcome, err := m.process(ctx, d)
		if err != nil {
			m.prompter.Printf("Error: %v\n", err)
			return summary, err
		}
		summary.Add(outcome)
		m.record(ctx, summary.RunID, outcome)
	}

	PrintSummary(m.prompter, summary, m.opts.DataDir, m.opts.ManifestPath)
	return summary, nil
}

// process handles one dataset: overwrite confirmation, then fetch with retry.
func (m *Manager) process(ctx context.Context, d models.Dataset) (models.Outcome, error) {
	m.prompter.Println()
	m.prompter.Printf("Dataset: %s\n", d.Name)
	m.prompter.Printf("Size: %g GB\n", d.SizeGB)
	m.prompter.Printf("Description: %s\n", d.Description)

	outputPath := m.OutputPath(d)

	exists, err := afero.Exists(m.fs, outputPath)
	if err != nil {
		m.prompter.Printf("✗ Cannot check %s: %v\n", outputPath, err)
		return models.Outcome{Dataset: d}, nil
	}
	if exists {
		ok, err := m.prompter.Confirm(fmt.Sprintf("File %s already exists. Overwrite? (y/n): ", outputPath))
		if err != nil {
			return models.Outcome{}, fmt.Errorf("reading answer: %w", err)
		}
		if !ok {
			m.prompter.Println("Skipping...")
			return models.Outcome{Dataset: d, Skipped: true}, nil
		}
	}

	if !fetch.FetchWithRetry(ctx, m.fetcher, d.FileID, outputPath, m.opts.Retry) {
		return models.Outcome{Dataset: d}, nil
	}

	size, err := fetch.Verify(m.fs, outputPath)
	if err != nil {
		// The fetcher verified already; the file vanished afterwards.
		utils.Debug("Post-download stat of %s failed: %v", outputPath, err)
		return models.Outcome{Dataset: d}, nil
	}
	m.prompter.Printf("✓ Download complete: %s (%s)\n", outputPath, humanize.Bytes(uint64(size)))
	return models.Outcome{Dataset: d, Succeeded: true, Bytes: size}, nil
}

// OutputPath is where dataset d is written.
func (m *Manager) OutputPath(d models.Dataset) string {
	return filepath.Join(m.opts.DataDir, d.Name)
}

func (m *Manager) record(ctx context.Context, runID string, o models.Outcome) {
	if m.history == nil {
		return
	}
	status := state.StatusFailed
	switch {
	case o.Succeeded:
		status = state.StatusCompleted
	case o.Skipped:
		status = state.StatusSkipped
	}
	// Outcomes of an interrupted run are still recorded.
	err := m.history.Record(context.WithoutCancel(ctx), state.Record{
		RunID:    runID,
		Name:     o.Dataset.Name,
		FileID:   o.Dataset.FileID,
		DestPath: utils.AbsPath(m.OutputPath(o.Dataset)),
		Status:   status,
		Bytes:    o.Bytes,
	})
	if err != nil {
		utils.Debug("Failed to record outcome for %s: %v", o.Dataset.Name, err)
	}
}

// PrintSummary writes the end-of-run report. When nothing was downloaded, or
// something failed, it also prints manual download instructions.
func PrintSummary(p *prompt.Prompter, s *models.Summary, dataDir, manifestPath string) {
	p.Println()
	p.Println(rule)
	p.Println("DOWNLOAD SUMMARY")
	p.Println(rule)

	succeeded := s.Succeeded()
	if len(succeeded) > 0 {
		p.Println("✓ Successfully downloaded:")
		for _, d := range succeeded {
			p.Printf("  - %s\n", d.Name)
		}
		p.Println()
		p.Printf("Files are located in the '%s/' directory.\n", filepath.ToSlash(dataDir))
		p.Println()
		p.Printf("For citation and usage terms, see %s\n", manifestPath)
	} else {
		p.Println("No files were downloaded.")
	}

	if skipped := s.Skipped(); len(skipped) > 0 {
		p.Println()
		p.Println("Skipped (existing files kept):")
		for _, d := range skipped {
			p.Printf("  - %s\n", d.Name)
		}
	}

	failed := s.Failed()
	if len(failed) > 0 {
		p.Println()
		p.Println("✗ Failed:")
		for _, d := range failed {
			p.Printf("  - %s\n", d.Name)
		}
	}

	if len(succeeded) == 0 || len(failed) > 0 {
		p.Println()
		p.Println("Alternative download methods:")
		p.Printf("1. Manual download from Google Drive links in %s\n", manifestPath)
		p.Printf("2. Use wget: wget --no-check-certificate '%s'\n", fetch.DirectDownloadURL("FILE_ID"))
		for _, d := range failed {
			p.Printf("   %s: wget --no-check-certificate -O '%s' '%s'\n",
				d.Name, filepath.ToSlash(filepath.Join(dataDir, d.Name)), fetch.DirectDownloadURL(d.FileID))
		}
	}
}
