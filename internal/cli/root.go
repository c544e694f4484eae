package cli

import (
	"context"
	"dataset_downloader/greenhttp"
	"dataset_downloader/internal/config"
	"dataset_downloader/internal/fetch"
	"dataset_downloader/internal/prompt"
	"dataset_downloader/internal/selector"
	"dataset_downloader/internal/state"
	"dataset_downloader/internal/utils"
	"dataset_downloader/manager"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version information - set via ldflags during build.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// Command line flags
var verbose bool

// activeSettings is resolved once per invocation in PersistentPreRunE.
var activeSettings *config.Settings

// errRunFailed marks a run that finished but left datasets undownloaded.
var errRunFailed = errors.New("one or more datasets failed to download")

// reportedError wraps errors the manager already printed to the user. Every
// error manager.Run returns has been printed.
type reportedError struct{ err error }

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dataset_downloader",
	Short: "Download the datasets listed in a manifest",
	Long: `dataset_downloader reads dataset_metadata.json, asks which datasets to fetch
and downloads each one into the data directory, retrying failed transfers.`,
	Version:       Version,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		utils.SetVerbose(verbose)

		settings, err := resolveSettings(cmd.Flags())
		if err != nil {
			return err
		}
		activeSettings = settings
		initializeGlobalState(settings)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDownloads(cmd.Context(), activeSettings)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		// A second signal falls through to the default handler and terminates.
		stop()
	}()

	err := rootCmd.ExecuteContext(ctx)
	if shutdownErr := executeGlobalShutdown("exit"); shutdownErr != nil {
		utils.Debug("%v", shutdownErr)
	}
	stop()

	if err != nil {
		var reported reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	addSettingsFlags(rootCmd.PersistentFlags(), rootCmd.Flags())
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.SetVersionTemplate("dataset_downloader v{{.Version}}\n")
}

// addSettingsFlags registers the flags that override settings. Flags shared
// with subcommands go on persistent; download-only flags go on local.
func addSettingsFlags(persistent, local *pflag.FlagSet) {
	persistent.StringP("manifest", "m", "", "Path to the dataset manifest (default dataset_metadata.json)")
	persistent.StringP("data-dir", "d", "", "Directory datasets are written to (default data)")
	local.String("backend", "", "Transfer backend: gdown or http (direct Drive export link)")
	local.String("helper", "", "Path to the gdown executable")
	local.IntP("retries", "r", 0, "Maximum download attempts per dataset")
	local.Int("backoff", 0, "Seconds to wait between attempts")
	local.Bool("strict", false, "Reject dataset numbers outside the manifest")
	local.Bool("fail-on-error", true, "Exit non-zero when any dataset fails")
	local.Bool("no-history", false, "Do not record this run in the history database")
}

// resolveSettings layers .env, settings.yml, DATASET_* variables and flags.
func resolveSettings(flags *pflag.FlagSet) (*config.Settings, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}
	applyFlags(settings, flags)
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// applyFlags copies explicitly set flags onto s. Flags left at their defaults
// never override values from files or the environment.
func applyFlags(s *config.Settings, flags *pflag.FlagSet) {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("manifest") {
		s.ManifestPath, _ = flags.GetString("manifest")
	}
	if changed("data-dir") {
		s.DataDir, _ = flags.GetString("data-dir")
	}
	if changed("backend") {
		s.Backend, _ = flags.GetString("backend")
	}
	if changed("helper") {
		s.HelperPath, _ = flags.GetString("helper")
	}
	if changed("retries") {
		s.MaxAttempts, _ = flags.GetInt("retries")
	}
	if changed("backoff") {
		s.BackoffSeconds, _ = flags.GetInt("backoff")
	}
	if changed("strict") {
		s.StrictIndices, _ = flags.GetBool("strict")
	}
	if changed("fail-on-error") {
		s.FailOnError, _ = flags.GetBool("fail-on-error")
	}
	if changed("no-history") {
		noHistory, _ := flags.GetBool("no-history")
		s.HistoryEnabled = !noHistory
	}
}

// initializeGlobalState prepares directories and logging for CLI usage.
func initializeGlobalState(settings *config.Settings) {
	if err := config.EnsureDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	utils.ConfigureDebug(config.GetLogsDir())
	utils.CleanupLogs(settings.LogRetentionCount)
	registerShutdown(func() error {
		utils.CloseDebug()
		return nil
	})
	utils.Debug("dataset_downloader %s (built %s): manifest=%s data=%s backend=%s",
		Version, BuildTime, settings.ManifestPath, settings.DataDir, settings.Backend)
}

// buildFetcher returns the verifying fetcher for the configured backend.
func buildFetcher(s *config.Settings, fs afero.Fs) fetch.Fetcher {
	var transfer fetch.Transfer
	switch s.Backend {
	case config.BackendHTTP:
		transfer = fetch.NewHTTPTransfer(greenhttp.NewHTTPClient(), fs)
	default:
		transfer = fetch.NewExecTransfer(s.HelperPath, os.Stdout, os.Stderr)
	}
	return fetch.NewVerifyingFetcher(transfer, fs)
}

// runDownloads performs one interactive download run.
func runDownloads(ctx context.Context, s *config.Settings) error {
	if err := AcquireLock(); err != nil {
		return err
	}
	registerShutdown(ReleaseLock)

	if s.Backend == config.BackendGdown {
		helper, err := fetch.LookupHelper(s.HelperPath)
		if err != nil {
			return err
		}
		utils.Debug("Using download helper %s", helper)
	}

	fs := afero.NewOsFs()
	p := prompt.New(os.Stdin, os.Stdout)
	m := manager.New(fs, p, buildFetcher(s, fs), manager.Options{
		ManifestPath: s.ManifestPath,
		DataDir:      s.DataDir,
		Selection:    selector.Options{StrictIndices: s.StrictIndices},
		Retry: fetch.Policy{
			MaxAttempts: s.MaxAttempts,
			Backoff:     s.Backoff(),
		},
	})

	if s.HistoryEnabled {
		store, err := state.Open(config.GetHistoryPath())
		if err != nil {
			utils.Debug("History disabled: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: run history unavailable: %v\n", err)
		} else {
			registerShutdown(store.Close)
			m.WithHistory(store)
		}
	}

	summary, err := m.Run(ctx)
	if err != nil {
		if errors.Is(err, selector.ErrAborted) {
			return nil
		}
		return reportedError{err}
	}
	if s.FailOnError && summary.HasFailures() {
		return reportedError{errRunFailed}
	}
	return nil
}
