package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"maccleanup/internal/catalog"
	"maccleanup/internal/cleanup"
	"maccleanup/internal/config"
	"maccleanup/internal/logging"
	"maccleanup/internal/metrics"
	"maccleanup/internal/probe"
	"maccleanup/internal/report"
	"maccleanup/internal/runner"
	"maccleanup/internal/safety"
	"maccleanup/internal/scan"
	"maccleanup/internal/shell"
	"maccleanup/internal/sysinfo"
)

// memorySettle is how long the purge result is left to settle before
// available memory is read again.
const memorySettle = 2 * time.Second

type options struct {
	dryRun      bool
	force       bool
	verbose     bool
	ramOnly     bool
	noColor     bool
	debug       bool
	configPath  string
	metricsFile string
}

func (o *options) mode() cleanup.Mode {
	return cleanup.ModeFor(o.dryRun, o.force)
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "maccleanup",
		Short: "Free up disk space on macOS",
		Long: `maccleanup removes caches, old logs, old downloads, the trash, developer
build artifacts and browser data, and can purge inactive memory.

By default every target is confirmed interactively. Use --dry-run to preview
and --force to skip confirmations.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.NoArgs(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCleanup(cmd.Context(), opts, cmd.OutOrStdout(), cmd.InOrStdin())
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.dryRun, "dry-run", "d", false, "Show what would be deleted without deleting anything")
	f.BoolVarP(&opts.force, "force", "f", false, "Delete without confirmation prompts")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Print every file and directory considered")
	f.BoolVarP(&opts.ramOnly, "ram-only", "r", false, "Only purge inactive memory")
	f.StringVar(&opts.configPath, "config", "", "Path to configuration file (default: <user config dir>/maccleanup/config.yaml)")
	f.StringVar(&opts.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	f.BoolVar(&opts.debug, "debug", false, "Mirror the diagnostic log to stderr")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	return cmd
}

func runCleanup(ctx context.Context, opts *options, out io.Writer, in io.Reader) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return &runner.FatalConfigError{Err: fmt.Errorf("resolve home directory: %w", err)}
	}
	configDir, err := os.UserConfigDir()
	if err != nil {
		return &runner.FatalConfigError{Err: fmt.Errorf("resolve config directory: %w", err)}
	}

	configPath := opts.configPath
	explicit := configPath != ""
	if !explicit {
		configPath = config.DefaultPath(configDir)
	}
	cfg, err := config.LoadOptional(configPath, home, explicit)
	if err != nil {
		return &runner.FatalConfigError{Err: err}
	}

	logOpts := logging.Options{
		File:       cfg.Logging.File,
		Level:      cfg.Level(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   *cfg.Logging.Compress,
	}
	if logOpts.File == "" {
		logOpts.File = logging.DefaultFile(configDir)
	}
	if opts.debug {
		logOpts.Console = os.Stderr
		logOpts.Level = zerolog.DebugLevel
	}
	logger, closer, logErr := logging.New(logOpts)
	defer closer.Close()
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", logErr)
	}

	mode := opts.mode()
	metricsFile := opts.metricsFile
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}

	logger.Info().
		Str("config", configPath).
		Str("mode", mode.String()).
		Bool("ram_only", opts.ramOnly).
		Msg("maccleanup starting")

	commands := shell.NewExecRunner()
	planner := scan.NewPlanner(nil, time.Now(), logger)
	rep := report.New(report.Options{Out: out, In: in, Verbose: opts.verbose, NoColor: opts.noColor})
	sys := sysinfo.System{}

	exec := cleanup.NewExecutor(logger)
	exec.SetRunner(commands)
	exec.SetPrompter(rep)
	exec.SetMeasurer(planner)
	exec.SetMemoryProbe(sysinfo.AvailableMemory(ctx, sys), memorySettle)
	exec.Protect(
		append([]string{logOpts.Dir(), filepath.Dir(configPath)}, cfg.ProtectedPaths...),
		safety.HomeProtected(home),
	)

	r := runner.New(logger)
	r.Catalog = catalog.New(home, cfg, logger)
	r.Prober = probe.New(nil, commands, logger)
	r.Planner = planner
	r.Executor = exec
	r.Reporter = rep
	r.System = sys
	r.Metrics = metrics.New()

	_, err = r.Run(ctx, runner.Options{
		Mode:        mode,
		RAMOnly:     opts.ramOnly,
		DiskPath:    "/",
		MetricsFile: metricsFile,
	})
	if err != nil {
		logger.Error().Err(err).Str("state", r.State().String()).Msg("Run failed")
		return err
	}
	return nil
}
