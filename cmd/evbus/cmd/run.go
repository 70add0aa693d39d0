package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/brianly1003/evbus/internal/adapters/ledgerstore"
	"github.com/brianly1003/evbus/internal/adapters/watcher"
	"github.com/brianly1003/evbus/internal/bus"
	"github.com/brianly1003/evbus/internal/config"
	"github.com/brianly1003/evbus/internal/domain/events"
	"github.com/brianly1003/evbus/internal/scenario"
	"github.com/brianly1003/evbus/internal/subscribers"
)

var (
	runMode    string
	runHook    string
	runWatch   bool
	runPersist bool
	runDBPath  string
	runJSON    bool
)

// errScenarioFailed is returned when a run has steps that missed their expectation.
var errScenarioFailed = errors.New("scenario failed")

// runCmd runs a scenario file.
var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run a scenario against a fresh bus",
	Long: `Run a YAML scenario against a fresh in-process bus and print the result.

The scenario's own mode, markers and failure_hook take precedence over
the config file and the flags below.

Examples:
  evbus run scenarios/sessions.yaml
  evbus run scenarios/files.yaml --mode method_name --hook log
  evbus run scenarios/sessions.yaml --persist      # store the ledger in SQLite
  evbus run scenarios/sessions.yaml --watch        # re-run on every save
  evbus run scenarios/sessions.yaml --json         # print the report as JSON`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	runCmd.Flags().StringVar(&runMode, "mode", "", "bus mode when the scenario sets none: annotation or method_name")
	runCmd.Flags().StringVar(&runHook, "hook", "", "failure hook when the scenario sets none: none or log")
	runCmd.Flags().BoolVar(&runWatch, "watch", false, "re-run the scenario whenever the file changes")
	runCmd.Flags().BoolVar(&runPersist, "persist", false, "store the run ledger (overrides ledger.persist)")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "ledger database path (overrides ledger.db_path)")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the report as JSON")
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with flags
	if runMode != "" {
		cfg.Bus.Mode = runMode
	}
	if runHook != "" {
		cfg.Bus.FailureHook = runHook
	}
	if cmd.Flags().Changed("persist") {
		cfg.Ledger.Persist = runPersist
	}
	if runDBPath != "" {
		cfg.Ledger.DBPath = runDBPath
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	setupLogging(cfg)

	mode, err := bus.ParseMode(cfg.Bus.Mode)
	if err != nil {
		return err
	}
	runner := scenario.NewRunner(scenario.Options{
		Mode:        mode,
		Markers:     cfg.Bus.Markers,
		FailureHook: cfg.Bus.FailureHook,
	})

	var store *ledgerstore.Store
	if cfg.Ledger.Persist {
		store, err = ledgerstore.Open(cfg.Ledger.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open ledger store: %w", err)
		}
		defer func() { _ = store.Close() }()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	path := args[0]
	if !runWatch {
		return runOnce(ctx, runner, store, path)
	}
	return watchScenario(ctx, cfg, runner, store, path)
}

// runOnce loads, runs, reports and optionally stores one scenario run.
func runOnce(ctx context.Context, runner *scenario.Runner, store *ledgerstore.Store, path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, sc)
	if err != nil {
		return fmt.Errorf("failed to run scenario %s: %w", sc.Name, err)
	}

	if runJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		printReport(newReportLogger(os.Stderr), report)
	}

	if store != nil {
		if err := store.SaveReport(report); err != nil {
			return fmt.Errorf("failed to store run: %w", err)
		}
		log.Info().Str("run_id", report.RunID).Str("db", store.Path()).Msg("run ledger stored")
	}

	if !report.Passed() {
		return fmt.Errorf("%w: %d of %d steps did not meet expectations",
			errScenarioFailed, len(report.FailedSteps()), len(report.Steps))
	}
	return nil
}

// reloader asks for a re-run when the watched scenario file changes.
type reloader struct {
	file   string
	reload chan struct{}
}

func newReloader(path string) *reloader {
	return &reloader{
		file:   filepath.Base(path),
		reload: make(chan struct{}, 1),
	}
}

// OnFileChanged queues one re-run; changes arriving while one is queued
// are folded into it.
func (r *reloader) OnFileChanged(e *events.FileChanged) error {
	if e.Change == events.FileChangeDeleted || filepath.Base(e.Path) != r.file {
		return nil
	}
	select {
	case r.reload <- struct{}{}:
	default:
	}
	return nil
}

// watchScenario runs the scenario, then again after every change to the
// file until ctx is done. Failed runs are reported but do not stop watching.
func watchScenario(ctx context.Context, cfg *config.Config, runner *scenario.Runner, store *ledgerstore.Store, path string) error {
	control, err := bus.New(bus.ModeMethodName)
	if err != nil {
		return err
	}
	if err := control.AddMethodNames(subscribers.OnFileChanged); err != nil {
		return err
	}
	if err := control.SetFailureHook(bus.FailureHookFunc(func(err error) {
		log.Warn().Err(err).Msg("reload handler failed")
	})); err != nil {
		return err
	}

	rl := newReloader(path)
	if err := control.Register(rl); err != nil {
		return err
	}
	defer func() { _ = control.Unregister(rl) }()

	w := watcher.New(filepath.Dir(path), control, watcher.Options{
		DebounceMS: cfg.Scenario.DebounceMS,
		Include:    []string{rl.file},
		Ignore:     cfg.Scenario.IgnorePatterns,
	})
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	defer func() { _ = w.Stop() }()

	for {
		if err := runOnce(ctx, runner, store, path); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Warn().Err(err).Str("scenario", path).Msg("run failed, waiting for changes")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-rl.reload:
			log.Info().Str("scenario", path).Msg("scenario changed, re-running")
		}
	}
}
