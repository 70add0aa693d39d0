package cmd

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/evbus/internal/config"
	"github.com/brianly1003/evbus/internal/scenario"
)

func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "console" || verbose {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// newReportLogger returns the human-readable logger used for run reports.
func newReportLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
}

// printReport writes one line per step, each absorbed failure and a summary.
func printReport(logger *slog.Logger, report *scenario.Report) {
	for _, s := range report.Steps {
		attrs := []any{"step", s.Index, "action", s.Action}
		if s.ExpectError != "" {
			attrs = append(attrs, "expect", s.ExpectError)
		}
		if s.Error != "" {
			attrs = append(attrs, tint.Err(errorString(s.Error)))
		}
		if s.Passed {
			logger.Debug("Step passed", attrs...)
		} else {
			logger.Warn("Step failed", attrs...)
		}
	}

	for _, f := range report.Failures {
		logger.Warn("Handler failure absorbed by hook", tint.Err(errorString(f)))
	}

	for _, e := range report.Entries {
		logger.Debug("Delivered",
			"seq", e.Seq,
			"event_type", e.EventType,
			"subscriber", e.Subscriber,
			"handler", e.Handler,
		)
	}

	attrs := []any{
		"scenario", report.Scenario,
		"mode", report.Mode,
		"run_id", report.RunID,
		"steps", len(report.Steps),
		"delivered", len(report.Entries),
		"absorbed", len(report.Failures),
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Microsecond),
	}
	if report.Passed() {
		logger.Info("Scenario passed", attrs...)
	} else {
		logger.Error("Scenario failed", append(attrs, "failed_steps", len(report.FailedSteps()))...)
	}
}

// errorString carries a recorded error message back into an error value.
type errorString string

func (e errorString) Error() string { return string(e) }
