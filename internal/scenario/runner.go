package scenario

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brianly1003/evbus/internal/bus"
	"github.com/brianly1003/evbus/internal/domain"
	"github.com/brianly1003/evbus/internal/domain/events"
	"github.com/brianly1003/evbus/internal/domain/ports"
	"github.com/brianly1003/evbus/internal/subscribers"
)

// Options holds the defaults a scenario can override.
type Options struct {
	Mode        bus.Mode
	Markers     []string
	FailureHook string
	Logger      *zerolog.Logger
}

// Runner executes scenarios, each on a fresh bus.
type Runner struct {
	opts   Options
	logger zerolog.Logger
}

// NewRunner creates a runner. A zero Mode defaults to annotation.
func NewRunner(opts Options) *Runner {
	if !opts.Mode.Valid() {
		opts.Mode = bus.ModeAnnotation
	}
	if opts.FailureHook == "" {
		opts.FailureHook = HookNone
	}
	logger := log.With().Str("component", "scenario").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Runner{opts: opts, logger: logger}
}

// StepResult is the outcome of one step.
type StepResult struct {
	Index       int    `json:"index"`
	Action      string `json:"action"`
	ExpectError string `json:"expect_error,omitempty"`
	Error       string `json:"error,omitempty"`
	Passed      bool   `json:"passed"`
}

// Entry is a ledger entry with the subscriber replaced by its scenario name.
type Entry struct {
	Seq        uint64           `json:"seq"`
	DispatchID string           `json:"dispatch_id"`
	EventType  events.EventType `json:"event_type"`
	Subscriber string           `json:"subscriber"`
	Handler    string           `json:"handler"`
	PostedAt   time.Time        `json:"posted_at"`
	Event      any              `json:"event"`
}

// Report is the result of one run.
type Report struct {
	RunID      string                    `json:"run_id"`
	Scenario   string                    `json:"scenario"`
	Mode       string                    `json:"mode"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Steps      []StepResult              `json:"steps"`
	Entries    []Entry                   `json:"entries"`
	Failures   []string                  `json:"failures,omitempty"`
	State      map[string]map[string]any `json:"state,omitempty"`
}

// Passed reports whether every step met its expectation.
func (r *Report) Passed() bool {
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return true
}

// FailedSteps returns the steps that did not meet their expectation.
func (r *Report) FailedSteps() []StepResult {
	var out []StepResult
	for _, s := range r.Steps {
		if !s.Passed {
			out = append(out, s)
		}
	}
	return out
}

// run holds the state of one scenario execution.
type run struct {
	bus      *bus.Bus
	eventBus ports.EventBus
	subs     map[string]any
	names    map[any]string
	logger   zerolog.Logger

	mu       sync.Mutex
	failures []string
}

// HandleFailure collects failures absorbed by the bus.
func (r *run) HandleFailure(err error) {
	r.mu.Lock()
	r.failures = append(r.failures, err.Error())
	r.mu.Unlock()

	r.logger.Warn().Err(err).Msg("Handler failed")
}

// Run executes sc on a fresh bus. Step failures are recorded in the
// report; an error is returned only when the run could not be set up or
// ctx was cancelled.
func (r *Runner) Run(ctx context.Context, sc *Scenario) (*Report, error) {
	mode := r.opts.Mode
	if sc.Mode != "" {
		m, err := bus.ParseMode(sc.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Scenario:  sc.Name,
		Mode:      mode.String(),
		StartedAt: time.Now(),
	}
	logger := r.logger.With().Str("run_id", report.RunID).Str("scenario", sc.Name).Logger()

	b, err := bus.New(mode, bus.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	rn := &run{
		bus:      b,
		eventBus: b,
		subs:     make(map[string]any, len(sc.Subscribers)),
		names:    make(map[any]string, len(sc.Subscribers)),
		logger:   logger,
	}

	// An explicit empty list leaves the bus without markers.
	markers := sc.Markers
	if markers == nil {
		markers = r.opts.Markers
		if len(markers) == 0 {
			markers = DefaultMarkers(mode)
		}
	}
	if len(markers) > 0 {
		if err := b.AddMarkers(parseMarkers(mode, markers)...); err != nil {
			return nil, fmt.Errorf("failed to configure markers: %w", err)
		}
	}

	hook := sc.FailureHook
	if hook == "" {
		hook = r.opts.FailureHook
	}
	if hook == HookLog {
		if err := b.SetFailureHook(rn); err != nil {
			return nil, err
		}
	}

	for _, def := range sc.Subscribers {
		sub, err := subscribers.New(def.Kind)
		if err != nil {
			return nil, err
		}
		rn.subs[def.Name] = sub
		rn.names[sub] = def.Name
	}

	logger.Info().Int("steps", len(sc.Steps)).Str("failure_hook", hook).Msg("Running scenario")

	for i, step := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := rn.exec(step)
		result := StepResult{
			Index:       i,
			Action:      step.Action(),
			ExpectError: step.ExpectError,
			Passed:      meetsExpectation(err, step.ExpectError),
		}
		if err != nil {
			result.Error = err.Error()
		}
		report.Steps = append(report.Steps, result)

		ev := logger.Debug()
		if !result.Passed {
			ev = logger.Warn()
		}
		ev.Int("step", i).Str("action", result.Action).AnErr("result", err).Bool("passed", result.Passed).Msg("Step finished")
	}

	report.Entries = rn.entries()
	report.Failures = rn.failures
	report.State = rn.state()
	report.FinishedAt = time.Now()

	logger.Info().
		Bool("passed", report.Passed()).
		Int("entries", len(report.Entries)).
		Int("absorbed_failures", len(report.Failures)).
		Msg("Scenario finished")
	return report, nil
}

func (rn *run) exec(step Step) error {
	switch {
	case step.AddMarkers != nil:
		return rn.bus.AddMarkers(parseMarkers(rn.bus.Mode(), step.AddMarkers)...)
	case step.SetFailureHook != "":
		return rn.bus.SetFailureHook(rn)
	case step.Register != "":
		return rn.eventBus.Register(rn.subs[step.Register])
	case step.Unregister != "":
		return rn.eventBus.Unregister(rn.subs[step.Unregister])
	case step.Post != nil:
		ev, err := step.Post.Event()
		if err != nil {
			return err
		}
		return rn.eventBus.Post(ev)
	case step.Clear:
		rn.bus.ClearPosted()
		return nil
	default:
		return errors.New("empty step")
	}
}

func (rn *run) entries() []Entry {
	posted := rn.bus.Snapshot()
	out := make([]Entry, 0, len(posted))
	for _, p := range posted {
		e := Entry{
			Seq:        p.Seq,
			DispatchID: p.DispatchID,
			Subscriber: rn.names[p.Subscriber],
			Handler:    p.Handler,
			PostedAt:   p.PostedAt,
			Event:      p.Event,
		}
		if ev, ok := p.Event.(events.Event); ok {
			e.EventType = ev.Type()
		}
		out = append(out, e)
	}
	return out
}

func (rn *run) state() map[string]map[string]any {
	out := make(map[string]map[string]any, len(rn.subs))
	for name, sub := range rn.subs {
		if s, ok := sub.(subscribers.Stater); ok {
			out[name] = s.State()
		}
	}
	return out
}

// DefaultMarkers returns the markers matching the handlers in package
// subscribers.
func DefaultMarkers(mode bus.Mode) []string {
	if mode == bus.ModeMethodName {
		return subscribers.MethodNames()
	}
	return []string{subscribers.Tag}
}

// parseMarkers turns names into markers of the active mode. A "tag:" or
// "method:" prefix forces the kind, so a scenario can assert wrong-mode
// errors.
func parseMarkers(mode bus.Mode, names []string) []bus.Marker {
	out := make([]bus.Marker, 0, len(names))
	for _, name := range names {
		switch {
		case strings.HasPrefix(name, "tag:"):
			out = append(out, bus.Tag(strings.TrimPrefix(name, "tag:")))
		case strings.HasPrefix(name, "method:"):
			out = append(out, bus.MethodName(strings.TrimPrefix(name, "method:")))
		case mode == bus.ModeMethodName:
			out = append(out, bus.MethodName(name))
		default:
			out = append(out, bus.Tag(name))
		}
	}
	return out
}

func meetsExpectation(err error, expect string) bool {
	switch expect {
	case "":
		return err == nil
	case ExpectConfiguration:
		return errors.Is(err, domain.ErrConfiguration)
	case ExpectValidation:
		return errors.Is(err, domain.ErrValidation)
	case ExpectDispatch:
		return errors.Is(err, domain.ErrDispatch)
	default:
		return false
	}
}
