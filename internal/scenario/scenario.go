// Package scenario loads YAML scenario files and runs them against a bus.
//
// A scenario declares named subscribers and a list of steps:
//
//	name: sessions
//	mode: method_name
//	failure_hook: log
//	subscribers:
//	  - name: tracker
//	    kind: session_tracker
//	steps:
//	  - register: tracker
//	  - post:
//	      type: session_started
//	      payload: {session_id: s1}
//	  - post: {type: heartbeat}
//	    expect_error: dispatch
package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brianly1003/evbus/internal/bus"
	"github.com/brianly1003/evbus/internal/domain/events"
	"github.com/brianly1003/evbus/internal/subscribers"
)

// Failure hook settings.
const (
	HookNone = "none"
	HookLog  = "log"
)

// Expected error categories.
const (
	ExpectConfiguration = "configuration"
	ExpectValidation    = "validation"
	ExpectDispatch      = "dispatch"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description,omitempty"`
	Mode        string          `yaml:"mode,omitempty"`
	Markers     []string        `yaml:"markers,omitempty"`
	FailureHook string          `yaml:"failure_hook,omitempty"`
	Subscribers []SubscriberDef `yaml:"subscribers"`
	Steps       []Step          `yaml:"steps"`
}

// SubscriberDef declares a named subscriber instance.
type SubscriberDef struct {
	Name string           `yaml:"name"`
	Kind subscribers.Kind `yaml:"kind"`
}

// Step is one action. Exactly one action field is set.
type Step struct {
	AddMarkers     []string  `yaml:"add_markers,omitempty"`
	SetFailureHook string    `yaml:"set_failure_hook,omitempty"`
	Register       string    `yaml:"register,omitempty"`
	Unregister     string    `yaml:"unregister,omitempty"`
	Post           *PostStep `yaml:"post,omitempty"`
	Clear          bool      `yaml:"clear,omitempty"`
	ExpectError    string    `yaml:"expect_error,omitempty"`
}

// PostStep names an event type and its payload.
type PostStep struct {
	Type    events.EventType `yaml:"type"`
	Payload yaml.Node        `yaml:"payload,omitempty"`
}

// Action describes the step for reports and logs.
func (s Step) Action() string {
	switch {
	case s.AddMarkers != nil:
		return "add_markers " + strings.Join(s.AddMarkers, ",")
	case s.SetFailureHook != "":
		return "set_failure_hook " + s.SetFailureHook
	case s.Register != "":
		return "register " + s.Register
	case s.Unregister != "":
		return "unregister " + s.Unregister
	case s.Post != nil:
		return "post " + string(s.Post.Type)
	case s.Clear:
		return "clear"
	default:
		return "empty"
	}
}

// Event decodes the payload into a fresh event of the step's type.
func (p *PostStep) Event() (events.Event, error) {
	ev, err := events.New(p.Type)
	if err != nil {
		return nil, err
	}
	if p.Payload.Kind == 0 {
		return ev, nil
	}
	if err := p.Payload.Decode(ev); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", p.Type, err)
	}
	return ev, nil
}

// Load reads and parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks the scenario for structural errors. Bus errors such as a
// bad marker are left to the run, where expect_error can assert them.
func (sc *Scenario) Validate() error {
	var errs []string

	if sc.Name == "" {
		errs = append(errs, "name is required")
	}
	if sc.Mode != "" {
		if _, err := bus.ParseMode(sc.Mode); err != nil {
			errs = append(errs, err.Error())
		}
	}
	switch sc.FailureHook {
	case "", HookNone, HookLog:
	default:
		errs = append(errs, fmt.Sprintf("failure_hook must be %s or %s, got %q", HookNone, HookLog, sc.FailureHook))
	}

	names := make(map[string]bool, len(sc.Subscribers))
	for i, def := range sc.Subscribers {
		if def.Name == "" {
			errs = append(errs, fmt.Sprintf("subscribers[%d]: name is required", i))
			continue
		}
		if names[def.Name] {
			errs = append(errs, fmt.Sprintf("subscribers[%d]: duplicate name %q", i, def.Name))
		}
		names[def.Name] = true
		if _, err := subscribers.New(def.Kind); err != nil {
			errs = append(errs, fmt.Sprintf("subscribers[%d]: %v", i, err))
		}
	}

	if len(sc.Steps) == 0 {
		errs = append(errs, "at least one step is required")
	}
	for i, step := range sc.Steps {
		if err := step.validate(names); err != nil {
			errs = append(errs, fmt.Sprintf("steps[%d]: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid scenario:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (s Step) validate(names map[string]bool) error {
	actions := 0
	if s.AddMarkers != nil {
		actions++
	}
	if s.SetFailureHook != "" {
		actions++
		if s.SetFailureHook != HookLog {
			return fmt.Errorf("set_failure_hook must be %s, got %q", HookLog, s.SetFailureHook)
		}
	}
	if s.Register != "" {
		actions++
		if !names[s.Register] {
			return fmt.Errorf("unknown subscriber %q", s.Register)
		}
	}
	if s.Unregister != "" {
		actions++
		if !names[s.Unregister] {
			return fmt.Errorf("unknown subscriber %q", s.Unregister)
		}
	}
	if s.Post != nil {
		actions++
		if _, err := s.Post.Event(); err != nil {
			return err
		}
	}
	if s.Clear {
		actions++
	}
	if actions != 1 {
		return fmt.Errorf("exactly one action is required, got %d", actions)
	}

	switch s.ExpectError {
	case "", ExpectConfiguration, ExpectValidation, ExpectDispatch:
		return nil
	default:
		return fmt.Errorf("expect_error must be %s, %s or %s, got %q",
			ExpectConfiguration, ExpectValidation, ExpectDispatch, s.ExpectError)
	}
}
