package bus

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Option configures a Bus.
type Option func(*busConfig)

type busConfig struct {
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
	hook    FailureHook
	hasHook bool
}

func defaultBusConfig() busConfig {
	return busConfig{
		logger: log.With().Str("component", "bus").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// WithLogger sets the logger used for registration and dispatch records.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *busConfig) {
		c.logger = logger
	}
}

// WithClock sets the clock used to stamp ledger entries.
func WithClock(now func() time.Time) Option {
	return func(c *busConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithDispatchIDs sets the generator for per-post dispatch IDs.
func WithDispatchIDs(newID func() string) Option {
	return func(c *busConfig) {
		if newID != nil {
			c.newID = newID
		}
	}
}

// WithFailureHook installs the failure hook at construction. It counts as
// the one allowed SetFailureHook. New fails if h is nil, including a typed
// nil such as FailureHookFunc(nil).
func WithFailureHook(h FailureHook) Option {
	return func(c *busConfig) {
		c.hook = h
		c.hasHook = true
	}
}
