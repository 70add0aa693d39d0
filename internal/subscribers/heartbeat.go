package subscribers

import (
	"fmt"
	"sync/atomic"

	"github.com/brianly1003/evbus/internal/domain/events"
)

// HeartbeatCounter counts heartbeats and rejects out-of-order sequences.
type HeartbeatCounter struct {
	HandleHeartbeat func(*events.Heartbeat) error `evbus:"heartbeat"`

	count atomic.Int64
	last  atomic.Int64
}

// NewHeartbeatCounter creates a counter with its handler field wired.
func NewHeartbeatCounter() *HeartbeatCounter {
	c := &HeartbeatCounter{}
	c.HandleHeartbeat = c.OnHeartbeat
	return c
}

// OnHeartbeat counts the heartbeat.
func (c *HeartbeatCounter) OnHeartbeat(e *events.Heartbeat) error {
	if prev := c.last.Load(); e.Sequence <= prev && c.count.Load() > 0 {
		return fmt.Errorf("heartbeat sequence %d is not after %d", e.Sequence, prev)
	}
	c.last.Store(e.Sequence)
	c.count.Add(1)
	return nil
}

// Count returns the number of accepted heartbeats.
func (c *HeartbeatCounter) Count() int64 {
	return c.count.Load()
}

// State implements Stater.
func (c *HeartbeatCounter) State() map[string]any {
	return map[string]any{
		"count":         c.count.Load(),
		"last_sequence": c.last.Load(),
	}
}
