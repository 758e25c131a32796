package ai

import (
	"sync/atomic"
	"time"
)

// Clock returns simulation time elapsed since the simulation started.
type Clock interface {
	Now() time.Duration
}

// SimClock is a Clock advanced explicitly by the tick loop.
// Reads are atomic so NPCs created from other goroutines can observe it.
type SimClock struct {
	now atomic.Int64
}

// NewSimClock creates a clock at time zero.
func NewSimClock() *SimClock {
	return &SimClock{}
}

// Now returns current simulation time.
func (c *SimClock) Now() time.Duration {
	return time.Duration(c.now.Load())
}

// Advance moves the clock forward by d and returns the new time.
func (c *SimClock) Advance(d time.Duration) time.Duration {
	return time.Duration(c.now.Add(int64(d)))
}

// Set moves the clock to t. Used when restoring a saved simulation.
func (c *SimClock) Set(t time.Duration) {
	c.now.Store(int64(t))
}
