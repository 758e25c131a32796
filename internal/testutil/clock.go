// Package testutil holds fakes shared by package tests: a manual clock,
// an in-memory entity world and recording collaborators.
package testutil

import "time"

// ManualClock is a clock tests move by hand.
type ManualClock struct {
	now time.Duration
}

// NewManualClock creates a clock at t.
func NewManualClock(t time.Duration) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns current time.
func (c *ManualClock) Now() time.Duration {
	return c.now
}

// Advance moves time forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.now += d
}

// Set jumps to t.
func (c *ManualClock) Set(t time.Duration) {
	c.now = t
}

// Seconds converts fractional seconds to a Duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
