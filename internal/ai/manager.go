package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultTickInterval is the simulation step used when none is configured.
const DefaultTickInterval = 100 * time.Millisecond

// ErrStopped is returned by Do once the manager has been stopped.
var ErrStopped = errors.New("tick manager stopped")

// TickManager ticks all registered NPC controllers from one goroutine and
// advances the shared simulation clock by one interval per tick.
type TickManager struct {
	controllers     sync.Map // map[uint32]Controller — objectID → controller
	interval        time.Duration
	clock           *SimClock
	stopCh          chan struct{}
	calls           chan func()
	stopOnce        sync.Once
	controllerCount atomic.Int32 // cached count of controllers (O(1) access)
	ticks           atomic.Uint64
}

// NewTickManager creates new AI tick manager
func NewTickManager(interval time.Duration, clock *SimClock) *TickManager {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if clock == nil {
		clock = NewSimClock()
	}
	return &TickManager{
		interval: interval,
		clock:    clock,
		stopCh:   make(chan struct{}),
		calls:    make(chan func()),
	}
}

// Clock returns the simulation clock advanced by this manager.
func (m *TickManager) Clock() *SimClock {
	return m.clock
}

// Interval returns the tick interval.
func (m *TickManager) Interval() time.Duration {
	return m.interval
}

// Register registers AI controller for NPC
func (m *TickManager) Register(objectID uint32, controller Controller) {
	if _, loaded := m.controllers.LoadOrStore(objectID, controller); loaded {
		slog.Warn("AI controller already registered", "objectID", objectID)
		return
	}
	m.controllerCount.Add(1) // Update cached count
	controller.Start()

	slog.Debug("AI controller registered",
		"objectID", objectID,
		"npc", controller.Name(),
		"state", controller.CurrentState())
}

// Unregister unregisters AI controller
func (m *TickManager) Unregister(objectID uint32) {
	value, ok := m.controllers.LoadAndDelete(objectID)
	if !ok {
		return
	}

	m.controllerCount.Add(-1) // Update cached count

	controller := value.(Controller)
	controller.Stop()

	slog.Debug("AI controller unregistered", "objectID", objectID)
}

// Start starts AI tick loop (blocks until context is canceled)
func (m *TickManager) Start(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	slog.Info("AI tick manager started", "interval", m.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("AI tick manager stopping")
			return ctx.Err()

		case <-m.stopCh:
			slog.Info("AI tick manager stopped")
			return nil

		case <-ticker.C:
			m.TickOnce()

		case fn := <-m.calls:
			fn()
		}
	}
}

// Do runs fn on the tick goroutine between two ticks and waits for it.
// Controllers are not safe for concurrent use, so anything reading NPC
// state from another goroutine goes through here. Start must be running.
func (m *TickManager) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	call := func() {
		defer close(done)
		fn()
	}

	select {
	case m.calls <- call:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.stopCh:
		return ErrStopped
	}
	<-done
	return nil
}

// Stop stops AI tick loop. Safe to call more than once.
func (m *TickManager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

// TickOnce advances the clock by one interval and ticks every controller.
// Exposed for deterministic tests and single-stepping tools.
func (m *TickManager) TickOnce() {
	m.clock.Advance(m.interval)
	m.ticks.Add(1)

	count := 0
	m.controllers.Range(func(key, value any) bool {
		controller := value.(Controller)
		controller.Tick()
		count++
		return true
	})

	if count > 0 && IsDebugEnabled() {
		slog.Debug("AI tick completed", "controllers", count, "now", m.clock.Now())
	}
}

// Ticks returns number of completed ticks.
func (m *TickManager) Ticks() uint64 {
	return m.ticks.Load()
}

// Count returns number of registered controllers (O(1) cached count)
func (m *TickManager) Count() int {
	return int(m.controllerCount.Load())
}

// GetController returns controller for NPC
func (m *TickManager) GetController(objectID uint32) (Controller, error) {
	value, ok := m.controllers.Load(objectID)
	if !ok {
		return nil, fmt.Errorf("controller not found for objectID %d", objectID)
	}
	return value.(Controller), nil
}

// Each calls fn for every registered controller until fn returns false.
func (m *TickManager) Each(fn func(objectID uint32, c Controller) bool) {
	m.controllers.Range(func(key, value any) bool {
		return fn(key.(uint32), value.(Controller))
	})
}
