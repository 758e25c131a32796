// Package interest keeps the weighted, time-limited list of things an NPC
// wants to look at. Head and eye aim read the queue every tick.
package interest

import (
	"math"
	"time"

	"github.com/udisondev/npcmind/internal/model"
)

// DefaultHalfLife is the ease-in half-life, as a fraction of the ramp zone.
const DefaultHalfLife = 0.2

// Kind says what a target refers to.
type Kind int

const (
	// KindEntity follows an entity's eye position; inactive once the entity is gone.
	KindEntity Kind = iota
	// KindPosition looks at a fixed point.
	KindPosition
	// KindBoth follows an entity while it exists and falls back to a fixed point.
	KindBoth
)

// Clock returns current simulation time.
type Clock interface {
	Now() time.Duration
}

// Resolver looks entities up by handle. ok is false when the handle is stale.
type Resolver interface {
	Entity(id model.EntityID) (model.Entity, bool)
}

// Target is one entry of the queue.
type Target struct {
	Kind       Kind
	Entity     model.EntityID
	Pos        model.Vector
	Importance float64
	Start      time.Duration
	End        time.Duration
	Ramp       float64
}

// Queue is owned by a single NPC. Not thread-safe.
type Queue struct {
	clock    Clock
	world    Resolver
	halfLife float64
	targets  []*Target
}

// NewQueue creates an empty queue. halfLife <= 0 selects DefaultHalfLife.
func NewQueue(clock Clock, world Resolver, halfLife float64) *Queue {
	if halfLife <= 0 {
		halfLife = DefaultHalfLife
	}
	return &Queue{clock: clock, world: world, halfLife: halfLife}
}

// Add queues an entity look target.
// importance is the plateau weight, duration the lifetime, ramp the fraction
// of the lifetime spent easing in and, again, easing out.
func (q *Queue) Add(id model.EntityID, importance float64, duration time.Duration, ramp float64) {
	q.add(&Target{Kind: KindEntity, Entity: id}, importance, duration, ramp)
}

// AddPosition queues a fixed-point look target.
func (q *Queue) AddPosition(pos model.Vector, importance float64, duration time.Duration, ramp float64) {
	q.add(&Target{Kind: KindPosition, Pos: pos}, importance, duration, ramp)
}

// AddBoth queues an entity target with a fallback position.
func (q *Queue) AddBoth(id model.EntityID, pos model.Vector, importance float64, duration time.Duration, ramp float64) {
	q.add(&Target{Kind: KindBoth, Entity: id, Pos: pos}, importance, duration, ramp)
}

func (q *Queue) add(t *Target, importance float64, duration time.Duration, ramp float64) {
	now := q.clock.Now()

	// Coalesce with an existing entry for the same thing. Two adds in the
	// same tick keep the stronger importance; a later add replaces outright.
	for i, old := range q.targets {
		if !old.sameAs(t) {
			continue
		}
		if old.Start == now {
			importance = max(importance, old.Importance)
		}
		q.targets = append(q.targets[:i], q.targets[i+1:]...)
		break
	}

	t.Importance = importance
	t.Start = now
	t.End = now + duration
	t.Ramp = min(max(ramp, 0), 1)
	q.targets = append(q.targets, t)
}

func (t *Target) sameAs(o *Target) bool {
	if t.Kind == KindPosition || o.Kind == KindPosition {
		return t.Kind == o.Kind && t.Pos == o.Pos
	}
	return t.Entity == o.Entity
}

// Len returns number of entries, active or not.
func (q *Queue) Len() int {
	return len(q.targets)
}

// Targets returns the entries in insertion order.
func (q *Queue) Targets() []*Target {
	return q.targets
}

// Cleanup drops entries whose window closed or whose entity is gone.
func (q *Queue) Cleanup() {
	kept := q.targets[:0]
	for _, t := range q.targets {
		if q.IsActive(t) {
			kept = append(kept, t)
		}
	}
	clear(q.targets[len(kept):])
	q.targets = kept
}

// Clear drops every entry.
func (q *Queue) Clear() {
	q.targets = nil
}

// IsActive reports whether t is inside its window and still refers to something.
func (q *Queue) IsActive(t *Target) bool {
	if t.End < q.clock.Now() {
		return false
	}
	if t.Kind == KindEntity {
		e, ok := q.world.Entity(t.Entity)
		return ok && e.IsAlive()
	}
	return true
}

// Position returns where to look for t, refreshing the snapshot from the entity when it exists.
func (q *Queue) Position(t *Target) model.Vector {
	if t.Kind != KindPosition {
		if e, ok := q.world.Entity(t.Entity); ok {
			t.Pos = e.EyePosition()
		}
	}
	return t.Pos
}

// Interest returns the current weight of t: 0 outside its window, eased in
// during the leading ramp zone, eased out during the trailing one, and exactly
// Importance in between.
func (q *Queue) Interest(t *Target) float64 {
	span := t.End - t.Start
	if span <= 0 {
		return 0
	}

	x := float64(q.clock.Now()-t.Start) / float64(span)
	if x < 0 || x > 1 {
		return 0
	}

	// Each zone takes at most half the window.
	zone := min(t.Ramp, 0.5)

	w := 1.0
	switch {
	case zone > 0 && x < zone:
		w = easeIn(x/zone, q.halfLife)
	case zone > 0 && x > 1-zone:
		w = smoothstep((1 - x) / zone)
	}
	return w * t.Importance
}

// Best returns the active entry with the highest current interest.
func (q *Queue) Best() (*Target, float64) {
	var best *Target
	bestW := 0.0
	for _, t := range q.targets {
		if !q.IsActive(t) {
			continue
		}
		if w := q.Interest(t); w > bestW {
			best, bestW = t, w
		}
	}
	return best, bestW
}

// easeIn rises from 0 to 1 over u in [0, 1] following the complement of an
// exponential decay with the given half-life, renormalized to hit 1 at u = 1.
func easeIn(u, halfLife float64) float64 {
	decay := func(x float64) float64 { return math.Exp2(-x / halfLife) }
	return (1 - decay(u)) / (1 - decay(1))
}

// smoothstep eases s in [0, 1] with 3s² − 2s³.
func smoothstep(s float64) float64 {
	return s * s * (3 - 2*s)
}
