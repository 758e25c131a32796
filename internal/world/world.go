package world

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/udisondev/npcmind/internal/model"
)

// World is the in-memory entity registry of a scene.
// Safe for concurrent use.
type World struct {
	entities sync.Map // map[model.EntityID]model.Entity
	count    atomic.Int32
	ids      *ObjectIDGenerator

	mu        sync.RWMutex
	occluders []Occluder
}

// Occluder is a vertical cylinder that blocks line of sight, such as a pillar.
type Occluder struct {
	Center model.Vector
	Radius float64
}

// New creates an empty world with its own id generator.
func New() *World {
	return &World{ids: NewObjectIDGenerator()}
}

// IDs returns the world's id generator.
func (w *World) IDs() *ObjectIDGenerator {
	return w.ids
}

// Add registers e. Returns error if the id is invalid or taken.
func (w *World) Add(e model.Entity) error {
	if !e.ID().Valid() {
		return fmt.Errorf("adding %s: invalid entity id", e.Name())
	}
	if _, loaded := w.entities.LoadOrStore(e.ID(), e); loaded {
		return fmt.Errorf("adding %s: entity %d already exists", e.Name(), e.ID())
	}
	w.count.Add(1)
	return nil
}

// Remove unregisters the entity. Unknown ids are ignored.
func (w *World) Remove(id model.EntityID) {
	if _, ok := w.entities.LoadAndDelete(id); ok {
		w.count.Add(-1)
	}
}

// Entity resolves a handle.
func (w *World) Entity(id model.EntityID) (model.Entity, bool) {
	value, ok := w.entities.Load(id)
	if !ok {
		return nil, false
	}
	return value.(model.Entity), true
}

// Count returns number of registered entities.
func (w *World) Count() int {
	return int(w.count.Load())
}

// Each calls fn for every entity until fn returns false.
func (w *World) Each(fn func(e model.Entity) bool) {
	w.entities.Range(func(_, value any) bool {
		return fn(value.(model.Entity))
	})
}

// AddOccluder adds a sight blocker.
func (w *World) AddOccluder(o Occluder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.occluders = append(w.occluders, o)
}

// CanSee reports whether the eyes of a living target are visible from
// the given point. Occluders are tested in the ground plane.
func (w *World) CanSee(from model.Vector, target model.EntityID) bool {
	e, ok := w.Entity(target)
	if !ok || !e.IsAlive() {
		return false
	}
	to := e.EyePosition()

	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, o := range w.occluders {
		if segmentDistance2D(from, to, o.Center) < o.Radius {
			return false
		}
	}
	return true
}

// segmentDistance2D returns the distance from p to segment ab, ignoring Z.
func segmentDistance2D(a, b, p model.Vector) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y

	t := 0.0
	if l2 := abx*abx + aby*aby; l2 > 0 {
		t = min(max((apx*abx+apy*aby)/l2, 0), 1)
	}
	return math.Hypot(a.X+abx*t-p.X, a.Y+aby*t-p.Y)
}
