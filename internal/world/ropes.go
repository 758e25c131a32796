package world

import (
	"log/slog"
	"sync"

	"github.com/udisondev/npcmind/internal/model"
)

// Rope is a rappel rope hanging from an anchor.
type Rope struct {
	id     model.EntityID
	anchor model.Vector
	owner  model.EntityID
	ropes  *Ropes
	once   sync.Once
}

// ID returns the rope's prop id.
func (r *Rope) ID() model.EntityID { return r.id }

// Anchor returns where the rope hangs from.
func (r *Rope) Anchor() model.Vector { return r.anchor }

// Detach removes the rope. Later calls do nothing.
func (r *Rope) Detach() {
	r.once.Do(func() {
		r.ropes.remove(r.id)
		slog.Debug("rope detached", "rope", r.id, "owner", r.owner)
	})
}

// Ropes creates ropes with ids from the world and tracks the hanging ones.
type Ropes struct {
	w *World

	mu     sync.Mutex
	active map[model.EntityID]*Rope
}

// NewRopes creates a rope factory for w.
func NewRopes(w *World) *Ropes {
	return &Ropes{w: w, active: make(map[model.EntityID]*Rope)}
}

// AttachRope hangs a new rope for owner.
func (f *Ropes) AttachRope(anchor model.Vector, owner model.EntityID) model.Attachment {
	r := &Rope{id: f.w.IDs().NextPropID(), anchor: anchor, owner: owner, ropes: f}

	f.mu.Lock()
	f.active[r.id] = r
	f.mu.Unlock()

	slog.Debug("rope attached", "rope", r.id, "owner", owner, "anchor", anchor)
	return r
}

// Active returns number of hanging ropes.
func (f *Ropes) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func (f *Ropes) remove(id model.EntityID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, id)
}
