package testutil

import "github.com/udisondev/npcmind/internal/model"

// FakeEntity is a mutable entity for tests.
type FakeEntity struct {
	EntityID   model.EntityID
	EntityName string
	Pos        model.Vector
	EyeHeight  float64
	Alive      bool
}

func (e *FakeEntity) ID() model.EntityID { return e.EntityID }
func (e *FakeEntity) Name() string       { return e.EntityName }
func (e *FakeEntity) Position() model.Vector {
	return e.Pos
}
func (e *FakeEntity) EyePosition() model.Vector {
	return e.Pos.Add(model.Vec(0, 0, e.EyeHeight))
}
func (e *FakeEntity) IsAlive() bool { return e.Alive }

// Entities is an in-memory entity lookup with a line-of-sight switch.
type Entities struct {
	byID    map[model.EntityID]*FakeEntity
	blocked map[model.EntityID]bool
}

// NewEntities creates an empty world.
func NewEntities() *Entities {
	return &Entities{
		byID:    make(map[model.EntityID]*FakeEntity),
		blocked: make(map[model.EntityID]bool),
	}
}

// Spawn adds a live entity at pos and returns it.
func (w *Entities) Spawn(id model.EntityID, name string, pos model.Vector) *FakeEntity {
	e := &FakeEntity{EntityID: id, EntityName: name, Pos: pos, EyeHeight: 64, Alive: true}
	w.byID[id] = e
	return e
}

// Remove deletes an entity so its handle goes stale.
func (w *Entities) Remove(id model.EntityID) {
	delete(w.byID, id)
}

// Entity resolves a handle.
func (w *Entities) Entity(id model.EntityID) (model.Entity, bool) {
	e, ok := w.byID[id]
	if !ok {
		return nil, false
	}
	return e, true
}

// Get returns the concrete fake for mutation.
func (w *Entities) Get(id model.EntityID) *FakeEntity {
	return w.byID[id]
}

// BlockSight makes target invisible to everyone.
func (w *Entities) BlockSight(target model.EntityID, blocked bool) {
	w.blocked[target] = blocked
}

// CanSee reports line of sight from a point to an entity.
func (w *Entities) CanSee(_ model.Vector, target model.EntityID) bool {
	if _, ok := w.byID[target]; !ok {
		return false
	}
	return !w.blocked[target]
}
