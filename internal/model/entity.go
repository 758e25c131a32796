package model

// EntityID is a handle to a world entity. 0 is the invalid handle.
// Handles may go stale: always resolve through the world before use.
type EntityID uint32

// NoEntity is the invalid handle.
const NoEntity EntityID = 0

// Valid reports whether the handle is non-zero. It does not check that
// the entity still exists.
func (id EntityID) Valid() bool {
	return id != NoEntity
}

// Entity is the read-only view of a world entity the AI core needs.
type Entity interface {
	ID() EntityID
	Name() string
	Position() Vector
	EyePosition() Vector
	IsAlive() bool
}

// Attachment is a world object tied to an entity, such as a rope, that
// must be severed before its owner goes away.
type Attachment interface {
	Detach()
}
