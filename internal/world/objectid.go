package world

import (
	"sync/atomic"

	"github.com/udisondev/npcmind/internal/model"
)

// ObjectIDGenerator hands out unique entity ids for everything in a world.
//
// ID ranges (convention):
//
//	0x00000000:              invalid
//	0x00000001 - 0x0FFFFFFF: reserved for fixed scene ids
//	0x10000000 - 0x1FFFFFFF: citizens and other passive actors
//	0x20000000 - 0x2FFFFFFF: NPCs
//	0x30000000 - 0x3FFFFFFF: props (ropes)
type ObjectIDGenerator struct {
	nextCitizenID atomic.Uint32
	nextNpcID     atomic.Uint32
	nextPropID    atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextCitizenID.Store(0x10000000)
	gen.nextNpcID.Store(0x20000000)
	gen.nextPropID.Store(0x30000000)
	return gen
}

// NextCitizenID generates next citizen id.
// Thread-safe via atomic increment.
func (g *ObjectIDGenerator) NextCitizenID() model.EntityID {
	return model.EntityID(g.nextCitizenID.Add(1))
}

// NextNpcID generates next NPC id.
// Thread-safe via atomic increment.
func (g *ObjectIDGenerator) NextNpcID() model.EntityID {
	return model.EntityID(g.nextNpcID.Add(1))
}

// NextPropID generates next prop id.
func (g *ObjectIDGenerator) NextPropID() model.EntityID {
	return model.EntityID(g.nextPropID.Add(1))
}

// IsNpcID reports whether id lies in the NPC range.
func IsNpcID(id model.EntityID) bool {
	return id >= 0x20000000 && id < 0x30000000
}

var globalIDGenerator = NewObjectIDGenerator()

// IDGenerator returns global object ID generator.
// Thread-safe singleton.
func IDGenerator() *ObjectIDGenerator {
	return globalIDGenerator
}
