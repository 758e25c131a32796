package npc

import (
	"time"

	"github.com/udisondev/npcmind/internal/model"
)

// Collaborators are injected at construction. The demo implementations
// live in internal/world; tests use internal/testutil.

// Navigator plans and follows routes.
type Navigator interface {
	// SetGoal plans a route; false means there is no route.
	SetGoal(from, to model.Vector) bool
	ClearGoal()
	HasRoute() bool
	// Step advances along the route and returns the new position.
	Step(from model.Vector, dt time.Duration) (pos model.Vector, arrived bool)
}

// Animator resolves named animation controls to small integer handles.
type Animator interface {
	LookupPoseParameter(name string) (int, bool)
	LookupFlexController(name string) (int, bool)
	SetPoseParameter(npc model.EntityID, handle int, value float64)
	SetFlexWeight(npc model.EntityID, handle int, value float64)
}

// SoundSystem looks sentences up and plays them.
type SoundSystem interface {
	// PickSentence draws a random sentence of a group.
	PickSentence(root string) (index int, ok bool)
	// PlaySentence starts a sentence and returns its handle and length.
	PlaySentence(speaker model.EntityID, index int) (handle int, length time.Duration)
}

// Physics answers ground queries.
type Physics interface {
	// GroundHeight returns the Z of the ground below pos.
	GroundHeight(pos model.Vector) float64
}

// World looks entities up and answers visibility.
type World interface {
	Entity(id model.EntityID) (model.Entity, bool)
	CanSee(from model.Vector, target model.EntityID) bool
}

// Clock returns current simulation time.
type Clock interface {
	Now() time.Duration
}
