package world

import (
	"time"

	"github.com/udisondev/npcmind/internal/model"
)

// Navigator moves along straight lines at a fixed speed.
// Goals farther than MaxRoute are unreachable. One per NPC.
type Navigator struct {
	speed    float64
	maxRoute float64

	goal   model.Vector
	routed bool
}

// NewNavigator creates a navigator. maxRoute <= 0 means unlimited.
func NewNavigator(speed, maxRoute float64) *Navigator {
	return &Navigator{speed: speed, maxRoute: maxRoute}
}

// SetGoal plans a route to to.
func (n *Navigator) SetGoal(from, to model.Vector) bool {
	if n.maxRoute > 0 && from.Distance(to) > n.maxRoute {
		n.routed = false
		return false
	}
	n.goal, n.routed = to, true
	return true
}

// ClearGoal drops the route.
func (n *Navigator) ClearGoal() {
	n.routed = false
}

// HasRoute reports whether a route is being followed.
func (n *Navigator) HasRoute() bool {
	return n.routed
}

// Step advances towards the goal by dt.
func (n *Navigator) Step(from model.Vector, dt time.Duration) (model.Vector, bool) {
	if !n.routed {
		return from, false
	}
	dir, dist := n.goal.Sub(from).Normalized()
	step := n.speed * dt.Seconds()
	if step >= dist {
		return n.goal, true
	}
	return from.Add(dir.Scale(step)), false
}
