package model

// State is the coarse NPC state the base decision logic works from.
type State int32

const (
	// StateIdle - no enemy known, standing or wandering
	StateIdle State = iota
	// StateAlert - suspicious, recently lost an enemy or was warned
	StateAlert
	// StateCombat - has an enemy
	StateCombat
	// StateScript - driven directly by scripted movement, behaviors suspended
	StateScript
	// StateDead - killed, no longer ticks
	StateDead
)

// String returns human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAlert:
		return "ALERT"
	case StateCombat:
		return "COMBAT"
	case StateScript:
		return "SCRIPT"
	case StateDead:
		return "DEAD"
	default:
		return "UNKNOWN"
	}
}
