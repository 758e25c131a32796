package ai

import "github.com/udisondev/npcmind/internal/model"

// Controller is the per-NPC entry point driven by TickManager.
type Controller interface {
	// Start starts AI controller
	Start()

	// Stop stops AI controller
	Stop()

	// Name returns the NPC name used in logs
	Name() string

	// CurrentState returns current NPC state
	CurrentState() model.State

	// Tick performs one simulation step
	Tick()
}
