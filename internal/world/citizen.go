package world

import (
	"log/slog"
	"sync"

	"github.com/udisondev/npcmind/internal/model"
)

// CitizenEyeHeight is the eye height of a standing citizen.
const CitizenEyeHeight = 64

// Citizen is a passive actor: it wanders where the scene puts it and can
// be hurt.
type Citizen struct {
	id   model.EntityID
	name string

	mu     sync.RWMutex
	pos    model.Vector
	health int
}

// NewCitizen creates a citizen.
func NewCitizen(id model.EntityID, name string, pos model.Vector, health int) *Citizen {
	return &Citizen{id: id, name: name, pos: pos, health: health}
}

func (c *Citizen) ID() model.EntityID { return c.id }
func (c *Citizen) Name() string       { return c.name }

func (c *Citizen) Position() model.Vector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pos
}

func (c *Citizen) EyePosition() model.Vector {
	return c.Position().Add(model.Vec(0, 0, CitizenEyeHeight))
}

func (c *Citizen) IsAlive() bool {
	return c.Health() > 0
}

// SetPosition moves the citizen.
func (c *Citizen) SetPosition(pos model.Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos = pos
}

// Health returns current health.
func (c *Citizen) Health() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.health
}

// TakeDamage reduces health; the citizen dies at zero.
func (c *Citizen) TakeDamage(amount int, attacker model.EntityID) {
	c.mu.Lock()
	if c.health <= 0 {
		c.mu.Unlock()
		return
	}
	c.health = max(c.health-amount, 0)
	dead := c.health == 0
	c.mu.Unlock()

	if dead {
		slog.Info("citizen killed", "citizen", c.name, "attacker", attacker)
	}
}
