package npc

import (
	"fmt"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/speech"
)

// Snapshot is the saved state of one NPC. Interest targets are transient
// and not saved.
type Snapshot struct {
	ID           model.EntityID  `json:"id"`
	Name         string          `json:"name"`
	Class        string          `json:"class"`
	Alive        bool            `json:"alive"`
	Health       int             `json:"health"`
	State        model.State     `json:"state"`
	Position     model.Vector    `json:"position"`
	Yaw          float64         `json:"yaw"`
	Goal         model.Vector    `json:"goal"`
	Enemy        model.EntityID  `json:"enemy"`
	WeaponActive bool            `json:"weapon_active"`
	Schedule     ai.ScheduleID   `json:"schedule"`
	TaskIndex    int             `json:"task_index"`
	Speech       *speech.Pending `json:"speech,omitempty"`
	Behaviors    ai.Snapshot     `json:"behaviors"`
	// Clock is the simulation time the snapshot was taken at. Timers in
	// module state are relative to it.
	Clock time.Duration `json:"clock"`
}

// Snapshot captures the NPC and its behavior modules.
func (n *NPC) Snapshot() (Snapshot, error) {
	behaviors, err := n.Save()
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s: %w", n.name, err)
	}

	s := Snapshot{
		ID:           n.id,
		Name:         n.name,
		Class:        n.class,
		Alive:        n.alive,
		Health:       n.health,
		State:        n.state,
		Position:     n.pos,
		Yaw:          n.yaw,
		Goal:         n.goal,
		Enemy:        n.enemy,
		WeaponActive: n.weaponActive,
		Schedule:     n.CurrentSchedule(),
		TaskIndex:    n.run.index,
		Behaviors:    behaviors,
		Clock:        n.Now(),
	}
	if p, ok := n.speech.Pending(); ok {
		s.Speech = &p
	}
	return s, nil
}

// RestoreSnapshot applies a snapshot to an NPC built by the same setup
// routine. The running task restarts from its beginning.
func (n *NPC) RestoreSnapshot(s Snapshot) error {
	if s.Class != n.class {
		return fmt.Errorf("restore %s: snapshot is for class %s, npc is %s", n.name, s.Class, n.class)
	}
	if err := n.Restore(s.Behaviors); err != nil {
		return err
	}

	n.alive = s.Alive
	n.health = s.Health
	n.state = s.State
	n.pos = s.Position
	n.yaw = s.Yaw
	n.goal = s.Goal
	n.enemy = s.Enemy
	n.lastEnemy = s.Enemy
	n.weaponActive = s.WeaponActive
	n.speech.Restore(s.Speech)
	n.SuspendModules(s.State == model.StateScript, "restored scripted")

	n.run = runner{}
	if s.Schedule != ai.SchedNone {
		if sched, ok := n.ScheduleBook().Lookup(s.Schedule); ok && s.TaskIndex < len(sched.Tasks) {
			n.run = runner{sched: sched, index: s.TaskIndex}
		}
	}
	return nil
}
