// Package follow keeps an NPC close to a leader entity while it has no
// enemy of its own.
package follow

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/npc"
)

// Class is the id-space tag of the module.
const Class = "follow"

func init() {
	Register(idspace.Default())
}

// Register declares the module's id space in r.
func Register(r *idspace.Registry) {
	r.Register(Class, idspace.LocalBase)
}

// Schedules.
const (
	SchedFollow ai.ScheduleID = idspace.LocalBase + iota
	SchedFollowWait
)

// Tasks.
const (
	TaskSetFollowGoal ai.TaskID = idspace.LocalBase + iota
	TaskFaceTarget
)

// Conditions.
const (
	CondTargetTooFar ai.ConditionID = idspace.LocalBase + iota
	CondTargetLost
)

// Host is what the module needs from the NPC.
type Host interface {
	Name() string
	Position() model.Vector
	Enemy() model.EntityID
	World() npc.World
	FaceEntity(id model.EntityID) bool
	SetGoalPosition(p model.Vector)
	TaskComplete()
	TaskFail(code ai.FailCode)
}

// Params tune the module.
type Params struct {
	// Distance the follower settles at.
	Distance float64
	// StartDistance beyond which the follower starts moving again.
	StartDistance float64
	// WaitTime between checks while close enough.
	WaitTime time.Duration
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		Distance:      96,
		StartDistance: 192,
		WaitTime:      time.Second,
	}
}

// Module is the follow behavior.
type Module struct {
	ai.Base

	host   Host
	p      Params
	target model.EntityID
}

var (
	_ ai.StatefulModule     = (*Module)(nil)
	_ ai.PositionInfluencer = (*Module)(nil)
)

// New creates a module with no target.
func New(host Host, p Params) *Module {
	return &Module{host: host, p: p}
}

// SetTarget sets the entity to follow. An invalid id stops following.
func (m *Module) SetTarget(id model.EntityID) {
	if id == m.target {
		return
	}
	m.target = id
	if m.IsActive() {
		m.ClearSchedule("follow target changed")
	}
}

// Target returns the followed entity.
func (m *Module) Target() model.EntityID { return m.target }

func (m *Module) Name() string     { return "follow" }
func (m *Module) ClassTag() string { return Class }

func (m *Module) Schedules() []ai.Schedule {
	return []ai.Schedule{
		{
			ID:   SchedFollow,
			Name: "follow_target",
			Tasks: []ai.Task{
				{ID: TaskSetFollowGoal},
				{ID: npc.TaskGetPathToGoal},
				{ID: npc.TaskWaitForMovement},
				{ID: TaskFaceTarget},
			},
			Interrupts: []ai.ConditionID{CondTargetLost, npc.CondNewEnemy, npc.CondHeavyDamage},
		},
		{
			ID:   SchedFollowWait,
			Name: "follow_wait",
			Tasks: []ai.Task{
				{ID: npc.TaskStopMoving},
				{ID: TaskFaceTarget},
				{ID: npc.TaskWait, Data: m.p.WaitTime.Seconds()},
			},
			Interrupts: []ai.ConditionID{CondTargetTooFar, CondTargetLost, npc.CondNewEnemy, npc.CondHeavyDamage},
		},
	}
}

// CanSelectSchedule is true while the target exists and there is no enemy.
func (m *Module) CanSelectSchedule() bool {
	if m.host.Enemy().Valid() {
		return false
	}
	_, ok := m.targetEntity()
	return ok
}

// WantsPositionInfluence is true while there is someone to stay close to.
func (m *Module) WantsPositionInfluence() bool {
	return m.target.Valid()
}

// InfluencePosition is where the follow target stands.
func (m *Module) InfluencePosition() (model.Vector, bool) {
	e, ok := m.targetEntity()
	if !ok {
		return model.Vector{}, false
	}
	return e.Position(), true
}

func (m *Module) GatherConditions(suppressBase bool) {
	m.Base.GatherConditions(suppressBase)

	e, ok := m.targetEntity()
	if !ok {
		m.SetCondition(CondTargetLost)
		return
	}
	if e.Position().Distance(m.host.Position()) > m.p.StartDistance {
		m.SetCondition(CondTargetTooFar)
	}
}

func (m *Module) GatherConditionsNotActive() {
	if m.target.Valid() {
		if _, ok := m.targetEntity(); !ok {
			slog.Info("follow target lost", "npc", m.host.Name(), "target", m.target)
			m.target = model.NoEntity
		}
	}
}

func (m *Module) SelectSchedule() ai.ScheduleID {
	if m.HasCondition(CondTargetTooFar) {
		return SchedFollow
	}
	return SchedFollowWait
}

func (m *Module) SelectFailSchedule(failed ai.ScheduleID, failedTask ai.TaskID, code ai.FailCode) ai.ScheduleID {
	if failed == SchedFollow && code == ai.FailNoRoute {
		return SchedFollowWait
	}
	return m.Base.SelectFailSchedule(failed, failedTask, code)
}

func (m *Module) StartTask(task ai.Task) {
	switch task.ID {
	case TaskSetFollowGoal:
		e, ok := m.targetEntity()
		if !ok {
			m.host.TaskFail(ai.FailTargetInvalid)
			return
		}
		m.host.SetGoalPosition(m.followPoint(e.Position()))
		m.host.TaskComplete()

	case TaskFaceTarget:
		if !m.host.FaceEntity(m.target) {
			m.host.TaskFail(ai.FailTargetInvalid)
			return
		}
		m.host.TaskComplete()

	default:
		m.Base.StartTask(task)
	}
}

// followPoint is the spot Distance short of the target on the line from
// the follower.
func (m *Module) followPoint(target model.Vector) model.Vector {
	dir, dist := m.host.Position().Sub(target).Normalized()
	if dist <= m.p.Distance {
		return m.host.Position()
	}
	return target.Add(dir.Scale(m.p.Distance))
}

func (m *Module) targetEntity() (model.Entity, bool) {
	if !m.target.Valid() {
		return nil, false
	}
	e, ok := m.host.World().Entity(m.target)
	if !ok || !e.IsAlive() {
		return nil, false
	}
	return e, true
}

type savedState struct {
	Target model.EntityID `json:"target"`
}

func (m *Module) SaveState() ([]byte, error) {
	return json.Marshal(savedState{Target: m.target})
}

func (m *Module) RestoreState(data []byte) error {
	var s savedState
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding follow state: %w", err)
	}
	m.target = s.Target
	return nil
}
