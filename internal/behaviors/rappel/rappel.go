// Package rappel lowers an NPC from an anchor point down a rope to the
// ground, then walks it clear of the landing spot.
package rappel

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/npc"
)

// Class is the id-space tag of the module.
const Class = "rappel"

func init() {
	Register(idspace.Default())
}

// Register declares the module's id space in r.
func Register(r *idspace.Registry) {
	r.Register(Class, idspace.LocalBase)
}

// Schedules.
const (
	SchedWaitForRappel ai.ScheduleID = idspace.LocalBase + iota
	SchedRappel
	SchedClearRappelPoint
)

// Tasks.
const (
	TaskRappel ai.TaskID = idspace.LocalBase + iota
	TaskSetClearGoal
	TaskMarkCleared
)

// Conditions.
const (
	CondBeginRappel ai.ConditionID = idspace.LocalBase + iota
)

// State of a rappel.
type State int

const (
	StateWaiting State = iota
	StateDescending
	StateLanded
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "WAITING"
	case StateDescending:
		return "DESCENDING"
	case StateLanded:
		return "LANDED"
	default:
		return "UNKNOWN"
	}
}

// RopeFactory creates the rope an NPC slides down.
type RopeFactory interface {
	AttachRope(anchor model.Vector, owner model.EntityID) model.Attachment
}

// Host is what the module needs from the NPC.
type Host interface {
	ID() model.EntityID
	Name() string
	Position() model.Vector
	SetPosition(p model.Vector)
	Yaw() float64
	Now() time.Duration
	DeltaTime() time.Duration
	Physics() npc.Physics
	SetGoalPosition(p model.Vector)
	TaskComplete()
	TaskFail(code ai.FailCode)
}

// Params tune the descent.
type Params struct {
	// MinSpeed and MaxSpeed bound the descent speed in units per second.
	MinSpeed float64
	MaxSpeed float64
	// MaxDrop is the drop at which MaxSpeed is reached.
	MaxDrop float64
	// DecelDistance above the ground where the NPC starts braking.
	DecelDistance float64
	// ClearDistance the NPC walks away from the landing spot.
	ClearDistance float64
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		MinSpeed:      60,
		MaxSpeed:      600,
		MaxDrop:       1000,
		DecelDistance: 200,
		ClearDistance: 128,
	}
}

// Module is the rappel behavior.
type Module struct {
	ai.Base

	host  Host
	ropes RopeFactory
	p     Params

	state   State
	begin   bool
	cleared bool
	anchor  model.Vector
	speed   float64
	rope    model.Attachment
}

var (
	_ ai.StatefulModule     = (*Module)(nil)
	_ ai.PositionInfluencer = (*Module)(nil)
)

// New creates a module waiting for BeginRappel.
func New(host Host, ropes RopeFactory, p Params) *Module {
	if ropes == nil {
		panic("rappel: no rope factory")
	}
	return &Module{host: host, ropes: ropes, p: p}
}

// BeginRappel starts the descent on the next tick. It is ignored once the
// NPC has left the anchor.
func (m *Module) BeginRappel() {
	if m.state == StateWaiting {
		m.begin = true
	}
}

// State returns the rappel state.
func (m *Module) State() State { return m.state }

// Speed returns the descent speed chosen when the rappel began.
func (m *Module) Speed() float64 { return m.speed }

// Roped reports whether a rope is still attached.
func (m *Module) Roped() bool { return m.rope != nil }

// CutRope detaches the rope. Safe to call any number of times.
func (m *Module) CutRope() {
	if m.rope == nil {
		return
	}
	m.rope.Detach()
	m.rope = nil
	if ai.IsDebugEnabled() {
		slog.Debug("rappel rope detached", "npc", m.host.Name(), "state", m.state)
	}
}

func (m *Module) Name() string     { return "rappel" }
func (m *Module) ClassTag() string { return Class }

func (m *Module) Schedules() []ai.Schedule {
	return []ai.Schedule{
		{
			ID:         SchedWaitForRappel,
			Name:       "rappel_wait",
			Tasks:      []ai.Task{{ID: npc.TaskStopMoving}, {ID: npc.TaskWait, Data: 1}},
			Interrupts: []ai.ConditionID{CondBeginRappel},
		},
		{
			ID:    SchedRappel,
			Name:  "rappel_descend",
			Tasks: []ai.Task{{ID: TaskRappel}},
		},
		{
			ID:   SchedClearRappelPoint,
			Name: "rappel_clear_point",
			Tasks: []ai.Task{
				{ID: TaskSetClearGoal},
				{ID: npc.TaskGetPathToGoal},
				{ID: npc.TaskWaitForMovement},
				{ID: TaskMarkCleared},
			},
		},
	}
}

// CanSelectSchedule holds the NPC until it has cleared the landing spot.
func (m *Module) CanSelectSchedule() bool {
	return !m.cleared
}

// WantsPositionInfluence is true while the NPC hangs on the rope.
func (m *Module) WantsPositionInfluence() bool {
	return m.state != StateLanded
}

// InfluencePosition is the landing spot below the NPC.
func (m *Module) InfluencePosition() (model.Vector, bool) {
	if m.state == StateLanded {
		return model.Vector{}, false
	}
	p := m.host.Position()
	p.Z = m.host.Physics().GroundHeight(p)
	return p, true
}

func (m *Module) GatherConditions(suppressBase bool) {
	m.Base.GatherConditions(suppressBase)
	if m.begin {
		m.SetCondition(CondBeginRappel)
	}
}

func (m *Module) SelectSchedule() ai.ScheduleID {
	switch m.state {
	case StateWaiting:
		if m.begin {
			return SchedRappel
		}
		return SchedWaitForRappel
	case StateDescending:
		return SchedRappel
	}
	return SchedClearRappelPoint
}

func (m *Module) SelectFailSchedule(failed ai.ScheduleID, failedTask ai.TaskID, code ai.FailCode) ai.ScheduleID {
	if failed == SchedClearRappelPoint {
		// Nowhere to go: stay on the landing spot and hand control back.
		m.cleared = true
	}
	return m.Base.SelectFailSchedule(failed, failedTask, code)
}

func (m *Module) StartTask(task ai.Task) {
	switch task.ID {
	case TaskRappel:
		if m.state == StateWaiting {
			m.startDescent()
		}
		m.descend()

	case TaskSetClearGoal:
		yaw := m.host.Yaw() * math.Pi / 180
		dir := model.Vec(math.Cos(yaw), math.Sin(yaw), 0)
		m.host.SetGoalPosition(m.host.Position().Add(dir.Scale(m.p.ClearDistance)))
		m.host.TaskComplete()

	case TaskMarkCleared:
		m.cleared = true
		m.host.TaskComplete()

	default:
		m.Base.StartTask(task)
	}
}

func (m *Module) RunTask(task ai.Task) {
	if task.ID == TaskRappel {
		m.descend()
		return
	}
	m.Base.RunTask(task)
}

func (m *Module) OnKilled()  { m.CutRope() }
func (m *Module) OnCleanup() { m.CutRope() }

// OnRestore re-creates the rope of an NPC saved mid-descent.
func (m *Module) OnRestore() {
	if m.state == StateDescending && m.rope == nil {
		m.rope = m.ropes.AttachRope(m.anchor, m.host.ID())
	}
}

func (m *Module) startDescent() {
	m.begin = false
	m.anchor = m.host.Position()
	m.state = StateDescending
	m.rope = m.ropes.AttachRope(m.anchor, m.host.ID())

	drop := m.anchor.Z - m.host.Physics().GroundHeight(m.anchor)
	m.speed = m.descentSpeed(drop)

	slog.Info("rappel started",
		"npc", m.host.Name(),
		"drop", drop,
		"speed", m.speed)
}

// descentSpeed scales linearly with the drop between MinSpeed and MaxSpeed.
func (m *Module) descentSpeed(drop float64) float64 {
	if m.p.MaxDrop <= 0 {
		return m.p.MaxSpeed
	}
	f := min(max(drop/m.p.MaxDrop, 0), 1)
	return m.p.MinSpeed + (m.p.MaxSpeed-m.p.MinSpeed)*f
}

// descend moves the NPC down by one tick and lands it on the ground.
func (m *Module) descend() {
	pos := m.host.Position()
	ground := m.host.Physics().GroundHeight(pos)
	height := pos.Z - ground

	speed := m.speed
	if height < m.p.DecelDistance && m.p.DecelDistance > 0 {
		speed = m.p.MinSpeed + (m.speed-m.p.MinSpeed)*height/m.p.DecelDistance
	}
	step := speed * m.host.DeltaTime().Seconds()

	if step < height {
		pos.Z -= step
		m.host.SetPosition(pos)
		return
	}

	pos.Z = ground
	m.host.SetPosition(pos)
	m.state = StateLanded
	m.CutRope()
	m.host.TaskComplete()
	slog.Info("rappel landed", "npc", m.host.Name())
}

type savedState struct {
	State   State        `json:"state"`
	Begin   bool         `json:"begin,omitempty"`
	Cleared bool         `json:"cleared,omitempty"`
	Anchor  model.Vector `json:"anchor"`
	Speed   float64      `json:"speed"`
}

func (m *Module) SaveState() ([]byte, error) {
	return json.Marshal(savedState{
		State:   m.state,
		Begin:   m.begin,
		Cleared: m.cleared,
		Anchor:  m.anchor,
		Speed:   m.speed,
	})
}

func (m *Module) RestoreState(data []byte) error {
	var s savedState
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding rappel state: %w", err)
	}
	m.state = s.State
	m.begin = s.Begin
	m.cleared = s.Cleared
	m.anchor = s.Anchor
	m.speed = s.Speed
	return nil
}
