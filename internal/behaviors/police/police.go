// Package police implements the harass behavior of a police officer guarding
// a post: escalating verbal warnings to a target loitering near the post,
// a time-boxed hostile phase once the warnings run out, and a return to the
// post whenever the officer strays from it.
package police

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/interest"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/npc"
	"github.com/udisondev/npcmind/internal/speech"
)

// Class is the id-space tag of the module.
const Class = "police"

func init() {
	Register(idspace.Default())
}

// Register declares the module's id space in r.
func Register(r *idspace.Registry) {
	r.Register(Class, idspace.LocalBase)
}

// Schedules.
const (
	SchedWarnTarget ai.ScheduleID = idspace.LocalBase + iota
	SchedFaceTarget
	SchedReturnFromHarass
)

// Tasks.
const (
	TaskFaceTarget ai.TaskID = idspace.LocalBase + iota
	TaskWarnTarget
)

// Conditions.
const (
	// CondTargetTooClose: the target is inside the warning radius of the post.
	CondTargetTooClose ai.ConditionID = idspace.LocalBase + iota
	// CondTargetTooCloseSuppress: the target is inside the suppress radius.
	// This is the close-range trigger that keeps the hostile phase alive.
	CondTargetTooCloseSuppress
	CondOutsidePostRadius
)

// PostArriveDistance is how close to the post counts as being back at it.
const PostArriveDistance = 16.0

// State of the harass state machine.
type State int

const (
	StateDisabled State = iota
	StateIdle
	StateHarassing
	StateHostile
	StateReturning
)

func (s State) String() string {
	switch s {
	case StateDisabled:
		return "DISABLED"
	case StateIdle:
		return "IDLE_AT_POST"
	case StateHarassing:
		return "HARASSING"
	case StateHostile:
		return "HOSTILE"
	case StateReturning:
		return "RETURNING"
	default:
		return "UNKNOWN"
	}
}

// Host is what the module needs from the NPC.
type Host interface {
	Name() string
	Position() model.Vector
	EyePosition() model.Vector
	Now() time.Duration
	World() npc.World
	SetEnemy(id model.EntityID)
	ClearEnemy()
	FaceEntity(id model.EntityID) bool
	SetGoalPosition(p model.Vector)
	SetWeaponActive(on bool)
	Speech() *speech.Queue
	Interest() *interest.Queue
	TaskComplete()
	TaskFail(code ai.FailCode)
}

// Goal describes the post and who is harassed there.
type Goal struct {
	Post       model.Vector
	PostRadius float64
	// WarnRadius around the post inside which the target is warned.
	WarnRadius float64
	// SuppressRadius around the post inside which a hostile target stays hostile.
	SuppressRadius float64
	Target         model.EntityID
	// RemainAtPost keeps the officer from chasing a hostile target.
	RemainAtPost bool
}

// Params tune the module.
type Params struct {
	MaxWarnings      int
	AggressionWindow time.Duration
	RearmMin         time.Duration
	RearmMax         time.Duration
	WarningLines     []string
	HostileLine      string
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		MaxWarnings:      4,
		AggressionWindow: 4 * time.Second,
		RearmMin:         4 * time.Second,
		RearmMax:         6 * time.Second,
		WarningLines:     []string{"move_along_a", "move_along_b", "move_along_c"},
		HostileLine:      "cop_hostile",
	}
}

// Module is the police behavior.
type Module struct {
	ai.Base

	host Host
	goal *Goal
	p    Params
	rng  *rand.Rand

	onFirstHostile func(target model.EntityID)

	state        State
	warnings     int
	nextWarnAt   time.Duration
	hostileUntil time.Duration
	firstHostile bool
	knockOut     bool
	updatedTick  uint64
}

var _ ai.StatefulModule = (*Module)(nil)

// New creates a disabled module; SetGoal enables it.
func New(host Host, p Params) *Module {
	if len(p.WarningLines) == 0 {
		panic("police: no warning lines configured")
	}
	return &Module{
		host: host,
		p:    p,
		rng:  rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// SetRand replaces the random source used for re-arm delays.
func (m *Module) SetRand(r *rand.Rand) { m.rng = r }

// OnFirstHostile sets the output fired the first time the target turns hostile.
func (m *Module) OnFirstHostile(fn func(target model.EntityID)) { m.onFirstHostile = fn }

// SetGoal assigns the post. nil disables the module.
func (m *Module) SetGoal(g *Goal) {
	m.goal = g
	if g == nil {
		m.disable("goal removed")
		return
	}
	if m.state == StateDisabled {
		m.state = StateIdle
	}
}

// Goal returns the current post, nil when disabled.
func (m *Module) Goal() *Goal { return m.goal }

// State returns the harass state.
func (m *Module) State() State { return m.state }

// Warnings returns warnings given to the current target.
func (m *Module) Warnings() int { return m.warnings }

// Hostile reports whether the target is being suppressed.
func (m *Module) Hostile() bool { return m.state == StateHostile }

// KnockOut asks for immediate suppression, skipping the warnings.
// It takes effect on the next gather if the target is visible.
func (m *Module) KnockOut() {
	m.knockOut = true
}

func (m *Module) Name() string     { return "police" }
func (m *Module) ClassTag() string { return Class }

func (m *Module) Schedules() []ai.Schedule {
	return []ai.Schedule{
		{
			ID:   SchedWarnTarget,
			Name: "police_warn_target",
			Tasks: []ai.Task{
				{ID: npc.TaskStopMoving},
				{ID: TaskFaceTarget},
				{ID: TaskWarnTarget},
				{ID: npc.TaskWait, Data: 1},
			},
			Interrupts: []ai.ConditionID{CondOutsidePostRadius, npc.CondHeavyDamage},
		},
		{
			ID:         SchedFaceTarget,
			Name:       "police_face_target",
			Tasks:      []ai.Task{{ID: npc.TaskStopMoving}, {ID: TaskFaceTarget}, {ID: npc.TaskWait, Data: 1}},
			Interrupts: []ai.ConditionID{CondOutsidePostRadius, npc.CondHeavyDamage},
		},
		{
			ID:   SchedReturnFromHarass,
			Name: "police_return_from_harass",
			Tasks: []ai.Task{
				{ID: npc.TaskGetPathToGoal},
				{ID: npc.TaskWaitForMovement},
				{ID: TaskFaceTarget},
			},
			Interrupts: []ai.ConditionID{npc.CondHeavyDamage},
		},
	}
}

// CanSelectSchedule claims the NPC while there is something to do at the post.
func (m *Module) CanSelectSchedule() bool {
	switch m.state {
	case StateHarassing, StateHostile, StateReturning:
		return true
	default:
		return false
	}
}

func (m *Module) GatherConditions(suppressBase bool) {
	m.Base.GatherConditions(suppressBase)
	m.update()
}

func (m *Module) GatherConditionsNotActive() {
	m.update()
}

func (m *Module) SelectSchedule() ai.ScheduleID {
	switch m.state {
	case StateReturning:
		m.host.SetGoalPosition(m.goal.Post)
		return SchedReturnFromHarass
	case StateHostile:
		if m.HasCondition(CondOutsidePostRadius) {
			m.host.SetGoalPosition(m.goal.Post)
			return SchedReturnFromHarass
		}
	case StateHarassing:
		if m.host.Now() >= m.nextWarnAt && m.HasCondition(CondTargetTooClose) {
			return SchedWarnTarget
		}
		return SchedFaceTarget
	}
	return m.Base.SelectSchedule()
}

func (m *Module) TranslateSchedule(id ai.ScheduleID) ai.ScheduleID {
	if m.goal != nil && m.goal.RemainAtPost && id == npc.SchedChaseEnemy {
		return npc.SchedCombatFace
	}
	return m.Base.TranslateSchedule(id)
}

func (m *Module) SelectFailSchedule(failed ai.ScheduleID, failedTask ai.TaskID, code ai.FailCode) ai.ScheduleID {
	if failed == SchedReturnFromHarass && code == ai.FailNoRoute {
		// Cannot get back: hold position and keep an eye on the target.
		return SchedFaceTarget
	}
	return m.Base.SelectFailSchedule(failed, failedTask, code)
}

func (m *Module) StartTask(task ai.Task) {
	switch task.ID {
	case TaskFaceTarget:
		if m.goal == nil || !m.host.FaceEntity(m.goal.Target) {
			m.host.TaskFail(ai.FailTargetInvalid)
			return
		}
		m.host.Interest().Add(m.goal.Target, 1, 2*time.Second, 0.2)
		m.host.TaskComplete()

	case TaskWarnTarget:
		if m.goal == nil {
			m.host.TaskFail(ai.FailTargetInvalid)
			return
		}
		m.warn()
		m.host.TaskComplete()

	default:
		m.Base.StartTask(task)
	}
}

func (m *Module) EndScheduleSelection() {
	if m.state != StateHostile {
		m.host.SetWeaponActive(false)
	}
}

// update advances the state machine once per tick.
func (m *Module) update() {
	t := m.Controller().Tick()
	if t == m.updatedTick {
		return
	}
	m.updatedTick = t

	if m.goal == nil {
		m.state = StateDisabled
		return
	}
	target, ok := m.host.World().Entity(m.goal.Target)
	if !ok || !target.IsAlive() {
		m.disable("goal target gone")
		return
	}

	now := m.host.Now()
	tdist := target.Position().Distance(m.goal.Post)
	tooClose := tdist <= m.goal.WarnRadius
	suppress := tdist <= m.goal.SuppressRadius
	outside := m.host.Position().Distance(m.goal.Post) > m.goal.PostRadius

	if tooClose {
		m.SetCondition(CondTargetTooClose)
	}
	if suppress {
		m.SetCondition(CondTargetTooCloseSuppress)
	}
	if outside {
		m.SetCondition(CondOutsidePostRadius)
	}

	if m.knockOut {
		m.knockOut = false
		if m.host.World().CanSee(m.host.EyePosition(), m.goal.Target) {
			m.becomeHostile()
			return
		}
	}

	switch m.state {
	case StateHostile:
		if suppress {
			m.hostileUntil = now + m.p.AggressionWindow
		}
		if now > m.hostileUntil {
			m.calmDown()
			return
		}
		if outside && !m.IsCurSchedule(SchedReturnFromHarass) {
			m.ClearSchedule("left post radius")
		}
	case StateIdle, StateHarassing:
		switch {
		case outside:
			m.state = StateReturning
		case tooClose:
			m.state = StateHarassing
		default:
			m.state = StateIdle
		}
	case StateReturning:
		if m.atPost() {
			m.state = StateIdle
			if tooClose {
				m.state = StateHarassing
			}
		}
	}
}

func (m *Module) atPost() bool {
	return m.host.Position().Distance(m.goal.Post) <= PostArriveDistance
}

func (m *Module) warn() {
	m.warnings++
	m.nextWarnAt = m.host.Now() + m.rearmDelay()

	if m.warnings >= m.p.MaxWarnings {
		m.becomeHostile()
		return
	}

	line := m.p.WarningLines[min(m.warnings, len(m.p.WarningLines))-1]
	m.host.Speech().SpeakQueued(line, speech.PriorityMedium, speech.CriteriaNormal)

	if ai.IsDebugEnabled() {
		slog.Debug("police warning",
			"npc", m.host.Name(),
			"target", m.goal.Target,
			"warnings", m.warnings,
			"line", line)
	}
}

func (m *Module) rearmDelay() time.Duration {
	spread := m.p.RearmMax - m.p.RearmMin
	if spread <= 0 {
		return m.p.RearmMin
	}
	return m.p.RearmMin + time.Duration(m.rng.Int64N(int64(spread)+1))
}

func (m *Module) becomeHostile() {
	m.state = StateHostile
	m.warnings = max(m.warnings, m.p.MaxWarnings)
	m.hostileUntil = m.host.Now() + m.p.AggressionWindow
	m.host.SetEnemy(m.goal.Target)
	m.host.SetWeaponActive(true)
	m.ClearSchedule("target became hostile")

	if m.firstHostile {
		return
	}
	m.firstHostile = true
	m.host.Speech().Speak(m.p.HostileLine, speech.PriorityHigh, speech.CriteriaAlways)
	if m.onFirstHostile != nil {
		m.onFirstHostile(m.goal.Target)
	}
	slog.Info("police target turned hostile",
		"npc", m.host.Name(),
		"target", m.goal.Target)
}

func (m *Module) calmDown() {
	m.warnings = 0
	m.host.ClearEnemy()
	m.host.SetWeaponActive(false)
	m.state = StateIdle
	if !m.atPost() {
		m.state = StateReturning
	}
	m.ClearSchedule("aggression window expired")

	if ai.IsDebugEnabled() {
		slog.Debug("police calmed down", "npc", m.host.Name(), "state", m.state)
	}
}

func (m *Module) disable(reason string) {
	if m.state == StateDisabled {
		return
	}
	if m.state == StateHostile {
		m.host.ClearEnemy()
	}
	m.host.SetWeaponActive(false)
	m.state = StateDisabled
	m.goal = nil
	m.warnings = 0
	slog.Warn("police behavior disabled", "npc", m.host.Name(), "reason", reason)
}

type savedState struct {
	State        State         `json:"state"`
	Goal         *Goal         `json:"goal,omitempty"`
	Warnings     int           `json:"warnings"`
	NextWarnAt   time.Duration `json:"next_warn_at"`
	HostileUntil time.Duration `json:"hostile_until"`
	FirstHostile bool          `json:"first_hostile"`
}

func (m *Module) SaveState() ([]byte, error) {
	return json.Marshal(savedState{
		State:        m.state,
		Goal:         m.goal,
		Warnings:     m.warnings,
		NextWarnAt:   m.nextWarnAt,
		HostileUntil: m.hostileUntil,
		FirstHostile: m.firstHostile,
	})
}

func (m *Module) RestoreState(data []byte) error {
	var s savedState
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding police state: %w", err)
	}
	m.state = s.State
	m.goal = s.Goal
	m.warnings = s.Warnings
	m.nextWarnAt = s.NextWarnAt
	m.hostileUntil = s.HostileUntil
	m.firstHostile = s.FirstHostile
	return nil
}
