package ai

import (
	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/model"
)

// Module is the forward contract of a behavior module: the calls the
// BehaviorController makes into the module that currently drives the NPC.
//
// Implementations embed Base, which supplies a default for every call.
// The defaults of SelectSchedule, TranslateSchedule, SelectFailSchedule,
// StartTask and RunTask mark the call as not overridden, so the controller
// falls through to the NPC's own logic (the back bridge). A module therefore
// only implements the calls it wants to take over.
type Module interface {
	// Name is a stable identity used in logs and snapshots.
	Name() string
	// ClassTag selects the module's id space. Modules of the same class share one.
	ClassTag() string
	// Schedules declares the module's schedules using its local ids.
	Schedules() []Schedule

	// CanSelectSchedule is the per-tick eligibility predicate.
	CanSelectSchedule() bool
	// GatherConditions runs while the module is active. suppressBase is true
	// when the NPC's base gather already ran this tick and must not run again.
	GatherConditions(suppressBase bool)
	// GatherConditionsNotActive is a cheap hook run while another module
	// (or the NPC itself) drives the tick.
	GatherConditionsNotActive()

	SelectSchedule() ScheduleID
	TranslateSchedule(id ScheduleID) ScheduleID
	SelectFailSchedule(failed ScheduleID, failedTask TaskID, code FailCode) ScheduleID
	StartTask(task Task)
	RunTask(task Task)

	// BeginScheduleSelection is called when the module becomes active.
	BeginScheduleSelection()
	// EndScheduleSelection is called when the module stops being active.
	EndScheduleSelection()
	// OnKilled is called on every installed module when the NPC dies.
	OnKilled()
	// OnCleanup is called on every installed module when the NPC is removed.
	OnCleanup()
	// OnRestore is called after a snapshot has been applied.
	OnRestore()

	base() *Base
}

// StatefulModule is a module with private state that survives save/restore.
type StatefulModule interface {
	Module
	SaveState() ([]byte, error)
	RestoreState(data []byte) error
}

// PositionInfluencer is a secondary, lower-weight capability: a module may
// want to influence where the host stands without taking full control.
type PositionInfluencer interface {
	WantsPositionInfluence() bool
	// InfluencePosition is the point the module would like the host to
	// attend to. ok is false when it has none right now.
	InfluencePosition() (pos model.Vector, ok bool)
}

// Base carries the module side of the bridge. Embed it by value.
type Base struct {
	ctrl  *BehaviorController
	class string

	overrode bool

	eligible     bool
	eligibleTick uint64
}

func (b *Base) base() *Base { return b }

// Controller returns the owning controller, nil before AddModule.
func (b *Base) Controller() *BehaviorController {
	return b.ctrl
}

// IsActive reports whether the module currently drives the NPC.
func (b *Base) IsActive() bool {
	return b.ctrl != nil && b.ctrl.active != nil && b.ctrl.active.base() == b
}

// Eligible returns the eligibility cached during this tick's resolution.
func (b *Base) Eligible() bool {
	return b.ctrl != nil && b.eligibleTick == b.ctrl.tick && b.eligible
}

// Schedules declares no schedules.
func (b *Base) Schedules() []Schedule { return nil }

// CanSelectSchedule defaults to eligible.
func (b *Base) CanSelectSchedule() bool { return true }

// GatherConditions runs the NPC's base gather unless suppressed.
func (b *Base) GatherConditions(suppressBase bool) {
	if suppressBase {
		return
	}
	b.ctrl.bridge.BaseGatherConditions()
}

// GatherConditionsNotActive does nothing by default.
func (b *Base) GatherConditionsNotActive() {}

// SelectSchedule is not overridden by default.
func (b *Base) SelectSchedule() ScheduleID {
	b.overrode = false
	return SchedNone
}

// TranslateSchedule is not overridden by default.
func (b *Base) TranslateSchedule(id ScheduleID) ScheduleID {
	b.overrode = false
	return id
}

// SelectFailSchedule is not overridden by default.
func (b *Base) SelectFailSchedule(ScheduleID, TaskID, FailCode) ScheduleID {
	b.overrode = false
	return SchedNone
}

// StartTask is not overridden by default.
func (b *Base) StartTask(Task) {
	b.overrode = false
}

// RunTask is not overridden by default.
func (b *Base) RunTask(Task) {
	b.overrode = false
}

func (b *Base) BeginScheduleSelection() {}
func (b *Base) EndScheduleSelection()   {}
func (b *Base) OnKilled()               {}
func (b *Base) OnCleanup()              {}
func (b *Base) OnRestore()              {}

// Back-bridge helpers. They let an overriding module still reach the NPC's
// own logic for part of its answer.

// BaseSelectSchedule returns the NPC's own schedule choice.
func (b *Base) BaseSelectSchedule() ScheduleID {
	return b.ctrl.bridge.BaseSelectSchedule()
}

// BaseTranslateSchedule runs the NPC's own translation on id (local or base).
func (b *Base) BaseTranslateSchedule(id ScheduleID) ScheduleID {
	return b.ctrl.bridge.BaseTranslateSchedule(b.GlobalSchedule(id))
}

// BaseStartTask hands a task to the NPC's own task logic.
func (b *Base) BaseStartTask(task Task) {
	task.ID = b.GlobalTask(task.ID)
	b.ctrl.bridge.BaseStartTask(task)
}

// BaseRunTask hands a running task to the NPC's own task logic.
func (b *Base) BaseRunTask(task Task) {
	task.ID = b.GlobalTask(task.ID)
	b.ctrl.bridge.BaseRunTask(task)
}

// Condition access in the module's local numbering.

// SetCondition sets a local or base condition on the NPC.
func (b *Base) SetCondition(id ConditionID) {
	b.ctrl.conds.Set(b.GlobalCondition(id))
}

// ClearCondition clears a local or base condition on the NPC.
func (b *Base) ClearCondition(id ConditionID) {
	b.ctrl.conds.Clear(b.GlobalCondition(id))
}

// HasCondition tests a local or base condition on the NPC.
func (b *Base) HasCondition(id ConditionID) bool {
	return b.ctrl.conds.Has(b.GlobalCondition(id))
}

// IsCurSchedule reports whether the NPC runs the given local or base schedule.
func (b *Base) IsCurSchedule(id ScheduleID) bool {
	return b.ctrl.bridge.CurrentSchedule() == b.GlobalSchedule(id)
}

// ClearSchedule forces the NPC to reselect its schedule.
func (b *Base) ClearSchedule(reason string) {
	b.ctrl.bridge.ClearSchedule(reason)
}

// GlobalSchedule translates a local schedule id; base ids pass through.
func (b *Base) GlobalSchedule(id ScheduleID) ScheduleID {
	return ScheduleID(b.ctrl.ids.ToGlobal(idspace.KindSchedule, b.class, int(id)))
}

// GlobalTask translates a local task id; base ids pass through.
func (b *Base) GlobalTask(id TaskID) TaskID {
	return TaskID(b.ctrl.ids.ToGlobal(idspace.KindTask, b.class, int(id)))
}

// GlobalCondition translates a local condition id; base ids pass through.
func (b *Base) GlobalCondition(id ConditionID) ConditionID {
	return ConditionID(b.ctrl.ids.ToGlobal(idspace.KindCondition, b.class, int(id)))
}
