package ai

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/model"
)

// BackBridge is the NPC's own decision logic. The controller falls back to
// it whenever no module is active or the active module does not override a call.
type BackBridge interface {
	BaseGatherConditions()
	BaseSelectSchedule() ScheduleID
	BaseTranslateSchedule(id ScheduleID) ScheduleID
	BaseSelectFailSchedule(failed ScheduleID, failedTask TaskID, code FailCode) ScheduleID
	BaseStartTask(task Task)
	BaseRunTask(task Task)

	// CurrentSchedule returns the global id of the schedule being run.
	CurrentSchedule() ScheduleID
	// ClearSchedule drops the current schedule so the next tick reselects.
	ClearSchedule(reason string)
}

// BehaviorController owns the ordered module list of one NPC and decides
// each tick which module, if any, drives it.
// Invariant: active is nil or an element of modules.
// Not thread-safe: an NPC is ticked from a single goroutine.
type BehaviorController struct {
	owner  string
	bridge BackBridge
	ids    *idspace.Table

	modules []Module
	active  Module

	// resolving is the latch raised while ResolveActiveModule runs;
	// claimed records whether any module took control during that call.
	resolving bool
	claimed   bool

	conds     *Conditions
	schedules *ScheduleBook

	tick      uint64
	gathered  bool
	started   bool
	suspended bool
}

// NewBehaviorController creates a controller for the NPC named owner.
func NewBehaviorController(owner string, bridge BackBridge, ids *idspace.Table) *BehaviorController {
	return &BehaviorController{
		owner:     owner,
		bridge:    bridge,
		ids:       ids,
		conds:     NewConditions(),
		schedules: NewScheduleBook(),
	}
}

// AddModule appends m to the priority list and binds it to this controller.
// Only valid during NPC setup: calling it after the first tick, or binding a
// module that already has an owner, panics.
func (c *BehaviorController) AddModule(m Module) {
	if c.started {
		panic(fmt.Sprintf("ai: AddModule(%s) on %s after simulation started", m.Name(), c.owner))
	}
	b := m.base()
	if b.ctrl != nil {
		panic(fmt.Sprintf("ai: module %s already owned by %s", m.Name(), b.ctrl.owner))
	}
	if _, ok := c.ids.Registry().Base(m.ClassTag()); !ok {
		panic(fmt.Sprintf("ai: module %s uses unregistered id space %q", m.Name(), m.ClassTag()))
	}

	b.ctrl = c
	b.class = m.ClassTag()
	c.modules = append(c.modules, m)

	for _, s := range m.Schedules() {
		c.schedules.Define(c.translateSchedule(m, s))
	}

	if IsDebugEnabled() {
		slog.Debug("behavior module added",
			"npc", c.owner,
			"module", m.Name(),
			"index", len(c.modules)-1)
	}
}

func (c *BehaviorController) translateSchedule(m Module, s Schedule) Schedule {
	out := Schedule{
		ID:         c.schedToGlobal(m, s.ID),
		Name:       s.Name,
		Tasks:      make([]Task, len(s.Tasks)),
		Interrupts: make([]ConditionID, len(s.Interrupts)),
	}
	for i, t := range s.Tasks {
		out.Tasks[i] = Task{ID: c.taskToGlobal(m, t.ID), Data: t.Data}
	}
	for i, cond := range s.Interrupts {
		out.Interrupts[i] = c.condToGlobal(m, cond)
	}
	return out
}

// Modules returns installed modules in priority order.
func (c *BehaviorController) Modules() []Module {
	return c.modules
}

// Active returns the active module or nil.
func (c *BehaviorController) Active() Module {
	return c.active
}

// ActiveIndex returns the position of the active module, NoActive if none.
func (c *BehaviorController) ActiveIndex() int {
	for i, m := range c.modules {
		if m == c.active {
			return i
		}
	}
	return NoActive
}

// Conditions returns the NPC's condition set (global ids).
func (c *BehaviorController) Conditions() *Conditions {
	return c.conds
}

// ScheduleBook returns the schedule definitions (global ids).
func (c *BehaviorController) ScheduleBook() *ScheduleBook {
	return c.schedules
}

// IDs returns the id table of the NPC leaf class.
func (c *BehaviorController) IDs() *idspace.Table {
	return c.ids
}

// Tick returns the number of ticks begun so far.
func (c *BehaviorController) Tick() uint64 {
	return c.tick
}

// BeginTick opens a new tick. After it, AddModule is no longer allowed.
func (c *BehaviorController) BeginTick() {
	c.started = true
	c.tick++
	c.gathered = false
}

// SuspendModules keeps the controller on the NPC's own logic while on is true,
// e.g. while the NPC is driven directly toward a point.
func (c *BehaviorController) SuspendModules(on bool, reason string) {
	c.suspended = on
	if on {
		c.Vacate(reason)
	}
}

// Suspended reports whether modules are suspended.
func (c *BehaviorController) Suspended() bool {
	return c.suspended
}

// Vacate synchronously removes the active module.
func (c *BehaviorController) Vacate(reason string) {
	if c.active == nil {
		return
	}
	if IsDebugEnabled() {
		slog.Debug("behavior module vacated",
			"npc", c.owner,
			"module", c.active.Name(),
			"reason", reason)
	}
	c.changeActive(nil)
}

// ResolveActiveModule asks every module in order whether it is eligible.
// The first eligible module becomes active. A module that was active and is
// no longer eligible loses control before any later module is considered.
func (c *BehaviorController) ResolveActiveModule() Module {
	if c.suspended {
		c.Vacate("modules suspended")
		return nil
	}

	c.resolving = true
	c.claimed = false
	defer func() { c.resolving = false }()

	for _, m := range c.modules {
		b := m.base()
		ok := m.CanSelectSchedule()
		b.eligible = ok
		b.eligibleTick = c.tick

		if ok {
			c.changeActive(m)
			break
		}
		if m == c.active {
			c.changeActive(nil)
		}
	}

	if !c.claimed {
		c.changeActive(nil)
	}
	return c.active
}

func (c *BehaviorController) changeActive(to Module) {
	if c.resolving && to != nil {
		c.claimed = true
	}
	if c.active == to {
		return
	}

	prev := c.active
	if prev != nil {
		prev.EndScheduleSelection()
	}
	c.active = to
	if to != nil {
		to.BeginScheduleSelection()
		// Conditions were already gathered this tick: prime the newcomer's
		// own conditions without running the base gather a second time.
		if c.gathered {
			to.GatherConditions(true)
		}
	}

	c.bridge.ClearSchedule("active behavior changed")

	if IsDebugEnabled() {
		slog.Debug("active behavior changed",
			"npc", c.owner,
			"from", moduleName(prev),
			"to", moduleName(to))
	}
}

func moduleName(m Module) string {
	if m == nil {
		return "<none>"
	}
	return m.Name()
}

// GatherConditions runs the cheap inactive hook on every non-active module
// first, then the full gather on the active module or the NPC itself.
func (c *BehaviorController) GatherConditions() {
	for _, m := range c.modules {
		if m != c.active {
			m.GatherConditionsNotActive()
		}
	}

	if c.active != nil {
		c.active.GatherConditions(false)
	} else {
		c.bridge.BaseGatherConditions()
	}
	c.gathered = true
}

// SelectSchedule returns the next schedule in global ids.
func (c *BehaviorController) SelectSchedule() ScheduleID {
	if m := c.active; m != nil {
		b := m.base()
		b.overrode = true
		id := m.SelectSchedule()
		if b.overrode {
			if id != SchedNone {
				return c.schedToGlobal(m, id)
			}
			slog.Warn("behavior overrode schedule selection but returned none, using base logic",
				"npc", c.owner,
				"module", m.Name())
		}
	}
	return c.bridge.BaseSelectSchedule()
}

// TranslateSchedule maps a generic schedule to the one actually run.
func (c *BehaviorController) TranslateSchedule(id ScheduleID) ScheduleID {
	if m := c.active; m != nil {
		b := m.base()
		b.overrode = true
		out := m.TranslateSchedule(c.schedToLocal(m, id))
		if b.overrode {
			return c.schedToGlobal(m, out)
		}
	}
	return c.bridge.BaseTranslateSchedule(id)
}

// SelectFailSchedule picks a recovery schedule after a task failure.
func (c *BehaviorController) SelectFailSchedule(failed ScheduleID, failedTask TaskID, code FailCode) ScheduleID {
	if m := c.active; m != nil {
		b := m.base()
		b.overrode = true
		id := m.SelectFailSchedule(c.schedToLocal(m, failed), c.taskToLocal(m, failedTask), code)
		if b.overrode && id != SchedNone {
			return c.schedToGlobal(m, id)
		}
	}
	return c.bridge.BaseSelectFailSchedule(failed, failedTask, code)
}

// StartTask starts a task given in global ids.
func (c *BehaviorController) StartTask(task Task) {
	if m := c.active; m != nil {
		b := m.base()
		b.overrode = true
		m.StartTask(Task{ID: c.taskToLocal(m, task.ID), Data: task.Data})
		if b.overrode {
			return
		}
	}
	c.bridge.BaseStartTask(task)
}

// RunTask runs a started task given in global ids.
func (c *BehaviorController) RunTask(task Task) {
	if m := c.active; m != nil {
		b := m.base()
		b.overrode = true
		m.RunTask(Task{ID: c.taskToLocal(m, task.ID), Data: task.Data})
		if b.overrode {
			return
		}
	}
	c.bridge.BaseRunTask(task)
}

// NotifyKilled forwards the NPC's death to every installed module.
func (c *BehaviorController) NotifyKilled() {
	for _, m := range c.modules {
		m.OnKilled()
	}
	c.Vacate("npc killed")
}

// Cleanup forwards NPC removal to every installed module.
func (c *BehaviorController) Cleanup() {
	c.Vacate("npc removed")
	for _, m := range c.modules {
		m.OnCleanup()
	}
}

// PositionInfluence returns the first module that wants to influence the
// host's position, whether or not it is active.
func (c *BehaviorController) PositionInfluence() Module {
	if pi := c.positionInfluencer(); pi != nil {
		return pi.(Module)
	}
	return nil
}

// InfluencePosition returns the point of the first module that wants to
// influence the host's position.
func (c *BehaviorController) InfluencePosition() (model.Vector, bool) {
	pi := c.positionInfluencer()
	if pi == nil {
		return model.Vector{}, false
	}
	return pi.InfluencePosition()
}

func (c *BehaviorController) positionInfluencer() PositionInfluencer {
	for _, m := range c.modules {
		if pi, ok := m.(PositionInfluencer); ok && pi.WantsPositionInfluence() {
			return pi
		}
	}
	return nil
}
