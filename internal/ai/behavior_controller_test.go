package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/model"
)

const (
	schedBaseIdle  ScheduleID = 1
	schedBaseFail  ScheduleID = 2
	schedBaseChase ScheduleID = 3
	taskBaseWait   TaskID     = 1

	schedLocalA ScheduleID  = idspace.LocalBase + 1
	schedLocalB ScheduleID  = idspace.LocalBase + 2
	taskLocalA  TaskID      = idspace.LocalBase + 1
	condLocalA  ConditionID = idspace.LocalBase + 1
)

type fakeBridge struct {
	log         *[]string
	gathers     int
	startedBase []Task
	ranBase     []Task
	failArgs    []any
	current     ScheduleID
	clears      int
	translateTo map[ScheduleID]ScheduleID
}

func (b *fakeBridge) BaseGatherConditions() {
	b.gathers++
	*b.log = append(*b.log, "base:gather")
}
func (b *fakeBridge) BaseSelectSchedule() ScheduleID { return schedBaseIdle }
func (b *fakeBridge) BaseTranslateSchedule(id ScheduleID) ScheduleID {
	if to, ok := b.translateTo[id]; ok {
		return to
	}
	return id
}
func (b *fakeBridge) BaseSelectFailSchedule(failed ScheduleID, task TaskID, code FailCode) ScheduleID {
	b.failArgs = []any{failed, task, code}
	return schedBaseFail
}
func (b *fakeBridge) BaseStartTask(t Task)        { b.startedBase = append(b.startedBase, t) }
func (b *fakeBridge) BaseRunTask(t Task)          { b.ranBase = append(b.ranBase, t) }
func (b *fakeBridge) CurrentSchedule() ScheduleID { return b.current }
func (b *fakeBridge) ClearSchedule(string)        { b.clears++ }

type fakeModule struct {
	Base
	name     string
	class    string
	log      *[]string
	eligible bool

	overrideSelect bool
	selectResult   ScheduleID
	translated     []ScheduleID
	overrideTask   bool
	started        []Task
	failSeen       []any
	gatherCalls    []bool
	killed         int
	restored       int
	counter        int
	influence      bool
}

func (f *fakeModule) Name() string     { return f.name }
func (f *fakeModule) ClassTag() string { return f.class }

func (f *fakeModule) Schedules() []Schedule {
	return []Schedule{
		{ID: schedLocalA, Name: f.name + "_a", Tasks: []Task{{ID: taskLocalA}, {ID: taskBaseWait, Data: 1}}, Interrupts: []ConditionID{condLocalA}},
		{ID: schedLocalB, Name: f.name + "_b"},
	}
}

func (f *fakeModule) CanSelectSchedule() bool {
	*f.log = append(*f.log, f.name+":eligible?")
	return f.eligible
}

func (f *fakeModule) GatherConditions(suppressBase bool) {
	f.gatherCalls = append(f.gatherCalls, suppressBase)
	f.Base.GatherConditions(suppressBase)
	*f.log = append(*f.log, f.name+":gather")
}

func (f *fakeModule) GatherConditionsNotActive() {
	*f.log = append(*f.log, f.name+":gather-inactive")
}

func (f *fakeModule) SelectSchedule() ScheduleID {
	if !f.overrideSelect {
		return f.Base.SelectSchedule()
	}
	return f.selectResult
}

func (f *fakeModule) TranslateSchedule(id ScheduleID) ScheduleID {
	f.translated = append(f.translated, id)
	if id == schedBaseChase {
		return schedLocalB
	}
	return f.Base.TranslateSchedule(id)
}

func (f *fakeModule) SelectFailSchedule(failed ScheduleID, task TaskID, code FailCode) ScheduleID {
	f.failSeen = []any{failed, task, code}
	if code == FailNoRoute {
		return schedLocalB
	}
	return f.Base.SelectFailSchedule(failed, task, code)
}

func (f *fakeModule) StartTask(t Task) {
	if !f.overrideTask || t.ID != taskLocalA {
		f.Base.StartTask(t)
		return
	}
	f.started = append(f.started, t)
}

func (f *fakeModule) BeginScheduleSelection() { *f.log = append(*f.log, f.name+":begin") }
func (f *fakeModule) EndScheduleSelection()   { *f.log = append(*f.log, f.name+":end") }
func (f *fakeModule) OnKilled()               { f.killed++ }
func (f *fakeModule) OnRestore()              { f.restored++ }

func (f *fakeModule) WantsPositionInfluence() bool { return f.influence }

func (f *fakeModule) InfluencePosition() (model.Vector, bool) {
	return model.Vec(float64(f.counter), 0, 0), true
}

func (f *fakeModule) SaveState() ([]byte, error) {
	return json.Marshal(f.counter)
}

func (f *fakeModule) RestoreState(data []byte) error {
	return json.Unmarshal(data, &f.counter)
}

type fixture struct {
	ctrl   *BehaviorController
	bridge *fakeBridge
	a, b   *fakeModule
	log    *[]string
	table  *idspace.Table
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	reg := idspace.NewRegistry()
	reg.Register("alpha", idspace.LocalBase)
	reg.Register("beta", idspace.LocalBase)
	table := reg.Table("testnpc")

	log := &[]string{}
	bridge := &fakeBridge{log: log}
	ctrl := NewBehaviorController("npc", bridge, table)

	a := &fakeModule{name: "a", class: "alpha", log: log}
	b := &fakeModule{name: "b", class: "beta", log: log}
	ctrl.AddModule(a)
	ctrl.AddModule(b)

	return &fixture{ctrl: ctrl, bridge: bridge, a: a, b: b, log: log, table: table}
}

func (f *fixture) resetLog() { *f.log = (*f.log)[:0] }

func (f *fixture) assertInvariant(t *testing.T) {
	t.Helper()
	active := f.ctrl.Active()
	if active == nil {
		assert.Equal(t, NoActive, f.ctrl.ActiveIndex())
		return
	}
	assert.Contains(t, f.ctrl.Modules(), active)
	assert.True(t, active.base().IsActive())
	n := 0
	for _, m := range f.ctrl.Modules() {
		if m.base().IsActive() {
			n++
		}
	}
	assert.Equal(t, 1, n, "exactly one module may report active")
}

func TestAddModule_BindsOnce(t *testing.T) {
	f := newFixture(t)

	assert.Same(t, f.ctrl, f.a.Controller())
	assert.Len(t, f.ctrl.Modules(), 2)

	other := NewBehaviorController("other", &fakeBridge{log: f.log}, f.table)
	assert.Panics(t, func() { other.AddModule(f.a) })
}

func TestAddModule_AfterStartPanics(t *testing.T) {
	f := newFixture(t)
	f.ctrl.BeginTick()

	assert.Panics(t, func() {
		f.ctrl.AddModule(&fakeModule{name: "late", class: "alpha", log: f.log})
	})
}

func TestAddModule_UnregisteredClassPanics(t *testing.T) {
	f := newFixture(t)
	assert.Panics(t, func() {
		f.ctrl.AddModule(&fakeModule{name: "x", class: "unknown", log: f.log})
	})
}

func TestAddModule_TranslatesSchedules(t *testing.T) {
	f := newFixture(t)

	gA := f.a.GlobalSchedule(schedLocalA)
	gB := f.b.GlobalSchedule(schedLocalA)
	require.NotEqual(t, gA, gB, "same local id in two classes must not collide")

	s, ok := f.ctrl.ScheduleBook().Lookup(gA)
	require.True(t, ok)
	assert.Equal(t, "a_a", s.Name)
	assert.Equal(t, f.a.GlobalTask(taskLocalA), s.Tasks[0].ID)
	assert.Equal(t, taskBaseWait, s.Tasks[1].ID, "base task ids pass through")
	assert.Equal(t, f.a.GlobalCondition(condLocalA), s.Interrupts[0])
	assert.Equal(t, 4, f.ctrl.ScheduleBook().Len())
}

func TestResolve_FirstEligibleWins(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.b.eligible = true

	f.ctrl.BeginTick()
	got := f.ctrl.ResolveActiveModule()

	assert.Same(t, f.a, got)
	assert.Equal(t, 0, f.ctrl.ActiveIndex())
	assert.True(t, f.a.Eligible())
	assert.False(t, f.b.Eligible(), "later modules are not evaluated once one claims control")
	assert.Equal(t, []string{"a:eligible?", "a:begin"}, *f.log)
	f.assertInvariant(t)
}

func TestResolve_NoneEligible(t *testing.T) {
	f := newFixture(t)

	f.ctrl.BeginTick()
	assert.Nil(t, f.ctrl.ResolveActiveModule())
	assert.Equal(t, NoActive, f.ctrl.ActiveIndex())
	f.assertInvariant(t)
}

func TestResolve_LostActiveBeforeReplacementConsidered(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	f.a.eligible = false
	f.b.eligible = true
	f.resetLog()
	clearsBefore := f.bridge.clears

	f.ctrl.BeginTick()
	got := f.ctrl.ResolveActiveModule()

	assert.Same(t, f.b, got)
	assert.Equal(t, []string{"a:eligible?", "a:end", "b:eligible?", "b:begin"}, *f.log)
	assert.Equal(t, clearsBefore+2, f.bridge.clears, "each change clears the current schedule")
	f.assertInvariant(t)
}

func TestResolve_StaysActiveWithoutHooks(t *testing.T) {
	f := newFixture(t)
	f.b.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	f.resetLog()
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	assert.Equal(t, []string{"a:eligible?", "b:eligible?"}, *f.log)
	assert.Same(t, f.b, f.ctrl.Active())
}

func TestGatherConditions_InactiveHooksRunFirst(t *testing.T) {
	f := newFixture(t)
	f.b.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()
	f.resetLog()

	f.ctrl.GatherConditions()

	assert.Equal(t, []string{"a:gather-inactive", "base:gather", "b:gather"}, *f.log)
	assert.Equal(t, []bool{false}, f.b.gatherCalls)
}

func TestGatherConditions_NoActiveUsesBase(t *testing.T) {
	f := newFixture(t)
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()
	f.resetLog()

	f.ctrl.GatherConditions()

	assert.Equal(t, []string{"a:gather-inactive", "b:gather-inactive", "base:gather"}, *f.log)
}

func TestResolve_MidTickPrimesWithoutBaseGather(t *testing.T) {
	f := newFixture(t)
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()
	f.ctrl.GatherConditions()
	require.Equal(t, 1, f.bridge.gathers)

	// Something during schedule selection makes a eligible; resolve again this tick.
	f.a.eligible = true
	f.ctrl.ResolveActiveModule()

	assert.Equal(t, []bool{true}, f.a.gatherCalls, "newcomer primed exactly once with base suppressed")
	assert.Equal(t, 1, f.bridge.gathers, "base gather must not run twice in one tick")

	// Next tick: ordinary gather, no extra priming.
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()
	f.ctrl.GatherConditions()
	assert.Equal(t, []bool{true, false}, f.a.gatherCalls)
	assert.Equal(t, 2, f.bridge.gathers)
}

func TestSelectSchedule_Override(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.a.overrideSelect = true
	f.a.selectResult = schedLocalA
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	got := f.ctrl.SelectSchedule()

	assert.Equal(t, f.a.GlobalSchedule(schedLocalA), got)
	assert.GreaterOrEqual(t, int(got), idspace.GlobalBase)
}

func TestSelectSchedule_OverrideWithBaseID(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.a.overrideSelect = true
	f.a.selectResult = schedBaseChase
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	assert.Equal(t, schedBaseChase, f.ctrl.SelectSchedule(), "base vocabulary passes through untranslated")
}

func TestSelectSchedule_FallThrough(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	assert.Equal(t, schedBaseIdle, f.ctrl.SelectSchedule())
}

func TestSelectSchedule_OverrideReturningNoneFallsBack(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.a.overrideSelect = true
	f.a.selectResult = SchedNone
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	assert.Equal(t, schedBaseIdle, f.ctrl.SelectSchedule())
	assert.Same(t, f.a, f.ctrl.Active(), "the mistake is recovered for this call only")
}

func TestTranslateSchedule(t *testing.T) {
	f := newFixture(t)
	f.bridge.translateTo = map[ScheduleID]ScheduleID{schedBaseIdle: 42}
	f.a.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	// Module remaps a base schedule to its own.
	got := f.ctrl.TranslateSchedule(schedBaseChase)
	assert.Equal(t, f.a.GlobalSchedule(schedLocalB), got)

	// Module's own global id arrives in local form.
	f.ctrl.TranslateSchedule(f.a.GlobalSchedule(schedLocalA))
	assert.Equal(t, []ScheduleID{schedBaseChase, schedLocalA}, f.a.translated)

	// Not overridden: base translation.
	assert.Equal(t, ScheduleID(42), f.ctrl.TranslateSchedule(schedBaseIdle))
}

func TestTranslateSchedule_NoActive(t *testing.T) {
	f := newFixture(t)
	f.bridge.translateTo = map[ScheduleID]ScheduleID{schedBaseIdle: 42}

	assert.Equal(t, ScheduleID(42), f.ctrl.TranslateSchedule(schedBaseIdle))
}

func TestStartTask_TranslatesAndFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.a.overrideTask = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	gTask := f.a.GlobalTask(taskLocalA)
	f.ctrl.StartTask(Task{ID: gTask, Data: 2})
	f.ctrl.StartTask(Task{ID: taskBaseWait, Data: 3})

	assert.Equal(t, []Task{{ID: taskLocalA, Data: 2}}, f.a.started)
	assert.Equal(t, []Task{{ID: taskBaseWait, Data: 3}}, f.bridge.startedBase)

	f.ctrl.RunTask(Task{ID: taskBaseWait})
	assert.Equal(t, []Task{{ID: taskBaseWait}}, f.bridge.ranBase)
}

func TestSelectFailSchedule(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	gSched := f.a.GlobalSchedule(schedLocalA)
	gTask := f.a.GlobalTask(taskLocalA)

	got := f.ctrl.SelectFailSchedule(gSched, gTask, FailNoRoute)
	assert.Equal(t, f.a.GlobalSchedule(schedLocalB), got)
	assert.Equal(t, []any{schedLocalA, taskLocalA, FailNoRoute}, f.a.failSeen)

	got = f.ctrl.SelectFailSchedule(gSched, gTask, FailTimeout)
	assert.Equal(t, schedBaseFail, got)
	assert.Equal(t, []any{gSched, gTask, FailTimeout}, f.bridge.failArgs, "base receives global ids")
}

func TestBaseConditionsUseLocalIDs(t *testing.T) {
	f := newFixture(t)

	f.a.SetCondition(condLocalA)
	assert.True(t, f.a.HasCondition(condLocalA))
	assert.False(t, f.b.HasCondition(condLocalA), "same local id in another class is a different condition")
	assert.True(t, f.ctrl.Conditions().Has(f.a.GlobalCondition(condLocalA)))

	f.a.ClearCondition(condLocalA)
	assert.False(t, f.a.HasCondition(condLocalA))
}

func TestIsCurSchedule(t *testing.T) {
	f := newFixture(t)
	f.bridge.current = f.a.GlobalSchedule(schedLocalA)

	assert.True(t, f.a.IsCurSchedule(schedLocalA))
	assert.False(t, f.b.IsCurSchedule(schedLocalA))
}

func TestSuspendModules(t *testing.T) {
	f := newFixture(t)
	f.a.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()
	f.resetLog()

	f.ctrl.SuspendModules(true, "scripted move")
	assert.Equal(t, []string{"a:end"}, *f.log, "vacating is synchronous")
	assert.Nil(t, f.ctrl.Active())

	f.ctrl.BeginTick()
	assert.Nil(t, f.ctrl.ResolveActiveModule())

	f.ctrl.SuspendModules(false, "")
	f.ctrl.BeginTick()
	assert.Same(t, f.a, f.ctrl.ResolveActiveModule())
}

func TestNotifyKilled_ReachesEveryModule(t *testing.T) {
	f := newFixture(t)
	f.b.eligible = true
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	f.ctrl.NotifyKilled()

	assert.Equal(t, 1, f.a.killed)
	assert.Equal(t, 1, f.b.killed)
	assert.Nil(t, f.ctrl.Active())
}

func TestPositionInfluence(t *testing.T) {
	f := newFixture(t)
	assert.Nil(t, f.ctrl.PositionInfluence())

	_, ok := f.ctrl.InfluencePosition()
	assert.False(t, ok)

	f.b.influence = true
	f.b.counter = 7
	assert.Same(t, f.b, f.ctrl.PositionInfluence())
	pos, ok := f.ctrl.InfluencePosition()
	require.True(t, ok)
	assert.Equal(t, model.Vec(7, 0, 0), pos)
	assert.Nil(t, f.ctrl.Active(), "influence never grants control")
}

func TestSnapshot_RoundTrip(t *testing.T) {
	f := newFixture(t)
	f.b.eligible = true
	f.b.counter = 7
	f.ctrl.BeginTick()
	f.ctrl.ResolveActiveModule()

	snap, err := f.ctrl.Save()
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Active)
	require.Len(t, snap.Modules, 2)
	assert.Equal(t, "b", snap.Modules[1].Name)

	g := newFixture(t)
	g.resetLog()
	require.NoError(t, g.ctrl.Restore(snap))

	assert.Same(t, g.b, g.ctrl.Active())
	assert.Equal(t, 7, g.b.counter)
	assert.Equal(t, 1, g.a.restored)
	assert.Equal(t, 1, g.b.restored)
	assert.Empty(t, *g.log, "restore must not run eligibility or lifecycle hooks")
	g.assertInvariant(t)
}

func TestSnapshot_RestoreNoActive(t *testing.T) {
	f := newFixture(t)
	snap, err := f.ctrl.Save()
	require.NoError(t, err)
	assert.Equal(t, NoActive, snap.Active)

	g := newFixture(t)
	require.NoError(t, g.ctrl.Restore(snap))
	assert.Nil(t, g.ctrl.Active())
}

func TestSnapshot_RestoreMismatch(t *testing.T) {
	f := newFixture(t)

	err := f.ctrl.Restore(Snapshot{Active: NoActive, Modules: []ModuleState{{Name: "a"}}})
	assert.Error(t, err)

	err = f.ctrl.Restore(Snapshot{Active: NoActive, Modules: []ModuleState{{Name: "b"}, {Name: "a"}}})
	assert.Error(t, err)

	err = f.ctrl.Restore(Snapshot{Active: 5, Modules: []ModuleState{{Name: "a"}, {Name: "b"}}})
	assert.Error(t, err)
}
