package police

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/npc"
	"github.com/udisondev/npcmind/internal/testutil"
)

const (
	officerID model.EntityID = 1
	citizenID model.EntityID = 2
)

type scene struct {
	clock  *testutil.ManualClock
	world  *testutil.Entities
	nav    *testutil.Navigator
	sound  *testutil.Sound
	cop    *npc.NPC
	police *Module

	hostileFired []model.EntityID
}

func defaultGoal() Goal {
	return Goal{PostRadius: 256, WarnRadius: 200, SuppressRadius: 64}
}

func newScene(t *testing.T, goal Goal, copPos model.Vector) *scene {
	t.Helper()

	reg := idspace.NewRegistry()
	Register(reg)

	s := &scene{
		clock: testutil.NewManualClock(time.Second),
		world: testutil.NewEntities(),
		nav:   testutil.NewNavigator(200),
		sound: testutil.NewSound(time.Second),
	}
	p := DefaultParams()
	for _, line := range p.WarningLines {
		s.sound.Group(line, 1)
	}
	s.sound.Group(p.HostileLine, 1)
	s.world.Spawn(citizenID, "citizen", model.Vec(150, 0, 0))

	s.cop = npc.New(npc.Options{
		ID:        officerID,
		Name:      "cop",
		Class:     "police_test",
		Position:  copPos,
		Params:    npc.DefaultParams(),
		IDs:       reg.Table("police_test"),
		Clock:     s.clock,
		World:     s.world,
		Navigator: s.nav,
		Animator:  testutil.NewAnimator(nil, nil),
		Sound:     s.sound,
		Physics:   testutil.Ground{},
	})

	s.police = New(s.cop, p)
	s.police.SetRand(rand.New(rand.NewPCG(1, 2)))
	s.police.OnFirstHostile(func(id model.EntityID) {
		s.hostileFired = append(s.hostileFired, id)
	})
	goal.Target = citizenID
	s.police.SetGoal(&goal)

	s.cop.AddModule(s.police)
	s.cop.Start()
	return s
}

func (s *scene) tick(d time.Duration) {
	s.clock.Advance(d)
	s.cop.Tick()
}

func (s *scene) global(id ai.ScheduleID) ai.ScheduleID {
	return ai.ScheduleID(s.cop.IDs().LocalToGlobal(idspace.KindSchedule, Class, int(id)))
}

func TestNew_WithoutGoalIsDisabled(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	m := New(s.cop, DefaultParams())

	assert.Equal(t, StateDisabled, m.State())
	assert.False(t, m.CanSelectSchedule())
}

func TestEscalation_HostileExactlyAtFourthWarning(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})

	for i := 1; i <= 3; i++ {
		s.police.warn()
		assert.Equal(t, i, s.police.Warnings())
		assert.False(t, s.police.Hostile(), "hostile after warning %d", i)
		s.clock.Advance(5 * time.Second)
	}

	s.police.warn()
	require.True(t, s.police.Hostile())
	assert.Equal(t, citizenID, s.cop.Enemy())
	assert.True(t, s.cop.WeaponActive())
	assert.Equal(t, []model.EntityID{citizenID}, s.hostileFired)
	assert.Equal(t,
		[]string{"move_along_a", "move_along_b", "move_along_c", "cop_hostile"},
		s.sound.Roots())

	// No close-range trigger: the citizen stays outside the suppress radius.
	start := s.clock.Now()
	for s.clock.Now() < start+3900*time.Millisecond {
		s.tick(100 * time.Millisecond)
		require.True(t, s.police.Hostile(), "regressed at %v", s.clock.Now()-start)
	}
	s.tick(100 * time.Millisecond)
	assert.True(t, s.police.Hostile(), "window end is inclusive")

	s.tick(100 * time.Millisecond)
	assert.False(t, s.police.Hostile())
	assert.Zero(t, s.police.Warnings())
	assert.False(t, s.cop.Enemy().Valid())
	assert.False(t, s.cop.WeaponActive())
	assert.Len(t, s.hostileFired, 1)
}

func TestHostile_CloseRangeTriggerRefreshesWindow(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	require.True(t, s.police.Hostile())

	s.world.Get(citizenID).Pos = model.Vec(30, 0, 0)
	for range 60 {
		s.tick(100 * time.Millisecond)
		require.True(t, s.police.Hostile())
	}

	s.world.Get(citizenID).Pos = model.Vec(150, 0, 0)
	for range 40 {
		s.tick(100 * time.Millisecond)
	}
	assert.True(t, s.police.Hostile())
	s.tick(100 * time.Millisecond)
	assert.False(t, s.police.Hostile())
}

func TestKnockOut_RequiresLineOfSight(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	s.world.BlockSight(citizenID, true)

	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	assert.False(t, s.police.Hostile())

	s.world.BlockSight(citizenID, false)
	s.tick(100 * time.Millisecond)
	assert.False(t, s.police.Hostile(), "trigger is consumed")
}

func TestFirstHostileFiresOnce(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})

	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	require.True(t, s.police.Hostile())

	for range 45 {
		s.tick(100 * time.Millisecond)
	}
	require.False(t, s.police.Hostile())

	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	require.True(t, s.police.Hostile())

	assert.Len(t, s.hostileFired, 1)
}

func TestHarassFlow(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})

	var warnedAt []time.Duration
	for range 400 {
		before := s.police.Warnings()
		s.tick(100 * time.Millisecond)
		if s.police.Warnings() != before {
			warnedAt = append(warnedAt, s.clock.Now())
		}
		if s.police.Hostile() {
			break
		}
	}

	require.True(t, s.police.Hostile())
	require.Len(t, warnedAt, 4)
	for i := 1; i < len(warnedAt); i++ {
		assert.GreaterOrEqual(t, warnedAt[i]-warnedAt[i-1], 4*time.Second, "re-arm delay before warning %d", i+1)
	}
	assert.Equal(t,
		[]string{"move_along_a", "move_along_b", "move_along_c", "cop_hostile"},
		s.sound.Roots())
	assert.Same(t, s.police, s.cop.Active())
}

func TestLeavingPostRadiusReturnsFirst(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vec(1000, 0, 0))

	s.tick(100 * time.Millisecond)
	assert.Equal(t, StateReturning, s.police.State())

	s.tick(100 * time.Millisecond)
	assert.Equal(t, s.global(SchedReturnFromHarass), s.cop.CurrentSchedule())
	goal, ok := s.nav.Goal()
	require.True(t, ok)
	assert.Equal(t, model.Vector{}, goal)

	for range 60 {
		s.tick(100 * time.Millisecond)
	}
	assert.LessOrEqual(t, s.cop.Position().Length(), PostArriveDistance)
	assert.Equal(t, StateHarassing, s.police.State())
}

func TestHostileLeavingPostRadiusReturnsFirst(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	s.world.Get(citizenID).Pos = model.Vec(600, 0, 0)
	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	require.True(t, s.police.Hostile())

	var returning bool
	for range 30 {
		s.tick(100 * time.Millisecond)
		if s.cop.CurrentSchedule() == s.global(SchedReturnFromHarass) {
			returning = true
			break
		}
	}

	require.True(t, returning, "chase left the post radius")
	assert.True(t, s.police.Hostile(), "still inside the aggression window")
	assert.Equal(t, citizenID, s.cop.Enemy())
}

func TestAggressionExpiryReturnsToPost(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	s.world.Get(citizenID).Pos = model.Vec(230, 0, 0)
	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	require.True(t, s.police.Hostile())

	var chased, returned bool
	for range 100 {
		s.tick(100 * time.Millisecond)
		if s.cop.Position().Length() > 100 {
			chased = true
		}
		if s.cop.CurrentSchedule() == s.global(SchedReturnFromHarass) {
			returned = true
		}
	}

	require.True(t, chased)
	assert.True(t, returned)
	assert.False(t, s.police.Hostile())
	assert.LessOrEqual(t, s.cop.Position().Length(), PostArriveDistance)
	assert.Equal(t, StateIdle, s.police.State())
}

func TestReturnWithoutRouteFacesTarget(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vec(1000, 0, 0))
	s.nav.NoRoute = true

	s.tick(100 * time.Millisecond)
	s.tick(100 * time.Millisecond)

	assert.Equal(t, s.global(SchedFaceTarget), s.cop.CurrentSchedule())
}

func TestRemainAtPostFacesInsteadOfChasing(t *testing.T) {
	goal := defaultGoal()
	goal.RemainAtPost = true
	s := newScene(t, goal, model.Vector{})

	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	s.tick(100 * time.Millisecond)

	require.Same(t, s.police, s.cop.Active())
	assert.Equal(t, npc.SchedCombatFace, s.cop.CurrentSchedule())
}

func TestStaleTargetDisablesModule(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	s.police.KnockOut()
	s.tick(100 * time.Millisecond)
	require.True(t, s.police.Hostile())

	s.world.Remove(citizenID)
	s.tick(100 * time.Millisecond)

	assert.Equal(t, StateDisabled, s.police.State())
	assert.Nil(t, s.police.Goal())
	assert.False(t, s.cop.WeaponActive())

	s.tick(100 * time.Millisecond)
	assert.Nil(t, s.cop.Active())
}

func TestSaveRestore(t *testing.T) {
	s := newScene(t, defaultGoal(), model.Vector{})
	s.police.warn()
	s.police.warn()

	data, err := s.police.SaveState()
	require.NoError(t, err)

	other := New(s.cop, DefaultParams())
	require.NoError(t, other.RestoreState(data))

	assert.Equal(t, s.police.State(), other.State())
	assert.Equal(t, 2, other.Warnings())
	assert.Equal(t, s.police.nextWarnAt, other.nextWarnAt)
	require.NotNil(t, other.Goal())
	assert.Equal(t, *s.police.Goal(), *other.Goal())

	assert.Error(t, other.RestoreState([]byte("{")))
}
