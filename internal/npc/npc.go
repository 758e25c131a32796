// Package npc is the host side of the behavior core: the NPC's own decision
// logic (the back bridge of ai.BehaviorController), its base schedule and
// task vocabulary, a minimal schedule runner and the per-NPC interest and
// speech queues.
package npc

import (
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/idspace"
	"github.com/udisondev/npcmind/internal/interest"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/speech"
)

// Params are the NPC tuning values.
type Params struct {
	Health      int
	EyeHeight   float64
	SightRange  float64
	MeleeRange  float64
	MeleeDamage int
	// HeavyDamage is the smallest hit counted as heavy damage.
	HeavyDamage   int
	AlertDuration time.Duration
	// SoundGap is the silence kept after each sound.
	SoundGap         time.Duration
	InterestHalfLife float64
	SpeechPerMember  time.Duration
}

// DefaultParams returns tuning for a humanoid.
func DefaultParams() Params {
	return Params{
		Health:           50,
		EyeHeight:        64,
		SightRange:       2048,
		MeleeRange:       64,
		MeleeDamage:      10,
		HeavyDamage:      20,
		AlertDuration:    10 * time.Second,
		SoundGap:         500 * time.Millisecond,
		InterestHalfLife: interest.DefaultHalfLife,
		SpeechPerMember:  speech.DefaultPerMemberTimeout,
	}
}

// Options configures New. Collaborators are required.
type Options struct {
	ID       model.EntityID
	Name     string
	Class    string
	Position model.Vector
	Params   Params

	// IDs is the id table of the leaf class; nil selects idspace.Default().Table(Class).
	IDs *idspace.Table

	Clock     Clock
	World     World
	Navigator Navigator
	Animator  Animator
	Sound     SoundSystem
	Physics   Physics
}

// NPC hosts one behavior controller. It is ticked from a single goroutine.
type NPC struct {
	*ai.BehaviorController

	id    model.EntityID
	name  string
	class string
	p     Params

	clock Clock
	world World
	nav   Navigator
	anim  Animator
	sound SoundSystem
	phys  Physics

	running atomic.Bool

	alive      bool
	health     int
	state      model.State
	alertUntil time.Duration

	pos          model.Vector
	yaw          float64
	goal         model.Vector
	weaponActive bool

	enemy       model.EntityID
	lastEnemy   model.EntityID
	lightDamage bool
	heavyDamage bool
	attacks     int

	interest *interest.Queue
	speech   *speech.Queue
	squad    *Squad
	gagged   bool

	soundWaitUntil    time.Duration
	lastSoundPriority speech.Priority

	poseParams      map[string]int
	flexControllers map[string]int
	lookAt          model.Vector
	looking         bool
	mouth           string
	talkUntil       time.Duration

	run      runner
	lastTick time.Duration
	dt       time.Duration
	ticked   bool
}

// New creates an NPC with the base schedules defined and no modules.
// Missing collaborators are a setup fault and panic.
func New(opts Options) *NPC {
	if opts.Clock == nil || opts.World == nil || opts.Navigator == nil ||
		opts.Animator == nil || opts.Sound == nil || opts.Physics == nil {
		panic(fmt.Sprintf("npc: %s created without all collaborators", opts.Name))
	}
	if opts.Class == "" {
		panic(fmt.Sprintf("npc: %s created without a class tag", opts.Name))
	}

	ids := opts.IDs
	if ids == nil {
		ids = idspace.Default().Table(opts.Class)
	}

	n := &NPC{
		id:              opts.ID,
		name:            opts.Name,
		class:           opts.Class,
		p:               opts.Params,
		clock:           opts.Clock,
		world:           opts.World,
		nav:             opts.Navigator,
		anim:            opts.Animator,
		sound:           opts.Sound,
		phys:            opts.Physics,
		alive:           true,
		health:          opts.Params.Health,
		pos:             opts.Position,
		goal:            opts.Position,
		poseParams:      make(map[string]int),
		flexControllers: make(map[string]int),
	}
	n.BehaviorController = ai.NewBehaviorController(opts.Name, n, ids)
	n.interest = interest.NewQueue(opts.Clock, opts.World, opts.Params.InterestHalfLife)
	n.speech = speech.NewQueue(n, n, opts.Clock, opts.Params.SpeechPerMember)

	for _, s := range baseSchedules() {
		n.ScheduleBook().Define(s)
	}
	return n
}

// Start starts ticking.
func (n *NPC) Start() {
	n.running.Store(true)

	if ai.IsDebugEnabled() {
		slog.Debug("npc started",
			"npc", n.name,
			"class", n.class,
			"behaviors", len(n.Modules()))
	}
}

// Stop stops ticking.
func (n *NPC) Stop() {
	n.running.Store(false)
	n.nav.ClearGoal()

	if ai.IsDebugEnabled() {
		slog.Debug("npc stopped", "npc", n.name)
	}
}

// Running reports whether the NPC is ticking.
func (n *NPC) Running() bool {
	return n.running.Load()
}

// Tick runs one simulation step.
func (n *NPC) Tick() {
	if !n.running.Load() || !n.alive {
		return
	}

	now := n.clock.Now()
	if n.ticked {
		n.dt = now - n.lastTick
	}
	n.lastTick, n.ticked = now, true

	n.BeginTick()
	n.speech.UpdateSentenceQueue()
	n.interest.Cleanup()
	n.Conditions().Reset()

	n.ResolveActiveModule()
	n.GatherConditions()
	n.lightDamage, n.heavyDamage = false, false

	if n.shouldReselect() {
		n.selectNewSchedule()
	}
	n.runSchedule()
	n.updateLook()
	n.updateMouth()
}

// Identity and model.Entity.

func (n *NPC) ID() model.EntityID        { return n.id }
func (n *NPC) Name() string              { return n.name }
func (n *NPC) Class() string             { return n.class }
func (n *NPC) Position() model.Vector    { return n.pos }
func (n *NPC) IsAlive() bool             { return n.alive }
func (n *NPC) CurrentState() model.State { return n.state }

// EyePosition returns the head position.
func (n *NPC) EyePosition() model.Vector {
	return n.pos.Add(model.Vec(0, 0, n.p.EyeHeight))
}

// SetPosition teleports the NPC.
func (n *NPC) SetPosition(pos model.Vector) {
	n.pos = pos
}

// Yaw returns the heading in degrees.
func (n *NPC) Yaw() float64 { return n.yaw }

// Health returns remaining health.
func (n *NPC) Health() int { return n.health }

// Params returns the NPC tuning.
func (n *NPC) Params() Params { return n.p }

// Now returns simulation time.
func (n *NPC) Now() time.Duration { return n.clock.Now() }

// DeltaTime returns the time elapsed since the previous tick.
func (n *NPC) DeltaTime() time.Duration { return n.dt }

// World returns the entity lookup.
func (n *NPC) World() World { return n.world }

// Physics returns the ground queries.
func (n *NPC) Physics() Physics { return n.phys }

// Navigator returns the route planner.
func (n *NPC) Navigator() Navigator { return n.nav }

// Interest returns the look-target queue.
func (n *NPC) Interest() *interest.Queue { return n.interest }

// Speech returns the sentence queue.
func (n *NPC) Speech() *speech.Queue { return n.speech }

// Attacks returns how many melee attacks landed.
func (n *NPC) Attacks() int { return n.attacks }

// SetState forces a coarse state. Entering StateScript suspends modules.
func (n *NPC) SetState(s model.State) {
	if n.state == s {
		return
	}
	prev := n.state
	n.state = s
	n.SuspendModules(s == model.StateScript, "scripted")
	if prev == model.StateScript {
		n.ClearSchedule("script finished")
	}
}

// SetGoalPosition sets the destination used by get_path_to_goal.
func (n *NPC) SetGoalPosition(v model.Vector) {
	n.goal = v
}

// GoalPosition returns the destination used by get_path_to_goal.
func (n *NPC) GoalPosition() model.Vector { return n.goal }

// SetWeaponActive draws or holsters the melee weapon.
func (n *NPC) SetWeaponActive(on bool) {
	n.weaponActive = on
}

// WeaponActive reports whether the weapon is drawn.
func (n *NPC) WeaponActive() bool { return n.weaponActive }

// Enemy returns the current enemy handle, NoEntity if none.
func (n *NPC) Enemy() model.EntityID { return n.enemy }

// SetEnemy makes id the combat enemy.
func (n *NPC) SetEnemy(id model.EntityID) {
	if !id.Valid() {
		n.ClearEnemy()
		return
	}
	if n.enemy == id {
		return
	}
	n.enemy = id
	if n.state != model.StateScript {
		n.state = model.StateCombat
	}

	if ai.IsDebugEnabled() {
		slog.Debug("npc enemy set", "npc", n.name, "enemy", id)
	}
}

// ClearEnemy forgets the enemy and stays alert for a while.
func (n *NPC) ClearEnemy() {
	if !n.enemy.Valid() {
		return
	}
	n.enemy = model.NoEntity
	n.alertUntil = n.clock.Now() + n.p.AlertDuration
	if n.state == model.StateCombat {
		n.state = model.StateAlert
	}
}

// FaceEntity turns toward an entity. False when the handle is stale.
func (n *NPC) FaceEntity(id model.EntityID) bool {
	e, ok := n.world.Entity(id)
	if !ok {
		return false
	}
	n.FacePosition(e.Position())
	return true
}

// FacePosition turns toward a point.
func (n *NPC) FacePosition(p model.Vector) {
	if d := p.Sub(n.pos); d.X != 0 || d.Y != 0 {
		n.yaw = d.Yaw()
	}
}

// TakeDamage applies a hit. The attacker becomes the enemy if there is none.
func (n *NPC) TakeDamage(amount int, attacker model.EntityID) {
	if !n.alive || amount <= 0 {
		return
	}
	n.health -= amount
	if amount >= n.p.HeavyDamage {
		n.heavyDamage = true
	} else {
		n.lightDamage = true
	}
	if !n.enemy.Valid() && attacker.Valid() && attacker != n.id {
		n.SetEnemy(attacker)
	}
	if n.health <= 0 {
		n.Kill()
	}
}

// Kill runs death handling once: every installed module gets its death
// hook, the active module is vacated and queued speech is dropped.
func (n *NPC) Kill() {
	if !n.alive {
		return
	}
	n.alive = false
	n.health = 0
	n.state = model.StateDead

	n.NotifyKilled()
	n.run = runner{}
	n.nav.ClearGoal()
	n.speech.Clear()
	n.interest.Clear()
	if n.squad != nil {
		n.squad.Leave(n)
	}

	slog.Info("npc killed", "npc", n.name, "class", n.class)
}

// Cleanup removes the NPC from the simulation.
func (n *NPC) Cleanup() {
	n.BehaviorController.Cleanup()
	n.Stop()
	if n.squad != nil {
		n.squad.Leave(n)
	}
}

// Gag silences non-combat speech.
func (n *NPC) Gag(on bool) { n.gagged = on }

// Squad returns the NPC's squad, nil if none.
func (n *NPC) Squad() *Squad { return n.squad }

// speech.Owner

func (n *NPC) InCombat() bool { return n.state == model.StateCombat }
func (n *NPC) Gagged() bool   { return n.gagged }

// SquadSize counts squad members including this NPC.
func (n *NPC) SquadSize() int {
	if n.squad == nil {
		return 0
	}
	return n.squad.Size()
}

// IsSquadLeader reports whether this NPC leads its squad.
func (n *NPC) IsSquadLeader() bool {
	return n.squad != nil && n.squad.Leader() == n
}

// MayMakeSound is the sound gate. A sound is refused while the NPC's own
// previous sound is still playing, unless it outranks it, and while a
// squadmate is talking, unless it is high priority.
func (n *NPC) MayMakeSound(p speech.Priority) bool {
	if !n.alive {
		return false
	}
	now := n.clock.Now()
	if now < n.soundWaitUntil && p <= n.lastSoundPriority {
		return false
	}
	if n.squad != nil && now < n.squad.soundWaitUntil && p < speech.PriorityHigh {
		return false
	}
	return true
}

// JustMadeSound records a sound so the gate stays closed while it plays.
func (n *NPC) JustMadeSound(p speech.Priority, length time.Duration) {
	until := n.clock.Now() + length + n.p.SoundGap
	n.soundWaitUntil = until
	n.lastSoundPriority = p
	if n.squad != nil {
		n.squad.soundWaitUntil = max(n.squad.soundWaitUntil, until)
	}
}

// speech.Voice

// PickSentence draws a sentence of a group.
func (n *NPC) PickSentence(root string) (int, bool) {
	return n.sound.PickSentence(root)
}

// PlaySentence plays a sentence with this NPC as speaker.
func (n *NPC) PlaySentence(index int) (speech.Handle, time.Duration) {
	h, length := n.sound.PlaySentence(n.id, index)
	n.talkUntil = max(n.talkUntil, n.clock.Now()+length)
	return speech.Handle(h), length
}

// Talking reports whether a sentence of this NPC is still playing.
func (n *NPC) Talking() bool {
	return n.clock.Now() < n.talkUntil
}

// updateLook aims the head at the most interesting target. With nothing
// of interest it falls back to the point of a module that wants to
// influence the NPC's position.
func (n *NPC) updateLook() {
	if best, _ := n.interest.Best(); best != nil {
		n.lookAt = n.interest.Position(best)
	} else if p, ok := n.InfluencePosition(); ok {
		n.lookAt = p
	} else {
		n.looking = false
		n.SetPoseParameter(PoseHeadYaw, 0)
		return
	}
	n.looking = true

	rel := n.lookAt.Sub(n.EyePosition()).Yaw() - n.yaw
	for rel > 180 {
		rel -= 360
	}
	for rel < -180 {
		rel += 360
	}
	n.SetPoseParameter(PoseHeadYaw, rel)
}

// updateMouth opens the mouth flex while a sentence plays.
func (n *NPC) updateMouth() {
	if n.mouth == "" {
		return
	}
	weight := 0.0
	if n.Talking() {
		weight = 1
	}
	n.anim.SetFlexWeight(n.id, n.FlexController(n.mouth), weight)
}

// LookTarget returns where the head is aimed.
func (n *NPC) LookTarget() (model.Vector, bool) {
	return n.lookAt, n.looking
}
