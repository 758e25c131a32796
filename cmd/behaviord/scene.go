package main

import (
	"fmt"
	"log/slog"
	"maps"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/behaviors/follow"
	"github.com/udisondev/npcmind/internal/behaviors/police"
	"github.com/udisondev/npcmind/internal/behaviors/rappel"
	"github.com/udisondev/npcmind/internal/config"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/npc"
	"github.com/udisondev/npcmind/internal/npcs"
	"github.com/udisondev/npcmind/internal/world"
)

// scene is the demo: a metrocop guarding a post against loitering
// citizens, and a squad on the roof that rappels down once the cop turns
// hostile.
type scene struct {
	world    *world.World
	ropes    *world.Ropes
	sound    *world.SoundArbiter
	cop      *npcs.Metrocop
	soldiers []*npcs.Soldier
	citizens []*walker
}

// tuning maps the config sections onto the NPC and module parameters.
func tuning(cfg config.Behaviord) npcs.Tuning {
	t := npcs.DefaultTuning()

	t.NPC.Health = cfg.NPC.Health
	t.NPC.SightRange = cfg.NPC.SightRange
	t.NPC.MeleeRange = cfg.NPC.MeleeRange
	t.NPC.MeleeDamage = cfg.NPC.MeleeDamage
	t.NPC.HeavyDamage = cfg.NPC.HeavyDamage
	t.NPC.AlertDuration = cfg.NPC.AlertDuration
	t.NPC.SoundGap = cfg.NPC.SoundGap
	t.NPC.InterestHalfLife = cfg.Interest.HalfLife
	t.NPC.SpeechPerMember = cfg.Speech.PerMemberTimeout

	t.Police = police.Params{
		MaxWarnings:      cfg.Police.MaxWarnings,
		AggressionWindow: cfg.Police.AggressionWindow,
		RearmMin:         cfg.Police.RearmMin,
		RearmMax:         cfg.Police.RearmMax,
		WarningLines:     cfg.Police.WarningLines,
		HostileLine:      cfg.Police.HostileLine,
	}
	t.Rappel = rappel.Params{
		MinSpeed:      cfg.Rappel.MinSpeed,
		MaxSpeed:      cfg.Rappel.MaxSpeed,
		MaxDrop:       cfg.Rappel.MaxDrop,
		DecelDistance: cfg.Rappel.DecelDistance,
		ClearDistance: cfg.Rappel.ClearDistance,
	}
	t.Follow = follow.Params{
		Distance:      cfg.Follow.Distance,
		StartDistance: cfg.Follow.StartDistance,
		WaitTime:      cfg.Follow.WaitTime,
	}
	return t
}

// buildScene creates every entity of the demo. Ids are drawn in a fixed
// order so a restarted daemon finds the same NPCs under the same names.
func buildScene(cfg config.Behaviord, clock *ai.SimClock, rng *rand.Rand) (*scene, error) {
	w := world.New()
	s := &scene{
		world: w,
		ropes: world.NewRopes(w),
		sound: world.NewSoundArbiter(rng),
	}
	// Sorted so sentence indices in saved speech state stay stable.
	for _, root := range slices.Sorted(maps.Keys(cfg.Sentences)) {
		s.sound.AddGroup(root, cfg.Sentences[root]...)
	}

	roof := cfg.Scene.RoofHeight
	ground := &world.Ground{
		Platforms: []world.Platform{{MinX: -400, MinY: -700, MaxX: 400, MaxY: -320, Height: roof}},
	}
	w.AddOccluder(world.Occluder{Center: model.Vec(320, 320, 0), Radius: 48})

	deps := npcs.Deps{
		Clock:    clock,
		World:    w,
		Sound:    s.sound,
		Physics:  ground,
		Animator: world.NewSkeleton([]string{npc.PoseHeadYaw}, []string{npcs.FlexJaw}),
		Ropes:    s.ropes,
		NewNavigator: func() npc.Navigator {
			return world.NewNavigator(cfg.NPC.WalkSpeed, cfg.NPC.MaxRoute)
		},
	}
	t := tuning(cfg)

	for i := range cfg.Scene.Citizens {
		id := w.IDs().NextCitizenID()
		y := 100 + 40*float64(i)
		c := world.NewCitizen(id, fmt.Sprintf("citizen-%d", i+1), model.Vec(-150, y, 0), cfg.NPC.Health)
		if err := w.Add(c); err != nil {
			return nil, fmt.Errorf("adding %s: %w", c.Name(), err)
		}
		s.citizens = append(s.citizens, newWalker(c, model.Vec(-150, y, 0), model.Vec(150, y, 0), cfg.Scene.CitizenSpeed, clock))
	}

	s.cop = npcs.NewMetrocop(w.IDs().NextNpcID(), "metrocop", model.Vector{}, deps, t)
	if err := w.Add(s.cop); err != nil {
		return nil, fmt.Errorf("adding %s: %w", s.cop.Name(), err)
	}
	if len(s.citizens) > 0 {
		s.cop.Police.SetGoal(&police.Goal{
			PostRadius:     cfg.Police.PostRadius,
			WarnRadius:     cfg.Police.WarnRadius,
			SuppressRadius: cfg.Police.SuppressRadius,
			Target:         s.citizens[0].ID(),
			RemainAtPost:   cfg.Police.RemainAtPost,
		})
	}

	squad := npc.NewSquad("overwatch")
	for i := range cfg.Scene.Soldiers {
		pos := model.Vec(-80+80*float64(i), -300, roof)
		sol := npcs.NewSoldier(w.IDs().NextNpcID(), fmt.Sprintf("soldier-%d", i+1), pos, deps, t)
		if err := w.Add(sol); err != nil {
			return nil, fmt.Errorf("adding %s: %w", sol.Name(), err)
		}
		squad.Join(sol.NPC)
		sol.Follow.SetTarget(s.cop.ID())
		s.soldiers = append(s.soldiers, sol)
	}

	s.cop.Police.OnFirstHostile(func(target model.EntityID) {
		slog.Info("calling in overwatch", "target", target, "soldiers", len(s.soldiers))
		for _, sol := range s.soldiers {
			sol.Rappel.BeginRappel()
		}
	})

	return s, nil
}

// NPCs returns every behavior-driven NPC of the scene.
func (s *scene) NPCs() []*npc.NPC {
	out := make([]*npc.NPC, 0, 1+len(s.soldiers))
	out = append(out, s.cop.NPC)
	for _, sol := range s.soldiers {
		out = append(out, sol.NPC)
	}
	return out
}

// register hands every controller to the tick manager.
func (s *scene) register(mgr *ai.TickManager) {
	for _, c := range s.citizens {
		mgr.Register(uint32(c.ID()), c)
	}
	for _, n := range s.NPCs() {
		mgr.Register(uint32(n.ID()), n)
	}
}

// walker paces a citizen between two points. It is ticked like an NPC.
type walker struct {
	*world.Citizen
	a, b    model.Vector
	speed   float64
	clock   ai.Clock
	last    time.Duration
	toB     bool
	running bool
}

func newWalker(c *world.Citizen, a, b model.Vector, speed float64, clock ai.Clock) *walker {
	return &walker{Citizen: c, a: a, b: b, speed: speed, clock: clock, toB: true}
}

// Start measures the first step from now, so a clock moved forward by a
// restore does not count as walking time.
func (w *walker) Start() {
	w.last = w.clock.Now()
	w.running = true
}

func (w *walker) Stop() { w.running = false }

func (w *walker) CurrentState() model.State {
	if !w.IsAlive() {
		return model.StateDead
	}
	return model.StateIdle
}

func (w *walker) Tick() {
	now := w.clock.Now()
	dt := now - w.last
	w.last = now
	if !w.running || !w.IsAlive() {
		return
	}

	goal := w.a
	if w.toB {
		goal = w.b
	}
	pos := w.Position()
	dir, dist := goal.Sub(pos).Normalized()
	step := w.speed * dt.Seconds()
	if step >= dist {
		w.SetPosition(goal)
		w.toB = !w.toB
		return
	}
	w.SetPosition(pos.Add(dir.Scale(step)))
}
