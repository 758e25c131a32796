// Package npcs holds the leaf NPC classes: setup routines that build an
// npc.NPC, register its animation handles and install its behavior
// modules in priority order.
package npcs

import (
	"github.com/udisondev/npcmind/internal/behaviors/follow"
	"github.com/udisondev/npcmind/internal/behaviors/police"
	"github.com/udisondev/npcmind/internal/behaviors/rappel"
	"github.com/udisondev/npcmind/internal/model"
	"github.com/udisondev/npcmind/internal/npc"
)

// Leaf class tags.
const (
	ClassMetrocop = "metrocop"
	ClassSoldier  = "soldier"
)

// FlexJaw is the flex controller moved while talking.
const FlexJaw = "jaw"

// Deps are the scene services shared by every NPC.
type Deps struct {
	Clock    npc.Clock
	World    npc.World
	Sound    npc.SoundSystem
	Physics  npc.Physics
	Animator npc.Animator
	Ropes    rappel.RopeFactory
	// NewNavigator creates the navigator of one NPC.
	NewNavigator func() npc.Navigator
}

// Tuning holds the parameters of the NPC and of every module.
type Tuning struct {
	NPC    npc.Params
	Police police.Params
	Rappel rappel.Params
	Follow follow.Params
}

// DefaultTuning returns the stock tuning.
func DefaultTuning() Tuning {
	return Tuning{
		NPC:    npc.DefaultParams(),
		Police: police.DefaultParams(),
		Rappel: rappel.DefaultParams(),
		Follow: follow.DefaultParams(),
	}
}

func newNPC(class string, id model.EntityID, name string, pos model.Vector, d Deps, t Tuning) *npc.NPC {
	n := npc.New(npc.Options{
		ID:        id,
		Name:      name,
		Class:     class,
		Position:  pos,
		Params:    t.NPC,
		Clock:     d.Clock,
		World:     d.World,
		Navigator: d.NewNavigator(),
		Animator:  d.Animator,
		Sound:     d.Sound,
		Physics:   d.Physics,
	})
	n.RegisterPoseParameter(npc.PoseHeadYaw)
	n.RegisterFlexController(FlexJaw)
	n.SetMouthFlex(FlexJaw)
	return n
}

// Metrocop guards a post and follows a leader when off duty.
type Metrocop struct {
	*npc.NPC
	Police *police.Module
	Follow *follow.Module
}

// NewMetrocop creates a metrocop with modules [police, follow].
func NewMetrocop(id model.EntityID, name string, pos model.Vector, d Deps, t Tuning) *Metrocop {
	n := newNPC(ClassMetrocop, id, name, pos, d, t)
	m := &Metrocop{
		NPC:    n,
		Police: police.New(n, t.Police),
		Follow: follow.New(n, t.Follow),
	}
	n.AddModule(m.Police)
	n.AddModule(m.Follow)
	return m
}

// Soldier rappels into the scene and then follows its squad leader.
type Soldier struct {
	*npc.NPC
	Rappel *rappel.Module
	Follow *follow.Module
}

// NewSoldier creates a soldier with modules [rappel, follow].
func NewSoldier(id model.EntityID, name string, pos model.Vector, d Deps, t Tuning) *Soldier {
	if d.Ropes == nil {
		panic("npcs: soldier " + name + " created without a rope factory")
	}
	n := newNPC(ClassSoldier, id, name, pos, d, t)
	s := &Soldier{
		NPC:    n,
		Rappel: rappel.New(n, d.Ropes, t.Rappel),
		Follow: follow.New(n, t.Follow),
	}
	n.AddModule(s.Rappel)
	n.AddModule(s.Follow)
	return s
}
