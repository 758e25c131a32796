package testutil

import (
	"time"

	"github.com/udisondev/npcmind/internal/model"
)

// Navigator moves in a straight line at Speed units per second.
// NoRoute makes every goal unreachable.
type Navigator struct {
	Speed   float64
	NoRoute bool

	Goals  []model.Vector
	goal   model.Vector
	routed bool
}

// NewNavigator creates a navigator moving at speed.
func NewNavigator(speed float64) *Navigator {
	return &Navigator{Speed: speed}
}

func (n *Navigator) SetGoal(_, to model.Vector) bool {
	n.Goals = append(n.Goals, to)
	if n.NoRoute {
		n.routed = false
		return false
	}
	n.goal, n.routed = to, true
	return true
}

func (n *Navigator) ClearGoal() {
	n.routed = false
}

func (n *Navigator) HasRoute() bool {
	return n.routed && !n.NoRoute
}

// Goal returns the current goal.
func (n *Navigator) Goal() (model.Vector, bool) {
	return n.goal, n.routed
}

func (n *Navigator) Step(from model.Vector, dt time.Duration) (model.Vector, bool) {
	if !n.routed {
		return from, false
	}
	dir, dist := n.goal.Sub(from).Normalized()
	step := n.Speed * dt.Seconds()
	if step >= dist {
		return n.goal, true
	}
	return from.Add(dir.Scale(step)), false
}

// PlayedSentence is one recorded playback.
type PlayedSentence struct {
	Speaker model.EntityID
	Index   int
	Root    string
}

// Sound records sentence playback. Sentence groups are registered with
// Group; indices are handed out in registration order.
type Sound struct {
	Length time.Duration

	groups map[string][]int
	roots  map[int]string
	draws  map[string]int
	next   int
	Played []PlayedSentence
}

// NewSound creates a recorder whose sentences last length.
func NewSound(length time.Duration) *Sound {
	return &Sound{
		Length: length,
		groups: make(map[string][]int),
		roots:  make(map[int]string),
		draws:  make(map[string]int),
	}
}

// Group registers a sentence group of size sentences.
func (s *Sound) Group(root string, size int) {
	for range size {
		s.next++
		s.groups[root] = append(s.groups[root], s.next)
		s.roots[s.next] = root
	}
}

// PickSentence cycles through a group so consecutive draws differ.
func (s *Sound) PickSentence(root string) (int, bool) {
	g := s.groups[root]
	if len(g) == 0 {
		return 0, false
	}
	i := s.draws[root] % len(g)
	s.draws[root]++
	return g[i], true
}

func (s *Sound) PlaySentence(speaker model.EntityID, index int) (int, time.Duration) {
	s.Played = append(s.Played, PlayedSentence{Speaker: speaker, Index: index, Root: s.roots[index]})
	return len(s.Played), s.Length
}

// Roots returns the group of every played sentence, in order.
func (s *Sound) Roots() []string {
	out := make([]string, len(s.Played))
	for i, p := range s.Played {
		out[i] = p.Root
	}
	return out
}

// Animator knows a fixed set of control names and records pose writes.
type Animator struct {
	Poses   map[string]int
	Flex    map[string]int
	Set     map[int]float64
	FlexSet map[int]float64
}

// NewAnimator creates an animator with the given pose and flex names.
func NewAnimator(poses, flex []string) *Animator {
	a := &Animator{
		Poses:   make(map[string]int),
		Flex:    make(map[string]int),
		Set:     make(map[int]float64),
		FlexSet: make(map[int]float64),
	}
	for i, name := range poses {
		a.Poses[name] = i
	}
	for i, name := range flex {
		a.Flex[name] = i
	}
	return a
}

func (a *Animator) LookupPoseParameter(name string) (int, bool) {
	h, ok := a.Poses[name]
	return h, ok
}

func (a *Animator) LookupFlexController(name string) (int, bool) {
	h, ok := a.Flex[name]
	return h, ok
}

func (a *Animator) SetPoseParameter(_ model.EntityID, handle int, value float64) {
	a.Set[handle] = value
}

func (a *Animator) SetFlexWeight(_ model.EntityID, handle int, value float64) {
	a.FlexSet[handle] = value
}

// Ground is flat ground at height Z.
type Ground struct {
	Z float64
}

func (g Ground) GroundHeight(model.Vector) float64 {
	return g.Z
}

// Rope records whether it was detached.
type Rope struct {
	Anchor   model.Vector
	Detaches int
}

func (r *Rope) Detach() {
	r.Detaches++
}

// Ropes hands out recording ropes.
type Ropes struct {
	Made []*Rope
}

func (f *Ropes) AttachRope(anchor model.Vector, _ model.EntityID) model.Attachment {
	r := &Rope{Anchor: anchor}
	f.Made = append(f.Made, r)
	return r
}
