package world

import (
	"sync"

	"github.com/udisondev/npcmind/internal/model"
)

// Skeleton is the animation rig of one NPC model: a fixed set of named
// pose parameters and flex controllers. Pose values are recorded per NPC.
type Skeleton struct {
	poses map[string]int
	flex  map[string]int

	mu      sync.Mutex
	values  map[model.EntityID]map[int]float64
	weights map[model.EntityID]map[int]float64
}

// NewSkeleton creates a rig with the given control names. Handles are the
// positions in the lists.
func NewSkeleton(poses, flex []string) *Skeleton {
	s := &Skeleton{
		poses:   make(map[string]int, len(poses)),
		flex:    make(map[string]int, len(flex)),
		values:  make(map[model.EntityID]map[int]float64),
		weights: make(map[model.EntityID]map[int]float64),
	}
	for i, name := range poses {
		s.poses[name] = i
	}
	for i, name := range flex {
		s.flex[name] = i
	}
	return s
}

func (s *Skeleton) LookupPoseParameter(name string) (int, bool) {
	h, ok := s.poses[name]
	return h, ok
}

func (s *Skeleton) LookupFlexController(name string) (int, bool) {
	h, ok := s.flex[name]
	return h, ok
}

func (s *Skeleton) SetPoseParameter(npc model.EntityID, handle int, value float64) {
	s.set(s.values, npc, handle, value)
}

func (s *Skeleton) SetFlexWeight(npc model.EntityID, handle int, value float64) {
	s.set(s.weights, npc, handle, value)
}

func (s *Skeleton) set(m map[model.EntityID]map[int]float64, npc model.EntityID, handle int, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := m[npc]
	if v == nil {
		v = make(map[int]float64)
		m[npc] = v
	}
	v[handle] = value
}

// PoseValue returns the last value set for a pose parameter of npc.
func (s *Skeleton) PoseValue(npc model.EntityID, handle int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[npc][handle]
	return v, ok
}

// FlexWeight returns the last weight set for a flex controller of npc.
func (s *Skeleton) FlexWeight(npc model.EntityID, handle int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.weights[npc][handle]
	return v, ok
}
