package npc

import (
	"slices"
	"time"
)

// Squad groups NPCs that share a sound channel. The first living member leads.
type Squad struct {
	name    string
	members []*NPC

	// soundWaitUntil keeps squadmates from talking over each other.
	soundWaitUntil time.Duration
}

// NewSquad creates an empty squad.
func NewSquad(name string) *Squad {
	return &Squad{name: name}
}

// Name returns the squad name.
func (s *Squad) Name() string { return s.name }

// Join adds n, moving it out of its previous squad.
func (s *Squad) Join(n *NPC) {
	if n.squad == s {
		return
	}
	if n.squad != nil {
		n.squad.Leave(n)
	}
	s.members = append(s.members, n)
	n.squad = s
}

// Leave removes n.
func (s *Squad) Leave(n *NPC) {
	i := slices.Index(s.members, n)
	if i < 0 {
		return
	}
	s.members = slices.Delete(s.members, i, i+1)
	n.squad = nil
}

// Size returns number of members.
func (s *Squad) Size() int {
	return len(s.members)
}

// Members returns members in join order.
func (s *Squad) Members() []*NPC {
	return s.members
}

// Leader returns the first living member, nil if none.
func (s *Squad) Leader() *NPC {
	for _, m := range s.members {
		if m.alive {
			return m
		}
	}
	return nil
}
