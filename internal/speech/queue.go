// Package speech implements the per-NPC sentence queue: criteria and sound
// gating for immediate speech, and a single deferred slot that is retried
// every tick until it plays or times out.
package speech

import (
	"log/slog"
	"time"

	"github.com/udisondev/npcmind/internal/ai"
)

// DefaultPerMemberTimeout is how long a queued sentence waits per squad member.
const DefaultPerMemberTimeout = 2 * time.Second

// Priority of a sentence. Higher priorities interrupt lower ones in the sound gate.
type Priority int

const (
	// PriorityInvalid skips the sound gate entirely.
	PriorityInvalid Priority = iota - 1
	PriorityNormal
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityInvalid:
		return "invalid"
	case PriorityNormal:
		return "normal"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Criteria restricts who may say a sentence.
type Criteria int

const (
	CriteriaAlways Criteria = iota
	// CriteriaNormal requires the speaker not to be gagged, unless in combat.
	CriteriaNormal
	// CriteriaInSquad additionally requires a squad of two or more.
	CriteriaInSquad
	// CriteriaSquadLeader additionally requires the speaker to lead the squad.
	CriteriaSquadLeader
)

// Handle identifies a playing sentence.
type Handle int

// NoHandle is returned when nothing was played.
const NoHandle Handle = -1

// Owner is the NPC doing the talking.
type Owner interface {
	Name() string
	InCombat() bool
	Gagged() bool
	// SquadSize counts squad members including the owner; 0 when not in a squad.
	SquadSize() int
	IsSquadLeader() bool
	MayMakeSound(p Priority) bool
	JustMadeSound(p Priority, length time.Duration)
}

// Voice resolves and plays sentences.
type Voice interface {
	// PickSentence draws a random sentence from a group; ok is false when the group is empty.
	PickSentence(root string) (index int, ok bool)
	PlaySentence(index int) (Handle, time.Duration)
}

// Clock returns current simulation time.
type Clock interface {
	Now() time.Duration
}

// Pending is the deferred sentence slot.
type Pending struct {
	Sentence int           `json:"sentence"`
	Deadline time.Duration `json:"deadline"`
	Priority Priority      `json:"priority"`
	Criteria Criteria      `json:"criteria"`
}

// Queue is owned by one NPC. Not thread-safe.
type Queue struct {
	owner     Owner
	voice     Voice
	clock     Clock
	perMember time.Duration
	pending   *Pending
}

// NewQueue creates a queue. perMember <= 0 selects DefaultPerMemberTimeout.
func NewQueue(owner Owner, voice Voice, clock Clock, perMember time.Duration) *Queue {
	if perMember <= 0 {
		perMember = DefaultPerMemberTimeout
	}
	return &Queue{owner: owner, voice: voice, clock: clock, perMember: perMember}
}

// Speak tries to say a sentence from root right now. It never queues.
func (q *Queue) Speak(root string, p Priority, c Criteria) (Handle, bool) {
	if !q.matches(c) {
		return NoHandle, false
	}
	q.pending = nil

	if p != PriorityInvalid && !q.owner.MayMakeSound(p) {
		return NoHandle, false
	}
	idx, ok := q.voice.PickSentence(root)
	if !ok {
		return NoHandle, false
	}
	return q.play(idx, p), true
}

// SpeakQueued is Speak, but when the gate blocks it stores a sentence from
// root in the pending slot. The immediate attempt always draws a sentence,
// played or not, and the queued slot draws its own.
func (q *Queue) SpeakQueued(root string, p Priority, c Criteria) (Handle, bool) {
	if !q.matches(c) {
		return NoHandle, false
	}
	q.pending = nil

	idx, ok := q.voice.PickSentence(root)
	if !ok {
		return NoHandle, false
	}
	if p == PriorityInvalid || q.owner.MayMakeSound(p) {
		return q.play(idx, p), true
	}

	idx, ok = q.voice.PickSentence(root)
	if !ok {
		return NoHandle, false
	}
	q.pending = &Pending{
		Sentence: idx,
		Deadline: q.clock.Now() + q.perMember*time.Duration(max(q.owner.SquadSize(), 1)),
		Priority: p,
		Criteria: c,
	}
	return NoHandle, false
}

// UpdateSentenceQueue drops the pending sentence once its deadline passed,
// otherwise plays it as soon as the gate opens. Called every tick.
func (q *Queue) UpdateSentenceQueue() {
	if q.pending == nil {
		return
	}
	p := q.pending

	if p.Deadline < q.clock.Now() {
		if ai.IsDebugEnabled() {
			slog.Debug("queued sentence expired",
				"npc", q.owner.Name(),
				"sentence", p.Sentence)
		}
		q.pending = nil
		return
	}
	if !q.matches(p.Criteria) {
		q.pending = nil
		return
	}
	if p.Priority != PriorityInvalid && !q.owner.MayMakeSound(p.Priority) {
		return
	}

	q.pending = nil
	q.play(p.Sentence, p.Priority)
}

// HasPending reports whether a sentence is waiting.
func (q *Queue) HasPending() bool {
	return q.pending != nil
}

// Pending returns a copy of the waiting sentence.
func (q *Queue) Pending() (Pending, bool) {
	if q.pending == nil {
		return Pending{}, false
	}
	return *q.pending, true
}

// Restore replaces the pending slot, typically from a snapshot.
func (q *Queue) Restore(p *Pending) {
	if p == nil {
		q.pending = nil
		return
	}
	cp := *p
	q.pending = &cp
}

// Clear drops the pending sentence.
func (q *Queue) Clear() {
	q.pending = nil
}

func (q *Queue) play(idx int, p Priority) Handle {
	h, length := q.voice.PlaySentence(idx)
	q.owner.JustMadeSound(p, length)
	return h
}

func (q *Queue) matches(c Criteria) bool {
	switch c {
	case CriteriaAlways:
		return true
	case CriteriaNormal:
		return q.owner.InCombat() || !q.owner.Gagged()
	case CriteriaInSquad:
		return (q.owner.InCombat() || !q.owner.Gagged()) && q.owner.SquadSize() > 1
	case CriteriaSquadLeader:
		return (q.owner.InCombat() || !q.owner.Gagged()) && q.owner.SquadSize() > 1 && q.owner.IsSquadLeader()
	default:
		return false
	}
}
