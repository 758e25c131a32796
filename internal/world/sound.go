package world

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/udisondev/npcmind/internal/model"
)

// Sentence timing used when a line has no recorded length.
const (
	sentenceWordTime = 300 * time.Millisecond
	sentenceMinTime  = 500 * time.Millisecond
)

// Sentence is one spoken line.
type Sentence struct {
	Root   string
	Text   string
	Length time.Duration
}

// SentenceLength estimates how long a line takes to say.
func SentenceLength(text string) time.Duration {
	return max(time.Duration(len(strings.Fields(text)))*sentenceWordTime, sentenceMinTime)
}

// SoundArbiter owns the sentence table and plays lines. Playback is
// reported through slog; there is no audio. Safe for concurrent use.
type SoundArbiter struct {
	mu        sync.Mutex
	rng       *rand.Rand
	groups    map[string][]int
	sentences []Sentence
	played    int
}

// NewSoundArbiter creates an empty arbiter. rng may be nil.
func NewSoundArbiter(rng *rand.Rand) *SoundArbiter {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &SoundArbiter{rng: rng, groups: make(map[string][]int)}
}

// AddGroup adds lines to a sentence group.
func (s *SoundArbiter) AddGroup(root string, lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, text := range lines {
		s.groups[root] = append(s.groups[root], len(s.sentences))
		s.sentences = append(s.sentences, Sentence{Root: root, Text: text, Length: SentenceLength(text)})
	}
}

// PickSentence draws a random sentence of a group.
func (s *SoundArbiter) PickSentence(root string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.groups[root]
	if len(g) == 0 {
		return 0, false
	}
	return g[s.rng.IntN(len(g))], true
}

// Sentence returns a sentence by index.
func (s *SoundArbiter) Sentence(index int) (Sentence, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.sentences) {
		return Sentence{}, false
	}
	return s.sentences[index], true
}

// PlaySentence plays a sentence and returns its handle and length.
// An unknown index plays nothing and lasts zero.
func (s *SoundArbiter) PlaySentence(speaker model.EntityID, index int) (int, time.Duration) {
	sentence, ok := s.Sentence(index)
	if !ok {
		slog.Warn("unknown sentence", "speaker", speaker, "index", index)
		return -1, 0
	}

	s.mu.Lock()
	s.played++
	handle := s.played
	s.mu.Unlock()

	slog.Info("npc speaks",
		"speaker", speaker,
		"group", sentence.Root,
		"text", sentence.Text)
	return handle, sentence.Length
}

// Played returns number of sentences played so far.
func (s *SoundArbiter) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}
