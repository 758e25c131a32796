package idspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.Register("police", LocalBase)
	r.Register("rappel", LocalBase)
	return r
}

func TestBelongsToClass(t *testing.T) {
	r := newTestRegistry()

	tests := []struct {
		name  string
		class string
		id    int
		want  bool
	}{
		{"below base is base vocabulary", "police", LocalBase - 1, false},
		{"first local id", "police", LocalBase, true},
		{"last local id", "police", LocalBase + Span - 1, true},
		{"one past span", "police", LocalBase + Span, false},
		{"unknown class", "turret", LocalBase, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.BelongsToClass(tt.class, tt.id))
		})
	}
}

func TestTable_Bijection(t *testing.T) {
	r := newTestRegistry()
	tbl := r.Table("metrocop")

	for _, kind := range []Kind{KindSchedule, KindTask, KindCondition} {
		for local := LocalBase; local < LocalBase+50; local++ {
			g := tbl.LocalToGlobal(kind, "police", local)
			require.GreaterOrEqual(t, g, GlobalBase)
			assert.Equal(t, local, tbl.GlobalToLocal(kind, "police", g), "kind %s local %d", kind, local)
		}
	}
}

func TestTable_SameLocalDifferentClassesDoNotCollide(t *testing.T) {
	r := newTestRegistry()
	tbl := r.Table("metrocop")

	gPolice := tbl.LocalToGlobal(KindSchedule, "police", LocalBase+1)
	gRappel := tbl.LocalToGlobal(KindSchedule, "rappel", LocalBase+1)

	assert.NotEqual(t, gPolice, gRappel)
	assert.True(t, tbl.OwnsGlobal(KindSchedule, "police", gPolice))
	assert.False(t, tbl.OwnsGlobal(KindSchedule, "police", gRappel))
}

func TestTable_TranslationIsCached(t *testing.T) {
	r := newTestRegistry()
	tbl := r.Table("metrocop")

	first := tbl.LocalToGlobal(KindTask, "police", LocalBase+3)
	second := tbl.LocalToGlobal(KindTask, "police", LocalBase+3)
	assert.Equal(t, first, second)
	assert.Same(t, tbl, r.Table("metrocop"))
}

func TestTable_LeafClassesAreIsolated(t *testing.T) {
	r := newTestRegistry()
	a := r.Table("metrocop")
	b := r.Table("soldier")

	// Allocate in different orders so the numbering differs.
	a.LocalToGlobal(KindSchedule, "police", LocalBase+1)
	ga := a.LocalToGlobal(KindSchedule, "rappel", LocalBase+1)
	gb := b.LocalToGlobal(KindSchedule, "rappel", LocalBase+1)

	assert.NotEqual(t, ga, gb)
	assert.False(t, b.OwnsGlobal(KindSchedule, "rappel", ga+100))
}

func TestTable_PassThrough(t *testing.T) {
	r := newTestRegistry()
	tbl := r.Table("metrocop")

	assert.Equal(t, 7, tbl.ToGlobal(KindSchedule, "police", 7))
	assert.Equal(t, 7, tbl.ToLocal(KindSchedule, "police", 7))

	g := tbl.ToGlobal(KindSchedule, "police", LocalBase+2)
	assert.Equal(t, LocalBase+2, tbl.ToLocal(KindSchedule, "police", g))
	// Not owned by rappel: passes through unchanged.
	assert.Equal(t, g, tbl.ToLocal(KindSchedule, "rappel", g))
}

func TestTable_UnregisteredTranslationPanics(t *testing.T) {
	r := newTestRegistry()
	tbl := r.Table("metrocop")

	assert.Panics(t, func() { tbl.LocalToGlobal(KindTask, "police", 5) })
	assert.Panics(t, func() { tbl.LocalToGlobal(KindTask, "turret", LocalBase) })
	assert.Panics(t, func() { tbl.GlobalToLocal(KindTask, "police", GlobalBase+999) })

	g := tbl.LocalToGlobal(KindTask, "rappel", LocalBase)
	assert.Panics(t, func() { tbl.GlobalToLocal(KindTask, "police", g) })
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("follow", LocalBase)
	r.Register("follow", LocalBase)

	assert.Panics(t, func() { r.Register("follow", LocalBase+Span) })
	assert.Panics(t, func() { r.Register("bad", LocalBase-1) })
	assert.Panics(t, func() { r.Register("", LocalBase) })

	r.Register("follow_ext", LocalBase+Span)
	assert.True(t, r.BelongsToClass("follow_ext", LocalBase+Span))
	assert.False(t, r.BelongsToClass("follow_ext", LocalBase))
}

func TestTable_Describe(t *testing.T) {
	r := newTestRegistry()
	tbl := r.Table("metrocop")

	g := tbl.LocalToGlobal(KindCondition, "police", LocalBase+4)
	assert.Equal(t, "police:1004", tbl.Describe(KindCondition, g))
	assert.Equal(t, "base:3", tbl.Describe(KindCondition, 3))
}
