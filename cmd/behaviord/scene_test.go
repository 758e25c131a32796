package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/behaviors/rappel"
	"github.com/udisondev/npcmind/internal/config"
	"github.com/udisondev/npcmind/internal/db"
)

func newTestScene(t *testing.T, cfg config.Behaviord) (*scene, *ai.TickManager) {
	t.Helper()

	clock := ai.NewSimClock()
	sc, err := buildScene(cfg, clock, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	mgr := ai.NewTickManager(cfg.TickInterval, clock)
	sc.register(mgr)
	return sc, mgr
}

func TestBuildScene(t *testing.T) {
	cfg := config.Default()
	sc, mgr := newTestScene(t, cfg)

	assert.Equal(t, 1+cfg.Scene.Citizens+cfg.Scene.Soldiers, sc.world.Count())
	assert.Equal(t, sc.world.Count(), mgr.Count())
	require.Len(t, sc.soldiers, 2)
	for _, sol := range sc.soldiers {
		assert.Equal(t, rappel.StateWaiting, sol.Rappel.State())
		assert.Equal(t, sc.cop.ID(), sol.Follow.Target())
		assert.Equal(t, 2, sol.SquadSize())
	}
	require.NotNil(t, sc.cop.Police.Goal())
	assert.Equal(t, sc.citizens[0].ID(), sc.cop.Police.Goal().Target)
}

func TestScene_HostileCopCallsInOverwatch(t *testing.T) {
	cfg := config.Default()
	sc, mgr := newTestScene(t, cfg)

	for range 600 {
		mgr.TickOnce()
		if sc.soldiers[0].Rappel.State() == rappel.StateLanded {
			break
		}
	}

	assert.Positive(t, sc.sound.Played(), "cop warned before turning hostile")
	for _, sol := range sc.soldiers {
		assert.NotEqual(t, rappel.StateWaiting, sol.Rappel.State(), sol.Name())
	}
	assert.Equal(t, rappel.StateLanded, sc.soldiers[0].Rappel.State())
}

func TestWalker_PacesBetweenPoints(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.Soldiers = 0
	sc, mgr := newTestScene(t, cfg)
	w := sc.citizens[0]

	// 300 units at 40/s.
	for range 75 {
		mgr.TickOnce()
	}
	assert.InDelta(t, 150.0, w.Position().X, 1e-6)
	assert.False(t, w.toB)

	mgr.TickOnce()
	assert.Less(t, w.Position().X, 150.0)
}

func TestWalker_StartAfterClockJump(t *testing.T) {
	cfg := config.Default()
	cfg.Scene.Soldiers = 0
	clock := ai.NewSimClock()
	sc, err := buildScene(cfg, clock, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	w := sc.citizens[0]
	start := w.Position()

	clock.Set(10 * time.Minute)
	mgr := ai.NewTickManager(cfg.TickInterval, clock)
	sc.register(mgr)
	mgr.TickOnce()

	step := cfg.Scene.CitizenSpeed * cfg.TickInterval.Seconds()
	assert.InDelta(t, step, w.Position().Distance(start), 1e-6)
}

func TestSaveAndRestoreThroughRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	store, err := db.NewRedisSnapshotStore(ctx, db.RedisOptions{Addr: mr.Addr(), KeyPrefix: "test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	sc, mgr := newTestScene(t, cfg)
	for range 80 {
		mgr.TickOnce()
	}
	saveAll(ctx, store, sc.NPCs())
	assert.True(t, mr.Exists("test:metrocop"))
	assert.True(t, mr.Exists("test:soldier-2"))

	clock := ai.NewSimClock()
	fresh, err := buildScene(cfg, clock, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	require.NoError(t, restore(ctx, store, clock, fresh.NPCs()))

	assert.Equal(t, mgr.Clock().Now(), clock.Now())
	assert.Equal(t, sc.cop.Police.State(), fresh.cop.Police.State())
	assert.Equal(t, sc.cop.Police.Warnings(), fresh.cop.Police.Warnings())
	assert.Equal(t, sc.cop.Position(), fresh.cop.Position())
}

func TestSaveLoopStopsWithContext(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := db.NewRedisSnapshotStore(context.Background(), db.RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.Default()
	cfg.TickInterval = 5 * time.Millisecond
	sc, mgr := newTestScene(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = mgr.Start(ctx) }()

	done := make(chan error, 1)
	go func() { done <- saveLoop(ctx, mgr, store, sc.NPCs(), 10*time.Millisecond) }()

	require.Eventually(t, func() bool { return mr.Exists("metrocop") }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("save loop did not stop")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}
