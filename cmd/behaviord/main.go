// Command behaviord runs the NPC behavior demo scene on a fixed tick and
// periodically saves NPC snapshots to the configured store.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/config"
	"github.com/udisondev/npcmind/internal/db"
	"github.com/udisondev/npcmind/internal/npc"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := parseLogLevel(cfg.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	ai.EnableDebugLogging(logLevel == slog.LevelDebug)

	slog.Info("behaviord starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"tick", cfg.TickInterval,
		"store", cfg.Store)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	clock := ai.NewSimClock()
	sc, err := buildScene(cfg, clock, rand.New(rand.NewPCG(1, uint64(time.Now().UnixNano()))))
	if err != nil {
		return fmt.Errorf("building scene: %w", err)
	}

	if store != nil {
		if err := restore(ctx, store, clock, sc.NPCs()); err != nil {
			return err
		}
	}

	mgr := ai.NewTickManager(cfg.TickInterval, clock)
	sc.register(mgr)

	slog.Info("scene ready",
		"entities", sc.world.Count(),
		"controllers", mgr.Count())

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := mgr.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("tick manager: %w", err)
		}
		return nil
	})

	if store != nil {
		g.Go(func() error {
			return saveLoop(gctx, mgr, store, sc.NPCs(), cfg.SaveInterval)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("behaviord: %w", err)
	}

	if store != nil {
		// The tick loop is gone, NPC state can be read directly.
		saveAll(context.WithoutCancel(ctx), store, sc.NPCs())
	}
	slog.Info("behaviord stopped", "ticks", mgr.Ticks(), "sim_time", clock.Now())
	return nil
}

// openStore connects the configured snapshot store. A nil store means
// snapshots are off.
func openStore(ctx context.Context, cfg config.Behaviord) (db.SnapshotStore, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		database, err := db.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		slog.Info("database connected")

		if err := db.MigratePool(ctx, database); err != nil {
			database.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")
		return db.NewSnapshotRepository(database.Pool()), database.Close, nil

	case config.StoreRedis:
		rs, err := db.NewRedisSnapshotStore(ctx, db.RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
			TTL:       cfg.Redis.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("redis connected", "addr", cfg.Redis.Addr)
		return rs, func() {
			if err := rs.Close(); err != nil {
				slog.Warn("closing redis", "error", err)
			}
		}, nil
	}
	return nil, func() {}, nil
}

// restore applies stored snapshots to freshly built NPCs. The clock moves
// to the latest saved time first so module timers keep their meaning.
func restore(ctx context.Context, store db.SnapshotStore, clock *ai.SimClock, npcs []*npc.NPC) error {
	saved := make(map[*npc.NPC]db.SavedSnapshot, len(npcs))
	for _, n := range npcs {
		s, ok, err := store.Load(ctx, n.Name())
		if err != nil {
			return fmt.Errorf("restoring %s: %w", n.Name(), err)
		}
		if !ok {
			continue
		}
		saved[n] = s
		if s.Snapshot.Clock > clock.Now() {
			clock.Set(s.Snapshot.Clock)
		}
	}

	for n, s := range saved {
		if err := n.RestoreSnapshot(s.Snapshot); err != nil {
			slog.Warn("snapshot ignored", "npc", n.Name(), "revision", s.Revision, "error", err)
			continue
		}
		slog.Info("npc restored",
			"npc", n.Name(),
			"revision", s.Revision,
			"saved_at", s.SavedAt,
			"state", n.CurrentState())
	}
	return nil
}

// saveLoop snapshots every NPC on the tick goroutine at each interval and
// writes them out from here.
func saveLoop(ctx context.Context, mgr *ai.TickManager, store db.SnapshotStore, npcs []*npc.NPC, interval time.Duration) error {
	if interval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		var snaps []npc.Snapshot
		err := mgr.Do(ctx, func() {
			snaps = snapshots(npcs)
		})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, ai.ErrStopped) {
				return nil
			}
			return fmt.Errorf("taking snapshots: %w", err)
		}
		write(ctx, store, snaps)
	}
}

func saveAll(ctx context.Context, store db.SnapshotStore, npcs []*npc.NPC) {
	write(ctx, store, snapshots(npcs))
}

func snapshots(npcs []*npc.NPC) []npc.Snapshot {
	out := make([]npc.Snapshot, 0, len(npcs))
	for _, n := range npcs {
		s, err := n.Snapshot()
		if err != nil {
			slog.Warn("snapshot failed", "npc", n.Name(), "error", err)
			continue
		}
		out = append(out, s)
	}
	return out
}

// write saves every snapshot. A failed save is logged and retried on the
// next round.
func write(ctx context.Context, store db.SnapshotStore, snaps []npc.Snapshot) {
	saved := 0
	for _, s := range snaps {
		if _, err := store.Save(ctx, s); err != nil {
			slog.Error("saving snapshot", "npc", s.Name, "error", err)
			continue
		}
		saved++
	}
	if ai.IsDebugEnabled() {
		slog.Debug("snapshots saved", "count", saved, "of", len(snaps))
	}
}

// parseLogLevel converts string log level to slog.Level.
// Defaults to Info if invalid or empty.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
