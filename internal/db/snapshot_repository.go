package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/npcmind/internal/ai"
	"github.com/udisondev/npcmind/internal/npc"
)

// SnapshotRepository stores NPC snapshots in PostgreSQL. NPC-level fields
// go to npc_snapshots, per-module state to npc_module_states.
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a repository on pool.
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

// Save replaces the stored snapshot of s.Name in one transaction.
func (r *SnapshotRepository) Save(ctx context.Context, s npc.Snapshot) (uuid.UUID, error) {
	rev := uuid.New()

	body := s
	body.Behaviors = ai.Snapshot{}
	data, err := json.Marshal(body)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding snapshot of %s: %w", s.Name, err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin transaction for %s: %w", s.Name, err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "npc", s.Name, "error", err)
		}
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO npc_snapshots (npc_name, revision, npc_id, class, active_module, body, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (npc_name) DO UPDATE SET
			revision = EXCLUDED.revision,
			npc_id = EXCLUDED.npc_id,
			class = EXCLUDED.class,
			active_module = EXCLUDED.active_module,
			body = EXCLUDED.body,
			saved_at = EXCLUDED.saved_at
	`, s.Name, rev, int64(s.ID), s.Class, s.Behaviors.Active, data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("saving snapshot of %s: %w", s.Name, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM npc_module_states WHERE npc_name = $1`, s.Name); err != nil {
		return uuid.Nil, fmt.Errorf("deleting old module states of %s: %w", s.Name, err)
	}

	if len(s.Behaviors.Modules) > 0 {
		rows := make([][]any, 0, len(s.Behaviors.Modules))
		for i, m := range s.Behaviors.Modules {
			var state any
			if len(m.Data) > 0 {
				state = []byte(m.Data)
			}
			rows = append(rows, []any{s.Name, int32(i), m.Name, state})
		}
		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"npc_module_states"},
			[]string{"npc_name", "position", "module", "data"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("inserting module states of %s: %w", s.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("commit snapshot of %s: %w", s.Name, err)
	}

	slog.Debug("saved npc snapshot",
		"npc", s.Name,
		"revision", rev,
		"modules", len(s.Behaviors.Modules))

	return rev, nil
}

// Load reads the latest snapshot of name.
func (r *SnapshotRepository) Load(ctx context.Context, name string) (SavedSnapshot, bool, error) {
	var (
		saved  SavedSnapshot
		active int32
		body   []byte
	)
	err := r.pool.QueryRow(ctx, `
		SELECT revision, active_module, body, saved_at
		FROM npc_snapshots
		WHERE npc_name = $1
	`, name).Scan(&saved.Revision, &active, &body, &saved.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return SavedSnapshot{}, false, nil
	}
	if err != nil {
		return SavedSnapshot{}, false, fmt.Errorf("loading snapshot of %s: %w", name, err)
	}

	if err := json.Unmarshal(body, &saved.Snapshot); err != nil {
		return SavedSnapshot{}, false, fmt.Errorf("decoding snapshot of %s: %w", name, err)
	}
	saved.Snapshot.Behaviors = ai.Snapshot{Active: int(active)}

	rows, err := r.pool.Query(ctx, `
		SELECT module, data
		FROM npc_module_states
		WHERE npc_name = $1
		ORDER BY position
	`, name)
	if err != nil {
		return SavedSnapshot{}, false, fmt.Errorf("loading module states of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			module string
			data   []byte
		)
		if err := rows.Scan(&module, &data); err != nil {
			return SavedSnapshot{}, false, fmt.Errorf("scanning module state of %s: %w", name, err)
		}
		saved.Snapshot.Behaviors.Modules = append(saved.Snapshot.Behaviors.Modules, ai.ModuleState{
			Name: module,
			Data: data,
		})
	}
	if err := rows.Err(); err != nil {
		return SavedSnapshot{}, false, fmt.Errorf("iterating module states of %s: %w", name, err)
	}

	saved.SavedAt = saved.SavedAt.UTC()
	return saved, true, nil
}

// Delete removes the snapshot of name. Module states go with it.
func (r *SnapshotRepository) Delete(ctx context.Context, name string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM npc_snapshots WHERE npc_name = $1`, name); err != nil {
		return fmt.Errorf("deleting snapshot of %s: %w", name, err)
	}
	return nil
}
