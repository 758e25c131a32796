package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/npcmind/internal/npc"
)

// SavedSnapshot is a stored NPC snapshot with its revision.
type SavedSnapshot struct {
	Revision uuid.UUID
	SavedAt  time.Time
	Snapshot npc.Snapshot
}

// SnapshotStore persists NPC snapshots keyed by NPC name.
type SnapshotStore interface {
	// Save stores s, replacing any earlier snapshot of the same NPC, and
	// returns the new revision.
	Save(ctx context.Context, s npc.Snapshot) (uuid.UUID, error)
	// Load returns the latest snapshot of the named NPC. ok is false when
	// nothing is stored.
	Load(ctx context.Context, name string) (saved SavedSnapshot, ok bool, err error)
	// Delete removes the named NPC's snapshot. Deleting a missing
	// snapshot is not an error.
	Delete(ctx context.Context, name string) error
}

var (
	_ SnapshotStore = (*SnapshotRepository)(nil)
	_ SnapshotStore = (*RedisSnapshotStore)(nil)
)
