package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/udisondev/npcmind/internal/npc"
)

// RedisOptions configure a RedisSnapshotStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// KeyPrefix is prepended to the NPC name to form the key.
	KeyPrefix string
	// TTL of a stored snapshot. Zero keeps it until overwritten.
	TTL time.Duration
}

// RedisSnapshotStore keeps one JSON value per NPC.
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type redisRecord struct {
	Revision uuid.UUID    `json:"revision"`
	SavedAt  time.Time    `json:"saved_at"`
	Snapshot npc.Snapshot `json:"snapshot"`
}

// NewRedisSnapshotStore connects to Redis and checks the connection.
func NewRedisSnapshotStore(ctx context.Context, opts RedisOptions) (*RedisSnapshotStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis %s: %w", opts.Addr, err)
	}
	return &RedisSnapshotStore{client: rdb, prefix: opts.KeyPrefix, ttl: opts.TTL}, nil
}

// Close closes the Redis connection.
func (s *RedisSnapshotStore) Close() error {
	return s.client.Close()
}

func (s *RedisSnapshotStore) key(name string) string {
	return s.prefix + name
}

// Save writes the snapshot under the NPC's key.
func (s *RedisSnapshotStore) Save(ctx context.Context, snap npc.Snapshot) (uuid.UUID, error) {
	rec := redisRecord{
		Revision: uuid.New(),
		SavedAt:  time.Now().UTC(),
		Snapshot: snap,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encoding snapshot of %s: %w", snap.Name, err)
	}

	if err := s.client.Set(ctx, s.key(snap.Name), data, s.ttl).Err(); err != nil {
		slog.Error("redis snapshot save failed", "npc", snap.Name, "error", err)
		return uuid.Nil, fmt.Errorf("saving snapshot of %s: %w", snap.Name, err)
	}

	slog.Debug("saved npc snapshot", "npc", snap.Name, "revision", rec.Revision)
	return rec.Revision, nil
}

// Load reads the snapshot stored under the NPC's key.
func (s *RedisSnapshotStore) Load(ctx context.Context, name string) (SavedSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return SavedSnapshot{}, false, nil
	}
	if err != nil {
		return SavedSnapshot{}, false, fmt.Errorf("loading snapshot of %s: %w", name, err)
	}

	var rec redisRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return SavedSnapshot{}, false, fmt.Errorf("decoding snapshot of %s: %w", name, err)
	}
	return SavedSnapshot(rec), true, nil
}

// Delete removes the NPC's key.
func (s *RedisSnapshotStore) Delete(ctx context.Context, name string) error {
	if err := s.client.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("deleting snapshot of %s: %w", name, err)
	}
	return nil
}
