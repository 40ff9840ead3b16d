package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/Alias1177/SignalEngine/models"
)

const (
	redisIndexKey    = "signalengine:signals:index"
	redisRecordKeyPF = "signalengine:signals:"
)

// RedisStore persists the signal history in Redis: an index list of ids,
// newest first, plus one JSON blob per record. The index list carries the
// retention bound.
type RedisStore struct {
	client    *redis.Client
	retention int
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db, retention int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client, retention: retention}, nil
}

func recordKey(id string) string {
	return redisRecordKeyPF + id
}

// Append stores the record and evicts past the retention bound.
func (s *RedisStore) Append(ctx context.Context, signal models.PersistedSignal) error {
	data, err := json.Marshal(signal)
	if err != nil {
		return fmt.Errorf("failed to encode signal: %w", err)
	}

	if err := s.client.Set(ctx, recordKey(signal.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store signal: %w", err)
	}
	if err := s.client.LPush(ctx, redisIndexKey, signal.ID).Err(); err != nil {
		return fmt.Errorf("failed to index signal: %w", err)
	}

	// Evict ids past the bound along with their blobs.
	for {
		n, err := s.client.LLen(ctx, redisIndexKey).Result()
		if err != nil {
			return err
		}
		if n <= int64(s.retention) {
			return nil
		}
		id, err := s.client.RPop(ctx, redisIndexKey).Result()
		if err != nil {
			return err
		}
		if err := s.client.Del(ctx, recordKey(id)).Err(); err != nil {
			return err
		}
	}
}

// UpdateStatus resolves a record. Terminal records are never mutated.
func (s *RedisStore) UpdateStatus(ctx context.Context, id string, status models.SignalStatus, outcome models.SignalOutcome) error {
	data, err := s.client.Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load signal: %w", err)
	}

	var record models.PersistedSignal
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("failed to decode signal: %w", err)
	}
	if record.Status.Terminal() {
		return nil
	}

	record.Status = status
	if outcome != "" {
		record.Outcome = outcome
	}
	updated, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, recordKey(id), updated, 0).Err()
}

// List returns retained records, newest first. Records whose blobs are
// missing or corrupt are skipped.
func (s *RedisStore) List(ctx context.Context) ([]models.PersistedSignal, error) {
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read signal index: %w", err)
	}

	var out []models.PersistedSignal
	for _, id := range ids {
		data, err := s.client.Get(ctx, recordKey(id)).Bytes()
		if err != nil {
			continue
		}
		var record models.PersistedSignal
		if err := json.Unmarshal(data, &record); err != nil || !valid(record) {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

// ClearAll wipes the index and all record blobs.
func (s *RedisStore) ClearAll(ctx context.Context) error {
	ids, err := s.client.LRange(ctx, redisIndexKey, 0, -1).Result()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.client.Del(ctx, recordKey(id)).Err(); err != nil {
			return err
		}
	}
	return s.client.Del(ctx, redisIndexKey).Err()
}

// Close releases the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
