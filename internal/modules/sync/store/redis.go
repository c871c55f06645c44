package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	pendingUsersKey = "pending:sync_users"
	maxWatchRetries = 5
)

func bufferKey(kind Kind, userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", kind, userID)
}

// MirrorKey is where pulled remote records of one kind are cached for a user.
func MirrorKey(kind Kind, userID uuid.UUID) string {
	return fmt.Sprintf("remote_%s_%s", kind, userID)
}

func flagKey(userID uuid.UUID) string {
	return fmt.Sprintf("sync_in_progress:%s", userID)
}

func lastSyncKey(userID uuid.UUID) string {
	return fmt.Sprintf("sync_last_success:%s", userID)
}

// RedisStore keeps each buffer as a hash of record id to record JSON and each
// mirror as a JSON array.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, userID uuid.UUID, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", rec.ID, err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, bufferKey(rec.Kind, userID), rec.ID, raw)
	if rec.State == StatePending {
		pipe.SAdd(ctx, pendingUsersKey, userID.String())
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisStore) List(ctx context.Context, kind Kind, userID uuid.UUID) ([]Record, error) {
	return listBuffer(ctx, s.client, bufferKey(kind, userID))
}

func listBuffer(ctx context.Context, c redis.Cmdable, key string) ([]Record, error) {
	values, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(values))
	for id, raw := range values {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode buffered %s %s: %w", key, id, err)
		}
		records = append(records, rec)
	}
	sortRecords(records)
	return records, nil
}

// watchBuffer runs fn in an optimistic transaction on the buffer key,
// retrying when a concurrent writer touches the key first.
func (s *RedisStore) watchBuffer(ctx context.Context, key string, fn func(tx *redis.Tx, current []Record) error) error {
	var err error
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := listBuffer(ctx, tx, key)
			if err != nil {
				return err
			}
			return fn(tx, current)
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *RedisStore) SetState(ctx context.Context, kind Kind, userID uuid.UUID, records []Record, state State, lastErr string) error {
	if len(records) == 0 {
		return nil
	}
	key := bufferKey(kind, userID)

	return s.watchBuffer(ctx, key, func(tx *redis.Tx, current []Record) error {
		changed := withState(current, records, state, lastErr, time.Now().UTC())
		if len(changed) == 0 {
			return nil
		}

		values := make([]any, 0, 2*len(changed))
		for _, rec := range changed {
			raw, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			values = append(values, rec.ID, raw)
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, values...)
			return nil
		})
		return err
	})
}

func (s *RedisStore) PruneSynced(ctx context.Context, kind Kind, userID uuid.UUID, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	key := bufferKey(kind, userID)

	var removed int
	err := s.watchBuffer(ctx, key, func(tx *redis.Tx, current []Record) error {
		prune := syncedAmong(current, ids)
		removed = len(prune)
		if removed == 0 {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, key, prune...)
			return nil
		})
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *RedisStore) Mirror(ctx context.Context, kind Kind, userID uuid.UUID) ([]Record, error) {
	raw, err := s.client.Get(ctx, MirrorKey(kind, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}

	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode mirror %s: %w", kind, err)
	}
	return records, nil
}

func (s *RedisStore) SetMirror(ctx context.Context, kind Kind, userID uuid.UUID, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, MirrorKey(kind, userID), raw, 0).Err()
}

func (s *RedisStore) AcquireSyncFlag(ctx context.Context, userID uuid.UUID, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, flagKey(userID), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// ReleaseSyncFlag leaves a flag alone once it has expired and been taken by
// another pass.
func (s *RedisStore) ReleaseSyncFlag(ctx context.Context, userID uuid.UUID, token string) error {
	key := flagKey(userID)

	var err error
	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			owner, err := tx.Get(ctx, key).Result()
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return err
			}
			if owner != token {
				return nil
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			})
			return err
		}, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (s *RedisStore) SyncInProgress(ctx context.Context, userID uuid.UUID) (bool, error) {
	n, err := s.client.Exists(ctx, flagKey(userID)).Result()
	return n == 1, err
}

func (s *RedisStore) LastSync(ctx context.Context, userID uuid.UUID) (time.Time, bool, error) {
	raw, err := s.client.Get(ctx, lastSyncKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("decode last sync: %w", err)
	}
	return at, true, nil
}

func (s *RedisStore) SetLastSync(ctx context.Context, userID uuid.UUID, at time.Time) error {
	return s.client.Set(ctx, lastSyncKey(userID), at.UTC().Format(time.RFC3339Nano), 0).Err()
}

func (s *RedisStore) PendingUsers(ctx context.Context) ([]uuid.UUID, error) {
	members, err := s.client.SMembers(ctx, pendingUsersKey).Result()
	if err != nil {
		return nil, err
	}

	users := make([]uuid.UUID, 0, len(members))
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			// Garbage in the set is dropped so it cannot wedge the periodic job.
			s.client.SRem(ctx, pendingUsersKey, m)
			continue
		}
		users = append(users, id)
	}
	return users, nil
}

func (s *RedisStore) ClearPending(ctx context.Context, userID uuid.UUID) error {
	return s.client.SRem(ctx, pendingUsersKey, userID.String()).Err()
}
