package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-chatbot-backend/models"
)

// RedisStore keeps each transcript in a Redis list, one JSON-encoded entry
// per element. The list is trimmed to the most recent maxEntries and the
// key expires after ttl of inactivity, matching the memory backend's
// eviction policy.
type RedisStore struct {
	rdb        *redis.Client
	ttl        time.Duration
	maxEntries int
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, maxEntries int) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if maxEntries <= 0 {
		maxEntries = 100
	}
	return &RedisStore{rdb: rdb, ttl: ttl, maxEntries: maxEntries}
}

func sessionKey(userID string) string {
	return "session:" + userID
}

func (s *RedisStore) History(ctx context.Context, userID string) ([]models.TranscriptEntry, error) {
	raw, err := s.rdb.LRange(ctx, sessionKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("session history for %s: %w", userID, err)
	}

	entries := make([]models.TranscriptEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.TranscriptEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("decode transcript entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisStore) Append(ctx context.Context, userID string, entries ...models.TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		encoded, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode transcript entry: %w", err)
		}
		values = append(values, encoded)
	}

	key := sessionKey(userID)
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.maxEntries), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session append for %s: %w", userID, err)
	}
	return nil
}
