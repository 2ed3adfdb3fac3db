package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "capture:session:"
	sessionSetKey    = "capture:sessions"
	captureLogKey    = "capture:log"
)

// RedisRegistry stores the session registry in Redis, surviving restarts
// and shared across replicas.
type RedisRegistry struct {
	client *redis.Client
}

func NewRedisRegistry(redisURL string) (*RedisRegistry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisRegistry{client: client}, nil
}

func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

func capturesKey(sessionID string) string {
	return sessionKeyPrefix + sessionID + ":captures"
}

func (r *RedisRegistry) Create(ctx context.Context, deviceID string) (string, error) {
	sessionID := uuid.NewString()
	return sessionID, r.Put(ctx, sessionID, deviceID)
}

func (r *RedisRegistry) Put(ctx context.Context, sessionID, deviceID string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(sessionID), map[string]any{
		"device_id": deviceID,
		"created":   time.Now().Format(time.RFC3339Nano),
	})
	pipe.SAdd(ctx, sessionSetKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) Get(ctx context.Context, sessionID string) (*Entry, error) {
	fields, err := r.client.HGetAll(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}

	captures, err := r.client.LRange(ctx, capturesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	created, _ := time.Parse(time.RFC3339Nano, fields["created"])
	return &Entry{
		SessionID: sessionID,
		DeviceID:  fields["device_id"],
		Created:   created,
		Captures:  captures,
	}, nil
}

func (r *RedisRegistry) List(ctx context.Context) ([]Entry, error) {
	ids, err := r.client.SMembers(ctx, sessionSetKey).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entry, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (r *RedisRegistry) Delete(ctx context.Context, sessionID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(sessionID), capturesKey(sessionID))
	pipe.SRem(ctx, sessionSetKey, sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) AddCapture(ctx context.Context, sessionID, captureID string) error {
	capture := Capture{
		ID:        captureID,
		SessionID: sessionID,
		Timestamp: time.Now(),
	}
	encoded, err := json.Marshal(capture)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	exists := r.client.Exists(ctx, sessionKey(sessionID)).Val()
	if exists > 0 {
		pipe.RPush(ctx, capturesKey(sessionID), captureID)
	}
	pipe.RPush(ctx, captureLogKey, encoded)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) RecentCaptures(ctx context.Context, limit int) ([]Capture, error) {
	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	raw, err := r.client.LRange(ctx, captureLogKey, start, -1).Result()
	if err != nil {
		return nil, err
	}

	captures := make([]Capture, 0, len(raw))
	for _, item := range raw {
		var capture Capture
		if err := json.Unmarshal([]byte(item), &capture); err != nil {
			continue
		}
		captures = append(captures, capture)
	}
	return captures, nil
}

func (r *RedisRegistry) SessionCount(ctx context.Context) (int, error) {
	count, err := r.client.SCard(ctx, sessionSetKey).Result()
	return int(count), err
}

func (r *RedisRegistry) CaptureCount(ctx context.Context) (int, error) {
	count, err := r.client.LLen(ctx, captureLogKey).Result()
	return int(count), err
}
