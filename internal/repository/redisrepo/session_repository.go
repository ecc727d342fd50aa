package redisrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segovia241/ia-erp-universal/pkg/nlu"
)

const (
	sessionKeyPrefix = "resolver:session:"
	lockKeyPrefix    = "resolver:lock:"
	lockTTL          = 5 * time.Second
	lockRetryDelay   = 25 * time.Millisecond
)

// SessionRepository stores sessions in Redis so resolution state survives
// process restarts and can be shared across replicas. Sessions are JSON blobs
// with the TTL carried by the key; Update serializes per key with a SETNX
// lock, mirroring the striped mutexes of the memory store.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*nlu.Session, bool, error) {
	raw, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session: %w", err)
	}
	var session nlu.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, true, nil
}

func (r *SessionRepository) Put(ctx context.Context, session *nlu.Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.ttl
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return r.client.Set(ctx, sessionKeyPrefix+session.ID, raw, ttl).Err()
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}

func (r *SessionRepository) Update(ctx context.Context, id string, fn func(session *nlu.Session) (keep bool, err error)) (bool, error) {
	if err := r.acquireLock(ctx, id); err != nil {
		return false, err
	}
	defer r.client.Del(context.WithoutCancel(ctx), lockKeyPrefix+id)

	session, found, err := r.Get(ctx, id)
	if err != nil || !found {
		return found, err
	}

	keep, err := fn(session)
	if err != nil {
		return true, err
	}
	if !keep {
		return true, r.Delete(ctx, id)
	}

	remaining := r.ttl - time.Since(session.CreatedAt)
	if remaining <= 0 {
		return false, r.Delete(ctx, id)
	}
	return true, r.Put(ctx, session, remaining)
}

// Close releases the redis client; the repository takes sole ownership of it
// at construction.
func (r *SessionRepository) Close() {
	_ = r.client.Close()
}

func (r *SessionRepository) acquireLock(ctx context.Context, id string) error {
	for {
		ok, err := r.client.SetNX(ctx, lockKeyPrefix+id, 1, lockTTL).Result()
		if err != nil {
			return fmt.Errorf("acquire session lock: %w", err)
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
}
