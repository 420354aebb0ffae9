// README: Session store backed by Redis (JSON value, idle TTL, per-session lock).
package session

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
	sessionKeyPrefix = "tripbot:session:%s"
	lockKeyPrefix    = "tripbot:session:%s:lock"
	// Upper bound on how long one turn may hold the lock.
	lockTTL   = 30 * time.Second
	lockRetry = 50 * time.Millisecond
)

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisStore struct {
	redis    *redis.Client
	ttl      time.Duration
	lockWait time.Duration
}

func NewRedisStore(client *redis.Client, ttl, lockWait time.Duration) *RedisStore {
	return &RedisStore{redis: client, ttl: ttl, lockWait: lockWait}
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	if sess.Fields == nil {
		sess.Fields = map[string]string{}
	}
	return &sess, nil
}

// Save writes the session and refreshes its idle TTL.
func (s *RedisStore) Save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, sessionKey(sess.ID), b, s.ttl).Err()
}

// Delete removes the session only. A caller holding the lock keeps it until
// its own unlock.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.redis.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) Lock(ctx context.Context, id string) (func(), error) {
	token := uuid.NewString()
	key := lockKey(id)
	deadline := time.Now().Add(s.lockWait)
	for {
		ok, err := s.redis.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// Release with a fresh context so a cancelled request still unlocks.
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = unlockScript.Run(rctx, s.redis, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrBusy
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetry):
		}
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf(sessionKeyPrefix, id)
}

func lockKey(id string) string {
	return fmt.Sprintf(lockKeyPrefix, id)
}
