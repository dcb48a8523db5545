// Package session keeps per-login state (the operator's selected branch and
// car) in a typed key/value store and resolves it per request.
package session

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

const userField = "user"

// Store persists session records keyed by session id.
type Store interface {
	Open(ctx context.Context, sid string, userID int64) error
	// Touch extends the session lifetime and returns its user id.
	Touch(ctx context.Context, sid string) (int64, error)
	Close(ctx context.Context, sid string) error
	GetInt(ctx context.Context, sid, key string) (int64, bool, error)
	SetInt(ctx context.Context, sid, key string, value int64) error
}

// RedisStore keeps each session as a hash with a sliding TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore builds a store over an existing client.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(sid string) string {
	return "session:" + sid
}

func (s *RedisStore) Open(ctx context.Context, sid string, userID int64) error {
	key := redisKey(sid)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, userField, userID)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	return err
}

func (s *RedisStore) Touch(ctx context.Context, sid string) (int64, error) {
	key := redisKey(sid)
	userID, err := s.client.HGet(ctx, key, userField).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *RedisStore) Close(ctx context.Context, sid string) error {
	return s.client.Del(ctx, redisKey(sid)).Err()
}

func (s *RedisStore) GetInt(ctx context.Context, sid, key string) (int64, bool, error) {
	value, err := s.client.HGet(ctx, redisKey(sid), key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return parsed, true, nil
}

// SetInt writes a value only while the session exists.
// setIfOpen writes a field only while the session hash exists, so a write
// racing an expiry never recreates the hash without a TTL.
var setIfOpen = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2])
return 1
`)

func (s *RedisStore) SetInt(ctx context.Context, sid, key string, value int64) error {
	written, err := setIfOpen.Run(ctx, s.client, []string{redisKey(sid)}, key, value).Int()
	if err != nil {
		return err
	}
	if written == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*memorySession
}

type memorySession struct {
	userID  int64
	values  map[string]int64
	expires time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, sessions: map[string]*memorySession{}}
}

func (s *MemoryStore) live(sid string) (*memorySession, bool) {
	sess, ok := s.sessions[sid]
	if !ok {
		return nil, false
	}
	if !s.now().Before(sess.expires) {
		delete(s.sessions, sid)
		return nil, false
	}
	return sess, true
}

func (s *MemoryStore) Open(_ context.Context, sid string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sid] = &memorySession{userID: userID, values: map[string]int64{}, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, sid string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sid)
	if !ok {
		return 0, ErrNotFound
	}
	sess.expires = s.now().Add(s.ttl)
	return sess.userID, nil
}

func (s *MemoryStore) Close(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sid)
	return nil
}

func (s *MemoryStore) GetInt(_ context.Context, sid, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sid)
	if !ok {
		return 0, false, nil
	}
	value, ok := sess.values[key]
	return value, ok, nil
}

func (s *MemoryStore) SetInt(_ context.Context, sid, key string, value int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.live(sid)
	if !ok {
		return ErrNotFound
	}
	sess.values[key] = value
	return nil
}
