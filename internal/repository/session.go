package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"recibo-export/internal/clients"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "receipt_session:"

// RedisSessionRepository keeps serialized screen sessions in redis with a TTL that is
// refreshed on every save.
type RedisSessionRepository struct {
	redis *clients.RedisClient
	ttl   time.Duration
}

func NewRedisSessionRepository(redis *clients.RedisClient, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{redis: redis, ttl: ttl}
}

func (r *RedisSessionRepository) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := r.redis.Get(ctx, sessionKeyPrefix+id)
	if errors.Is(err, clients.ErrKeyNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return []byte(data), nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, id string, data []byte) error {
	if err := r.redis.Set(ctx, sessionKeyPrefix+id, data, r.ttl); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.redis.Del(ctx, sessionKeyPrefix+id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

type memorySession struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionRepository is the single-process alternative to redis.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	ttl      time.Duration
	now      func() time.Time
}

func NewMemorySessionRepository(ttl time.Duration) *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memorySession),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Get(_ context.Context, id string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok || r.expired(s) {
		delete(r.sessions, id)
		return nil, ErrSessionNotFound
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, id string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)

	s := memorySession{data: stored}
	if r.ttl > 0 {
		s.expiresAt = r.now().Add(r.ttl)
	}
	r.sessions[id] = s
	return nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (r *MemorySessionRepository) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, s := range r.sessions {
		if r.expired(s) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

func (r *MemorySessionRepository) expired(s memorySession) bool {
	return !s.expiresAt.IsZero() && r.now().After(s.expiresAt)
}
