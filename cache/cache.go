package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the key-value layer the admin services cache against. Values are
// JSON strings; a miss is reported through the bool, not an error.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeletePattern removes every key matching a glob pattern such as
	// "admin:orders:*".
	DeletePattern(ctx context.Context, pattern string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

func (s *RedisStore) DeletePattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is a process-local Store used when no cache server is
// configured, and in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	store map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{store: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	entry, ok := s.store[key]
	s.mu.RUnlock()

	if !ok {
		return "", false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		s.mu.Lock()
		delete(s.store, key)
		s.mu.Unlock()
		return "", false, nil
	}
	return entry.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.mu.Lock()
	s.store[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.store, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) DeletePattern(_ context.Context, pattern string) error {
	prefix, wildcard := strings.CutSuffix(pattern, "*")
	s.mu.Lock()
	for key := range s.store {
		if (wildcard && strings.HasPrefix(key, prefix)) || key == pattern {
			delete(s.store, key)
		}
	}
	s.mu.Unlock()
	return nil
}

// Len reports the number of live entries, expired or not. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}
