package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"impactmatrix/api/internal/filter"
)

type storedEntry struct {
	State     json.RawMessage `json:"state"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// RedisStore implements Store using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		prefix: "filterstate:",
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) key(matrixID, clientID string) string {
	return s.prefix + matrixID + ":" + clientID
}

// Get returns the stored state. A state that no longer parses is dropped and
// reported as missing.
func (s *RedisStore) Get(ctx context.Context, matrixID, clientID string) (Entry, error) {
	key := s.key(matrixID, clientID)
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get filter state: %w", err)
	}

	var stored storedEntry
	if err := json.Unmarshal(raw, &stored); err != nil {
		_ = s.client.Del(ctx, key).Err()
		return Entry{}, ErrNotFound
	}
	state, err := filter.Parse(stored.State)
	if err != nil {
		_ = s.client.Del(ctx, key).Err()
		return Entry{}, ErrNotFound
	}
	return Entry{State: state, UpdatedAt: stored.UpdatedAt}, nil
}

// Save stores state and refreshes the TTL.
func (s *RedisStore) Save(ctx context.Context, matrixID, clientID string, state filter.State) (Entry, error) {
	encoded, err := state.Marshal()
	if err != nil {
		return Entry{}, fmt.Errorf("marshal filter state: %w", err)
	}
	entry := Entry{State: state, UpdatedAt: s.now().UTC()}
	payload, err := json.Marshal(storedEntry{State: encoded, UpdatedAt: entry.UpdatedAt})
	if err != nil {
		return Entry{}, fmt.Errorf("marshal filter state: %w", err)
	}
	if err := s.client.Set(ctx, s.key(matrixID, clientID), payload, s.ttl).Err(); err != nil {
		return Entry{}, fmt.Errorf("save filter state: %w", err)
	}
	return entry, nil
}

// Clear deletes the stored state. Clearing a missing state is not an error.
func (s *RedisStore) Clear(ctx context.Context, matrixID, clientID string) error {
	if err := s.client.Del(ctx, s.key(matrixID, clientID)).Err(); err != nil {
		return fmt.Errorf("clear filter state: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
