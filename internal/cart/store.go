package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "cart:"

// Store persists carts by session id. Load returns an empty cart for
// unknown sessions.
type Store interface {
	Load(ctx context.Context, session string) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Delete(ctx context.Context, session string) error
}

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	carts map[string]Cart
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string]Cart{}}
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, session string) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[session]
	if !ok {
		return Cart{Session: session, Lines: []Line{}}, nil
	}
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	c.Lines = lines
	return c, nil
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, c Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	c.Lines = lines
	m.carts[c.Session] = c
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, session)
	return nil
}

// RedisStore keeps carts as JSON documents that expire after TTL of inactivity.
type RedisStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s *RedisStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, session string) (Cart, error) {
	data, err := s.R.Get(ctx, redisKeyPrefix+session).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Cart{Session: session, Lines: []Line{}}, nil
		}
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		// a corrupt document is discarded rather than blocking the session
		_ = s.R.Del(ctx, redisKeyPrefix+session).Err()
		return Cart{Session: session, Lines: []Line{}}, nil
	}
	c.Session = session
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	return c, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, c Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.R.Set(ctx, redisKeyPrefix+c.Session, data, s.ttl()).Err(); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, session string) error {
	if err := s.R.Del(ctx, redisKeyPrefix+session).Err(); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
