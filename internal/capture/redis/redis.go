package redisstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pagetrail/pagetrail/internal/capture"
)

const sessionsKey = "pagetrail:sessions"

// Store keeps the session list as a single JSON value in redis so capture
// state survives process restarts. The list is small (one user, one device),
// so whole-value reads and writes are fine.
type Store struct {
	client *redis.Client
}

func NewStore(addr, password string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewStoreWithClient wraps an existing client, mainly for tests.
func NewStoreWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Sessions(ctx context.Context) ([]capture.Session, error) {
	raw, err := s.client.Get(ctx, sessionsKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sessions: %w", err)
	}
	var sessions []capture.Session
	if err := json.Unmarshal(raw, &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, nil
}

func (s *Store) Replace(ctx context.Context, sessions []capture.Session) error {
	raw, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	if err := s.client.Set(ctx, sessionsKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("set sessions: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, sessionsKey).Err(); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }
