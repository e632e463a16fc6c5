// Package session persists per-browser session records in redis so a shell
// can be rebuilt after a restart.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/identity"
)

// ErrNotFound is returned when no record exists for a session id.
var ErrNotFound = errors.New("session: not found")

// Record is what survives between requests for one browser session.
type Record struct {
	Tokens              identity.Tokens `json:"tokens"`
	Page                domain.Page     `json:"page"`
	PendingConfirmation string          `json:"pending_confirmation,omitempty"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// Client is the subset of the redis API used by the store.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store reads and writes session records.
type Store struct {
	client Client
	prefix string
	ttl    time.Duration
}

// NewStore builds a store. Records expire ttl after their last save.
func NewStore(client Client, prefix string, ttl time.Duration) *Store {
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one produced by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// TTL returns the record lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Load fetches the record for id.
func (s *Store) Load(ctx context.Context, id string) (*Record, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &rec, nil
}

// Save writes rec and refreshes its expiry.
func (s *Store) Save(ctx context.Context, id string, rec Record) error {
	rec.UpdatedAt = time.Now().UTC()
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Delete removes the record for id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
