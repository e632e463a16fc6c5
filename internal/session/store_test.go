package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/eventflow/internal/domain"
	"github.com/spec-kit/eventflow/internal/identity"
)

type memoryClient struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMemoryClient() *memoryClient {
	return &memoryClient{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryClient) Get(ctx context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStringResult("", m.err)
	}
	val, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (m *memoryClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return redis.NewStatusResult("", m.err)
	}
	m.data[key] = string(value.([]byte))
	m.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, m.err)
}

func TestStoreRoundTrip(t *testing.T) {
	client := newMemoryClient()
	store := NewStore(client, "test:", time.Hour)
	ctx := context.Background()
	id := NewID()

	expires := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.Save(ctx, id, Record{
		Tokens:              identity.Tokens{AccessToken: "a", RefreshToken: "r", ExpiresAt: expires},
		Page:                domain.PageAdminDashboard,
		PendingConfirmation: "new@b.com",
	}))
	assert.Equal(t, time.Hour, client.ttls["test:"+id])

	rec, err := store.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a", rec.Tokens.AccessToken)
	assert.Equal(t, "r", rec.Tokens.RefreshToken)
	assert.True(t, expires.Equal(rec.Tokens.ExpiresAt))
	assert.Equal(t, domain.PageAdminDashboard, rec.Page)
	assert.Equal(t, "new@b.com", rec.PendingConfirmation)
	assert.False(t, rec.UpdatedAt.IsZero())

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Load(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewStore(newMemoryClient(), "test:", time.Hour)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreBackendFailure(t *testing.T) {
	client := newMemoryClient()
	client.err = errors.New("connection refused")
	store := NewStore(client, "test:", time.Hour)

	_, err := store.Load(context.Background(), "x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	err = store.Save(context.Background(), "x", Record{})
	assert.ErrorContains(t, err, "connection refused")
}

func TestStoreCorruptRecord(t *testing.T) {
	client := newMemoryClient()
	client.data["test:x"] = "{not json"
	store := NewStore(client, "test:", time.Hour)

	_, err := store.Load(context.Background(), "x")
	assert.ErrorContains(t, err, "decode session")
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID(NewID()))
	assert.False(t, ValidID(""))
	assert.False(t, ValidID("../../etc"))
}
