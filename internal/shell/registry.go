package shell

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/eventflow/internal/session"
)

// Registry keeps the live shell of every browser session in this process.
// Shells are booted lazily from the session store and dropped when idle.
type Registry struct {
	mu     sync.RWMutex
	shells map[string]*entry

	boot   singleflight.Group
	store  *session.Store
	deps   Dependencies
	idle   time.Duration
	logger *zap.Logger
	now    func() time.Time
}

type entry struct {
	shell    *Shell
	lastSeen time.Time
}

// NewRegistry builds a registry. Shells unused for idle are evicted by Sweep.
func NewRegistry(store *session.Store, deps Dependencies, idle time.Duration) *Registry {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		shells: make(map[string]*entry),
		store:  store,
		deps:   deps,
		idle:   idle,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the shell for id, booting it on first use.
func (r *Registry) Get(ctx context.Context, id string) (*Shell, error) {
	if sh := r.lookup(id); sh != nil {
		return sh, nil
	}

	v, err, _ := r.boot.Do(id, func() (interface{}, error) {
		if sh := r.lookup(id); sh != nil {
			return sh, nil
		}
		rec := r.load(ctx, id)

		sh := New(r.deps)
		if err := sh.Boot(ctx, rec.Tokens); err != nil {
			return nil, err
		}
		sh.Resume(rec)

		r.mu.Lock()
		r.shells[id] = &entry{shell: sh, lastSeen: r.now()}
		r.mu.Unlock()
		r.logger.Debug("shell booted", zap.String("session", id))
		return sh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Shell), nil
}

// Save persists the shell's session record. A shell no longer registered
// under id was rotated away mid-request and is not written back.
func (r *Registry) Save(ctx context.Context, id string, sh *Shell) error {
	r.mu.RLock()
	e, ok := r.shells[id]
	r.mu.RUnlock()
	if !ok || e.shell != sh {
		r.logger.Debug("stale session not saved", zap.String("session", id))
		return nil
	}
	return r.store.Save(ctx, id, sh.Record())
}

// Rotate moves sh from oldID to a fresh session id and drops the old id
// with its stored record. The new id is returned even when the old record
// could not be deleted.
func (r *Registry) Rotate(ctx context.Context, oldID string, sh *Shell) (string, error) {
	newID := session.NewID()
	r.mu.Lock()
	r.shells[newID] = &entry{shell: sh, lastSeen: r.now()}
	r.mu.Unlock()

	if err := r.Forget(ctx, oldID); err != nil {
		return newID, err
	}
	r.logger.Debug("session rotated", zap.String("from", oldID), zap.String("to", newID))
	return newID, nil
}

// Forget drops the shell and its stored record.
func (r *Registry) Forget(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.shells, id)
	r.mu.Unlock()
	return r.store.Delete(ctx, id)
}

// Len reports how many shells are live.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.shells)
}

// Sweep evicts shells idle since before now-idle and returns how many were
// removed. Their stored records remain until the store expires them.
func (r *Registry) Sweep(now time.Time) int {
	cutoff := now.Add(-r.idle)

	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, e := range r.shells {
		if e.lastSeen.Before(cutoff) {
			delete(r.shells, id)
			removed++
		}
	}
	return removed
}

func (r *Registry) lookup(id string) *Shell {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.shells[id]
	if !ok {
		return nil
	}
	e.lastSeen = r.now()
	return e.shell
}

// load reads the stored record. An unavailable store degrades to an
// anonymous session.
func (r *Registry) load(ctx context.Context, id string) session.Record {
	rec, err := r.store.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			r.logger.Warn("session load failed", zap.String("session", id), zap.Error(err))
		}
		return session.Record{}
	}
	return *rec
}
