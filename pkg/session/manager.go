package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/entrhq/hrsuite/pkg/logging"
)

// LoginFunc performs a real login for id and returns the resulting storage
// state. Bad credentials or an unreachable service should be reported as an
// *AuthenticationError.
type LoginFunc func(ctx context.Context, id Identity) (StorageState, error)

// ValidateFunc reports whether state still belongs to a live session. It
// must not modify state. An error means liveness could not be determined.
type ValidateFunc func(ctx context.Context, state StorageState) (bool, error)

// Option configures a Manager.
type Option func(*Manager)

// WithStore enables cross-run sharing through s.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithLogger sets the logger used for cache events.
func WithLogger(l *logging.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// generation identifies one incarnation of an identity's cache slot.
// Invalidate bumps gen for one key, Clear bumps epoch for all keys. Work
// started under an older generation never writes to the cache.
type generation struct {
	epoch uint64
	gen   uint64
}

// Manager caches validated sessions per identity.
type Manager struct {
	mu      sync.Mutex
	records map[string]*Record
	gens    map[string]uint64
	epoch   uint64

	flights singleflight.Group
	store   Store
	log     *logging.Logger
	now     func() time.Time

	// storeMu is held shared by per-key store writes and exclusively by
	// Clear. keyLocks serialise writes for one key. Neither is ever
	// acquired while mu is held.
	storeMu  sync.RWMutex
	keyLocks map[string]*sync.Mutex
}

// NewManager creates a manager. When a store is configured its records are
// loaded immediately; unreadable entries are logged and skipped.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		records: make(map[string]*Record),
		gens:     make(map[string]uint64),
		keyLocks: make(map[string]*sync.Mutex),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logging.NewNopLogger("session")
	}
	if m.store != nil {
		m.load(context.Background())
	}
	return m
}

func (m *Manager) load(ctx context.Context) {
	recs, err := m.store.Load(ctx)
	if err != nil {
		var corrupt *CacheCorruptionError
		if !errors.As(err, &corrupt) {
			m.log.Warnf("Failed to load session cache, starting empty: %v", err)
			return
		}
		m.log.Warnf("Ignoring unreadable session cache entries: %v", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range recs {
		if rec.Key == "" {
			continue
		}
		r := rec.Clone()
		m.records[r.Key] = &r
	}
	m.log.Infof("Loaded %d cached sessions", len(m.records))
}

// Acquire returns a working session for id, reusing the cached one when
// validate accepts it and calling login otherwise.
//
// Concurrent calls for the same identity share a single validate/login.
// The shared work is not cancelled by any caller's context; ctx only bounds
// how long this caller waits for it. A procedure that panics fails every
// waiter with an error wrapping ErrProcedurePanicked.
func (m *Manager) Acquire(ctx context.Context, id Identity, login LoginFunc, validate ValidateFunc) (*Handle, error) {
	if login == nil {
		return nil, ErrNoLogin
	}
	if validate == nil {
		return nil, ErrNoValidate
	}

	key := id.Key()
	m.mu.Lock()
	g := m.generationLocked(key)
	m.mu.Unlock()

	flightKey := fmt.Sprintf("%s#%d.%d", key, g.epoch, g.gen)
	detached := context.WithoutCancel(ctx)
	ch := m.flights.DoChan(flightKey, func() (v interface{}, err error) {
		// DoChan re-panics on a goroutine of its own; report it instead.
		defer func() {
			if r := recover(); r != nil {
				m.log.Errorf("Session procedure for %s panicked: %v", id, r)
				v, err = nil, fmt.Errorf("%w: %v", ErrProcedurePanicked, r)
			}
		}()
		return m.resolve(detached, id, key, g, login, validate)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		h := *res.Val.(*Handle)
		h.State = h.State.Clone()
		return &h, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for session %s: %w", id, ctx.Err())
	}
}

// resolve runs one validate-or-login transition for key.
func (m *Manager) resolve(ctx context.Context, id Identity, key string, g generation, login LoginFunc, validate ValidateFunc) (*Handle, error) {
	if rec, ok := m.lookup(key); ok {
		live, err := validate(ctx, rec.State.Clone())
		switch {
		case err != nil:
			m.log.Warnf("Validation of cached session for %s failed, logging in again: %v", id, err)
		case !live:
			m.log.Infof("Cached session for %s is no longer live, logging in again", id)
		default:
			updated := rec.Clone()
			updated.ValidatedAt = m.now()
			m.commit(ctx, key, g, &updated)
			m.log.Debugf("Reusing cached session for %s (created %s)", id, updated.CreatedAt.Format(time.RFC3339))
			return newHandle(id, &updated, true), nil
		}
		m.discard(ctx, key, g)
	}

	state, err := login(ctx, id)
	if err != nil {
		m.log.Errorf("Login for %s failed: %v", id, err)
		return nil, asAuthenticationError(id, err)
	}

	now := m.now()
	rec := &Record{
		Key:         key,
		Name:        id.String(),
		State:       state.Clone(),
		CreatedAt:   now,
		ValidatedAt: now,
	}
	m.commit(ctx, key, g, rec)
	m.log.Infof("Logged in %s (%d cookies)", id, len(rec.State.Cookies))
	return newHandle(id, rec, false), nil
}

func (m *Manager) lookup(key string) (*Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[key]
	return rec, ok
}

// commit installs rec unless key was invalidated since generation g, then
// persists it outside the manager lock.
func (m *Manager) commit(ctx context.Context, key string, g generation, rec *Record) {
	m.mu.Lock()
	if m.generationLocked(key) != g {
		m.mu.Unlock()
		m.log.Debugf("Dropping session for %s: invalidated while in flight", rec.Name)
		return
	}
	m.records[key] = rec
	m.mu.Unlock()

	m.persist(ctx, key, g, func(s Store) error {
		if err := s.Save(ctx, rec.Clone()); err != nil {
			return fmt.Errorf("failed to persist session for %s: %w", rec.Name, err)
		}
		return nil
	})
}

// discard removes the record for key unless key was invalidated since g.
func (m *Manager) discard(ctx context.Context, key string, g generation) {
	m.mu.Lock()
	if m.generationLocked(key) != g {
		m.mu.Unlock()
		return
	}
	delete(m.records, key)
	m.mu.Unlock()

	m.persist(ctx, key, g, func(s Store) error {
		return m.deleteStored(ctx, s, key)
	})
}

// persist runs write against the store for key while generation g is still
// current. Writes for one key are serialised; writes for different keys and
// every in-memory operation proceed without waiting.
func (m *Manager) persist(ctx context.Context, key string, g generation, write func(Store) error) {
	if m.store == nil {
		return
	}

	m.storeMu.RLock()
	defer m.storeMu.RUnlock()
	kl := m.keyLock(key)
	kl.Lock()
	defer kl.Unlock()

	// A newer generation owns the persisted slot; its writer runs after us
	// and decides the final content.
	m.mu.Lock()
	current := m.generationLocked(key) == g
	m.mu.Unlock()
	if !current {
		return
	}

	if err := write(m.store); err != nil {
		m.log.Warnf("%v", err)
	}
}

func (m *Manager) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	kl, ok := m.keyLocks[key]
	if !ok {
		kl = &sync.Mutex{}
		m.keyLocks[key] = kl
	}
	return kl
}

// Invalidate drops the cached session for id. The next Acquire logs in
// again, and a login already in flight for id will not repopulate the cache.
func (m *Manager) Invalidate(id Identity) {
	key := id.Key()

	m.mu.Lock()
	m.gens[key]++
	g := m.generationLocked(key)
	if _, ok := m.records[key]; ok {
		delete(m.records, key)
		m.log.Infof("Invalidated cached session for %s", id)
	}
	m.mu.Unlock()

	m.persist(context.Background(), key, g, func(s Store) error {
		return m.deleteStored(context.Background(), s, key)
	})
}

// Clear drops every cached session, including persisted ones.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.epoch++
	m.gens = make(map[string]uint64)
	n := len(m.records)
	m.records = make(map[string]*Record)
	m.mu.Unlock()

	if m.store != nil {
		// Exclusive: waits for in-progress key writes, and any write that
		// starts afterwards sees the new epoch and skips.
		m.storeMu.Lock()
		if err := m.store.Clear(context.Background()); err != nil {
			m.log.Warnf("Failed to clear persisted sessions: %v", err)
		}
		m.storeMu.Unlock()
	}
	m.log.Infof("Cleared %d cached sessions", n)
}

// Lookup returns a copy of the cached record for id.
func (m *Manager) Lookup(id Identity) (Record, bool) {
	rec, ok := m.lookup(id.Key())
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Records returns copies of all cached records ordered by name.
func (m *Manager) Records() []Record {
	m.mu.Lock()
	out := make([]Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec.Clone())
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (m *Manager) generationLocked(key string) generation {
	return generation{epoch: m.epoch, gen: m.gens[key]}
}

func (m *Manager) deleteStored(ctx context.Context, s Store, key string) error {
	if err := s.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete persisted session %s: %w", key, err)
	}
	return nil
}
