package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/tonnetz/internal/logging"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/aretw0/tonnetz/pkg/ports"
)

// DefaultActiveFor is how long a selected node keeps its active style.
const DefaultActiveFor = 400 * time.Millisecond

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates selection updates, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	lattice *lattice.Lattice
	store   ports.SelectionStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	now            func() time.Time
	activeFor      time.Duration
	defaultPalette string
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL bounds how long a distributed lock may be held.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithActiveFor sets how long a selected node stays active.
func WithActiveFor(d time.Duration) Option {
	return func(m *Manager) {
		m.activeFor = d
	}
}

// WithDefaultPalette sets the colour palette of new sessions.
func WithDefaultPalette(name string) Option {
	return func(m *Manager) {
		m.defaultPalette = name
	}
}

// NewManager creates a Manager for selections on l, persisted in store.
func NewManager(l *lattice.Lattice, store ports.SelectionStore, opts ...Option) *Manager {
	m := &Manager{
		lattice:        l,
		store:          store,
		locks:          make(map[string]*lockEntry),
		lockTTL:        30 * time.Second,
		logger:         logging.NewNop(),
		now:            time.Now,
		activeFor:      DefaultActiveFor,
		defaultPalette: palette.Default,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Highlight is what a client shows after selecting a node: the node itself in the
// active style and every incident edge in the highlight style.
type Highlight struct {
	Node        domain.Node           `json:"node"`
	Edges       []domain.Edge         `json:"edges"`
	Activated   bool                  `json:"activated"`
	ActiveUntil time.Time             `json:"active_until"`
	NodeColor   string                `json:"node_color"`
	EdgeColor   string                `json:"edge_color"`
	EdgeWidth   int                   `json:"edge_width"`
	Scale       float64               `json:"scale"`
	Played      bool                  `json:"played"`
	Diff        *domain.SelectionDiff `json:"diff,omitempty"`
}

// Select marks c as the session's selected node and activates it unless it is
// already active. A coordinate outside the lattice yields domain.ErrNodeNotFound.
func (m *Manager) Select(ctx context.Context, sessionID string, c domain.Coord) (*Highlight, error) {
	node, ok := m.lattice.Node(c)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, c)
	}

	var h *Highlight
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sel, old, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}

		now := m.now()
		sel.Active = pruneExpired(sel.Active, now)
		sel.Selected = &c
		sel.UpdatedAt = now

		h = &Highlight{
			Node:      node,
			Edges:     m.lattice.IncidentEdges(c),
			NodeColor: palette.ActiveNode.Hex(),
			EdgeColor: palette.HighlightEdge.Hex(),
			EdgeWidth: palette.HighlightEdgeWidth,
			Scale:     palette.IdleScale,
		}

		if until, active := activeUntil(sel.Active, c); active {
			h.ActiveUntil = until
			h.Scale = palette.ActiveScale
		} else {
			until := now.Add(m.activeFor)
			sel.Active = append(sel.Active, domain.ActiveNode{Coord: c, Until: until})
			h.Activated = true
			h.ActiveUntil = until
			h.Scale = palette.ActiveScale
		}

		if err := m.store.Save(ctx, sessionID, sel); err != nil {
			return fmt.Errorf("failed to save selection: %w", err)
		}
		h.Diff = domain.Diff(old, sel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("node selected",
		"session_id", sessionID,
		"coord", c.String(),
		"activated", h.Activated,
		"edges", len(h.Edges),
	)
	return h, nil
}

// Sweep releases nodes whose active period has ended.
// It returns nil when nothing changed.
func (m *Manager) Sweep(ctx context.Context, sessionID string) (*domain.SelectionDiff, error) {
	var diff *domain.SelectionDiff
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sel, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		old := sel.Snapshot()

		now := m.now()
		sel.Active = pruneExpired(sel.Active, now)
		if len(sel.Active) == len(old.Active) {
			return nil
		}
		sel.UpdatedAt = now

		if err := m.store.Save(ctx, sessionID, sel); err != nil {
			return fmt.Errorf("failed to save selection: %w", err)
		}
		diff = domain.Diff(old, sel)
		return nil
	})
	return diff, err
}

// ApplyPalette switches the session to the named colour palette and returns the
// tweens that animate the change.
func (m *Manager) ApplyPalette(ctx context.Context, sessionID, name string) (palette.Transition, *domain.SelectionDiff, error) {
	to, err := palette.Lookup(name)
	if err != nil {
		return palette.Transition{}, nil, err
	}

	var (
		tr   palette.Transition
		diff *domain.SelectionDiff
	)
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		sel, old, err := m.loadOrNew(ctx, sessionID)
		if err != nil {
			return err
		}

		from, err := palette.Lookup(sel.Palette)
		if err != nil {
			m.logger.Warn("stored palette is unknown, animating from default",
				"session_id", sessionID,
				"palette", sel.Palette,
			)
			from, _ = palette.Lookup(m.defaultPalette)
		}

		sel.Palette = to.Name
		sel.UpdatedAt = m.now()
		if err := m.store.Save(ctx, sessionID, sel); err != nil {
			return fmt.Errorf("failed to save selection: %w", err)
		}

		tr = palette.NewTransition(from, to)
		diff = domain.Diff(old, sel)
		return nil
	})
	return tr, diff, err
}

// Load retrieves an existing selection from the store.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Selection, error) {
	var sel *domain.Selection
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sel, err = m.store.Load(ctx, sessionID)
		return err
	})
	return sel, err
}

// LoadOrStart tries to load a selection. If not found, it initializes and stores a new one.
func (m *Manager) LoadOrStart(ctx context.Context, sessionID string) (*domain.Selection, error) {
	var sel *domain.Selection
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var (
			old *domain.Selection
			err error
		)
		sel, old, err = m.loadOrNew(ctx, sessionID)
		if err != nil || old != nil {
			return err
		}

		// Persist immediately to reserve the ID
		sel.UpdatedAt = m.now()
		if err := m.store.Save(ctx, sessionID, sel); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		return nil
	})
	return sel, err
}

// Save persists the selection, serialised with other writers of the same session.
func (m *Manager) Save(ctx context.Context, sessionID string, sel *domain.Selection) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Save(ctx, sessionID, sel)
	})
}

// Delete removes the selection from the store.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Lattice returns the lattice selections refer to.
func (m *Manager) Lattice() *lattice.Lattice {
	return m.lattice
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// loadOrNew returns the stored selection and a snapshot of it, or a fresh
// selection and a nil snapshot when the session does not exist yet.
func (m *Manager) loadOrNew(ctx context.Context, sessionID string) (sel, old *domain.Selection, err error) {
	sel, err = m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		return sel, sel.Snapshot(), nil
	case errors.Is(err, domain.ErrSessionNotFound):
		return domain.NewSelection(sessionID, m.defaultPalette), nil, nil
	default:
		return nil, nil, fmt.Errorf("failed to check session existence: %w", err)
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

func pruneExpired(active []domain.ActiveNode, now time.Time) []domain.ActiveNode {
	kept := active[:0:0]
	for _, a := range active {
		if now.Before(a.Until) {
			kept = append(kept, a)
		}
	}
	return kept
}

func activeUntil(active []domain.ActiveNode, c domain.Coord) (time.Time, bool) {
	for _, a := range active {
		if a.Coord == c {
			return a.Until, true
		}
	}
	return time.Time{}, false
}
