package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/tonnetz/pkg/adapters/memory"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/lattice"
	"github.com/aretw0/tonnetz/pkg/palette"
	"github.com/aretw0/tonnetz/pkg/ports"
	"github.com/aretw0/tonnetz/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data map[string]*domain.Selection
	mu   sync.Mutex
}

func (s *SlowStore) Save(ctx context.Context, sessionID string, sel *domain.Selection) error {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data == nil {
		s.data = make(map[string]*domain.Selection)
	}
	s.data[sessionID] = sel.Snapshot()
	return nil
}

func (s *SlowStore) Load(ctx context.Context, sessionID string) (*domain.Selection, error) {
	time.Sleep(10 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if sel, ok := s.data[sessionID]; ok {
		return sel.Snapshot(), nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *SlowStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]string, error) {
	return nil, nil
}

// clock is a manually advanced time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLattice(t *testing.T) *lattice.Lattice {
	t.Helper()
	l, err := lattice.Build(3, 3, 1)
	require.NoError(t, err)
	return l
}

func TestManager_Locking(t *testing.T) {
	store := &SlowStore{}
	manager := session.NewManager(newLattice(t), store)
	ctx := context.Background()
	id := "race-test"

	var wg sync.WaitGroup
	coords := []domain.Coord{{Row: 0, Column: 0}, {Row: 1, Column: 1}, {Row: 2, Column: 2}, {Row: 0, Column: 2}}

	// Read-Modify-Write without locking would lose activations.
	for _, c := range coords {
		wg.Add(1)
		go func(c domain.Coord) {
			defer wg.Done()
			_, err := manager.Select(ctx, id, c)
			assert.NoError(t, err)
		}(c)
	}
	wg.Wait()

	sel, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Len(t, sel.Active, len(coords))
}

func TestManager_LoadOrStart(t *testing.T) {
	// Verify atomic creation
	store := &SlowStore{}
	manager := session.NewManager(newLattice(t), store, session.WithDefaultPalette("warm"))
	ctx := context.Background()
	id := "atomic-init"

	var wg sync.WaitGroup
	// Launch 2 routines trying to init same session
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sel, err := manager.LoadOrStart(ctx, id)
			assert.NoError(t, err)
			assert.NotNil(t, sel)
		}()
	}
	wg.Wait()

	sel, err := manager.Load(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "warm", sel.Palette)
	assert.Nil(t, sel.Selected)
}

func TestManager_Select(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	manager := session.NewManager(newLattice(t), memory.NewStore(), session.WithClock(clk.Now))

	center := domain.Coord{Row: 1, Column: 1}
	h, err := manager.Select(ctx, "s1", center)
	require.NoError(t, err)

	assert.Equal(t, center, h.Node.Coord)
	assert.True(t, h.Activated)
	assert.Equal(t, clk.Now().Add(session.DefaultActiveFor), h.ActiveUntil)
	assert.Equal(t, palette.ActiveScale, h.Scale)
	assert.Equal(t, palette.HighlightEdge.Hex(), h.EdgeColor)
	assert.Equal(t, palette.HighlightEdgeWidth, h.EdgeWidth)
	assert.Len(t, h.Edges, 6)
	for _, e := range h.Edges {
		assert.True(t, e.Has(center))
	}

	// First selection of a session yields the full diff.
	require.NotNil(t, h.Diff)
	assert.Equal(t, &center, h.Diff.Selected)
	assert.Equal(t, []domain.Coord{center}, h.Diff.Activated)
	require.NotNil(t, h.Diff.Palette)
	assert.Equal(t, palette.Default, *h.Diff.Palette)
}

func TestManager_Select_AlreadyActive(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	manager := session.NewManager(newLattice(t), memory.NewStore(), session.WithClock(clk.Now))

	c := domain.Coord{Row: 0, Column: 0}
	first, err := manager.Select(ctx, "s1", c)
	require.NoError(t, err)

	clk.Advance(100 * time.Millisecond)
	second, err := manager.Select(ctx, "s1", c)
	require.NoError(t, err)

	assert.False(t, second.Activated, "an active node is not re-activated")
	assert.Equal(t, first.ActiveUntil, second.ActiveUntil, "the deadline is not extended")
	assert.Nil(t, second.Diff)

	// Once expired, selecting again starts a new activation.
	clk.Advance(session.DefaultActiveFor)
	third, err := manager.Select(ctx, "s1", c)
	require.NoError(t, err)
	assert.True(t, third.Activated)
}

func TestManager_Select_UnknownNode(t *testing.T) {
	manager := session.NewManager(newLattice(t), memory.NewStore())

	_, err := manager.Select(context.Background(), "s1", domain.Coord{Row: 3, Column: 0})
	assert.ErrorIs(t, err, domain.ErrNodeNotFound)

	_, err = manager.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "a failed selection must not create the session")
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	manager := session.NewManager(newLattice(t), memory.NewStore(),
		session.WithClock(clk.Now),
		session.WithActiveFor(time.Second),
	)

	a := domain.Coord{Row: 0, Column: 0}
	b := domain.Coord{Row: 2, Column: 2}
	_, err := manager.Select(ctx, "s1", a)
	require.NoError(t, err)
	clk.Advance(500 * time.Millisecond)
	_, err = manager.Select(ctx, "s1", b)
	require.NoError(t, err)

	diff, err := manager.Sweep(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, diff, "nothing expired yet")

	clk.Advance(600 * time.Millisecond)
	diff, err = manager.Sweep(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.Equal(t, []domain.Coord{a}, diff.Released)
	assert.Nil(t, diff.Selected)

	sel, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, &b, sel.Selected, "releasing does not change the selection")
	assert.True(t, sel.IsActive(b, clk.Now()))

	_, err = manager.Sweep(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_ApplyPalette(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(newLattice(t), memory.NewStore())

	tr, diff, err := manager.ApplyPalette(ctx, "s1", "warm")
	require.NoError(t, err)
	assert.Equal(t, "cool", tr.From)
	assert.Equal(t, "warm", tr.To)
	require.NotNil(t, diff)
	require.NotNil(t, diff.Palette)
	assert.Equal(t, "warm", *diff.Palette)

	tr, diff, err = manager.ApplyPalette(ctx, "s1", "warm")
	require.NoError(t, err)
	assert.Equal(t, "warm", tr.From)
	assert.Nil(t, diff)

	_, _, err = manager.ApplyPalette(ctx, "s1", "sepia")
	assert.ErrorIs(t, err, domain.ErrUnknownPalette)

	sel, err := manager.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "warm", sel.Palette)
}

func TestManager_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	manager := session.NewManager(newLattice(t), memory.NewStore())

	for _, id := range []string{"b", "a"} {
		_, err := manager.LoadOrStart(ctx, id)
		require.NoError(t, err)
	}
	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, manager.Delete(ctx, "a"))
	_, err = manager.Load(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

type failingLocker struct{}

func (failingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	return nil, errors.New("lock unavailable")
}

func TestManager_DistributedLockFailure(t *testing.T) {
	manager := session.NewManager(newLattice(t), memory.NewStore(), session.WithLocker(failingLocker{}))

	_, err := manager.Select(context.Background(), "s1", domain.Coord{})
	assert.ErrorContains(t, err, "failed to acquire distributed lock")
}
