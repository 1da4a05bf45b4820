package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSelectionStoreContract runs a suite of tests to verify that a SelectionStore implementation
// adheres to the defined interface contract.
func RunSelectionStoreContract(t *testing.T, store SelectionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sel := domain.NewSelection(sessionID, "warm")
		sel.Selected = &domain.Coord{Row: 2, Column: 3}
		sel.Active = append(sel.Active, domain.ActiveNode{
			Coord: domain.Coord{Row: 2, Column: 3},
			Until: time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond),
		})

		err := store.Save(ctx, sessionID, sel)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, sessionID, loaded.SessionID)
		assert.Equal(t, "warm", loaded.Palette)
		require.NotNil(t, loaded.Selected)
		assert.Equal(t, *sel.Selected, *loaded.Selected)
		require.Len(t, loaded.Active, 1)
		assert.True(t, sel.Active[0].Until.Equal(loaded.Active[0].Until))
	})

	t.Run("Stored Copy Is Isolated", func(t *testing.T) {
		sel := domain.NewSelection(sessionID, "cool")
		require.NoError(t, store.Save(ctx, sessionID, sel))

		sel.Palette = "mutated"

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "cool", loaded.Palette)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, domain.NewSelection(sessionID, "cool"))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("Index-Like Session IDs", func(t *testing.T) {
		ids := []string{"index", "lock", sessionID + "-plain"}
		for _, id := range ids {
			require.NoError(t, store.Save(ctx, id, domain.NewSelection(id, "neutral")), id)
		}
		defer func() {
			for _, id := range ids {
				_ = store.Delete(ctx, id)
			}
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		for _, id := range ids {
			assert.Contains(t, sessions, id)
			loaded, err := store.Load(ctx, id)
			require.NoError(t, err, id)
			assert.Equal(t, id, loaded.SessionID)
		}
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, domain.NewSelection(id1, "cool"))
		_ = store.Save(ctx, id2, domain.NewSelection(id2, "cool"))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
