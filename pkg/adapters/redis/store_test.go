package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tonnetz/pkg/adapters/redis"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunSelectionStoreContract(t, store)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "abc", domain.NewSelection("abc", "cool")))
	assert.True(t, mr.Exists("test:s:abc"))
	assert.True(t, mr.Exists("test:index"))

	require.NoError(t, store.Ping(ctx))
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()
	sessionID := "session-ttl"

	err := store.Save(ctx, sessionID, domain.NewSelection(sessionID, "neutral"))
	require.NoError(t, err)

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.Contains(t, sessions, sessionID)

	// Key expiry is driven by miniredis' clock.
	mr.FastForward(2 * time.Second)

	_, err = store.Load(ctx, sessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	// Index pruning compares against time.Now, so real time has to pass too.
	time.Sleep(1200 * time.Millisecond)

	sessions, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)

	require.NoError(t, mr.Set("tonnetz:session:s:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestRedisStore_IndexSessionID(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "a", domain.NewSelection("a", "cool")))
	require.NoError(t, store.Save(ctx, "index", domain.NewSelection("index", "warm")))
	require.NoError(t, store.Save(ctx, "b", domain.NewSelection("b", "cool")))

	sessions, err := store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "index"}, sessions)

	sel, err := store.Load(ctx, "index")
	require.NoError(t, err)
	assert.Equal(t, "warm", sel.Palette)

	assert.Equal(t, "zset", mr.Type("tonnetz:session:index"))
}
