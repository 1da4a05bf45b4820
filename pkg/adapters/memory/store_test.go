package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/aretw0/tonnetz/pkg/adapters/memory"
	"github.com/aretw0/tonnetz/pkg/domain"
	"github.com/aretw0/tonnetz/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSelectionStoreContract(t, store)
}

func TestMemoryStore_ConcurrentSaves(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s-%02d", i)
			_ = store.Save(ctx, id, domain.NewSelection(id, "cool"))
		}(i)
	}
	wg.Wait()

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 50)
	assert.Equal(t, "s-00", ids[0])
}
