package leads

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreInsertAssignsID(t *testing.T) {
	store := NewMemoryStore()
	lead := &StoredLead{Name: "Alice", CreatedAt: time.Now()}

	id, err := store.Insert(context.Background(), lead)
	require.NoError(t, err)

	assert.NotEmpty(t, id)
	assert.Empty(t, lead.ID, "caller's lead is not mutated")
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreQueryWindow(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := store.Insert(ctx, &StoredLead{Name: "lead", CreatedAt: base.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}

	got, err := store.Query(ctx, Filter{Since: base.Add(time.Hour), Until: base.Add(4 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, base.Add(3*time.Hour), got[0].CreatedAt, "newest first")

	got, err = store.Query(ctx, Filter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, &StoredLead{Name: "Alice"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, store.Len())
}
