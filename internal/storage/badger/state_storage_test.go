package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsight/internal/common"
	"github.com/bobmcallan/finsight/internal/interfaces"
)

func newTestStateStorage(t *testing.T) *stateStorage {
	t.Helper()

	store, err := NewStore(common.NewSilentLogger(), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return NewStateStorage(store, common.NewSilentLogger())
}

func TestStateStorage_RoundTrip(t *testing.T) {
	state := newTestStateStorage(t)
	ctx := context.Background()

	_, err := state.Get(ctx, "trace-1", "original.query")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	require.NoError(t, state.Set(ctx, "trace-1", "original.query", []byte(`"AAPL outlook"`)))

	got, err := state.Get(ctx, "trace-1", "original.query")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"AAPL outlook"`), got)

	// Upsert overwrites.
	require.NoError(t, state.Set(ctx, "trace-1", "original.query", []byte(`"MSFT outlook"`)))
	got, err = state.Get(ctx, "trace-1", "original.query")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"MSFT outlook"`), got)
}

func TestStateStorage_DeleteAndClear(t *testing.T) {
	state := newTestStateStorage(t)
	ctx := context.Background()

	require.NoError(t, state.Set(ctx, "trace-1", "a", []byte("1")))
	require.NoError(t, state.Set(ctx, "trace-1", "b", []byte("2")))
	require.NoError(t, state.Set(ctx, "trace-2", "a", []byte("3")))

	require.NoError(t, state.Delete(ctx, "trace-1", "a"))
	_, err := state.Get(ctx, "trace-1", "a")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	// Deleting an absent key is a no-op.
	require.NoError(t, state.Delete(ctx, "trace-1", "missing"))

	require.NoError(t, state.Clear(ctx, "trace-1"))
	_, err = state.Get(ctx, "trace-1", "b")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)

	// Other scopes untouched.
	got, err := state.Get(ctx, "trace-2", "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("3"), got)
}
