package jsonfile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiscorekit/core"
)

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiscores.json")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)

	rankAnn, _ := core.EncodeRank(3, 1_700_000_000_000)
	rankBob, _ := core.EncodeRank(5, 1_700_000_000_000)
	require.NoError(t, store.ConditionalInsert(ctx, "pocket", "ann", rankAnn, "R U F"))
	require.NoError(t, store.ConditionalInsert(ctx, "pocket", "bob", rankBob, "R U F L D"))

	reopened, err := New(path)
	require.NoError(t, err)
	entries, err := reopened.TopRange(ctx, "pocket", 0, 6)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ann", entries[0].Name)
	assert.Equal(t, 3, core.DecodeRank(entries[0].Rank))
}

func TestStore_BestRankWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hiscores.json")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)

	rankTen, _ := core.EncodeRank(10, 1_700_000_000_000)
	rankEight, _ := core.EncodeRank(8, 1_700_000_000_500)
	require.NoError(t, store.ConditionalInsert(ctx, "pocket", "x", rankTen, "a"))
	require.NoError(t, store.ConditionalInsert(ctx, "pocket", "x", rankEight, "b"))
	require.NoError(t, store.ConditionalInsert(ctx, "pocket", "x", rankTen, "a"))

	entries, err := store.TopRange(ctx, "pocket", 0, 6)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 8, core.DecodeRank(entries[0].Rank))
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.json")

	store, err := New(path)
	require.NoError(t, err)

	entries, err := store.TopRange(context.Background(), "pocket", 0, 6)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
