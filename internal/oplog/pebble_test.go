package oplog

import (
	"context"
	"testing"

	"encrypted-notes/internal/codec"
	"encrypted-notes/internal/ids"
	"encrypted-notes/internal/transaction"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTx(t *testing.T, id string, space *ids.SpaceID) *transaction.Transaction {
	t.Helper()
	tx := &transaction.Transaction{
		ID:      transaction.ID(id),
		Creator: "device-1",
		Variant: transaction.VariantExtV1,
		Type:    transaction.OperationType,
		Payload: []byte{0x01, 0x02},
	}
	if space != nil {
		raw, err := codec.Marshal(space)
		require.NoError(t, err)
		tx.Context = map[string][]byte{transaction.SpaceContextKey: raw}
	}
	return tx
}

func openMem(t *testing.T, fs vfs.FS) *PebbleRepository {
	t.Helper()
	repo, err := OpenPebble("oplog", &pebble.Options{FS: fs})
	require.NoError(t, err)
	return repo
}

func txIDs(txs []*transaction.Transaction) []transaction.ID {
	out := make([]transaction.ID, len(txs))
	for i, tx := range txs {
		out[i] = tx.ID
	}
	return out
}

func TestPebbleAppendAndList(t *testing.T) {
	ctx := context.Background()
	repo := openMem(t, vfs.NewMem())
	defer repo.Close()

	s1, s2 := ids.NewSpaceID(), ids.NewSpaceID()
	added, err := repo.Append(ctx, []Entry{
		{Space: &s1, Tx: newTx(t, "a", &s1)},
		{Space: &s2, Tx: newTx(t, "b", &s2)},
		{Tx: newTx(t, "c", nil)},
		{Space: &s1, Tx: newTx(t, "d", &s1)},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	txs, err := repo.List(ctx, &s1)
	require.NoError(t, err)
	assert.Equal(t, []transaction.ID{"a", "d"}, txIDs(txs))

	txs, err = repo.List(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []transaction.ID{"c"}, txIDs(txs))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, &s2, all[1].Space)
	assert.Nil(t, all[2].Space)
	assert.Equal(t, newTx(t, "b", &s2), all[1].Tx)
}

func TestPebbleAppendDeduplicates(t *testing.T) {
	ctx := context.Background()
	repo := openMem(t, vfs.NewMem())
	defer repo.Close()

	space := ids.NewSpaceID()
	added, err := repo.Append(ctx, []Entry{
		{Space: &space, Tx: newTx(t, "a", &space)},
		{Space: &space, Tx: newTx(t, "a", &space)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = repo.Append(ctx, []Entry{
		{Space: &space, Tx: newTx(t, "a", &space)},
		{Space: &space, Tx: newTx(t, "b", &space)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	txs, err := repo.List(ctx, &space)
	require.NoError(t, err)
	assert.Equal(t, []transaction.ID{"a", "b"}, txIDs(txs))
}

func TestPebbleReopenKeepsOrder(t *testing.T) {
	ctx := context.Background()
	fs := vfs.NewMem()

	repo := openMem(t, fs)
	_, err := repo.Append(ctx, []Entry{{Tx: newTx(t, "a", nil)}, {Tx: newTx(t, "b", nil)}})
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	repo = openMem(t, fs)
	defer repo.Close()
	added, err := repo.Append(ctx, []Entry{{Tx: newTx(t, "b", nil)}, {Tx: newTx(t, "c", nil)}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	got := make([]transaction.ID, len(all))
	for i, e := range all {
		got[i] = e.Tx.ID
	}
	assert.Equal(t, []transaction.ID{"a", "b", "c"}, got)
}

func TestPebbleCanceledContext(t *testing.T) {
	repo := openMem(t, vfs.NewMem())
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repo.Append(ctx, []Entry{{Tx: newTx(t, "a", nil)}})
	assert.ErrorIs(t, err, context.Canceled)
}
