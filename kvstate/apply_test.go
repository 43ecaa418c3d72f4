package kvstate

import (
	"path/filepath"
	"testing"

	"github.com/jamesatomc/kanari-sdk-V2/changeset"
	"github.com/jamesatomc/kanari-sdk-V2/walog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCrashBeforeBatchWriteIsReplayedOnReopen simulates a crash between
// the journal fsync and the kv batch write: the pending entry is
// written directly to the journal, bypassing Apply's commit step, then
// the store is reopened and must replay it.
func TestCrashBeforeBatchWriteIsReplayedOnReopen(t *testing.T) {
	dir := t.TempDir()

	alice := addr(7)
	cs := changeset.New()
	cs.RecordMint(alice, 777)
	cs.MarkSuccess()

	j, err := walog.Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	require.NoError(t, j.WritePending(1, cs.Encode()))
	require.NoError(t, j.Close())

	store, err := Open(dir)
	require.NoError(t, err)
	defer store.Close()

	a, err := store.ReadAccount(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(777), a.Balance)

	_, _, ok, err := store.journal.ReadPending()
	require.NoError(t, err)
	assert.False(t, ok, "journal should be cleared after replay")
}

// TestCrashAfterBatchWriteIsNotDoubleApplied simulates a crash after the
// batch already landed durably but before the journal was cleared: on
// reopen, replaying must be a no-op because lastAppliedSeq already
// covers that commit.
func TestCrashAfterBatchWriteIsNotDoubleApplied(t *testing.T) {
	dir := t.TempDir()

	alice := addr(9)
	store, err := Open(dir)
	require.NoError(t, err)

	cs := changeset.New()
	cs.RecordMint(alice, 50)
	cs.MarkSuccess()
	require.NoError(t, store.Apply(cs))
	require.NoError(t, store.Close())

	// Re-inject the already-applied entry into the journal as if the
	// crash happened right before Apply's Clear() call.
	j, err := walog.Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	require.NoError(t, j.WritePending(1, cs.Encode()))
	require.NoError(t, j.Close())

	store2, err := Open(dir)
	require.NoError(t, err)
	defer store2.Close()

	a, err := store2.ReadAccount(alice)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), a.Balance, "replay must not double-credit an already-applied commit")
}
