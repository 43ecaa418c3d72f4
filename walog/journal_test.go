package walog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePendingAndReadBack(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.WritePending(7, []byte("payload-bytes")))

	seq, payload, ok, err := j.ReadPending()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), seq)
	assert.Equal(t, []byte("payload-bytes"), payload)
}

func TestEmptyJournalHasNoPending(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	defer j.Close()

	_, _, ok, err := j.ReadPending()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearRemovesPending(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.WritePending(1, []byte("x")))
	require.NoError(t, j.Clear())

	_, _, ok, err := j.ReadPending()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWritePendingOverwritesPrevious(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(filepath.Join(dir, "journal"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.WritePending(1, []byte("first-longer-payload")))
	require.NoError(t, j.WritePending(2, []byte("second")))

	seq, payload, ok, err := j.ReadPending()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(2), seq)
	assert.Equal(t, []byte("second"), payload)
}

func TestReopenAfterProcessRestartReplaysPending(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal")

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.WritePending(42, []byte("crash-before-truncate")))
	require.NoError(t, j.Close())

	j2, err := Open(path)
	require.NoError(t, err)
	defer j2.Close()

	seq, payload, ok, err := j2.ReadPending()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), seq)
	assert.Equal(t, []byte("crash-before-truncate"), payload)
}
