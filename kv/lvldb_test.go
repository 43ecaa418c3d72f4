package kv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemLevelDBPutGetDelete(t *testing.T) {
	store, err := OpenMemLevelDB()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k"), []byte("v")))
	v, err := store.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	ok, err := store.Has([]byte("k"))
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Delete([]byte("k")))
	_, err = store.Get([]byte("k"))
	assert.True(t, store.IsNotFound(err))
}

func TestBatchIsAtomic(t *testing.T) {
	store, err := OpenMemLevelDB()
	require.NoError(t, err)
	defer store.Close()

	batch := store.NewBatch()
	require.NoError(t, batch.Put([]byte("a"), []byte("1")))
	require.NoError(t, batch.Put([]byte("b"), []byte("2")))
	require.NoError(t, batch.Write())

	a, _ := store.Get([]byte("a"))
	b, _ := store.Get([]byte("b"))
	assert.Equal(t, []byte("1"), a)
	assert.Equal(t, []byte("2"), b)
}

func TestSnapshotIsPointInTime(t *testing.T) {
	store, err := OpenMemLevelDB()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Put([]byte("k"), []byte("old")))
	snap := store.Snapshot()
	defer snap.Release()

	require.NoError(t, store.Put([]byte("k"), []byte("new")))

	v, err := snap.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), v)

	v2, _ := store.Get([]byte("k"))
	assert.Equal(t, []byte("new"), v2)
}

func TestBucketNamespacesKeys(t *testing.T) {
	store, err := OpenMemLevelDB()
	require.NoError(t, err)
	defer store.Close()

	accounts := Bucket("a")
	require.NoError(t, accounts.Put(store, []byte{0x01}, []byte("acct1")))
	require.NoError(t, store.Put([]byte("other"), []byte("unrelated")))

	v, err := accounts.Get(store, []byte{0x01})
	require.NoError(t, err)
	assert.Equal(t, []byte("acct1"), v)

	it := accounts.Iterate(store)
	defer it.Release()
	count := 0
	for it.Next() {
		count++
		assert.Equal(t, []byte{0x01}, it.Key())
	}
	assert.Equal(t, 1, count)
}
