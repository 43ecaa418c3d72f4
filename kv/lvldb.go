package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// writeOpt enables fsync on every write so a commit is durable before
// StateStore.Apply reports success to its caller.
var writeOpt = &opt.WriteOptions{Sync: true}
var readOpt = &opt.ReadOptions{}

type lvldb struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) a persistent LevelDB store rooted at
// path. cacheSize is in MiB and is clamped to sane minimums, mirroring
// the teacher engine's own defensive defaults.
func OpenLevelDB(path string, cacheSize int) (Store, error) {
	if cacheSize < 128 {
		cacheSize = 128
	}
	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: 64,
		BlockCacheCapacity:     cacheSize / 2 * opt.MiB,
		WriteBuffer:            cacheSize / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "kv: open level db")
	}
	return &lvldb{db: db}, nil
}

// OpenMemLevelDB opens an in-memory LevelDB store, used by tests and by
// a fresh genesis bootstrap before a data directory is configured.
func OpenMemLevelDB() (Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), &opt.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "kv: open mem level db")
	}
	return &lvldb{db: db}, nil
}

func (l *lvldb) Get(key []byte) ([]byte, error) {
	return l.db.Get(key, readOpt)
}

func (l *lvldb) Has(key []byte) (bool, error) {
	return l.db.Has(key, readOpt)
}

func (l *lvldb) IsNotFound(err error) bool {
	return err == leveldb.ErrNotFound
}

func (l *lvldb) Put(key, val []byte) error {
	return l.db.Put(key, val, writeOpt)
}

func (l *lvldb) Delete(key []byte) error {
	return l.db.Delete(key, writeOpt)
}

func (l *lvldb) Close() error {
	return l.db.Close()
}

func (l *lvldb) NewBatch() Batch {
	return &lvldbBatch{db: l.db, batch: new(leveldb.Batch)}
}

func (l *lvldb) Snapshot() Snapshot {
	snap, err := l.db.GetSnapshot()
	if err != nil {
		// GetSnapshot only fails if the db is already closed; callers
		// never take a snapshot past Close, so every read through the
		// returned snapshot reports that error rather than panicking.
		return &errSnapshot{err: err}
	}
	return &lvldbSnapshot{snap: snap}
}

func (l *lvldb) Iterate(r Range) Iterator {
	var rg *util.Range
	if len(r.Start) > 0 || len(r.Limit) > 0 {
		rg = &util.Range{Start: r.Start, Limit: r.Limit}
	}
	return &lvldbIterator{iter: l.db.NewIterator(rg, readOpt)}
}

type lvldbBatch struct {
	db    *leveldb.DB
	batch *leveldb.Batch
}

func (b *lvldbBatch) Put(key, val []byte) error { b.batch.Put(key, val); return nil }
func (b *lvldbBatch) Delete(key []byte) error   { b.batch.Delete(key); return nil }
func (b *lvldbBatch) Len() int                  { return b.batch.Len() }
func (b *lvldbBatch) Write() error              { return b.db.Write(b.batch, writeOpt) }

type lvldbSnapshot struct {
	snap *leveldb.Snapshot
}

func (s *lvldbSnapshot) Get(key []byte) ([]byte, error) { return s.snap.Get(key, readOpt) }
func (s *lvldbSnapshot) Has(key []byte) (bool, error)   { return s.snap.Has(key, readOpt) }
func (s *lvldbSnapshot) IsNotFound(err error) bool      { return err == leveldb.ErrNotFound }
func (s *lvldbSnapshot) Release()                       { s.snap.Release() }

type errSnapshot struct{ err error }

func (s *errSnapshot) Get(key []byte) ([]byte, error) { return nil, s.err }
func (s *errSnapshot) Has(key []byte) (bool, error)   { return false, s.err }
func (s *errSnapshot) IsNotFound(error) bool          { return false }
func (s *errSnapshot) Release()                       {}

type lvldbIterator struct {
	iter iterator.Iterator
}

func (i *lvldbIterator) Next() bool      { return i.iter.Next() }
func (i *lvldbIterator) Key() []byte     { return i.iter.Key() }
func (i *lvldbIterator) Value() []byte   { return i.iter.Value() }
func (i *lvldbIterator) Release()        { i.iter.Release() }
func (i *lvldbIterator) Error() error    { return i.iter.Error() }
