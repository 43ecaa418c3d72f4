// Package kv defines the ordered key-value store capability set the
// state layer is built on, plus a LevelDB-backed implementation. Any
// object satisfying Store can stand in for the embedded engine without
// the state layer above it ever knowing the concrete backend.
package kv

// Getter defines methods to read a kv store.
type Getter interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	IsNotFound(err error) bool
}

// Putter defines methods to write a kv store.
type Putter interface {
	Put(key, val []byte) error
	Delete(key []byte) error
}

// Snapshot is a consistent point-in-time read view. Readers that need
// more than one Get to observe the same point in time should take a
// Snapshot rather than issue Gets directly against the Store.
type Snapshot interface {
	Getter
	Release()
}

// Batch is a set of writes applied atomically by Write.
type Batch interface {
	Putter
	Len() int
	Write() error
}

// Iterator iterates over key-value pairs in key order within Range.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Release()
	Error() error
}

// Range is a [Start, Limit) key range; an empty Limit means unbounded.
type Range struct {
	Start []byte
	Limit []byte
}

// Store is the full capability set the state layer requires of its
// embedded engine.
type Store interface {
	Getter
	Putter

	Snapshot() Snapshot
	NewBatch() Batch
	Iterate(r Range) Iterator

	Close() error
}
