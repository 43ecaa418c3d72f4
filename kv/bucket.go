package kv

// Bucket provides a logical namespace within a shared Store, so the
// account sub-range and the reserved total-supply key can share one
// LevelDB instance without colliding.
type Bucket string

func (b Bucket) key(k []byte) []byte {
	out := make([]byte, 0, len(b)+len(k))
	out = append(out, b...)
	out = append(out, k...)
	return out
}

// Get reads a key within the bucket's namespace.
func (b Bucket) Get(src Getter, key []byte) ([]byte, error) {
	return src.Get(b.key(key))
}

// Has reports whether a key within the bucket's namespace exists.
func (b Bucket) Has(src Getter, key []byte) (bool, error) {
	return src.Has(b.key(key))
}

// Put writes a key within the bucket's namespace.
func (b Bucket) Put(dst Putter, key, val []byte) error {
	return dst.Put(b.key(key), val)
}

// PutBatch stages a namespaced write into batch.
func (b Bucket) PutBatch(batch Batch, key, val []byte) error {
	return batch.Put(b.key(key), val)
}

// Iterate returns an iterator over the bucket's namespace, with keys
// returned already stripped of the bucket prefix.
func (b Bucket) Iterate(src Store) Iterator {
	prefix := []byte(b)
	// The limit is the smallest key greater than every key carrying the
	// prefix; nil (unbounded) when the prefix is empty or all 0xff.
	var limit []byte
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] < 0xff {
			limit = append(append([]byte{}, prefix[:i]...), prefix[i]+1)
			break
		}
	}
	return &bucketIterator{
		Iterator: src.Iterate(Range{Start: prefix, Limit: limit}),
		prefix:   prefix,
	}
}

type bucketIterator struct {
	Iterator
	prefix []byte
}

func (i *bucketIterator) Key() []byte {
	return i.Iterator.Key()[len(i.prefix):]
}
