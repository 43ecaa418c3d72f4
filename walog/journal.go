// Package walog implements the write-ahead journal StateStore.Apply
// uses for crash safety: the full serialized ChangeSet for the
// in-flight commit is appended and fsync'd before the store's batch is
// written, and the journal slot is cleared only after that batch write
// durably succeeds. On startup the journal is replayed before the
// store serves any request.
package walog

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// Journal is a single-slot append-only write-ahead log: at most one
// pending commit exists at a time, matching the single-writer
// discipline of the execution core (only one Engine.Submit call holds
// the writer lease at any moment).
type Journal struct {
	f *os.File
}

// Open opens (creating if necessary) the journal file at path.
func Open(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "walog: open")
	}
	return &Journal{f: f}, nil
}

// Close closes the underlying file.
func (j *Journal) Close() error {
	return j.f.Close()
}

// WritePending records payload as the one pending commit, tagged with
// a monotonically increasing seq used to detect, on replay, whether
// this commit already made it into the store. The write is fsync'd
// before returning.
func (j *Journal) WritePending(seq uint64, payload []byte) error {
	if err := j.f.Truncate(0); err != nil {
		return errors.Wrap(err, "walog: truncate before write")
	}
	if _, err := j.f.Seek(0, 0); err != nil {
		return errors.Wrap(err, "walog: seek before write")
	}

	var header [12]byte
	binary.LittleEndian.PutUint64(header[0:8], seq)
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))

	if _, err := j.f.Write(header[:]); err != nil {
		return errors.Wrap(err, "walog: write header")
	}
	if _, err := j.f.Write(payload); err != nil {
		return errors.Wrap(err, "walog: write payload")
	}
	return errors.Wrap(j.f.Sync(), "walog: fsync")
}

// ReadPending returns the currently pending commit, if any. ok is
// false when the journal is empty (nothing to replay).
func (j *Journal) ReadPending() (seq uint64, payload []byte, ok bool, err error) {
	size, err := j.f.Seek(0, 2)
	if err != nil {
		return 0, nil, false, errors.Wrap(err, "walog: seek end")
	}
	if size < 12 {
		return 0, nil, false, nil
	}
	if _, err := j.f.Seek(0, 0); err != nil {
		return 0, nil, false, errors.Wrap(err, "walog: seek start")
	}
	var header [12]byte
	if _, err := readFull(j.f, header[:]); err != nil {
		return 0, nil, false, errors.Wrap(err, "walog: read header")
	}
	seq = binary.LittleEndian.Uint64(header[0:8])
	n := binary.LittleEndian.Uint32(header[8:12])
	if int64(12+int(n)) > size {
		// truncated write from a crash mid-append; nothing usable to replay
		return 0, nil, false, nil
	}
	payload = make([]byte, n)
	if _, err := readFull(j.f, payload); err != nil {
		return 0, nil, false, errors.Wrap(err, "walog: read payload")
	}
	return seq, payload, true, nil
}

// Clear empties the journal, used once a pending commit has been
// durably written to the store.
func (j *Journal) Clear() error {
	if err := j.f.Truncate(0); err != nil {
		return errors.Wrap(err, "walog: clear")
	}
	if _, err := j.f.Seek(0, 0); err != nil {
		return errors.Wrap(err, "walog: seek after clear")
	}
	return errors.Wrap(j.f.Sync(), "walog: fsync after clear")
}

func readFull(f *os.File, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := f.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
