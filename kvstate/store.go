package kvstate

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jamesatomc/kanari-sdk-V2/changeset"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/kv"
	"github.com/jamesatomc/kanari-sdk-V2/walog"
	"github.com/pkg/errors"
)

var (
	accounts = kv.Bucket("a")
	meta     = kv.Bucket("m")
)

var (
	supplyKey = []byte("supply")
	seqKey    = []byte("seq")
)

// StateStore is the persistent, crash-safe account/supply ledger.
// Reads take the shared lock; Apply takes the exclusive writer lease,
// matching the single-writer/multi-reader discipline the execution
// core requires of its state layer.
type StateStore struct {
	mu      sync.RWMutex
	kv      kv.Store
	journal *walog.Journal

	lastAppliedSeq uint64

	tmpDir string // non-empty only for OpenMem, removed on Close
}

// Open opens (or creates) a StateStore rooted at dataDir, replaying any
// journal entry left pending by a crash before returning.
func Open(dataDir string) (*StateStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "kvstate: create data dir")
	}
	store, err := kv.OpenLevelDB(filepath.Join(dataDir, "state"), 256)
	if err != nil {
		return nil, err
	}
	j, err := walog.Open(filepath.Join(dataDir, "journal"))
	if err != nil {
		store.Close()
		return nil, err
	}
	return open(store, j, "")
}

// OpenMem opens an in-memory StateStore, used by tests and by a fresh
// genesis bootstrap with no durable backing.
func OpenMem() (*StateStore, error) {
	store, err := kv.OpenMemLevelDB()
	if err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "kanari-kvstate-*")
	if err != nil {
		store.Close()
		return nil, errors.Wrap(err, "kvstate: create temp journal dir")
	}
	j, err := walog.Open(filepath.Join(dir, "journal"))
	if err != nil {
		store.Close()
		os.RemoveAll(dir)
		return nil, err
	}
	return open(store, j, dir)
}

func open(store kv.Store, j *walog.Journal, tmpDir string) (*StateStore, error) {
	s := &StateStore{kv: store, journal: j, tmpDir: tmpDir}

	lastApplied, ok, err := s.readSeq()
	if err != nil {
		j.Close()
		store.Close()
		return nil, err
	}
	if ok {
		s.lastAppliedSeq = lastApplied
	}

	if err := s.replayPending(); err != nil {
		j.Close()
		store.Close()
		return nil, err
	}
	return s, nil
}

// replayPending re-applies a journaled commit that never made it into
// the store before a crash. A commit whose seq is already reflected
// by lastAppliedSeq was durably written before the crash; the journal
// entry only needs clearing.
func (s *StateStore) replayPending() error {
	seq, payload, ok, err := s.journal.ReadPending()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if seq <= s.lastAppliedSeq {
		return s.journal.Clear()
	}
	cs, err := changeset.Decode(payload)
	if err != nil {
		return errors.Wrap(err, "kvstate: decode pending journal entry")
	}
	if err := s.commit(seq, cs); err != nil {
		return errors.Wrap(err, "kvstate: replay pending journal entry")
	}
	return s.journal.Clear()
}

// Close releases the underlying store and journal. For a store opened
// with OpenMem, the temporary journal directory is also removed.
func (s *StateStore) Close() error {
	jerr := s.journal.Close()
	kerr := s.kv.Close()
	if s.tmpDir != "" {
		os.RemoveAll(s.tmpDir)
	}
	if jerr != nil {
		return jerr
	}
	return kerr
}

// ReadAccount returns the current state of addr, or the zero value if
// addr has never been touched.
func (s *StateStore) ReadAccount(addr kanari.Address) (AccountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readAccountLocked(addr)
}

func (s *StateStore) readAccountLocked(addr kanari.Address) (AccountState, error) {
	raw, err := accounts.Get(s.kv, addr.Bytes())
	if err != nil {
		if s.kv.IsNotFound(err) {
			return AccountState{}, nil
		}
		return AccountState{}, errors.Wrap(err, "kvstate: read account")
	}
	return decodeAccount(raw)
}

// TotalSupply returns the current total supply.
func (s *StateStore) TotalSupply() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readSupplyLocked()
}

func (s *StateStore) readSupplyLocked() (uint64, error) {
	raw, err := meta.Get(s.kv, supplyKey)
	if err != nil {
		if s.kv.IsNotFound(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "kvstate: read supply")
	}
	dec := kanari.NewDecoder(raw)
	v, err := dec.Uint64()
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *StateStore) readSeq() (uint64, bool, error) {
	raw, err := meta.Get(s.kv, seqKey)
	if err != nil {
		if s.kv.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "kvstate: read last applied seq")
	}
	dec := kanari.NewDecoder(raw)
	v, err := dec.Uint64()
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}

// ValidateSequence reports whether expected matches addr's current
// sequence number, returning a SequenceMismatch domain error if not.
func (s *StateStore) ValidateSequence(addr kanari.Address, expected uint64) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, err := s.readAccountLocked(addr)
	if err != nil {
		return err
	}
	if acct.Sequence != expected {
		return kanari.NewError(kanari.KindSequenceMismatch, "sequence number does not match expected", map[string]any{
			"address":  addr.String(),
			"expected": expected,
			"actual":   acct.Sequence,
		})
	}
	return nil
}

// StateRoot computes a SHA3-256 commitment over every touched account
// plus total supply, in ascending address order, so two stores that
// applied the same sequence of ChangeSets agree on a root regardless
// of map iteration order or on-disk layout.
func (s *StateStore) StateRoot() (kanari.Hash, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it := accounts.Iterate(s.kv)
	defer it.Release()

	type entry struct {
		addr kanari.Address
		raw  []byte
	}
	var entries []entry
	for it.Next() {
		entries = append(entries, entry{addr: kanari.BytesToAddress(it.Key()), raw: append([]byte{}, it.Value()...)})
	}
	if err := it.Error(); err != nil {
		return kanari.Hash{}, errors.Wrap(err, "kvstate: iterate accounts")
	}
	sort.Slice(entries, func(i, j int) bool { return lessAddr(entries[i].addr, entries[j].addr) })

	supply, err := s.readSupplyLocked()
	if err != nil {
		return kanari.Hash{}, err
	}

	enc := kanari.NewEncoder()
	enc.Uint32(uint32(len(entries)))
	for _, e := range entries {
		enc.Bytes32(e.addr)
		enc.Blob(e.raw)
	}
	enc.Uint64(supply)
	return kanari.Sum256(enc.Bytes()), nil
}

func lessAddr(a, b kanari.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
