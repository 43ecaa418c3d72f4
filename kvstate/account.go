// Package kvstate is the persistent, crash-safe state layer: account
// balances, sequence numbers, published module names, and total
// supply, stored in an embedded key-value engine behind a
// write-ahead journal. It is the only component allowed to mutate
// durable state, and the only component that enforces the
// overflow/underflow and double-publish invariants a ChangeSet itself
// cannot check without a consistent read of what's already live.
package kvstate

import (
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// AccountState is the durable record kept for one address: its
// balance, its next-expected sequence number, and the set of module
// names it has published. The zero value is the state of an address
// that has never been touched — balance 0, sequence 0, no modules.
type AccountState struct {
	Balance  uint64
	Sequence uint64
	Modules  []string
}

// HasModule reports whether name has already been published under
// this account.
func (a AccountState) HasModule(name string) bool {
	for _, m := range a.Modules {
		if m == name {
			return true
		}
	}
	return false
}

func (a AccountState) clone() AccountState {
	out := a
	out.Modules = append([]string(nil), a.Modules...)
	return out
}

// encodeAccount produces the on-disk record: u64 balance LE, u64
// sequence LE, u32 module count, then each module as a length-prefixed
// UTF-8 name.
func encodeAccount(a AccountState) []byte {
	enc := kanari.NewEncoder()
	enc.Uint64(a.Balance)
	enc.Uint64(a.Sequence)
	enc.Uint32(uint32(len(a.Modules)))
	for _, m := range a.Modules {
		enc.String(m)
	}
	return enc.Bytes()
}

func decodeAccount(buf []byte) (AccountState, error) {
	dec := kanari.NewDecoder(buf)
	balance, err := dec.Uint64()
	if err != nil {
		return AccountState{}, err
	}
	seq, err := dec.Uint64()
	if err != nil {
		return AccountState{}, err
	}
	count, err := dec.Uint32()
	if err != nil {
		return AccountState{}, err
	}
	modules := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := dec.String()
		if err != nil {
			return AccountState{}, err
		}
		modules = append(modules, name)
	}
	if !dec.Done() {
		return AccountState{}, kanari.ErrTrailingBytes
	}
	return AccountState{Balance: balance, Sequence: seq, Modules: modules}, nil
}
