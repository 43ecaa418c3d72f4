package kvstate

import (
	"math/big"

	"github.com/jamesatomc/kanari-sdk-V2/changeset"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/pkg/errors"
)

// Apply durably applies cs under the writer lease. A failed ChangeSet
// (cs.Success == false) is a no-op — it carries no per-account deltas
// by construction, so there is nothing to validate or persist beyond
// whatever fee settlement the caller performs separately.
//
// Every abort path below runs entirely against in-memory copies
// before anything is staged for the kv engine or the journal, so a
// rejected ChangeSet leaves the store byte-for-byte unchanged.
func (s *StateStore) Apply(cs *changeset.ChangeSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !cs.Success {
		return nil
	}

	if _, err := s.computeUpdatedAccounts(cs); err != nil {
		return err
	}
	if _, err := s.computeUpdatedSupply(cs); err != nil {
		return err
	}

	seq := s.lastAppliedSeq + 1
	if err := s.journal.WritePending(seq, cs.Encode()); err != nil {
		return errors.Wrap(err, "kvstate: journal pending commit")
	}
	if err := s.commit(seq, cs); err != nil {
		return err
	}
	return s.journal.Clear()
}

// commit validates cs against the current state and, if every check
// passes, writes the resulting accounts, supply, and last-applied-seq
// atomically in a single kv batch. It is shared by Apply and by
// journal replay on startup, which is why seq is threaded explicitly
// rather than re-derived from s.lastAppliedSeq.
func (s *StateStore) commit(seq uint64, cs *changeset.ChangeSet) error {
	updated, err := s.computeUpdatedAccounts(cs)
	if err != nil {
		return err
	}
	newSupply, err := s.computeUpdatedSupply(cs)
	if err != nil {
		return err
	}

	batch := s.kv.NewBatch()
	for addr, acct := range updated {
		if err := accounts.PutBatch(batch, addr.Bytes(), encodeAccount(acct)); err != nil {
			return errors.Wrap(err, "kvstate: stage account write")
		}
	}
	supplyEnc := kanari.NewEncoder().Uint64(newSupply).Bytes()
	if err := meta.PutBatch(batch, supplyKey, supplyEnc); err != nil {
		return errors.Wrap(err, "kvstate: stage supply write")
	}
	seqEnc := kanari.NewEncoder().Uint64(seq).Bytes()
	if err := meta.PutBatch(batch, seqKey, seqEnc); err != nil {
		return errors.Wrap(err, "kvstate: stage seq write")
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "kvstate: write commit batch")
	}
	s.lastAppliedSeq = seq
	return nil
}

// computeUpdatedAccounts checks balance, sequence, and module-name
// invariants for every account touched by cs and returns the full set
// of post-commit AccountState values, keyed by address. Nothing is
// written to the store.
func (s *StateStore) computeUpdatedAccounts(cs *changeset.ChangeSet) (map[kanari.Address]AccountState, error) {
	updated := make(map[kanari.Address]AccountState, len(cs.PerAccount))

	for addr, change := range cs.PerAccount {
		current, err := s.readAccountLocked(addr)
		if err != nil {
			return nil, err
		}
		next := current.clone()

		newBalance := new(big.Int).Add(new(big.Int).SetUint64(current.Balance), change.BalanceDelta)
		if newBalance.Sign() < 0 {
			return nil, kanari.NewError(kanari.KindInsufficientBalance, "balance delta exceeds current balance", map[string]any{
				"address": addr.String(),
				"balance": current.Balance,
				"delta":   change.BalanceDelta.String(),
			})
		}
		if !newBalance.IsUint64() {
			return nil, kanari.NewError(kanari.KindBalanceOverflow, "balance exceeds representable range", map[string]any{
				"address": addr.String(),
			})
		}
		next.Balance = newBalance.Uint64()

		newSeq := current.Sequence + change.SequenceIncrement
		if newSeq < current.Sequence {
			return nil, kanari.NewError(kanari.KindSequenceOverflow, "sequence number overflowed", map[string]any{
				"address": addr.String(),
			})
		}
		next.Sequence = newSeq

		for _, name := range change.ModulesAdded {
			if next.HasModule(name) {
				return nil, kanari.NewError(kanari.KindModuleAlreadyPublished, "module already published", map[string]any{
					"address": addr.String(),
					"module":  name,
				})
			}
			next.Modules = append(next.Modules, name)
		}

		updated[addr] = next
	}
	return updated, nil
}

// computeUpdatedSupply applies cs's net supply delta, rejecting
// over/underflow against the representable uint64 range.
func (s *StateStore) computeUpdatedSupply(cs *changeset.ChangeSet) (uint64, error) {
	current, err := s.readSupplyLocked()
	if err != nil {
		return 0, err
	}
	delta := cs.SupplyDelta()
	next := new(big.Int).Add(new(big.Int).SetUint64(current), delta)
	if next.Sign() < 0 {
		return 0, kanari.NewError(kanari.KindSupplyUnderflow, "total supply would go negative", map[string]any{
			"supply": current,
			"delta":  delta.String(),
		})
	}
	if !next.IsUint64() {
		return 0, kanari.NewError(kanari.KindSupplyOverflow, "total supply exceeds representable range", map[string]any{
			"supply": current,
			"delta":  delta.String(),
		})
	}
	return next.Uint64(), nil
}
