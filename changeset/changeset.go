// Package changeset defines the canonical, accumulable state diff
// produced by one transaction: per-account balance deltas, sequence
// increments, newly published modules, gas used, and the
// success/failure outcome. A ChangeSet is a linear value — produced by
// exactly one VM invocation, consumed by exactly one StateStore.Apply,
// never aliased across threads.
package changeset

import (
	"math/big"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// AccountChange is the per-account slice of a ChangeSet.
type AccountChange struct {
	BalanceDelta      *big.Int
	SequenceIncrement uint64
	ModulesAdded      []string
}

// ChangeSet is the canonical diff produced by running a transaction.
// It is append-only within a transaction: once MarkSuccess or
// MarkFailure has been called, every Record* call becomes a no-op.
type ChangeSet struct {
	PerAccount   map[kanari.Address]*AccountChange
	GasUsed      uint64
	Success      bool
	ErrorMessage string

	terminal    bool
	moduleNames map[kanari.Address]map[string]bool
}

// New returns an empty, non-terminal ChangeSet ready to accumulate
// records from a single VM invocation.
func New() *ChangeSet {
	return &ChangeSet{
		PerAccount:  make(map[kanari.Address]*AccountChange),
		moduleNames: make(map[kanari.Address]map[string]bool),
	}
}

func (cs *ChangeSet) change(addr kanari.Address) *AccountChange {
	ac, ok := cs.PerAccount[addr]
	if !ok {
		ac = &AccountChange{BalanceDelta: new(big.Int)}
		cs.PerAccount[addr] = ac
	}
	return ac
}

// RecordTransfer records a net-zero balance movement of amount from
// from to to. Self-transfers and zero amounts are rejected as
// InvalidTransfer, matching the VM boundary's own validation so a
// built-in fallback and a VM-produced result behave identically.
func (cs *ChangeSet) RecordTransfer(from, to kanari.Address, amount uint64) error {
	if cs.terminal {
		return nil
	}
	if from == to || amount == 0 {
		return kanari.NewError(kanari.KindInvalidTransfer, "self-transfer or zero amount", map[string]any{
			"from": from.String(), "to": to.String(), "amount": amount,
		})
	}
	delta := new(big.Int).SetUint64(amount)
	cs.change(from).BalanceDelta.Sub(cs.change(from).BalanceDelta, delta)
	cs.change(to).BalanceDelta.Add(cs.change(to).BalanceDelta, delta)
	return nil
}

// RecordMint records a positive balance delta with no offsetting debit.
// The caller (VmBoundary) is responsible for having already checked
// that the originating transaction was authorized as a mint.
func (cs *ChangeSet) RecordMint(to kanari.Address, amount uint64) {
	if cs.terminal {
		return
	}
	cs.change(to).BalanceDelta.Add(cs.change(to).BalanceDelta, new(big.Int).SetUint64(amount))
}

// RecordBurn records a negative balance delta with no offsetting credit.
func (cs *ChangeSet) RecordBurn(from kanari.Address, amount uint64) {
	if cs.terminal {
		return
	}
	cs.change(from).BalanceDelta.Sub(cs.change(from).BalanceDelta, new(big.Int).SetUint64(amount))
}

// RecordFeeCollection debits amount from the paying account and
// credits it to kanari.FeeCollector, the fixed address the Engine pays
// a failed transaction's gas fee to. A zero amount is a no-op.
func (cs *ChangeSet) RecordFeeCollection(from kanari.Address, amount uint64) {
	if cs.terminal || amount == 0 {
		return
	}
	delta := new(big.Int).SetUint64(amount)
	cs.change(from).BalanceDelta.Sub(cs.change(from).BalanceDelta, delta)
	cs.change(kanari.FeeCollector).BalanceDelta.Add(cs.change(kanari.FeeCollector).BalanceDelta, delta)
}

// RecordSequenceIncrement adds 1 to addr's sequence delta. It is
// invoked exactly once per transaction, for the sender.
func (cs *ChangeSet) RecordSequenceIncrement(addr kanari.Address) {
	cs.RecordSequenceIncrementBy(addr, 1)
}

// RecordSequenceIncrementBy adds n to addr's sequence delta, used when
// mirroring VM-result sequence facts for accounts other than the
// sender before VmBoundary applies its own mandatory sender bump.
func (cs *ChangeSet) RecordSequenceIncrementBy(addr kanari.Address, n uint64) {
	if cs.terminal {
		return
	}
	cs.change(addr).SequenceIncrement += n
}

// RecordBalanceDelta records an arbitrary signed balance movement for
// addr. RecordTransfer/RecordMint/RecordBurn are the named special
// cases of this general operation; VmBoundary uses it directly when
// mirroring a Move VM call result whose balance facts don't decompose
// into a single transfer, mint, or burn.
func (cs *ChangeSet) RecordBalanceDelta(addr kanari.Address, delta *big.Int) {
	if cs.terminal {
		return
	}
	cs.change(addr).BalanceDelta.Add(cs.change(addr).BalanceDelta, delta)
}

// RecordModule appends name to addr's added-modules list. A name
// already recorded earlier in this same ChangeSet is rejected —
// per-ChangeSet uniqueness; uniqueness against the already-published
// live account is enforced by StateStore.Apply, which is the only
// place with a consistent read of existing modules.
func (cs *ChangeSet) RecordModule(addr kanari.Address, name string) error {
	if cs.terminal {
		return nil
	}
	seen := cs.moduleNames[addr]
	if seen == nil {
		seen = make(map[string]bool)
		cs.moduleNames[addr] = seen
	}
	if seen[name] {
		return kanari.NewError(kanari.KindModuleAlreadyPublished, "duplicate module in change set", map[string]any{
			"address": addr.String(), "module": name,
		})
	}
	seen[name] = true
	ac := cs.change(addr)
	ac.ModulesAdded = append(ac.ModulesAdded, name)
	return nil
}

// RecordGas sets the gas_used field of the ChangeSet.
func (cs *ChangeSet) RecordGas(amount uint64) {
	if cs.terminal {
		return
	}
	cs.GasUsed = amount
}

// MarkSuccess terminates the ChangeSet as successful. Any Record* call
// made afterwards is a no-op.
func (cs *ChangeSet) MarkSuccess() {
	cs.terminal = true
	cs.Success = true
}

// MarkFailure terminates the ChangeSet as failed and clears any
// per-account deltas accumulated so far, matching the invariant that a
// failed ChangeSet carries no balance/sequence/module effects.
func (cs *ChangeSet) MarkFailure(message string) {
	cs.terminal = true
	cs.Success = false
	cs.ErrorMessage = message
	cs.PerAccount = make(map[kanari.Address]*AccountChange)
}

// IsTerminal reports whether MarkSuccess or MarkFailure has already
// been called.
func (cs *ChangeSet) IsTerminal() bool { return cs.terminal }

// SupplyDelta sums BalanceDelta across every account in the ChangeSet,
// the quantity StateStore.Apply uses to update total supply.
func (cs *ChangeSet) SupplyDelta() *big.Int {
	total := new(big.Int)
	for _, ac := range cs.PerAccount {
		total.Add(total, ac.BalanceDelta)
	}
	return total
}
