// Package vmboundary adapts a transaction into a call against the
// external Move VM and translates the VM's output, or the built-in
// native fallback for Transfer/Mint, into a changeset.ChangeSet. It
// never mutates state directly; every read it performs is funneled
// through the ReadView so a VM invocation observes one consistent
// snapshot for its entire duration.
package vmboundary

import (
	"math/big"

	"github.com/jamesatomc/kanari-sdk-V2/changeset"
	"github.com/jamesatomc/kanari-sdk-V2/gas"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/kvstate"
	"github.com/jamesatomc/kanari-sdk-V2/tx"
)

// ReadView is the capability set the VM needs of the state layer: a
// single-method read-through so the Move VM (or the built-in
// fallback) never reaches into kvstate.StateStore directly and can be
// substituted with a fake in tests.
type ReadView interface {
	ReadAccount(addr kanari.Address) (kvstate.AccountState, error)
}

// CallDescriptor is the marshaled form of a transaction handed to the
// VM: function identifier, length-prefixed arguments, type arguments,
// sender principal, and the gas budget for the call.
type CallDescriptor struct {
	Sender   kanari.Address
	Package  kanari.Address
	Module   string
	Function string
	TypeArgs []string
	Args     [][]byte
	GasMeter *gas.Meter
}

// CallResult is what a successful VM invocation reports back: the
// balance facts, sequence facts, and newly published modules it
// produced, before VmBoundary folds them into a ChangeSet.
type CallResult struct {
	BalanceChanges     map[kanari.Address]*big.Int
	SequenceIncrements map[kanari.Address]uint64
	ModulesAdded       map[kanari.Address][]string
}

// ExecutionError is a typed VM failure: a stringified kind plus a
// human-readable message, matching §7's VmExecutionFailure(kind,
// message) shape.
type ExecutionError struct {
	ErrKind string
	Message string
}

func (e *ExecutionError) Error() string { return e.ErrKind + ": " + e.Message }

// VM is the capability the Move VM must support: run one call under a
// gas budget, reading through view for any state it needs. Any object
// satisfying this interface is substitutable for the real Move VM
// without Engine or VmBoundary changing.
type VM interface {
	RunCall(call CallDescriptor, view ReadView) (CallResult, error)
}

// Boundary is the VmBoundary component: it owns an optional VM and a
// permanent built-in fallback for Transfer/Mint (§9 Open Question,
// resolved as permanent — see DESIGN.md).
type Boundary struct {
	VM VM
	// Fallback is set by New but not consulted by Run: Transfer and
	// Mint always execute natively, whether or not VM is set.
	Fallback bool
}

// New returns a Boundary wired to vm, with Fallback set. vm may be nil:
// ExecuteFunction then fails with VmExecutionFailure("NoVmLoaded", ...)
// since it has no native equivalent, while PublishModule still runs
// natively (see runPublish).
func New(vm VM) *Boundary {
	return &Boundary{VM: vm, Fallback: true}
}

// Run executes t under meter, against view, and returns the resulting
// ChangeSet. It never returns an error: a failed run is represented as
// a ChangeSet with Success=false, per §4.4 step 4. The second return
// value classifies a failed run's kind (the zero Kind on success) so
// Engine and the RPC dispatcher can map it to a response code without
// re-parsing ErrorMessage.
func (b *Boundary) Run(t tx.Transaction, meter *gas.Meter, view ReadView) (*changeset.ChangeSet, kanari.Kind) {
	switch txn := t.(type) {
	case *tx.Transfer:
		return b.runTransfer(txn, meter, view)
	case *tx.Mint:
		return b.runMint(txn, meter, view)
	case *tx.PublishModule:
		return b.runPublish(txn, meter, view)
	case *tx.ExecuteFunction:
		return b.runExecute(txn, meter, view)
	default:
		cs := changeset.New()
		cs.RecordGas(meter.Used())
		cs.MarkFailure("vmboundary: unknown transaction kind")
		return cs, kanari.KindVmExecutionFailure
	}
}

// fail builds a terminal, failed ChangeSet carrying whatever gas the
// meter has consumed up to the point of failure — the failed path
// still consumes gas, per §4.4 step 4 — and classifies err's Kind.
//
// A *gas.Exceeded is special-cased per spec.md's GasExceeded policy:
// the rejected Charge/ChargeAmount call left the meter's own Used
// exactly where it was before the operation that overran the budget,
// which is not the "gas_used=gas_limit" the spec requires and would
// undercharge the sender for a run whose very first metered operation
// already exceeds a too-low declared limit. ForceLimit brings Used (and
// everything downstream that reads it, including Engine's failed-fee
// settlement) up to the full limit before the ChangeSet is built.
func fail(meter *gas.Meter, err error) (*changeset.ChangeSet, kanari.Kind) {
	if _, exceeded := err.(*gas.Exceeded); exceeded {
		meter.ForceLimit()
	}

	cs := changeset.New()
	cs.RecordGas(meter.Used())
	cs.MarkFailure(err.Error())

	kind, ok := kanari.KindOf(err)
	if !ok {
		kind = kanari.KindVmExecutionFailure
		if _, exceeded := err.(*gas.Exceeded); exceeded {
			kind = kanari.KindGasExceeded
		}
	}
	return cs, kind
}

func (b *Boundary) runTransfer(t *tx.Transfer, meter *gas.Meter, view ReadView) (*changeset.ChangeSet, kanari.Kind) {
	if err := meter.Charge(gas.OpTransfer); err != nil {
		return fail(meter, err)
	}
	if err := meter.Charge(gas.OpStorageRead); err != nil {
		return fail(meter, err)
	}
	if err := meter.Charge(gas.OpStorageWrite); err != nil {
		return fail(meter, err)
	}

	cs := changeset.New()
	if err := cs.RecordTransfer(t.From, t.To, t.Amount); err != nil {
		return fail(meter, err)
	}
	cs.RecordSequenceIncrement(t.From)
	cs.RecordGas(meter.Used())
	cs.MarkSuccess()
	return cs, ""
}

func (b *Boundary) runMint(t *tx.Mint, meter *gas.Meter, view ReadView) (*changeset.ChangeSet, kanari.Kind) {
	if err := meter.Charge(gas.OpTransfer); err != nil {
		return fail(meter, err)
	}
	if err := meter.Charge(gas.OpStorageWrite); err != nil {
		return fail(meter, err)
	}

	cs := changeset.New()
	cs.RecordMint(t.To, t.Amount)
	cs.RecordSequenceIncrement(t.Treasury)
	cs.RecordGas(meter.Used())
	cs.MarkSuccess()
	return cs, ""
}

// runPublish stores Bytes under Name, owned by Sender. Publishing a
// module is mechanical storage rather than bytecode execution, so it
// runs natively even with no VM loaded — unlike runExecute, which fails
// without one — the VM is still given first refusal when
// present, since a real Move VM may want to verify the bytecode before
// it is accepted.
func (b *Boundary) runPublish(t *tx.PublishModule, meter *gas.Meter, view ReadView) (*changeset.ChangeSet, kanari.Kind) {
	if err := meter.Charge(gas.OpLoadModule); err != nil {
		return fail(meter, err)
	}
	if err := meter.ChargeAmount(gas.CostOf(gas.OpPublishModuleByte) * uint64(len(t.Bytes))); err != nil {
		return fail(meter, err)
	}

	acct, err := view.ReadAccount(t.SenderAddr)
	if err != nil {
		return fail(meter, err)
	}
	if acct.HasModule(t.Name) {
		return fail(meter, kanari.NewError(kanari.KindModuleAlreadyPublished, "module already published", map[string]any{
			"address": t.SenderAddr.String(), "module": t.Name,
		}))
	}

	cs := changeset.New()
	if b.VM != nil {
		result, err := b.VM.RunCall(CallDescriptor{
			Sender:   t.SenderAddr,
			Module:   t.Name,
			GasMeter: meter,
		}, view)
		if err != nil {
			return failVM(meter, err)
		}
		if err := mergeResult(cs, result); err != nil {
			return fail(meter, err)
		}
	}
	if err := cs.RecordModule(t.SenderAddr, t.Name); err != nil {
		return fail(meter, err)
	}
	cs.RecordSequenceIncrement(t.SenderAddr)
	cs.RecordGas(meter.Used())
	cs.MarkSuccess()
	return cs, ""
}

func (b *Boundary) runExecute(t *tx.ExecuteFunction, meter *gas.Meter, view ReadView) (*changeset.ChangeSet, kanari.Kind) {
	if err := meter.Charge(gas.OpFunctionCall); err != nil {
		return fail(meter, err)
	}
	if b.VM == nil {
		return fail(meter, &ExecutionError{ErrKind: "NoVmLoaded", Message: "no Move VM is loaded to execute " + t.Module + "::" + t.Function})
	}

	result, err := b.VM.RunCall(CallDescriptor{
		Sender:   t.SenderAddr,
		Package:  t.Package,
		Module:   t.Module,
		Function: t.Function,
		TypeArgs: t.TypeArgs,
		Args:     t.Args,
		GasMeter: meter,
	}, view)
	if err != nil {
		return failVM(meter, err)
	}

	cs := changeset.New()
	if err := mergeResult(cs, result); err != nil {
		return fail(meter, err)
	}
	cs.RecordSequenceIncrement(t.SenderAddr)
	cs.RecordGas(meter.Used())
	cs.MarkSuccess()
	return cs, ""
}

// failVM builds a failed ChangeSet from a VM-returned error, carrying
// the stringified kind per §7's VmExecutionFailure shape.
func failVM(meter *gas.Meter, err error) (*changeset.ChangeSet, kanari.Kind) {
	if ee, ok := err.(*ExecutionError); ok {
		return fail(meter, ee)
	}
	return fail(meter, &ExecutionError{ErrKind: "VmExecutionFailure", Message: err.Error()})
}

// mergeResult folds a VM CallResult's facts into cs. The map
// traversal order doesn't affect the outcome: ChangeSet.Encode sorts
// by address independently, so this only needs to be correct, not
// deterministic in iteration order.
func mergeResult(cs *changeset.ChangeSet, result CallResult) error {
	for addr, delta := range result.BalanceChanges {
		cs.RecordBalanceDelta(addr, delta)
	}
	for addr, n := range result.SequenceIncrements {
		cs.RecordSequenceIncrementBy(addr, n)
	}
	for addr, names := range result.ModulesAdded {
		for _, name := range names {
			if err := cs.RecordModule(addr, name); err != nil {
				return err
			}
		}
	}
	return nil
}
