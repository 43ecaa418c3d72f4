// Package engine implements the execution core's single entry point
// for state-changing work: verify a signed transaction, admit it under
// the writer lease, run it through the VM boundary, and durably apply
// the resulting ChangeSet. It also serves the read-only queries that
// never need the writer lease.
package engine

import (
	"sync"
	"sync/atomic"

	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/jamesatomc/kanari-sdk-V2/changeset"
	"github.com/jamesatomc/kanari-sdk-V2/contracts"
	"github.com/jamesatomc/kanari-sdk-V2/gas"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/kvstate"
	"github.com/jamesatomc/kanari-sdk-V2/tx"
	"github.com/jamesatomc/kanari-sdk-V2/vmboundary"
)

// TxReceipt is what Submit reports for one signed transaction: the
// transaction hash that identifies it, whether it succeeded, the gas
// it consumed, and, on failure, the kind and message of whatever
// domain error stopped it.
type TxReceipt struct {
	Hash         kanari.Hash
	Success      bool
	GasUsed      uint64
	ErrorKind    kanari.Kind
	ErrorMessage string
}

// Stats is the snapshot returned by GetStats: the running totals the
// Engine keeps across every transaction it has ever committed.
type Stats struct {
	BlockHeight      uint64
	TxCount          uint64
	TotalGasConsumed uint64
}

// Engine is the execution core: one StateStore, one VmBoundary, and
// the treasury principal authorized to mint. Submit is safe for
// concurrent use; concurrent Submit calls are serialized on writeMu so
// exactly one is ever running the sequence-check/execute/apply
// pipeline at a time, while ReadAccount and friends never wait on it.
type Engine struct {
	store    *kvstate.StateStore
	vm       *vmboundary.Boundary
	treasury kanari.Address

	// registry is the discovery-only contract index kept alongside
	// StateStore's own authoritative module-name bookkeeping. It is
	// rebuilt from nothing on every process start (there is no block
	// history to replay it from — see GetBlockHeight), which is fine
	// since nothing in the domain-error taxonomy or in supply
	// conservation depends on it.
	registry *contracts.Registry

	// writeMu is the writer lease: it serializes the admit/execute/apply
	// pipeline across concurrent Submit calls. It is distinct from
	// StateStore's own RWMutex, which only guarantees a single call's
	// point-in-time consistency; holding writeMu for the whole pipeline
	// is what stops a second Submit from validating a sequence number
	// against state a still-in-flight Submit is about to change.
	writeMu sync.Mutex

	blockHeight      atomic.Uint64
	txCount          atomic.Uint64
	totalGasConsumed atomic.Uint64
}

// New wires an Engine to store and vm, authorizing treasury as the
// only sender a Mint transaction may declare.
func New(store *kvstate.StateStore, vm *vmboundary.Boundary, treasury kanari.Address) *Engine {
	return &Engine{store: store, vm: vm, treasury: treasury, registry: contracts.New()}
}

// Submit runs the full admission pipeline for one signed transaction
// and returns its receipt. A non-nil error means something outside
// the domain-error taxonomy went wrong (a store I/O failure); every
// other outcome, success or domain failure, comes back as a
// populated *TxReceipt with a nil error.
func (e *Engine) Submit(st *tx.SignedTransaction) (*TxReceipt, error) {
	hash := tx.Hash(st)

	// Step 1: signature verification happens before the writer lease is
	// even requested. A bad signature must never touch state.
	if err := tx.Verify(st); err != nil {
		return domainReceipt(hash, kanari.KindInvalidSignature, err.Error()), nil
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	sender := st.Tx.Sender()

	if mint, ok := st.Tx.(*tx.Mint); ok && mint.Treasury != e.treasury {
		return domainReceipt(hash, kanari.KindInvalidSignature, "mint is only valid from the configured treasury principal"), nil
	}

	if err := e.store.ValidateSequence(sender, st.Tx.Sequence()); err != nil {
		return e.receiptFromDomainErr(hash, err)
	}

	if err := e.checkMaxFee(sender, st.Tx); err != nil {
		return e.receiptFromDomainErr(hash, err)
	}

	meter := gas.NewMeter(st.Tx.GasLimit(), st.Tx.GasPrice())
	cs, kind := e.vm.Run(st.Tx, meter, e.store)

	// A ChangeSet that already failed inside VmBoundary applies as a
	// no-op (kvstate.Apply's own rule), but §4.5 step 7 still routes it
	// through Apply uniformly rather than special-casing it here.
	if err := e.store.Apply(cs); err != nil {
		applyKind, ok := kanari.KindOf(err)
		if !ok {
			return nil, errors.Wrap(err, "engine: apply changeset")
		}
		// The VM boundary reported success but the store's own invariant
		// checks (balance/supply/sequence overflow, live-account module
		// collision) rejected the changeset. Nothing was written.
		if err := e.settleFailedFee(sender, meter); err != nil {
			return nil, errors.Wrap(err, "engine: settle failed transaction fee")
		}
		return &TxReceipt{Hash: hash, Success: false, GasUsed: cs.GasUsed, ErrorKind: applyKind, ErrorMessage: err.Error()}, nil
	}

	if !cs.Success {
		if err := e.settleFailedFee(sender, meter); err != nil {
			return nil, errors.Wrap(err, "engine: settle failed transaction fee")
		}
		return &TxReceipt{Hash: hash, Success: false, GasUsed: cs.GasUsed, ErrorKind: kind, ErrorMessage: cs.ErrorMessage}, nil
	}

	// §4.5 step 9: only a genuinely committed transaction advances the
	// counters. A failed run still paid its gas fee to the fee collector
	// above, but it never counts toward tx_count, total_gas_consumed, or
	// block_height.
	e.recordCommit(cs.GasUsed)
	if publish, ok := st.Tx.(*tx.PublishModule); ok {
		e.registerContract(publish, hash)
	}
	return &TxReceipt{Hash: hash, Success: true, GasUsed: cs.GasUsed}, nil
}

// registerContract adds the just-committed module to the discovery
// registry. StateStore.Apply has already accepted the ModuleAdded
// record by this point, so the (address, name) pair is guaranteed
// unique; a false return would mean the registry and the store have
// disagreed, which recordCommit's caller treats as unreachable.
func (e *Engine) registerContract(publish *tx.PublishModule, txHash kanari.Hash) {
	e.registry.Register(contracts.Info{
		Address:      publish.SenderAddr,
		Name:         publish.Name,
		Bytecode:     publish.Bytes,
		DeploymentTx: txHash,
		DeployedAt:   e.blockHeight.Load(),
		Metadata: contracts.Metadata{
			Author:      publish.Author,
			Description: publish.Description,
			SourceURL:   publish.SourceURL,
			License:     publish.License,
			Tags:        publish.Tags,
		},
	})
}

// receiptFromDomainErr builds a failed receipt from err, which must be
// a *kanari.DomainError produced by the store's own validation. It
// never charges gas: the transaction never reached the VM boundary.
func (e *Engine) receiptFromDomainErr(hash kanari.Hash, err error) (*TxReceipt, error) {
	kind, ok := kanari.KindOf(err)
	if !ok {
		return nil, errors.Wrap(err, "engine: pre-flight check")
	}
	return domainReceipt(hash, kind, err.Error()), nil
}

func domainReceipt(hash kanari.Hash, kind kanari.Kind, message string) *TxReceipt {
	return &TxReceipt{Hash: hash, Success: false, ErrorKind: kind, ErrorMessage: message}
}

// checkMaxFee rejects a transaction whose sender cannot cover
// gas_limit x gas_price even in the worst case, before any gas is
// metered against it.
func (e *Engine) checkMaxFee(sender kanari.Address, t tx.Transaction) error {
	acct, err := e.store.ReadAccount(sender)
	if err != nil {
		return err
	}
	maxFee := gas.MaxFee(t.GasLimit(), t.GasPrice())
	balance := new(uint256.Int).SetUint64(acct.Balance)
	if balance.Lt(maxFee) {
		return kanari.NewError(kanari.KindInsufficientFee, "sender balance is less than the maximum possible fee", map[string]any{
			"address": sender.String(),
			"balance": acct.Balance,
			"maxFee":  maxFee.String(),
		})
	}
	return nil
}

// settleFailedFee collects the gas the meter consumed from sender's
// balance into kanari.FeeCollector, in its own successful ChangeSet
// applied after a failed run is discarded. checkMaxFee already
// guarantees the sender can afford gas_limit x gas_price, and a failed
// run never consumes more gas than its limit, so this can never itself
// fail on insufficient balance.
func (e *Engine) settleFailedFee(sender kanari.Address, meter *gas.Meter) error {
	fee := meter.CostInFeeUnits()
	var amount uint64
	if fee.IsUint64() {
		amount = fee.Uint64()
	} else {
		amount = ^uint64(0)
	}
	if amount == 0 {
		return nil
	}
	collect := changeset.New()
	collect.RecordFeeCollection(sender, amount)
	collect.MarkSuccess()
	return e.store.Apply(collect)
}

func (e *Engine) recordCommit(gasUsed uint64) {
	e.blockHeight.Add(1)
	e.txCount.Add(1)
	e.totalGasConsumed.Add(gasUsed)
}

// GetAccount returns the current on-chain state of addr.
func (e *Engine) GetAccount(addr kanari.Address) (kvstate.AccountState, error) {
	return e.store.ReadAccount(addr)
}

// GetBalance returns addr's current balance.
func (e *Engine) GetBalance(addr kanari.Address) (uint64, error) {
	acct, err := e.store.ReadAccount(addr)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

// GetBlockHeight returns the number of transactions ever committed.
// There is no block record in this execution core (§9 Open Question,
// resolved as a bare counter) — it is a monotonically increasing
// commit count, not an index into any stored block structure.
func (e *Engine) GetBlockHeight() uint64 {
	return e.blockHeight.Load()
}

// GetStats returns a snapshot of the running totals kept since the
// Engine was constructed.
func (e *Engine) GetStats() Stats {
	return Stats{
		BlockHeight:      e.blockHeight.Load(),
		TxCount:          e.txCount.Load(),
		TotalGasConsumed: e.totalGasConsumed.Load(),
	}
}

// GetContract returns the registered contracts.Info for the module
// addr published under name, if any. The bool result mirrors
// AccountState.HasModule: a module can be live in the account's module
// list yet absent from the registry only if the process restarted
// since publish, since the registry is rebuilt from nothing on start.
func (e *Engine) GetContract(addr kanari.Address, name string) (contracts.Info, bool, error) {
	if _, err := e.store.ReadAccount(addr); err != nil {
		return contracts.Info{}, false, err
	}
	info, ok := e.registry.Get(addr, name)
	return info, ok, nil
}

// ListContracts returns the registered contracts.Info for every module
// addr has published.
func (e *Engine) ListContracts(addr kanari.Address) ([]contracts.Info, error) {
	if _, err := e.store.ReadAccount(addr); err != nil {
		return nil, err
	}
	return e.registry.ByAddress(addr), nil
}

// SearchContractsByTag returns every registered contract, across every
// address, whose metadata carries tag.
func (e *Engine) SearchContractsByTag(tag string) []contracts.Info {
	return e.registry.SearchByTag(tag)
}
