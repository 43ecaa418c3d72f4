// Package gas implements the bounded, saturating gas accounting used by
// every VM invocation: a per-transaction budget, a static per-operation
// cost table, and overflow-safe conversion to fee units.
package gas

import (
	"github.com/holiman/uint256"
)

// Operation identifies a unit of metered work, matching the fixed cost
// table of the specification.
type Operation int

const (
	OpLoadModule Operation = iota
	OpExecuteInstruction
	OpStorageRead
	OpStorageWrite
	OpPublishModuleByte
	OpTransfer
	OpFunctionCall
)

// costTable holds the fixed, compile-time gas cost of each operation.
// Deterministic, monotonic gas consumption is a precondition for
// transaction fairness and for the single-writer policy.
var costTable = map[Operation]uint64{
	OpLoadModule:         100,
	OpExecuteInstruction: 1,
	OpStorageRead:        10,
	OpStorageWrite:       50,
	OpPublishModuleByte:  5,
	OpTransfer:           1000,
	OpFunctionCall:       500,
}

// Exceeded is returned by Charge when an operation would push the
// running total past the gas limit.
type Exceeded struct {
	Limit uint64
	Used  uint64
	Want  uint64
}

func (e *Exceeded) Error() string {
	return "gas: exceeded"
}

// Meter is a bounded, saturating gas counter owned exclusively by one
// VM invocation. It never panics and never under/overflows its
// accounting: Charge either commits a cost or leaves the meter
// untouched and returns Exceeded.
type Meter struct {
	limit uint64
	price uint64
	used  uint64

	// checkpoints is not read or written by any method: Snapshot and
	// Restore hand the caller a plain usage value instead.
	checkpoints []uint64
}

// NewMeter constructs a Meter bound to gasLimit, pricing consumed gas at
// gasPrice fee units per unit of gas.
func NewMeter(gasLimit, gasPrice uint64) *Meter {
	return &Meter{limit: gasLimit, price: gasPrice}
}

// Limit returns the gas budget the meter was constructed with.
func (m *Meter) Limit() uint64 { return m.limit }

// Price returns the fee-unit price per unit of gas.
func (m *Meter) Price() uint64 { return m.price }

// Used reports the total gas consumed so far.
func (m *Meter) Used() uint64 { return m.used }

// Remaining reports the gas budget not yet consumed.
func (m *Meter) Remaining() uint64 { return m.limit - m.used }

// CostOf looks up the fixed, compile-time cost of op in the package
// cost table, for callers (such as vmboundary's per-byte publish
// charge) that need to scale a base cost rather than charge it as-is.
func CostOf(op Operation) uint64 {
	return costTable[op]
}

// Charge deducts the fixed cost of op from the remaining budget. If the
// running total would exceed the gas limit, the meter is left
// unchanged and an Exceeded error is returned.
func (m *Meter) Charge(op Operation) error {
	return m.ChargeAmount(costTable[op])
}

// ChargeAmount deducts an arbitrary amount of gas, used for
// variable-cost operations such as "publish module (per byte)" where
// the caller multiplies the per-unit cost by a byte count.
func (m *Meter) ChargeAmount(amount uint64) error {
	next := m.used + amount
	if next < m.used || next > m.limit {
		return &Exceeded{Limit: m.limit, Used: m.used, Want: amount}
	}
	m.used = next
	return nil
}

// Snapshot returns a checkpoint of the current usage that can later be
// passed to Restore to undo any charges made after it.
func (m *Meter) Snapshot() uint64 {
	return m.used
}

// Restore rewinds the meter's usage to a prior Snapshot value.
func (m *Meter) Restore(checkpoint uint64) {
	m.used = checkpoint
}

// ForceLimit sets usage to the full gas limit. Charge/ChargeAmount
// leave the meter untouched on a rejected charge, so whatever was
// metered before the operation that exceeded the budget is otherwise
// all that Used ever reports for that run; callers handling an
// Exceeded error call this to make Used (and CostInFeeUnits) reflect
// the full limit instead, per the spec's "charge the sender the full
// fee" rule for a gas-exceeded transaction.
func (m *Meter) ForceLimit() {
	m.used = m.limit
}

// CostInFeeUnits computes used x price with overflow-safe, saturating
// 128-bit multiplication. On overflow the result saturates to the
// maximum representable 128-bit value rather than wrapping.
func (m *Meter) CostInFeeUnits() *uint256.Int {
	used := new(uint256.Int).SetUint64(m.used)
	price := new(uint256.Int).SetUint64(m.price)
	product, overflow := new(uint256.Int).MulOverflow(used, price)
	if overflow {
		return maxUint128()
	}
	if product.Gt(maxUint128()) {
		return maxUint128()
	}
	return product
}

func maxUint128() *uint256.Int {
	max := new(uint256.Int).Lsh(uint256.NewInt(1), 128)
	return max.Sub(max, uint256.NewInt(1))
}

// MaxFee returns the maximum possible fee for the meter's budget,
// limit x price, saturating the same way CostInFeeUnits does. Engine
// uses this for the pre-flight "sender can afford the worst case" check.
func MaxFee(gasLimit, gasPrice uint64) *uint256.Int {
	limit := new(uint256.Int).SetUint64(gasLimit)
	price := new(uint256.Int).SetUint64(gasPrice)
	product, overflow := new(uint256.Int).MulOverflow(limit, price)
	if overflow || product.Gt(maxUint128()) {
		return maxUint128()
	}
	return product
}
