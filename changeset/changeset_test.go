package changeset

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

func addr(b byte) kanari.Address {
	var a kanari.Address
	a[31] = b
	return a
}

func TestRecordTransferNetsToZero(t *testing.T) {
	cs := New()
	from, to := addr(0xAA), addr(0xBB)
	assert.NoError(t, cs.RecordTransfer(from, to, 300))
	assert.Equal(t, big.NewInt(-300), cs.PerAccount[from].BalanceDelta)
	assert.Equal(t, big.NewInt(300), cs.PerAccount[to].BalanceDelta)
	assert.Equal(t, "0", cs.SupplyDelta().String())
}

func TestRecordTransferRejectsSelfAndZero(t *testing.T) {
	cs := New()
	a := addr(0xAA)
	err := cs.RecordTransfer(a, a, 10)
	kind, ok := kanari.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, kanari.KindInvalidTransfer, kind)

	err = cs.RecordTransfer(a, addr(0xBB), 0)
	kind, ok = kanari.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, kanari.KindInvalidTransfer, kind)
}

func TestRecordModuleDuplicateWithinChangeSet(t *testing.T) {
	cs := New()
	a := addr(0xEE)
	assert.NoError(t, cs.RecordModule(a, "swap"))
	err := cs.RecordModule(a, "swap")
	kind, ok := kanari.KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, kanari.KindModuleAlreadyPublished, kind)
	assert.Equal(t, []string{"swap"}, cs.PerAccount[a].ModulesAdded)
}

func TestMarkFailureClearsAccumulatedDeltas(t *testing.T) {
	cs := New()
	a, b := addr(0xAA), addr(0xBB)
	assert.NoError(t, cs.RecordTransfer(a, b, 100))
	cs.MarkFailure("boom")
	assert.False(t, cs.Success)
	assert.Empty(t, cs.PerAccount)
}

func TestRecordsAfterTerminalAreNoOps(t *testing.T) {
	cs := New()
	a, b := addr(0xAA), addr(0xBB)
	cs.MarkSuccess()
	assert.NoError(t, cs.RecordTransfer(a, b, 100))
	assert.Empty(t, cs.PerAccount)
	cs.RecordMint(a, 5)
	assert.Empty(t, cs.PerAccount)
}

func TestMintAndBurnSupplyDelta(t *testing.T) {
	cs := New()
	a := addr(0xAA)
	cs.RecordMint(a, 1000)
	assert.Equal(t, big.NewInt(1000), cs.SupplyDelta())

	cs2 := New()
	cs2.RecordBurn(a, 200)
	assert.Equal(t, big.NewInt(-200), cs2.SupplyDelta())
}
