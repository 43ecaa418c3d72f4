package vmboundary

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-sdk-V2/gas"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/kvstate"
	"github.com/jamesatomc/kanari-sdk-V2/tx"
)

func addr(b byte) kanari.Address {
	var a kanari.Address
	a[31] = b
	return a
}

type fakeView struct {
	accounts map[kanari.Address]kvstate.AccountState
}

func (f *fakeView) ReadAccount(a kanari.Address) (kvstate.AccountState, error) {
	return f.accounts[a], nil
}

func TestRunTransferFallback(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(10_000, 1)
	from, to := addr(1), addr(2)
	txn := &tx.Transfer{From: from, To: to, Amount: 300, Limit: 10_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{})
	require.True(t, cs.Success)
	assert.Equal(t, big.NewInt(-300), cs.PerAccount[from].BalanceDelta)
	assert.Equal(t, big.NewInt(300), cs.PerAccount[to].BalanceDelta)
	assert.Equal(t, uint64(1), cs.PerAccount[from].SequenceIncrement)
	assert.Greater(t, cs.GasUsed, uint64(0))
}

func TestRunTransferSelfTransferFails(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(10_000, 1)
	a := addr(1)
	txn := &tx.Transfer{From: a, To: a, Amount: 1, Limit: 10_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{})
	assert.False(t, cs.Success)
	assert.Empty(t, cs.PerAccount)
	assert.Greater(t, cs.GasUsed, uint64(0), "the failed path still consumes gas")
}

func TestRunTransferGasExceededOnFirstOperationChargesFullLimit(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(500, 1) // OpTransfer alone costs 1000
	from, to := addr(1), addr(2)
	txn := &tx.Transfer{From: from, To: to, Amount: 300, Limit: 500, Price: 1}

	cs, kind := b.Run(txn, meter, &fakeView{})
	assert.False(t, cs.Success)
	assert.Equal(t, kanari.KindGasExceeded, kind)
	assert.Equal(t, uint64(500), cs.GasUsed, "gas_used must be gas_limit, not whatever partial amount was charged before the rejected charge")
	assert.Equal(t, uint64(500), meter.Used(), "the meter itself must reflect the full limit for downstream fee settlement")
}

func TestRunMintFallback(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(10_000, 1)
	treasury, to := addr(1), addr(2)
	txn := &tx.Mint{Treasury: treasury, To: to, Amount: 500, Limit: 10_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{})
	require.True(t, cs.Success)
	assert.Equal(t, big.NewInt(500), cs.PerAccount[to].BalanceDelta)
	assert.Equal(t, uint64(1), cs.PerAccount[treasury].SequenceIncrement)
}

func TestRunPublishNativeFallback(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(100_000, 1)
	sender := addr(3)
	txn := &tx.PublishModule{SenderAddr: sender, Bytes: []byte("movebytecode"), Name: "swap", Limit: 100_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{accounts: map[kanari.Address]kvstate.AccountState{}})
	require.True(t, cs.Success)
	assert.Equal(t, []string{"swap"}, cs.PerAccount[sender].ModulesAdded)
}

func TestRunPublishRejectsDuplicateAgainstLiveAccount(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(100_000, 1)
	sender := addr(3)
	view := &fakeView{accounts: map[kanari.Address]kvstate.AccountState{
		sender: {Modules: []string{"swap"}},
	}}
	txn := &tx.PublishModule{SenderAddr: sender, Bytes: []byte("x"), Name: "swap", Limit: 100_000, Price: 1}

	cs, kind := b.Run(txn, meter, view)
	assert.False(t, cs.Success)
	assert.Equal(t, kanari.KindModuleAlreadyPublished, kind)
}

func TestRunExecuteWithoutVmFails(t *testing.T) {
	b := New(nil)
	meter := gas.NewMeter(10_000, 1)
	txn := &tx.ExecuteFunction{SenderAddr: addr(4), Module: "coin", Function: "balance", Limit: 10_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{})
	assert.False(t, cs.Success)
	assert.Contains(t, cs.ErrorMessage, "NoVmLoaded")
}

type fakeVM struct {
	result CallResult
	err    error
}

func (f *fakeVM) RunCall(call CallDescriptor, view ReadView) (CallResult, error) {
	return f.result, f.err
}

func TestRunExecuteMergesVmResult(t *testing.T) {
	target := addr(5)
	vm := &fakeVM{result: CallResult{
		BalanceChanges: map[kanari.Address]*big.Int{target: big.NewInt(42)},
	}}
	b := New(vm)
	meter := gas.NewMeter(10_000, 1)
	txn := &tx.ExecuteFunction{SenderAddr: addr(4), Module: "coin", Function: "airdrop", Limit: 10_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{})
	require.True(t, cs.Success)
	assert.Equal(t, big.NewInt(42), cs.PerAccount[target].BalanceDelta)
	assert.Equal(t, uint64(1), cs.PerAccount[addr(4)].SequenceIncrement)
}

func TestRunExecuteSurfacesVmFailure(t *testing.T) {
	vm := &fakeVM{err: &ExecutionError{ErrKind: "Abort", Message: "insufficient liquidity"}}
	b := New(vm)
	meter := gas.NewMeter(10_000, 1)
	txn := &tx.ExecuteFunction{SenderAddr: addr(4), Module: "coin", Function: "swap", Limit: 10_000, Price: 1}

	cs, _ := b.Run(txn, meter, &fakeView{})
	assert.False(t, cs.Success)
	assert.Contains(t, cs.ErrorMessage, "insufficient liquidity")
	assert.Greater(t, cs.GasUsed, uint64(0))
}
