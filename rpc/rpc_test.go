package rpc

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-sdk-V2/engine"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/kvstate"
	"github.com/jamesatomc/kanari-sdk-V2/tx"
	"github.com/jamesatomc/kanari-sdk-V2/vmboundary"
)

func addr(b byte) kanari.Address {
	var a kanari.Address
	a[31] = b
	return a
}

func newTestDispatcher(t *testing.T, treasury kanari.Address) *Dispatcher {
	t.Helper()
	store, err := kvstate.OpenMem()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	eng := engine.New(store, vmboundary.New(nil), treasury)
	return New(eng)
}

func mintParams(t *testing.T, treasury, to kanari.Address, amount, seq uint64) json.RawMessage {
	t.Helper()
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	m := &tx.Mint{Treasury: treasury, To: to, Amount: amount, Limit: 100_000, Price: 1, Seq: seq}
	st, err := tx.SignSecp256k1(m, pk)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{
		"kind":      "Mint",
		"treasury":  st.Tx.(*tx.Mint).Treasury.String(),
		"to":        st.Tx.(*tx.Mint).To.String(),
		"amount":    st.Tx.(*tx.Mint).Amount,
		"gasLimit":  st.Tx.(*tx.Mint).Limit,
		"gasPrice":  st.Tx.(*tx.Mint).Price,
		"sequence":  st.Tx.(*tx.Mint).Seq,
		"signature": base64.StdEncoding.EncodeToString(st.Signature),
		"publicKey": base64.StdEncoding.EncodeToString(st.PublicKey),
		"curve":     "secp256k1",
	})
	require.NoError(t, err)
	return raw
}

func TestDispatchGetBalanceForUnknownAccount(t *testing.T) {
	d := newTestDispatcher(t, addr(1))
	params, err := json.Marshal(addressParams{Address: addr(2).String()})
	require.NoError(t, err)

	resp := d.dispatchOne(Request{JSONRPC: jsonrpcVersion, Method: "kanari_getBalance", Params: params, ID: json.RawMessage("1")})
	require.Nil(t, resp.Error)
	view, ok := resp.Result.(balanceView)
	require.True(t, ok)
	assert.Equal(t, uint64(0), view.Balance)
}

func TestDispatchUnknownMethod(t *testing.T) {
	d := newTestDispatcher(t, addr(1))
	resp := d.dispatchOne(Request{JSONRPC: jsonrpcVersion, Method: "kanari_doesNotExist", ID: json.RawMessage("1")})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestDispatchInvalidParams(t *testing.T) {
	d := newTestDispatcher(t, addr(1))
	resp := d.dispatchOne(Request{JSONRPC: jsonrpcVersion, Method: "kanari_getBalance", Params: json.RawMessage(`{"address": 5}`), ID: json.RawMessage("1")})
	require.NotNil(t, resp.Error)
	assert.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestDispatchSubmitTransactionMintCreditsBalance(t *testing.T) {
	treasury := addr(1)
	alice := addr(2)
	d := newTestDispatcher(t, treasury)

	resp := d.dispatchOne(Request{
		JSONRPC: jsonrpcVersion,
		Method:  "kanari_submitTransaction",
		Params:  mintParams(t, treasury, alice, 1000, 0),
		ID:      json.RawMessage("1"),
	})
	require.Nil(t, resp.Error)
	receipt, ok := resp.Result.(receiptView)
	require.True(t, ok)
	assert.True(t, receipt.Success)

	balResp := d.dispatchOne(Request{JSONRPC: jsonrpcVersion, Method: "kanari_getBalance", Params: mustJSON(t, addressParams{Address: alice.String()}), ID: json.RawMessage("2")})
	require.Nil(t, balResp.Error)
	assert.Equal(t, uint64(1000), balResp.Result.(balanceView).Balance)
}

func TestDispatchSubmitTransactionFromNonTreasuryReturnsDomainError(t *testing.T) {
	treasury := addr(1)
	impostor := addr(9)
	d := newTestDispatcher(t, treasury)

	resp := d.dispatchOne(Request{
		JSONRPC: jsonrpcVersion,
		Method:  "kanari_submitTransaction",
		Params:  mintParams(t, impostor, addr(2), 1000, 0),
		ID:      json.RawMessage("1"),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, domainCodes[kanari.KindInvalidSignature], resp.Error.Code)
	data := resp.Error.Data.(map[string]any)
	assert.Equal(t, string(kanari.KindInvalidSignature), data["kind"])
}

func TestDispatchBatchPreservesOrderAndMixesReadWrite(t *testing.T) {
	treasury := addr(1)
	alice := addr(2)
	d := newTestDispatcher(t, treasury)

	reqs := []Request{
		{JSONRPC: jsonrpcVersion, Method: "kanari_getBlockHeight", ID: json.RawMessage("1")},
		{JSONRPC: jsonrpcVersion, Method: "kanari_submitTransaction", Params: mintParams(t, treasury, alice, 500, 0), ID: json.RawMessage("2")},
		{JSONRPC: jsonrpcVersion, Method: "kanari_getBalance", Params: mustJSON(t, addressParams{Address: alice.String()}), ID: json.RawMessage("3")},
	}

	resp := d.dispatchBatch(reqs)
	require.Len(t, resp, 3)
	assert.Equal(t, json.RawMessage("1"), resp[0].ID)
	assert.Equal(t, json.RawMessage("2"), resp[1].ID)
	assert.Equal(t, json.RawMessage("3"), resp[2].ID)
	require.Nil(t, resp[1].Error)
	assert.True(t, resp[1].Result.(receiptView).Success)
}

func TestDispatchPublishModuleThenGetContractAndListContracts(t *testing.T) {
	treasury := addr(1)
	d := newTestDispatcher(t, treasury)

	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	sender := kanari.BytesToAddress(crypto.PubkeyToAddress(pk.PublicKey).Bytes())

	mintResp := d.dispatchOne(Request{
		JSONRPC: jsonrpcVersion,
		Method:  "kanari_submitTransaction",
		Params:  mintParams(t, treasury, sender, 1_000_000, 0),
		ID:      json.RawMessage("1"),
	})
	require.Nil(t, mintResp.Error)

	publish := &tx.PublishModule{
		SenderAddr: sender, Bytes: []byte("bytecode"), Name: "swap", Limit: 500_000, Price: 1, Seq: 0,
		Author: "alice", Tags: []string{"defi"},
	}
	st, err := tx.SignSecp256k1(publish, pk)
	require.NoError(t, err)
	publishParams, err := json.Marshal(map[string]any{
		"sender":    sender.String(),
		"bytes":     base64.StdEncoding.EncodeToString(publish.Bytes),
		"name":      publish.Name,
		"author":    publish.Author,
		"tags":      publish.Tags,
		"gasLimit":  publish.Limit,
		"gasPrice":  publish.Price,
		"sequence":  publish.Seq,
		"signature": base64.StdEncoding.EncodeToString(st.Signature),
		"publicKey": base64.StdEncoding.EncodeToString(st.PublicKey),
		"curve":     "secp256k1",
	})
	require.NoError(t, err)

	publishResp := d.dispatchOne(Request{JSONRPC: jsonrpcVersion, Method: "kanari_publishModule", Params: publishParams, ID: json.RawMessage("2")})
	require.Nil(t, publishResp.Error)
	require.True(t, publishResp.Result.(receiptView).Success)

	getResp := d.dispatchOne(Request{
		JSONRPC: jsonrpcVersion,
		Method:  "kanari_getContract",
		Params:  mustJSON(t, getContractParams{Address: sender.String(), Name: "swap"}),
		ID:      json.RawMessage("3"),
	})
	require.Nil(t, getResp.Error)
	contract := getResp.Result.(contractView)
	assert.True(t, contract.Published)
	assert.Equal(t, "alice", contract.Author)
	assert.Equal(t, []string{"defi"}, contract.Tags)

	listResp := d.dispatchOne(Request{
		JSONRPC: jsonrpcVersion,
		Method:  "kanari_listContracts",
		Params:  mustJSON(t, listContractsParams{Address: sender.String()}),
		ID:      json.RawMessage("4"),
	})
	require.Nil(t, listResp.Error)
	require.Len(t, listResp.Result.(contractsView).Contracts, 1)
	assert.Equal(t, "swap", listResp.Result.(contractsView).Contracts[0].Name)

	filteredResp := d.dispatchOne(Request{
		JSONRPC: jsonrpcVersion,
		Method:  "kanari_listContracts",
		Params:  mustJSON(t, listContractsParams{Address: sender.String(), Tag: "nonexistent"}),
		ID:      json.RawMessage("5"),
	})
	require.Nil(t, filteredResp.Error)
	assert.Empty(t, filteredResp.Result.(contractsView).Contracts)
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}
