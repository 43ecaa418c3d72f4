package rpc

import (
	"encoding/json"

	"github.com/jamesatomc/kanari-sdk-V2/contracts"
	"github.com/jamesatomc/kanari-sdk-V2/engine"
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// accountView is what kanari_getAccount returns: the account's
// balance, sequence, and published module names.
type accountView struct {
	Address  string   `json:"address"`
	Balance  uint64   `json:"balance"`
	Sequence uint64   `json:"sequence"`
	Modules  []string `json:"modules"`
}

type balanceView struct {
	Balance uint64 `json:"balance"`
}

// blockView is the fixed placeholder kanari_getBlock returns: there is
// no block record in this execution core (§9), only the block_height
// counter, so the "block" a client sees is synthesized from it.
type blockView struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash"`
}

type blockHeightView struct {
	BlockHeight uint64 `json:"blockHeight"`
}

type statsView struct {
	BlockHeight      uint64 `json:"blockHeight"`
	TxCount          uint64 `json:"txCount"`
	TotalGasConsumed uint64 `json:"totalGasConsumed"`
}

type receiptView struct {
	Hash         string      `json:"hash"`
	Success      bool        `json:"success"`
	GasUsed      uint64      `json:"gasUsed"`
	ErrorKind    kanari.Kind `json:"errorKind,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
}

func receiptOf(r *engine.TxReceipt) receiptView {
	return receiptView{
		Hash:         r.Hash.String(),
		Success:      r.Success,
		GasUsed:      r.GasUsed,
		ErrorKind:    r.ErrorKind,
		ErrorMessage: r.ErrorMessage,
	}
}

// functionSignatureView mirrors contracts.FunctionSignature.
type functionSignatureView struct {
	Name       string   `json:"name"`
	IsEntry    bool     `json:"isEntry"`
	TypeParams []string `json:"typeParams,omitempty"`
	Doc        string   `json:"doc,omitempty"`
}

// contractView is what kanari_getContract returns for a published
// module: its identity, descriptive metadata, and whatever ABI facts
// are known about it (empty unless a VM adapter has populated one).
type contractView struct {
	Published    bool                    `json:"published"`
	Address      string                  `json:"address,omitempty"`
	Name         string                  `json:"name,omitempty"`
	DeploymentTx string                  `json:"deploymentTx,omitempty"`
	DeployedAt   uint64                  `json:"deployedAt,omitempty"`
	Author       string                  `json:"author,omitempty"`
	Description  string                  `json:"description,omitempty"`
	SourceURL    string                  `json:"sourceUrl,omitempty"`
	License      string                  `json:"license,omitempty"`
	Tags         []string                `json:"tags,omitempty"`
	Functions    []functionSignatureView `json:"functions,omitempty"`
}

func contractViewOf(info contracts.Info) contractView {
	functions := make([]functionSignatureView, len(info.ABI.Functions))
	for i, f := range info.ABI.Functions {
		functions[i] = functionSignatureView{Name: f.Name, IsEntry: f.IsEntry, TypeParams: f.TypeParams, Doc: f.Doc}
	}
	return contractView{
		Published:    true,
		Address:      info.Address.String(),
		Name:         info.Name,
		DeploymentTx: info.DeploymentTx.String(),
		DeployedAt:   info.DeployedAt,
		Author:       info.Metadata.Author,
		Description:  info.Metadata.Description,
		SourceURL:    info.Metadata.SourceURL,
		License:      info.Metadata.License,
		Tags:         info.Metadata.Tags,
		Functions:    functions,
	}
}

type contractsView struct {
	Contracts []contractView `json:"contracts"`
}

func handleGetAccount(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p addressParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	addr, err := p.address()
	if err != nil {
		return nil, invalidParams(err)
	}
	acct, err := d.engine.GetAccount(addr)
	if err != nil {
		return nil, internalError(err)
	}
	return accountView{Address: addr.String(), Balance: acct.Balance, Sequence: acct.Sequence, Modules: acct.Modules}, nil
}

func handleGetBalance(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p addressParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	addr, err := p.address()
	if err != nil {
		return nil, invalidParams(err)
	}
	balance, err := d.engine.GetBalance(addr)
	if err != nil {
		return nil, internalError(err)
	}
	return balanceView{Balance: balance}, nil
}

// handleGetBlock returns the fixed placeholder the routing table
// promises for a system with no block history: block_height doubles
// as the height, and the hash field is always zero.
func handleGetBlock(d *Dispatcher, _ json.RawMessage) (any, *Error) {
	return blockView{Height: d.engine.GetBlockHeight(), Hash: kanari.Hash{}.String()}, nil
}

func handleGetBlockHeight(d *Dispatcher, _ json.RawMessage) (any, *Error) {
	return blockHeightView{BlockHeight: d.engine.GetBlockHeight()}, nil
}

func handleGetStats(d *Dispatcher, _ json.RawMessage) (any, *Error) {
	stats := d.engine.GetStats()
	return statsView{BlockHeight: stats.BlockHeight, TxCount: stats.TxCount, TotalGasConsumed: stats.TotalGasConsumed}, nil
}

func handleGetContract(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p getContractParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	addr, err := kanari.ParseAddress(p.Address)
	if err != nil {
		return nil, invalidParams(err)
	}
	info, published, err := d.engine.GetContract(addr, p.Name)
	if err != nil {
		return nil, internalError(err)
	}
	if !published {
		return contractView{Published: false}, nil
	}
	return contractViewOf(info), nil
}

// handleListContracts serves kanari_listContracts: every contract addr
// has published, or, when tag is set, narrowed to those carrying it
// (mirroring contracts.Registry.SearchByTag scoped to one address).
func handleListContracts(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p listContractsParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	addr, err := kanari.ParseAddress(p.Address)
	if err != nil {
		return nil, invalidParams(err)
	}
	infos, err := d.engine.ListContracts(addr)
	if err != nil {
		return nil, internalError(err)
	}
	views := make([]contractView, 0, len(infos))
	for _, info := range infos {
		if p.Tag != "" && !hasTag(info, p.Tag) {
			continue
		}
		views = append(views, contractViewOf(info))
	}
	return contractsView{Contracts: views}, nil
}

func hasTag(info contracts.Info, tag string) bool {
	for _, t := range info.Metadata.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// submitSignedTx is shared by all three write methods: decode a
// signedTxParams, run it through Engine.Submit, and translate the
// receipt or error into a JSON-RPC result/error pair.
func submitSignedTx(d *Dispatcher, p *signedTxParams) (any, *Error) {
	signed, err := p.toSignedTransaction()
	if err != nil {
		return nil, invalidParams(err)
	}
	receipt, err := d.engine.Submit(signed)
	if err != nil {
		return nil, internalError(err)
	}
	if !receipt.Success && receipt.ErrorKind != "" {
		return nil, domainError(receipt.ErrorKind, receipt.ErrorMessage)
	}
	return receiptOf(receipt), nil
}

func handleSubmitTransaction(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p signedTxParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	return submitSignedTx(d, &p)
}

// handlePublishModule is the convenience route for §4.6's
// kanari_publishModule entry: identical wire shape to
// kanari_submitTransaction, but Kind is pinned rather than read from
// the request, so callers publishing a module don't have to repeat it.
func handlePublishModule(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p signedTxParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	p.Kind = "PublishModule"
	return submitSignedTx(d, &p)
}

// handleCallFunction is the convenience route for kanari_callFunction:
// pins Kind to ExecuteFunction the same way handlePublishModule does.
func handleCallFunction(d *Dispatcher, raw json.RawMessage) (any, *Error) {
	var p signedTxParams
	if err := parseParams(raw, &p); err != nil {
		return nil, invalidParams(err)
	}
	p.Kind = "ExecuteFunction"
	return submitSignedTx(d, &p)
}
