package rpc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
	"github.com/jamesatomc/kanari-sdk-V2/tx"
)

func parseParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("rpc: missing params")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// addressParams is embedded by every read method that keys off a
// single account.
type addressParams struct {
	Address string `json:"address"`
}

func (p addressParams) address() (kanari.Address, error) {
	return kanari.ParseAddress(p.Address)
}

type getContractParams struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// listContractsParams optionally narrows kanari_listContracts to
// contracts tagged Tag, mirroring contracts.Registry.SearchByTag
// without a separate top-level RPC method.
type listContractsParams struct {
	Address string `json:"address"`
	Tag     string `json:"tag,omitempty"`
}

// signedTxParams is the wire shape of a SignedTransaction: a kind tag
// plus the union of every variant's fields (only the ones relevant to
// Kind are read), followed by the signature envelope shared by all
// four variants.
type signedTxParams struct {
	Kind string `json:"kind"`

	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Treasury string `json:"treasury,omitempty"`
	Sender   string `json:"sender,omitempty"`
	Package  string `json:"package,omitempty"`
	Module   string `json:"module,omitempty"`
	Function string `json:"function,omitempty"`
	Name     string `json:"name,omitempty"`

	Amount   uint64   `json:"amount,omitempty"`
	TypeArgs []string `json:"typeArgs,omitempty"`
	Bytes    string   `json:"bytes,omitempty"` // base64
	Args     []string `json:"args,omitempty"`  // each base64

	// Author..Tags are descriptive metadata read only for
	// Kind == "PublishModule"; see tx.PublishModule.
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	SourceURL   string   `json:"sourceUrl,omitempty"`
	License     string   `json:"license,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	GasLimit uint64 `json:"gasLimit"`
	GasPrice uint64 `json:"gasPrice"`
	Sequence uint64 `json:"sequence"`

	Signature string `json:"signature"` // base64
	PublicKey string `json:"publicKey"` // base64
	Curve     string `json:"curve"`
}

func decodeBase64(field, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(err, "rpc: %s is not valid base64", field)
	}
	return b, nil
}

func (p *signedTxParams) curve() (tx.Curve, error) {
	switch p.Curve {
	case "secp256k1", "":
		return tx.CurveSecp256k1, nil
	case "ed25519":
		return tx.CurveEd25519, nil
	default:
		return 0, errors.Errorf("rpc: unknown curve %q", p.Curve)
	}
}

// toTransaction builds the tx.Transaction variant p.Kind names. It is
// shared by kanari_submitTransaction, which reads Kind from the
// envelope, and kanari_publishModule/kanari_callFunction, which pin
// it before calling in.
func (p *signedTxParams) toTransaction() (tx.Transaction, error) {
	switch p.Kind {
	case "Transfer":
		from, err := kanari.ParseAddress(p.From)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: from")
		}
		to, err := kanari.ParseAddress(p.To)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: to")
		}
		return &tx.Transfer{From: from, To: to, Amount: p.Amount, Limit: p.GasLimit, Price: p.GasPrice, Seq: p.Sequence}, nil

	case "Mint":
		treasury, err := kanari.ParseAddress(p.Treasury)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: treasury")
		}
		to, err := kanari.ParseAddress(p.To)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: to")
		}
		return &tx.Mint{Treasury: treasury, To: to, Amount: p.Amount, Limit: p.GasLimit, Price: p.GasPrice, Seq: p.Sequence}, nil

	case "PublishModule":
		sender, err := kanari.ParseAddress(p.Sender)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: sender")
		}
		bytecode, err := decodeBase64("bytes", p.Bytes)
		if err != nil {
			return nil, err
		}
		if p.Name == "" {
			return nil, errors.New("rpc: name is required")
		}
		return &tx.PublishModule{
			SenderAddr: sender, Bytes: bytecode, Name: p.Name, Limit: p.GasLimit, Price: p.GasPrice, Seq: p.Sequence,
			Author: p.Author, Description: p.Description, SourceURL: p.SourceURL, License: p.License, Tags: p.Tags,
		}, nil

	case "ExecuteFunction":
		sender, err := kanari.ParseAddress(p.Sender)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: sender")
		}
		pkg, err := kanari.ParseAddress(p.Package)
		if err != nil {
			return nil, errors.Wrap(err, "rpc: package")
		}
		args := make([][]byte, len(p.Args))
		for i, a := range p.Args {
			b, err := decodeBase64("args", a)
			if err != nil {
				return nil, err
			}
			args[i] = b
		}
		return &tx.ExecuteFunction{
			SenderAddr: sender,
			Package:    pkg,
			Module:     p.Module,
			Function:   p.Function,
			TypeArgs:   p.TypeArgs,
			Args:       args,
			Limit:      p.GasLimit,
			Price:      p.GasPrice,
			Seq:        p.Sequence,
		}, nil

	default:
		return nil, errors.Errorf("rpc: unknown transaction kind %q", p.Kind)
	}
}

func (p *signedTxParams) toSignedTransaction() (*tx.SignedTransaction, error) {
	transaction, err := p.toTransaction()
	if err != nil {
		return nil, err
	}
	curve, err := p.curve()
	if err != nil {
		return nil, err
	}
	sig, err := decodeBase64("signature", p.Signature)
	if err != nil {
		return nil, err
	}
	pub, err := decodeBase64("publicKey", p.PublicKey)
	if err != nil {
		return nil, err
	}
	return &tx.SignedTransaction{Tx: transaction, Signature: sig, PublicKey: pub, Curve: curve}, nil
}
