// Package tx defines the four transaction variants the execution core
// accepts, the SignedTransaction wrapper, and the canonical
// little-endian encoding used to derive both the signing hash (what
// gets signed) and the transaction hash (what identifies a committed
// transaction in a TxReceipt).
package tx

import (
	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// Kind tags which of the four transaction variants a Transaction is,
// matching the tagged-variant data model rather than a class hierarchy
// so dispatch stays exhaustive and hashing stays structural.
type Kind byte

const (
	KindTransfer Kind = iota
	KindMint
	KindPublishModule
	KindExecuteFunction
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "Transfer"
	case KindMint:
		return "Mint"
	case KindPublishModule:
		return "PublishModule"
	case KindExecuteFunction:
		return "ExecuteFunction"
	default:
		return "Unknown"
	}
}

// Transaction is the common surface every variant implements: the
// fields the Engine and GasMeter need regardless of kind, plus the
// kind-specific payload encoder used by the canonical serialization.
type Transaction interface {
	Kind() Kind

	// Sender is the principal whose sequence number and gas balance
	// this transaction is charged against. For Transfer, PublishModule,
	// and ExecuteFunction this is the struct's own sender/from field;
	// Mint carries no sender field in the data model (only a
	// designated treasury principal is ever authorized to mint), so
	// Sender returns the treasury address the transaction was built
	// against — see DESIGN.md for why that is threaded through
	// explicitly rather than resolved as an Engine-side special case.
	Sender() kanari.Address

	GasLimit() uint64
	GasPrice() uint64
	Sequence() uint64

	// encodeFields appends this variant's kind-specific fields, in
	// their declared order, to enc. It never writes the shared
	// gas_limit/gas_price/sequence trailer or the leading sender
	// field — those are written once, regardless of kind, by
	// encodeUnsigned.
	encodeFields(enc *kanari.Encoder)
}

// Transfer moves Amount from From to To.
type Transfer struct {
	From, To kanari.Address
	Amount   uint64
	Limit    uint64
	Price    uint64
	Seq      uint64
}

func (t *Transfer) Kind() Kind             { return KindTransfer }
func (t *Transfer) Sender() kanari.Address { return t.From }
func (t *Transfer) GasLimit() uint64       { return t.Limit }
func (t *Transfer) GasPrice() uint64       { return t.Price }
func (t *Transfer) Sequence() uint64       { return t.Seq }
func (t *Transfer) encodeFields(enc *kanari.Encoder) {
	enc.Bytes32(t.From).Bytes32(t.To).Uint64(t.Amount)
}

// Mint credits Amount to To. Only valid when the signer's declared
// principal equals the engine's configured treasury address; Engine
// enforces that authorization check, not the transaction itself.
type Mint struct {
	Treasury kanari.Address
	To       kanari.Address
	Amount   uint64
	Limit    uint64
	Price    uint64
	Seq      uint64
}

func (t *Mint) Kind() Kind             { return KindMint }
func (t *Mint) Sender() kanari.Address { return t.Treasury }
func (t *Mint) GasLimit() uint64       { return t.Limit }
func (t *Mint) GasPrice() uint64       { return t.Price }
func (t *Mint) Sequence() uint64       { return t.Seq }
func (t *Mint) encodeFields(enc *kanari.Encoder) {
	enc.Bytes32(t.To).Uint64(t.Amount)
}

// PublishModule publishes Bytes under Name, owned by SenderAddr.
//
// Author, Description, SourceURL, License, and Tags are descriptive
// metadata a publisher may attach for discovery through
// kanari_getContract/kanari_listContracts (see package contracts).
// They carry no execution meaning and are deliberately excluded from
// encodeFields: two PublishModule transactions that differ only in
// this metadata are, for hashing and signing purposes, unrelated
// concerns layered on top of the same on-chain effect.
type PublishModule struct {
	SenderAddr kanari.Address
	Bytes      []byte
	Name       string
	Limit      uint64
	Price      uint64
	Seq        uint64

	Author      string
	Description string
	SourceURL   string
	License     string
	Tags        []string
}

func (t *PublishModule) Kind() Kind             { return KindPublishModule }
func (t *PublishModule) Sender() kanari.Address { return t.SenderAddr }
func (t *PublishModule) GasLimit() uint64       { return t.Limit }
func (t *PublishModule) GasPrice() uint64       { return t.Price }
func (t *PublishModule) Sequence() uint64       { return t.Seq }
func (t *PublishModule) encodeFields(enc *kanari.Encoder) {
	enc.Bytes32(t.SenderAddr).Blob(t.Bytes).String(t.Name)
}

// ExecuteFunction invokes Function in Module of Package, owned and
// called by SenderAddr, with TypeArgs and Args passed through to the
// VM.
type ExecuteFunction struct {
	SenderAddr kanari.Address
	Package    kanari.Address
	Module     string
	Function   string
	TypeArgs   []string
	Args       [][]byte
	Limit      uint64
	Price      uint64
	Seq        uint64
}

func (t *ExecuteFunction) Kind() Kind             { return KindExecuteFunction }
func (t *ExecuteFunction) Sender() kanari.Address { return t.SenderAddr }
func (t *ExecuteFunction) GasLimit() uint64       { return t.Limit }
func (t *ExecuteFunction) GasPrice() uint64       { return t.Price }
func (t *ExecuteFunction) Sequence() uint64       { return t.Seq }
func (t *ExecuteFunction) encodeFields(enc *kanari.Encoder) {
	enc.Bytes32(t.SenderAddr).Bytes32(t.Package).String(t.Module).String(t.Function)
	enc.Uint32(uint32(len(t.TypeArgs)))
	for _, a := range t.TypeArgs {
		enc.String(a)
	}
	enc.Uint32(uint32(len(t.Args)))
	for _, a := range t.Args {
		enc.Blob(a)
	}
}

// Curve identifies the signature scheme a SignedTransaction was signed
// with.
type Curve byte

const (
	CurveSecp256k1 Curve = iota
	CurveEd25519
)

func (c Curve) String() string {
	if c == CurveEd25519 {
		return "ed25519"
	}
	return "secp256k1"
}

// SignedTransaction pairs a Transaction with the signature, the
// declared public key it was signed under, and the curve that key
// belongs to.
type SignedTransaction struct {
	Tx        Transaction
	Signature []byte
	PublicKey []byte
	Curve     Curve
}

// encodeUnsigned writes the leading sender field, the kind tag, the
// kind-specific fields, then the shared gas_limit/gas_price/sequence
// trailer — the exact preimage that gets hashed and signed.
func encodeUnsigned(t Transaction) []byte {
	enc := kanari.NewEncoder()
	enc.Bytes32(t.Sender())
	enc.Byte(byte(t.Kind()))
	t.encodeFields(enc)
	enc.Uint64(t.GasLimit())
	enc.Uint64(t.GasPrice())
	enc.Uint64(t.Sequence())
	return enc.Bytes()
}

// SigningHash is the SHA3-256 digest of the unsigned canonical
// encoding — the message a signer must sign and a verifier must check
// the signature against.
func SigningHash(t Transaction) kanari.Hash {
	return kanari.Sum256(encodeUnsigned(t))
}

// Hash is the transaction hash identifying a committed
// SignedTransaction in a TxReceipt: the SHA3-256 digest of the full
// canonical encoding, signature/public-key/curve included, per §4.5's
// field order (..., gas_limit, gas_price, sequence, signature,
// public_key, curve-tag). Two transactions equal under structural
// comparison always hash identically (P6), since the encoding has no
// map iteration or other nondeterministic ordering.
func Hash(st *SignedTransaction) kanari.Hash {
	enc := kanari.NewEncoder()
	enc.Raw(encodeUnsigned(st.Tx))
	enc.Blob(st.Signature)
	enc.Blob(st.PublicKey)
	enc.Byte(byte(st.Curve))
	return kanari.Sum256(enc.Bytes())
}
