package tx

import (
	"crypto/ecdsa"
	"crypto/ed25519"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// SignSecp256k1 signs t's SigningHash with pk and returns the
// SignedTransaction, carrying the uncompressed public key alongside
// the signature the way tx.Sign does in the teacher repo.
func SignSecp256k1(t Transaction, pk *ecdsa.PrivateKey) (*SignedTransaction, error) {
	hash := SigningHash(t)
	sig, err := crypto.Sign(hash.Bytes(), pk)
	if err != nil {
		return nil, errors.Wrap(err, "tx: secp256k1 sign")
	}
	return &SignedTransaction{
		Tx:        t,
		Signature: sig,
		PublicKey: crypto.FromECDSAPub(&pk.PublicKey),
		Curve:     CurveSecp256k1,
	}, nil
}

// SignEd25519 signs t's SigningHash with priv and returns the
// SignedTransaction.
func SignEd25519(t Transaction, priv ed25519.PrivateKey) *SignedTransaction {
	hash := SigningHash(t)
	sig := ed25519.Sign(priv, hash.Bytes())
	pub := priv.Public().(ed25519.PublicKey)
	return &SignedTransaction{
		Tx:        t,
		Signature: sig,
		PublicKey: append([]byte(nil), pub...),
		Curve:     CurveEd25519,
	}
}

// Verify checks st.Signature against st.PublicKey for the declared
// Curve, over st.Tx's SigningHash. It never consults the store — a
// mismatch here must never affect state (§4.5 step 1, §7's
// InvalidSignature policy).
func Verify(st *SignedTransaction) error {
	hash := SigningHash(st.Tx)
	switch st.Curve {
	case CurveSecp256k1:
		if len(st.Signature) < 64 {
			return invalidSignature("secp256k1 signature too short")
		}
		if !crypto.VerifySignature(st.PublicKey, hash.Bytes(), st.Signature[:64]) {
			return invalidSignature("secp256k1 signature does not match declared public key")
		}
		return nil
	case CurveEd25519:
		if len(st.PublicKey) != ed25519.PublicKeySize {
			return invalidSignature("ed25519 public key has wrong length")
		}
		if !ed25519.Verify(ed25519.PublicKey(st.PublicKey), hash.Bytes(), st.Signature) {
			return invalidSignature("ed25519 signature does not match declared public key")
		}
		return nil
	default:
		return invalidSignature("unknown curve")
	}
}

func invalidSignature(msg string) error {
	return kanari.NewError(kanari.KindInvalidSignature, msg, nil)
}
