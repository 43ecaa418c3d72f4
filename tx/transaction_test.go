package tx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

func addr(b byte) kanari.Address {
	var a kanari.Address
	a[31] = b
	return a
}

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	pk, err := crypto.GenerateKey()
	require.NoError(t, err)
	return pk
}

func TestStructurallyEqualTransactionsHashIdentically(t *testing.T) {
	a := &Transfer{From: addr(1), To: addr(2), Amount: 300, Limit: 10_000, Price: 1, Seq: 0}
	b := &Transfer{From: addr(1), To: addr(2), Amount: 300, Limit: 10_000, Price: 1, Seq: 0}
	assert.Equal(t, SigningHash(a), SigningHash(b), "P6: structurally equal transactions must hash identically")
}

func TestDifferentSequenceChangesHash(t *testing.T) {
	a := &Transfer{From: addr(1), To: addr(2), Amount: 300, Limit: 10_000, Price: 1, Seq: 0}
	b := &Transfer{From: addr(1), To: addr(2), Amount: 300, Limit: 10_000, Price: 1, Seq: 1}
	assert.NotEqual(t, SigningHash(a), SigningHash(b))
}

func TestSecp256k1SignAndVerify(t *testing.T) {
	pk := mustKey(t)
	transfer := &Transfer{From: kanari.BytesToAddress(crypto.PubkeyToAddress(pk.PublicKey).Bytes()), To: addr(9), Amount: 1, Limit: 1000, Price: 1}

	st, err := SignSecp256k1(transfer, pk)
	require.NoError(t, err)
	assert.NoError(t, Verify(st))

	st.Signature[0] ^= 0xff
	assert.Error(t, Verify(st))
}

func TestEd25519SignAndVerify(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	mint := &Mint{Treasury: addr(1), To: addr(2), Amount: 50, Limit: 1000, Price: 1}
	st := SignEd25519(mint, priv)
	assert.NoError(t, Verify(st))

	st.Signature[0] ^= 0xff
	assert.Error(t, Verify(st))
}

func TestHashIncludesSignature(t *testing.T) {
	pk := mustKey(t)
	transfer := &Transfer{From: addr(1), To: addr(2), Amount: 1, Limit: 1000, Price: 1}
	st1, err := SignSecp256k1(transfer, pk)
	require.NoError(t, err)
	st2, err := SignSecp256k1(transfer, pk)
	require.NoError(t, err)

	// ECDSA signatures over go-ethereum's crypto.Sign are deterministic
	// (RFC6979), so re-signing the same message should reproduce the
	// same hash.
	assert.Equal(t, Hash(st1), Hash(st2))
	assert.NotEqual(t, Hash(st1), SigningHash(transfer), "tx hash must differ from the signing hash since it folds in the signature")
}
