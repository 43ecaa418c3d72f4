package changeset

import (
	"math/big"
	"sort"

	"github.com/jamesatomc/kanari-sdk-V2/kanari"
)

// Encode produces the canonical little-endian, length-prefixed
// representation of a ChangeSet, used as the journal's payload so a
// crashed commit can be replayed byte-for-byte identically.
// Accounts are written in ascending address order so Encode is
// deterministic regardless of map iteration order.
func (cs *ChangeSet) Encode() []byte {
	enc := kanari.NewEncoder()
	if cs.Success {
		enc.Byte(1)
	} else {
		enc.Byte(0)
	}
	enc.String(cs.ErrorMessage)
	enc.Uint64(cs.GasUsed)

	addrs := make([]kanari.Address, 0, len(cs.PerAccount))
	for a := range cs.PerAccount {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool { return lessAddr(addrs[i], addrs[j]) })

	enc.Uint32(uint32(len(addrs)))
	for _, a := range addrs {
		ac := cs.PerAccount[a]
		enc.Bytes32(a)
		encodeBigInt(enc, ac.BalanceDelta)
		enc.Uint64(ac.SequenceIncrement)
		enc.Uint32(uint32(len(ac.ModulesAdded)))
		for _, name := range ac.ModulesAdded {
			enc.String(name)
		}
	}
	return enc.Bytes()
}

// Decode reverses Encode, used by the journal replay path on startup.
func Decode(buf []byte) (*ChangeSet, error) {
	dec := kanari.NewDecoder(buf)
	successByte, err := dec.Byte()
	if err != nil {
		return nil, err
	}
	errMsg, err := dec.String()
	if err != nil {
		return nil, err
	}
	gasUsed, err := dec.Uint64()
	if err != nil {
		return nil, err
	}
	count, err := dec.Uint32()
	if err != nil {
		return nil, err
	}

	cs := New()
	cs.GasUsed = gasUsed
	cs.ErrorMessage = errMsg
	cs.Success = successByte == 1

	for i := uint32(0); i < count; i++ {
		rawAddr, err := dec.Bytes32()
		if err != nil {
			return nil, err
		}
		addr := kanari.Address(rawAddr)
		delta, err := decodeBigInt(dec)
		if err != nil {
			return nil, err
		}
		seqInc, err := dec.Uint64()
		if err != nil {
			return nil, err
		}
		modCount, err := dec.Uint32()
		if err != nil {
			return nil, err
		}
		modules := make([]string, 0, modCount)
		for j := uint32(0); j < modCount; j++ {
			name, err := dec.String()
			if err != nil {
				return nil, err
			}
			modules = append(modules, name)
		}
		cs.PerAccount[addr] = &AccountChange{
			BalanceDelta:      delta,
			SequenceIncrement: seqInc,
			ModulesAdded:      modules,
		}
	}
	if !dec.Done() {
		return nil, kanari.ErrTrailingBytes
	}
	return cs, nil
}

func lessAddr(a, b kanari.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func encodeBigInt(enc *kanari.Encoder, v *big.Int) {
	sign := byte(0)
	if v.Sign() < 0 {
		sign = 1
	}
	enc.Byte(sign)
	enc.Blob(new(big.Int).Abs(v).Bytes())
}

func decodeBigInt(dec *kanari.Decoder) (*big.Int, error) {
	sign, err := dec.Byte()
	if err != nil {
		return nil, err
	}
	magnitude, err := dec.Blob()
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(magnitude)
	if sign == 1 {
		v.Neg(v)
	}
	return v, nil
}
