// Package u128 provides the bounded 128-bit signed and unsigned
// integer arithmetic the mutual-credit ledger needs for balances and
// credit limits, with explicit overflow/underflow detection instead of
// silent wraparound (spec §8: "Overflow ... detected ... not silent
// wrap").
package u128

import (
	"errors"
	"math/big"
)

// ErrOverflow is returned when an arithmetic result would not fit in
// 128 bits (unsigned) or the signed i128 range.
var ErrOverflow = errors.New("u128: overflow")

// ErrUnderflow is returned when a subtraction would go negative for an
// unsigned value.
var ErrUnderflow = errors.New("u128: underflow")

var (
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
)

// Uint128 is an unsigned 128-bit integer, used for max-debt ceilings,
// pending debts, and payment amounts.
type Uint128 struct {
	v big.Int
}

// Zero is the additive identity.
func Zero() Uint128 {
	return Uint128{}
}

// FromUint64 builds a Uint128 from a plain uint64.
func FromUint64(x uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(x)
	return u
}

// FromBigInt builds a Uint128 from a big.Int, validating range.
func FromBigInt(x *big.Int) (Uint128, error) {
	if x.Sign() < 0 || x.Cmp(maxUint128) > 0 {
		return Uint128{}, ErrOverflow
	}
	var u Uint128
	u.v.Set(x)
	return u, nil
}

// Big returns the underlying value as a big.Int (caller must not
// mutate it).
func (u Uint128) Big() *big.Int {
	return &u.v
}

// Add returns u+other, or ErrOverflow if the result exceeds 2^128-1.
func (u Uint128) Add(other Uint128) (Uint128, error) {
	var sum big.Int
	sum.Add(&u.v, &other.v)
	if sum.Cmp(maxUint128) > 0 {
		return Uint128{}, ErrOverflow
	}
	return Uint128{v: sum}, nil
}

// Sub returns u-other, or ErrUnderflow if other > u.
func (u Uint128) Sub(other Uint128) (Uint128, error) {
	if u.v.Cmp(&other.v) < 0 {
		return Uint128{}, ErrUnderflow
	}
	var diff big.Int
	diff.Sub(&u.v, &other.v)
	return Uint128{v: diff}, nil
}

// Cmp compares u to other: -1, 0, 1.
func (u Uint128) Cmp(other Uint128) int {
	return u.v.Cmp(&other.v)
}

// IsZero reports whether u == 0.
func (u Uint128) IsZero() bool {
	return u.v.Sign() == 0
}

// String renders u in decimal.
func (u Uint128) String() string {
	return u.v.String()
}

// Bytes16 renders u as a big-endian 16-byte array, the fixed-width
// encoding used in every canonical signature buffer.
func (u Uint128) Bytes16() [16]byte {
	var out [16]byte
	u.v.FillBytes(out[:])
	return out
}

// Uint128FromBytes16 parses the big-endian fixed-width encoding
// produced by Bytes16.
func Uint128FromBytes16(b [16]byte) (Uint128, error) {
	var u Uint128
	u.v.SetBytes(b[:])
	if u.v.Cmp(maxUint128) > 0 {
		return Uint128{}, ErrOverflow
	}
	return u, nil
}

// Int128 is a signed 128-bit integer, used for the token channel
// balance (positive means the remote owes the local side).
type Int128 struct {
	v big.Int
}

// FromInt64 builds an Int128 from a plain int64.
func FromInt64(x int64) Int128 {
	var i Int128
	i.v.SetInt64(x)
	return i
}

// Big returns the underlying value as a big.Int (caller must not
// mutate it).
func (i Int128) Big() *big.Int {
	return &i.v
}

// AddUnsigned returns i + delta (delta >= 0), or ErrOverflow if the
// result exceeds the signed i128 range.
func (i Int128) AddUnsigned(delta Uint128) (Int128, error) {
	var sum big.Int
	sum.Add(&i.v, &delta.v)
	if sum.Cmp(maxInt128) > 0 || sum.Cmp(minInt128) < 0 {
		return Int128{}, ErrOverflow
	}
	return Int128{v: sum}, nil
}

// SubUnsigned returns i - delta (delta >= 0), or ErrOverflow if the
// result exceeds the signed i128 range.
func (i Int128) SubUnsigned(delta Uint128) (Int128, error) {
	var diff big.Int
	diff.Sub(&i.v, &delta.v)
	if diff.Cmp(maxInt128) > 0 || diff.Cmp(minInt128) < 0 {
		return Int128{}, ErrOverflow
	}
	return Int128{v: diff}, nil
}

// Cmp compares i to other: -1, 0, 1.
func (i Int128) Cmp(other Int128) int {
	return i.v.Cmp(&other.v)
}

// CmpUnsigned compares i to an unsigned value other, treating other as
// non-negative.
func (i Int128) CmpUnsigned(other Uint128) int {
	return i.v.Cmp(&other.v)
}

// IsZero reports whether i == 0.
func (i Int128) IsZero() bool {
	return i.v.Sign() == 0
}

// Neg returns -i.
func (i Int128) Neg() Int128 {
	var n big.Int
	n.Neg(&i.v)
	return Int128{v: n}
}

// String renders i in decimal.
func (i Int128) String() string {
	return i.v.String()
}

// Bytes16 renders i as a big-endian, two's-complement 16-byte array,
// the fixed-width encoding used in the reset signature buffer.
func (i Int128) Bytes16() [16]byte {
	var out [16]byte
	v := new(big.Int).Set(&i.v)
	if v.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		v.Add(v, mod)
	}
	v.FillBytes(out[:])
	return out
}

// Int128FromBytes16 parses the big-endian two's-complement encoding
// produced by Bytes16.
func Int128FromBytes16(b [16]byte) (Int128, error) {
	var v big.Int
	v.SetBytes(b[:])
	if v.Cmp(maxInt128) > 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), 128)
		v.Sub(&v, mod)
	}
	if v.Cmp(maxInt128) > 0 || v.Cmp(minInt128) < 0 {
		return Int128{}, ErrOverflow
	}
	return Int128{v: v}, nil
}
