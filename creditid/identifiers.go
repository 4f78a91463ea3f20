// Package creditid defines the fixed-size identifiers shared across the
// token channel, mutual-credit and funder packages: public keys,
// signatures, and the various 128/256-bit request identifiers used to
// correlate operations across hops.
package creditid

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

const (
	// PublicKeySize is the length in bytes of a node's identity public
	// key (spec: 256-bit PublicKey).
	PublicKeySize = ed25519.PublicKeySize

	// SignatureSize is the length in bytes of a signature produced by
	// the identity service (spec: 512-bit Signature).
	SignatureSize = ed25519.SignatureSize

	// UidSize is the length in bytes of a request id (spec: 128-bit Uid).
	UidSize = 16

	// InvoiceIDSize is the length in bytes of an invoice id (spec:
	// 256-bit InvoiceId).
	InvoiceIDSize = 32

	// PaymentIDSize is the length in bytes of a payment id (spec:
	// 128-bit PaymentId).
	PaymentIDSize = 16

	// HashResultSize is the length in bytes of the output of H() (spec:
	// 256-bit HashResult).
	HashResultSize = 32

	// RandNonceSize is the length in bytes of a random nonce attached
	// to each move token.
	RandNonceSize = 16
)

// PublicKey identifies a node on the credit graph.
type PublicKey [PublicKeySize]byte

// String returns the full, untruncated hex encoding of the public key.
func (p PublicKey) String() string {
	return hex.EncodeToString(p[:])
}

// Signature is a signature produced by the identity service over a
// canonical signature buffer (spec §6).
type Signature [SignatureSize]byte

func (s Signature) String() string {
	return hex.EncodeToString(s[:])
}

// IsZero reports whether the signature has never been set (used for
// the synthetic old_token of the very first move token in an epoch).
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Uid is a request identifier, unique per in-flight transaction on one
// token channel.
type Uid [UidSize]byte

func (u Uid) String() string {
	return hex.EncodeToString(u[:])
}

// InvoiceID identifies a seller-side invoice.
type InvoiceID [InvoiceIDSize]byte

func (i InvoiceID) String() string {
	return hex.EncodeToString(i[:])
}

// PaymentID identifies one buyer-side payment (possibly split across
// several transactions/routes).
type PaymentID [PaymentIDSize]byte

func (p PaymentID) String() string {
	return hex.EncodeToString(p[:])
}

// HashResult is the output of the hash function H() used throughout
// the signature-buffer canonicalizations and hash locks.
type HashResult [HashResultSize]byte

func (h HashResult) String() string {
	return hex.EncodeToString(h[:])
}

// RandNonce is a nonce value attached to a move token to ensure the
// reset-token derivation (and any future randomized fields) cannot be
// replayed across epochs.
type RandNonce [RandNonceSize]byte

func (r RandNonce) String() string {
	return hex.EncodeToString(r[:])
}

// PublicKeyFromBytes parses a public key from a raw byte slice,
// validating its length.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pk PublicKey
	if len(b) != PublicKeySize {
		return pk, fmt.Errorf("creditid: invalid public key length %d, want %d",
			len(b), PublicKeySize)
	}
	copy(pk[:], b)
	return pk, nil
}

// SignatureFromBytes parses a signature from a raw byte slice,
// validating its length.
func SignatureFromBytes(b []byte) (Signature, error) {
	var sig Signature
	if len(b) != SignatureSize {
		return sig, fmt.Errorf("creditid: invalid signature length %d, want %d",
			len(b), SignatureSize)
	}
	copy(sig[:], b)
	return sig, nil
}

// UidFromBytes parses a Uid from a raw byte slice.
func UidFromBytes(b []byte) (Uid, error) {
	var u Uid
	if len(b) != UidSize {
		return u, fmt.Errorf("creditid: invalid uid length %d, want %d", len(b), UidSize)
	}
	copy(u[:], b)
	return u, nil
}
