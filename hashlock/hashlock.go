// Package hashlock implements the (plain, hashed) lock pairs used to
// bind a CollectSendFunds to a specific ResponseSendFunds: a payment
// only completes once the plain preimage is revealed along the route.
package hashlock

import (
	"crypto/rand"

	"github.com/fritznode/creditnode/creditid"
)

// PlainLock is the secret half of a hash lock.
type PlainLock [creditid.HashResultSize]byte

// HashedLock is H(PlainLock), the public half of a hash lock.
type HashedLock [creditid.HashResultSize]byte

// Hash returns the hashed lock corresponding to this plain lock.
func (p PlainLock) Hash() HashedLock {
	digest := creditid.H(p[:])
	return HashedLock(digest)
}

// NewPlainLock generates a fresh random plain lock. Each destination
// and each originator mints its own lock per transaction (src_plain_lock,
// dest_plain_lock in spec §3/§4.1).
func NewPlainLock() (PlainLock, error) {
	var p PlainLock
	if _, err := rand.Read(p[:]); err != nil {
		return p, err
	}
	return p, nil
}
