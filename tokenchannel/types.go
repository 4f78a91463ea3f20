// Package tokenchannel wraps the mutual-credit ledger with the
// signed, append-only "move token" log described in spec §4.2:
// direction tracking, move/inconsistency counters, duplicate and
// chain-break detection, and reset-terms negotiation.
package tokenchannel

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/u128"
)

// TokenChannel owns a single MutualCredit ledger. It is the unit of
// persistence named in spec §4.2; DirectionalTc layers the move-token
// chain on top of it.
type TokenChannel struct {
	mc *mutualcredit.MutualCredit
}

// New creates a fresh TokenChannel between local and remote with the
// given starting balance (zero, in every case but a reset restart).
func New(local, remote creditid.PublicKey, balance u128.Int128) *TokenChannel {
	return &TokenChannel{mc: mutualcredit.New(local, remote, balance)}
}

// State returns the underlying ledger.
func (tc *TokenChannel) State() *mutualcredit.MutualCredit {
	return tc.mc
}

// Clone deep-copies the channel, used when an incoming move token's
// operations must be validated before they're committed.
func (tc *TokenChannel) Clone() *TokenChannel {
	return &TokenChannel{mc: tc.mc.Clone()}
}

// Mutate replays a batch of ledger mutations against this channel.
func (tc *TokenChannel) Mutate(mutations []mutualcredit.McMutation) {
	for _, m := range mutations {
		tc.mc.Mutate(m)
	}
}

// BalanceForReset is the settled balance a restarted channel inherits
// after a reset: pending debts are dropped (every pending transaction
// is canceled upstream as part of the reset, per spec §4.2), but
// credit that has already moved is preserved.
func (tc *TokenChannel) BalanceForReset() u128.Int128 {
	return tc.mc.Balance().Balance
}
