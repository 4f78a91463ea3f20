// Package routing implements the funder core's per-hop forwarding
// decision named in spec §4.5: given an incoming RequestSendFunds at
// an intermediate hop, compute the fee this node keeps, the request
// forwarded to the next hop, and whether the next hop's outgoing
// ledger has room to admit the freeze. It deliberately knows nothing
// about path discovery (delegated to the out-of-core index client,
// spec §1) — only about the one hop immediately ahead.
//
// Grounded on routing/pathfind_test.go's edge-policy fee fields
// (FeeBaseMsat/FeeRate, the additive base+proportional formula lnd's
// own pathfinding uses), generalized from millisatoshi amounts to the
// u128 credit amounts this domain moves.
package routing

import (
	"errors"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// ErrInsufficientFees is returned when the request's left_fees can't
// cover this hop's own forwarding fee.
var ErrInsufficientFees = errors.New("routing: left_fees insufficient to cover hop fee")

// ErrNotIntermediateHop is returned when local isn't adjacent to
// itself in the route the way an intermediate forwarder requires.
var ErrNotIntermediateHop = errors.New("routing: local is not an intermediate hop on this route")

// ErrInsufficientCapacity is returned when the next hop's remote max
// debt can't admit the freeze this forward would require.
var ErrInsufficientCapacity = errors.New("routing: next hop lacks capacity for this freeze")

// HopFee computes my_fee = rate.Base + rate.Mul*dest_payment,
// saturating to MaxFunderDebt on overflow rather than erroring — an
// unrepresentable fee can never be affordable, so it should simply
// exceed any left_fees value rather than abort the evaluation.
func HopFee(rate friend.Rate, destPayment u128.Uint128) u128.Uint128 {
	fee, err := rate.Fee(destPayment)
	if err != nil {
		return mutualcredit.MaxFunderDebt
	}
	return fee
}

// Evaluate decides what an intermediate hop does with an incoming
// RequestSendFunds already validated against the incoming ledger: the
// next hop to forward to, this node's kept fee deducted from
// LeftFees, and the reduced LeftFees carried onward (spec §4.5 "Fee
// deduction").
func Evaluate(local creditid.PublicKey, rate friend.Rate, req mutualcredit.RequestSendFundsOp) (next creditid.PublicKey, leftFees u128.Uint128, err error) {
	nextHop, ok := req.Route.NextHop(local)
	if !ok {
		return creditid.PublicKey{}, u128.Uint128{}, ErrNotIntermediateHop
	}

	fee := HopFee(rate, req.DestPayment)
	if req.LeftFees.Cmp(fee) < 0 {
		return creditid.PublicKey{}, u128.Uint128{}, ErrInsufficientFees
	}
	reduced, err := req.LeftFees.Sub(fee)
	if err != nil {
		return creditid.PublicKey{}, u128.Uint128{}, ErrInsufficientFees
	}
	return nextHop, reduced, nil
}

// CheckCapacity reports whether next's outgoing ledger can admit
// ownFreeze = dest_payment+left_fees within its remote_max_debt,
// without mutating anything (spec §4.5 "Capacity check"). Callers
// that get an error must emit an immediate CancelSendFunds back upstream
// instead of forwarding.
func CheckCapacity(nextMc *mutualcredit.MutualCredit, req mutualcredit.RequestSendFundsOp) error {
	outgoing := mutualcredit.NewOutgoingMc(nextMc)
	if _, err := outgoing.QueueOperation(mutualcredit.RequestSendFunds(req)); err != nil {
		return ErrInsufficientCapacity
	}
	return nil
}

// OriginRoute is a buyer-side helper (CreateTransaction does not call
// it; it builds its route.Route directly): wraps a raw ordered
// hop list into a route.Route and validates it up front, the same
// check RequestSendFunds itself performs, so a doomed payment is
// rejected before any credit is frozen on the first hop.
func OriginRoute(hops []creditid.PublicKey) (route.Route, error) {
	r := route.Route{PublicKeys: hops}
	if !r.IsValid() {
		return route.Route{}, mutualcredit.ErrInvalidRoute
	}
	return r, nil
}
