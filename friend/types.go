// Package friend implements the per-friend state machine of spec
// §4.3: a token channel that can fall Inconsistent and recover via
// reset-terms negotiation, plus the pending-operation queues the
// funder core drains whenever this friend is holding the token.
package friend

import (
	"math/big"

	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/tokenchannel"
	"github.com/fritznode/creditnode/u128"
)

// Liveness mirrors the Channeler's connectivity signal for this
// friend; the funder only attempts to move the token while Online.
type Liveness int

const (
	LivenessOffline Liveness = iota
	LivenessOnline
)

// Rate is the fee schedule this node charges to forward payments
// across this friend as an intermediate hop: my_fee = base +
// mul*dest_payment (spec's routing/forwarding component).
type Rate struct {
	Base u128.Uint128
	Mul  u128.Uint128
}

// Fee computes the forwarding fee this node charges for relaying
// destPayment across this friend: base + mul*dest_payment, the
// routing/forwarding formula named in spec's funder coordinator.
func (r Rate) Fee(destPayment u128.Uint128) (u128.Uint128, error) {
	product := new(big.Int).Mul(r.Mul.Big(), destPayment.Big())
	mulResult, err := u128.FromBigInt(product)
	if err != nil {
		return u128.Uint128{}, err
	}
	return r.Base.Add(mulResult)
}

// StateKind tags whether a friend's channel is usable or needs reset
// negotiation.
type StateKind int

const (
	StateConsistent StateKind = iota
	StateInconsistent
)

// PendingQueues holds the three queues spec §4.3 names: operations
// waiting to go out once this side holds the token, drained
// highest-priority-first (backwards ops, then forwarded requests,
// then local user requests) so in-flight payments resolve before new
// ones begin.
type PendingQueues struct {
	BackwardsOps   []mutualcredit.FriendTcOp
	Requests       []mutualcredit.FriendTcOp
	UserRequests   []mutualcredit.FriendTcOp
}

// PushBackwardsOp queues a Response/Cancel/Collect being propagated
// back through this friend toward the original requester.
func (p *PendingQueues) PushBackwardsOp(op mutualcredit.FriendTcOp) {
	p.BackwardsOps = append(p.BackwardsOps, op)
}

// PushRequest queues a RequestSendFunds being forwarded from another
// friend's incoming request.
func (p *PendingQueues) PushRequest(op mutualcredit.FriendTcOp) {
	p.Requests = append(p.Requests, op)
}

// PushUserRequest queues a RequestSendFunds this node itself
// originated as a buyer.
func (p *PendingQueues) PushUserRequest(op mutualcredit.FriendTcOp) {
	p.UserRequests = append(p.UserRequests, op)
}

// IsEmpty reports whether every queue is drained.
func (p *PendingQueues) IsEmpty() bool {
	return len(p.BackwardsOps) == 0 && len(p.Requests) == 0 && len(p.UserRequests) == 0
}

// PopBatch drains up to max operations, backwards ops first.
func (p *PendingQueues) PopBatch(max int) []mutualcredit.FriendTcOp {
	var batch []mutualcredit.FriendTcOp
	batch, p.BackwardsOps = drain(batch, &p.BackwardsOps, max)
	batch, p.Requests = drain(batch, &p.Requests, max)
	batch, p.UserRequests = drain(batch, &p.UserRequests, max)
	return batch
}

func drain(batch []mutualcredit.FriendTcOp, queue *[]mutualcredit.FriendTcOp, max int) ([]mutualcredit.FriendTcOp, []mutualcredit.FriendTcOp) {
	remaining := max - len(batch)
	if remaining <= 0 || len(*queue) == 0 {
		return batch, *queue
	}
	take := remaining
	if take > len(*queue) {
		take = len(*queue)
	}
	batch = append(batch, (*queue)[:take]...)
	return batch, (*queue)[take:]
}

// State is one friend's full state: its channel (or reset-negotiation
// terms while Inconsistent), connectivity, fee schedule, and pending
// work queues.
type State struct {
	Kind StateKind

	Channel *tokenchannel.DirectionalTc

	LocalResetTerms  *tokenchannel.ResetTerms
	RemoteResetTerms *tokenchannel.ResetTerms

	Liveness            Liveness
	WantedRemoteMaxDebt u128.Uint128
	Rate                Rate
	Pending             PendingQueues
}
