package mutualcredit

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// FriendTcOpKind tags the variant of a FriendTcOp (spec §4.1's union
// FriendTcOp).
type FriendTcOpKind int

const (
	OpKindEnableRequests FriendTcOpKind = iota
	OpKindDisableRequests
	OpKindSetRemoteMaxDebt
	OpKindRequestSendFunds
	OpKindResponseSendFunds
	OpKindCancelSendFunds
	OpKindCollectSendFunds
)

// FriendTcOp is one operation batched into a move token. It is a
// tagged variant rather than an interface with dynamic dispatch,
// matching the data-driven validation design noted in spec §9: the
// "dynamic dispatch over many operation kinds" point.
type FriendTcOp struct {
	Kind FriendTcOpKind

	SetRemoteMaxDebt u128.Uint128
	RequestSendFunds *RequestSendFundsOp
	ResponseSendFunds *ResponseSendFundsOp
	CancelSendFunds  *CancelSendFundsOp
	CollectSendFunds *CollectSendFundsOp
}

// EnableRequests builds an EnableRequests operation.
func EnableRequests() FriendTcOp { return FriendTcOp{Kind: OpKindEnableRequests} }

// DisableRequests builds a DisableRequests operation.
func DisableRequests() FriendTcOp { return FriendTcOp{Kind: OpKindDisableRequests} }

// SetRemoteMaxDebt builds a SetRemoteMaxDebt operation.
func SetRemoteMaxDebt(v u128.Uint128) FriendTcOp {
	return FriendTcOp{Kind: OpKindSetRemoteMaxDebt, SetRemoteMaxDebt: v}
}

// RequestSendFundsOp is the wire payload of a RequestSendFunds
// operation: the originator's intent to move dest_payment to the
// route's destination, with left_fees reserved for intermediate hops.
type RequestSendFundsOp struct {
	RequestID        creditid.Uid
	Route            route.Route
	DestPayment      u128.Uint128
	TotalDestPayment u128.Uint128
	LeftFees         u128.Uint128
	SrcHashedLock    hashlock.HashedLock
	InvoiceID        creditid.InvoiceID
}

// RequestSendFunds builds a RequestSendFunds operation.
func RequestSendFunds(op RequestSendFundsOp) FriendTcOp {
	return FriendTcOp{Kind: OpKindRequestSendFunds, RequestSendFunds: &op}
}

// ResponseSendFundsOp is the destination's signed acknowledgement of a
// RequestSendFunds, carrying the hashed lock that a later
// CollectSendFunds must unlock.
type ResponseSendFundsOp struct {
	RequestID      creditid.Uid
	DestHashedLock hashlock.HashedLock
	RandNonce      creditid.RandNonce
	Signature      creditid.Signature
}

// ResponseSendFunds builds a ResponseSendFunds operation.
func ResponseSendFunds(op ResponseSendFundsOp) FriendTcOp {
	return FriendTcOp{Kind: OpKindResponseSendFunds, ResponseSendFunds: &op}
}

// CancelSendFundsOp aborts a pending transaction, releasing its frozen
// credit without moving the balance.
type CancelSendFundsOp struct {
	RequestID creditid.Uid
}

// CancelSendFunds builds a CancelSendFunds operation.
func CancelSendFunds(requestID creditid.Uid) FriendTcOp {
	return FriendTcOp{Kind: OpKindCancelSendFunds, CancelSendFunds: &CancelSendFundsOp{RequestID: requestID}}
}

// CollectSendFundsOp finalizes a pending transaction by revealing both
// halves of the hash lock, moving its frozen credit into the balance.
type CollectSendFundsOp struct {
	RequestID     creditid.Uid
	SrcPlainLock  hashlock.PlainLock
	DestPlainLock hashlock.PlainLock
}

// CollectSendFunds builds a CollectSendFunds operation.
func CollectSendFunds(op CollectSendFundsOp) FriendTcOp {
	return FriendTcOp{Kind: OpKindCollectSendFunds, CollectSendFunds: &op}
}
