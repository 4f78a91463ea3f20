// Package mutualcredit implements the per-friend balance ledger: the
// freezing, releasing, and settling of bilateral credit under the
// Request/Response/Collect/Cancel hash-locked transaction protocol
// (spec §4.1). It has no notion of signatures or wire framing — that
// belongs to package tokenchannel, which wraps a MutualCredit in a
// signed append-only log.
package mutualcredit

import (
	"math/big"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// MaxFunderDebt is the implementation-defined ceiling on any max-debt
// value a friend may propose, 2^126 (spec §4.1).
var MaxFunderDebt = func() u128.Uint128 {
	v, err := u128.FromBigInt(new(big.Int).Lsh(big.NewInt(1), 126))
	if err != nil {
		panic(err)
	}
	return v
}()

// RequestsStatus records whether one side of a channel currently
// admits new RequestSendFunds operations.
type RequestsStatus int

const (
	// StatusClosed rejects new requests from that side.
	StatusClosed RequestsStatus = iota
	// StatusOpen admits new requests from that side.
	StatusOpen
)

// IsOpen reports whether new requests are admitted.
func (s RequestsStatus) IsOpen() bool { return s == StatusOpen }

// Idents is the pair of public keys this ledger sits between, from the
// local node's point of view.
type Idents struct {
	Local  creditid.PublicKey
	Remote creditid.PublicKey
}

// Balance holds the signed credit balance plus the four ceilings and
// freezes that bound it (spec §3).
type Balance struct {
	Balance           u128.Int128
	LocalMaxDebt      u128.Uint128
	RemoteMaxDebt     u128.Uint128
	LocalPendingDebt  u128.Uint128
	RemotePendingDebt u128.Uint128
}

// TransactionStageKind distinguishes the two stages a pending
// transaction passes through before it is collected or canceled.
type TransactionStageKind int

const (
	// StageRequest: a RequestSendFunds has been frozen, awaiting a
	// ResponseSendFunds.
	StageRequest TransactionStageKind = iota
	// StageResponse: a ResponseSendFunds has been verified; the
	// transaction now awaits CollectSendFunds or CancelSendFunds.
	StageResponse
)

// TransactionStage is the current phase of a PendingTransaction.
type TransactionStage struct {
	Kind           TransactionStageKind
	DestHashedLock hashlock.HashedLock // valid only when Kind == StageResponse
}

// PendingTransaction is the ledger's record of one in-flight
// RequestSendFunds, kept until a matching Response+Collect or a Cancel
// resolves it (spec §3).
type PendingTransaction struct {
	RequestID        creditid.Uid
	Route            route.Route
	DestPayment      u128.Uint128
	TotalDestPayment u128.Uint128
	LeftFees         u128.Uint128
	SrcHashedLock    hashlock.HashedLock
	InvoiceID        creditid.InvoiceID
	Stage            TransactionStage
}

// FreezeCredits is dest_payment + left_fees, the amount of credit this
// transaction holds frozen (spec §3 invariant).
func (p PendingTransaction) FreezeCredits() (u128.Uint128, error) {
	return p.DestPayment.Add(p.LeftFees)
}

// PendingTransactions partitions in-flight transactions by which side
// of the channel originated the freeze.
type PendingTransactions struct {
	Local  map[creditid.Uid]PendingTransaction
	Remote map[creditid.Uid]PendingTransaction
}

func newPendingTransactions() PendingTransactions {
	return PendingTransactions{
		Local:  make(map[creditid.Uid]PendingTransaction),
		Remote: make(map[creditid.Uid]PendingTransaction),
	}
}

func (p PendingTransactions) clone() PendingTransactions {
	cp := newPendingTransactions()
	for k, v := range p.Local {
		cp.Local[k] = v
	}
	for k, v := range p.Remote {
		cp.Remote[k] = v
	}
	return cp
}

// RequestsStatusPair tracks whether each side currently admits new
// requests.
type RequestsStatusPair struct {
	Local  RequestsStatus
	Remote RequestsStatus
}

// MutualCredit is the bilateral ledger for one friend: balance, debt
// ceilings, and the pending-transaction tables for both directions
// (spec §3).
type MutualCredit struct {
	idents              Idents
	balance             Balance
	requestsStatus      RequestsStatusPair
	pendingTransactions PendingTransactions
}

// New creates a fresh ledger between local and remote, starting at the
// given signed balance with both sides' requests closed and no debt
// ceilings (a friend must EnableRequests and SetRemoteMaxDebt before
// any payment can flow).
func New(local, remote creditid.PublicKey, balance u128.Int128) *MutualCredit {
	return &MutualCredit{
		idents: Idents{Local: local, Remote: remote},
		balance: Balance{
			Balance: balance,
		},
		requestsStatus:      RequestsStatusPair{Local: StatusClosed, Remote: StatusClosed},
		pendingTransactions: newPendingTransactions(),
	}
}

// Idents returns the (local, remote) public key pair.
func (mc *MutualCredit) Idents() Idents { return mc.idents }

// Balance returns a copy of the current balance/debt state.
func (mc *MutualCredit) Balance() Balance { return mc.balance }

// RequestsStatus returns a copy of the current open/closed state.
func (mc *MutualCredit) RequestsStatus() RequestsStatusPair { return mc.requestsStatus }

// PendingTransactions returns the pending-transaction tables. Callers
// must not mutate the returned maps.
func (mc *MutualCredit) PendingTransactions() PendingTransactions { return mc.pendingTransactions }

// Clone returns a deep, independent copy of the ledger. OutgoingMc uses
// this for clone-on-write batch construction (spec §4.1 "Why this
// shape").
func (mc *MutualCredit) Clone() *MutualCredit {
	return &MutualCredit{
		idents:              mc.idents,
		balance:             mc.balance,
		requestsStatus:      mc.requestsStatus,
		pendingTransactions: mc.pendingTransactions.clone(),
	}
}
