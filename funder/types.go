// Package funder implements the per-node coordinator of spec §4.4:
// the event loop that multiplexes App control requests, Channeler
// friend messages, timer ticks, and DB acknowledgments, drives each
// friend's state machine, and owns the buyer/seller payment and
// invoice lifecycles plus per-hop routing/forwarding. It is the
// largest single component of the core (spec §2: 30% share) and the
// only package that holds more than one friend at a time — every
// other package (mutualcredit, tokenchannel, friend) is scoped to a
// single bilateral channel.
//
// Grounded on daemon/server.go's subsystem-wiring/event-loop shape and
// htlcswitch/mock.go's circuit-map bookkeeping (open_transactions here
// plays the role htlcswitch's circuit map plays for HTLCs in flight),
// with the buyer/seller split modeled on invoices/invoiceregistry.go's
// invoice lifecycle state machine.
package funder

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// OriginKind tags whether an OpenTransaction was created by this
// node's own buyer flow or merely forwarded through on behalf of an
// upstream friend.
type OriginKind int

const (
	// OriginLocal: this node is the payment's originator (buyer).
	OriginLocal OriginKind = iota
	// OriginForwarded: this node is an intermediate hop; Upstream
	// names the friend the original RequestSendFunds arrived from.
	OriginForwarded
)

// OpenTransaction is the funder core's circuit-map entry for one
// in-flight RequestSendFunds this node originated or forwarded,
// keyed by RequestID in FunderState.OpenTransactions. It is what lets
// a Response/Cancel/Collect arriving from the next hop be correlated
// back to the friend (and, if this node originated it, the Payment)
// it must be mirrored toward (spec §4.4 "Routing/forwarding").
type OpenTransaction struct {
	RequestID        creditid.Uid
	Route            route.Route
	DestPayment      u128.Uint128
	TotalDestPayment u128.Uint128
	LeftFees         u128.Uint128
	SrcHashedLock    hashlock.HashedLock
	InvoiceID        creditid.InvoiceID

	// NextFriend is the hop this request was forwarded (or
	// originated) to.
	NextFriend creditid.PublicKey

	Origin OriginKind

	// UpstreamFriend is the friend this request arrived from; zero
	// value when Origin == OriginLocal.
	UpstreamFriend creditid.PublicKey

	// PaymentID identifies which Payment this entry belongs to when
	// Origin == OriginLocal.
	PaymentID creditid.PaymentID

	// SrcPlainLock is known only at the originator — needed to build
	// the CollectSendFunds once the Response arrives back.
	SrcPlainLock hashlock.PlainLock
}

// IncomingTransaction is the seller side's record of one
// RequestSendFunds addressed to this node as the route's destination,
// held inside an OpenInvoice until the invoice's total is reached
// (spec §4.4 "Seller flow").
type IncomingTransaction struct {
	RequestID      creditid.Uid
	Route          route.Route
	DestPayment    u128.Uint128
	UpstreamFriend creditid.PublicKey
	SrcHashedLock  hashlock.HashedLock
	DestPlainLock  hashlock.PlainLock
	DestHashedLock hashlock.HashedLock
	RandNonce      creditid.RandNonce
}

// OpenInvoice accumulates incoming transactions across possibly
// disjoint routes until their combined dest_payment reaches the
// invoice's total, at which point CommitInvoice signs a single
// Receipt and releases every route's Response (spec §3, §4.4
// "multi-route invoices accumulate").
type OpenInvoice struct {
	InvoiceID            creditid.InvoiceID
	TotalDestPayment     u128.Uint128
	IncomingTransactions map[hashlock.HashedLock]IncomingTransaction
}

// Collected sums DestPayment across every incoming transaction held
// so far.
func (o *OpenInvoice) Collected() (u128.Uint128, error) {
	sum := u128.Zero()
	for _, tx := range o.IncomingTransactions {
		var err error
		sum, err = sum.Add(tx.DestPayment)
		if err != nil {
			return u128.Uint128{}, err
		}
	}
	return sum, nil
}

// IsComplete reports whether enough has been collected to commit.
func (o *OpenInvoice) IsComplete() (bool, error) {
	collected, err := o.Collected()
	if err != nil {
		return false, err
	}
	return collected.Cmp(o.TotalDestPayment) >= 0, nil
}

// PendingCollect is the destination's record of one committed incoming
// transaction still waiting for the originator's SrcLockForward: the
// DestPlainLock CommitInvoice minted survives here after the
// OpenInvoice itself is torn down, since only once src_plain_lock
// arrives can this node build the CollectSendFundsOp that needs both
// halves of the hash lock (spec §4.1 hash lock; §4.4 Seller flow).
type PendingCollect struct {
	UpstreamFriend creditid.PublicKey
	DestPlainLock  hashlock.PlainLock
}

// Receipt is the destination-signed proof of payment spec §4.4 and
// §8 (invariant 4) name: signed once an invoice's total is reached,
// carried back to the buyer as the Payment's Success value.
type Receipt struct {
	ResponseHash     creditid.HashResult
	InvoiceID        creditid.InvoiceID
	TotalDestPayment u128.Uint128
	Signature        creditid.Signature
}

// PaymentStageKind tags the buyer-side lifecycle of spec §3
// ("Payment lifecycle"): NewTransactions -> InProgress -> (Success |
// Canceled) -> AfterSuccessAck -> removed.
type PaymentStageKind int

const (
	PaymentNewTransactions PaymentStageKind = iota
	PaymentInProgress
	PaymentSuccess
	PaymentCanceled
	PaymentAfterSuccessAck
)

// Payment is one buyer-side invoice payment, possibly split across
// several CreateTransaction calls (routes/hops) before it completes.
type Payment struct {
	PaymentID        creditid.PaymentID
	InvoiceID        creditid.InvoiceID
	TotalDestPayment u128.Uint128
	DestPublicKey    creditid.PublicKey
	Stage            PaymentStageKind

	// NumOpenTransactions counts this payment's transactions still
	// outstanding (neither collected nor canceled); the "(n)" on every
	// lifecycle stage name in spec §3.
	NumOpenTransactions uint64

	Receipt *Receipt
	AckUid  *creditid.Uid
}

// FunderState is the whole per-node state the funder core owns
// exclusively: every friend, every open invoice/transaction/payment,
// and the node's own identity and known relays (spec §3
// "FunderState"). Mutations are pure functions of (state, mutation)
// applied by a single writer (spec §5); callers that need concurrent
// access must serialize through the event loop in loop.go.
type FunderState struct {
	LocalPublicKey creditid.PublicKey

	RelaysGeneration u128.Uint128
	Relays           []creditwire.RelayAddress

	Friends          map[creditid.PublicKey]*friend.State
	OpenInvoices     map[creditid.InvoiceID]*OpenInvoice
	OpenTransactions map[creditid.Uid]*OpenTransaction
	Payments         map[creditid.PaymentID]*Payment
	PendingCollects  map[creditid.Uid]*PendingCollect

	// FriendNames and FriendRelays hold the display-name and per-friend
	// relay hints original_source keeps separate from trust parameters
	// (SPEC_FULL supplement #3); neither participates in credit
	// accounting.
	FriendNames  map[creditid.PublicKey]string
	FriendRelays map[creditid.PublicKey][]creditwire.RelayAddress

	// FriendEnabled tracks EnableFriend/DisableFriend: whether this
	// node will route payments through a friend at all, independent
	// of that friend's own requests_status (Open/CloseFriend, spec
	// §6). A disabled friend is skipped entirely by the routing/
	// forwarding logic even while its channel stays Consistent.
	FriendEnabled map[creditid.PublicKey]bool
}

// New builds an empty FunderState for local, with no friends, relays,
// invoices, transactions, or payments yet.
func New(local creditid.PublicKey) *FunderState {
	return &FunderState{
		LocalPublicKey:   local,
		RelaysGeneration: u128.Zero(),
		Friends:          make(map[creditid.PublicKey]*friend.State),
		OpenInvoices:     make(map[creditid.InvoiceID]*OpenInvoice),
		OpenTransactions: make(map[creditid.Uid]*OpenTransaction),
		Payments:         make(map[creditid.PaymentID]*Payment),
		PendingCollects:  make(map[creditid.Uid]*PendingCollect),
		FriendNames:      make(map[creditid.PublicKey]string),
		FriendRelays:     make(map[creditid.PublicKey][]creditwire.RelayAddress),
		FriendEnabled:    make(map[creditid.PublicKey]bool),
	}
}

// IsFriendEnabled reports whether pk may be routed through, defaulting
// true for any tracked friend that was never explicitly disabled.
func (s *FunderState) IsFriendEnabled(pk creditid.PublicKey) bool {
	enabled, ok := s.FriendEnabled[pk]
	return !ok || enabled
}

// RequireFriend looks up a friend by public key, erroring if unknown
// (spec §7 "missing correlation" class — surfaced to the caller as a
// logged warning rather than a fatal condition).
func (s *FunderState) RequireFriend(pk creditid.PublicKey) (*friend.State, error) {
	f, ok := s.Friends[pk]
	if !ok {
		return nil, ErrUnknownFriend
	}
	return f, nil
}

// ensureMaps is defensive for FunderState values obtained by decoding
// a stored snapshot rather than through New (the creditdb recovery
// path in spec §6 "Recovery replays the state on boot").
func (s *FunderState) ensureMaps() {
	if s.Friends == nil {
		s.Friends = make(map[creditid.PublicKey]*friend.State)
	}
	if s.OpenInvoices == nil {
		s.OpenInvoices = make(map[creditid.InvoiceID]*OpenInvoice)
	}
	if s.OpenTransactions == nil {
		s.OpenTransactions = make(map[creditid.Uid]*OpenTransaction)
	}
	if s.Payments == nil {
		s.Payments = make(map[creditid.PaymentID]*Payment)
	}
	if s.PendingCollects == nil {
		s.PendingCollects = make(map[creditid.Uid]*PendingCollect)
	}
	if s.FriendNames == nil {
		s.FriendNames = make(map[creditid.PublicKey]string)
	}
	if s.FriendRelays == nil {
		s.FriendRelays = make(map[creditid.PublicKey][]creditwire.RelayAddress)
	}
	if s.FriendEnabled == nil {
		s.FriendEnabled = make(map[creditid.PublicKey]bool)
	}
}
