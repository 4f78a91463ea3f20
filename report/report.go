// Package report implements spec §4.5's Report/Mutation Stream: a pure
// transform from the funder core's internal FunderMutation log into the
// externally-visible FunderReportMutation stream the App server fans
// out to subscribers, plus the FunderReport snapshot those mutations
// apply against. It also derives the coarser IndexMutation stream the
// out-of-core Index client consumes (spec §1 "External Collaborator
// Adapters").
//
// Grounded on invoices/invoiceregistry.go's subscription fan-out
// (a central registry handing each subscriber its own buffered channel
// so a slow reader can't stall invoice settlement); here each
// subscriber gets its own queue.ConcurrentQueue-backed mailbox instead,
// for the same reason: the funder event loop (funder.EventLoop) must
// never block on a slow report consumer.
package report

import (
	"context"
	"sync"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/queue"
	"github.com/fritznode/creditnode/u128"
)

// MutationKind tags the variant of a FunderReportMutation, the App
// server's externally-visible projection of a funder.MutationKind.
// Several internal MutationKinds collapse onto one report kind
// (MutFriendDirectional's balance-affecting submutations all surface
// as one UpdateFriendBalance, for instance); others (MutFriendRestart,
// MutSetFriendWantedRemoteMaxDebt) have no externally visible effect on
// their own and produce no report mutation at all.
type MutationKind int

const (
	ReportAddFriend MutationKind = iota
	ReportRemoveFriend
	ReportUpdateFriendBalance
	ReportUpdateFriendRate
	ReportUpdateFriendLiveness
	ReportUpdateFriendEnabled
	ReportUpdateFriendName
	ReportUpdateFriendRequestsStatus
	ReportPutOpenInvoice
	ReportRemoveOpenInvoice
	ReportPutOpenTransaction
	ReportRemoveOpenTransaction
	ReportPutPayment
	ReportRemovePayment
)

// FunderReportMutation is one externally-visible state change, tagged
// with the App control request that caused it when there was one:
// internally-triggered mutations (a SrcLockForward cascade, a remote
// friend message) leave AppRequestID nil, matching spec §6's "echoed
// back only for operations that came from the App surface."
type FunderReportMutation struct {
	Kind MutationKind

	AppRequestID *creditid.Uid

	FriendPublicKey creditid.PublicKey
	Balance         *mutualcreditBalanceView
	Rate            friend.Rate
	Liveness        friend.Liveness
	Enabled         bool
	Name            string
	RequestsOpen    bool

	InvoiceID creditid.InvoiceID
	RequestID creditid.Uid
	PaymentID creditid.PaymentID
	Payment   *funder.Payment
}

// mutualcreditBalanceView avoids a report->mutualcredit dependency for
// just one field set; it mirrors mutualcredit.Balance's shape.
type mutualcreditBalanceView struct {
	Balance           u128.Int128
	LocalMaxDebt      u128.Uint128
	RemoteMaxDebt     u128.Uint128
	LocalPendingDebt  u128.Uint128
	RemotePendingDebt u128.Uint128
}

// FriendReport is the snapshot view of one friend exposed to the App
// surface (spec §4.5), assembled from the same fields FunderState's
// friend.State carries plus the display-only FriendNames/FriendRelays
// side tables.
type FriendReport struct {
	PublicKey    creditid.PublicKey
	Name         string
	Balance      mutualcreditBalanceView
	Rate         friend.Rate
	Liveness     friend.Liveness
	Enabled      bool
	RequestsOpen bool
}

// FunderReport is the full read-only snapshot creditctl report and any
// App dashboard renders: every friend plus payment/invoice counts.
type FunderReport struct {
	LocalPublicKey  creditid.PublicKey
	Friends         map[creditid.PublicKey]*FriendReport
	OpenInvoices    int
	OpenTransactions int
	Payments        map[creditid.PaymentID]*funder.Payment
}

// Snapshot builds a fresh FunderReport by reading state directly; used
// once at a new subscriber's connect time and by `creditctl report`,
// which needs a point-in-time dump rather than the mutation stream.
func Snapshot(state *funder.FunderState) *FunderReport {
	r := &FunderReport{
		LocalPublicKey:   state.LocalPublicKey,
		Friends:          make(map[creditid.PublicKey]*FriendReport, len(state.Friends)),
		OpenInvoices:     len(state.OpenInvoices),
		OpenTransactions: len(state.OpenTransactions),
		Payments:         make(map[creditid.PaymentID]*funder.Payment, len(state.Payments)),
	}
	for pk, f := range state.Friends {
		fr := &FriendReport{
			PublicKey: pk,
			Name:      state.FriendNames[pk],
			Rate:      f.Rate,
			Liveness:  f.Liveness,
			Enabled:   state.FriendEnabled[pk],
		}
		if f.Kind == friend.StateConsistent {
			bal := f.Channel.Channel.State().Balance()
			fr.Balance = mutualcreditBalanceView{
				Balance:           bal.Balance,
				LocalMaxDebt:      bal.LocalMaxDebt,
				RemoteMaxDebt:     bal.RemoteMaxDebt,
				LocalPendingDebt:  bal.LocalPendingDebt,
				RemotePendingDebt: bal.RemotePendingDebt,
			}
			fr.RequestsOpen = f.Channel.Channel.State().RequestsStatus().Local.IsOpen()
		}
		r.Friends[pk] = fr
	}
	for id, p := range state.Payments {
		r.Payments[id] = p
	}
	return r
}

// subscriber is one report consumer's mailbox: an unbounded,
// non-blocking FIFO (queue.ConcurrentQueue) so a slow App client can
// never stall the publisher.
type subscriber struct {
	q      *queue.ConcurrentQueue
	cancel context.CancelFunc
}

// Hub fans FunderReportMutation batches out to every subscriber and
// implements funder.ReportSink so funder.EventLoop can publish to it
// without importing this package (avoiding the funder<->report import
// cycle: report imports funder for FunderState/FunderMutation/Payment,
// so funder must stay unaware of report).
type Hub struct {
	mu          sync.Mutex
	nextID      uint64
	subscribers map[uint64]*subscriber
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint64]*subscriber)}
}

// Subscribe registers a new report consumer and returns its receive
// channel plus an unsubscribe func; ctx's cancellation also tears the
// subscription down, mirroring invoiceregistry's client-disconnect path.
func (h *Hub) Subscribe(ctx context.Context) (<-chan interface{}, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	q := queue.NewConcurrentQueue(64)
	q.Start()
	id := h.nextID
	h.nextID++
	h.subscribers[id] = &subscriber{q: q, cancel: cancel}

	go func() {
		<-subCtx.Done()
		h.mu.Lock()
		delete(h.subscribers, id)
		h.mu.Unlock()
		q.Stop()
	}()

	unsubscribe := func() { cancel() }
	return q.ChanOut(), unsubscribe
}

// Publish implements funder.ReportSink: derives the externally-visible
// mutations from muts (tagged with appRequestID, nil for internally
// triggered batches) and fans the resulting batch out to every live
// subscriber without blocking on any of them.
func (h *Hub) Publish(appRequestID *creditid.Uid, muts []funder.FunderMutation) {
	reportMuts := FromFunderMutations(appRequestID, muts)
	if len(reportMuts) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.subscribers {
		s.q.ChanIn() <- reportMuts
	}
}

// FromFunderMutations derives the FunderReportMutation batch (spec
// §4.5: "Every state-changing path emits a typed FunderReportMutation")
// a funder.FunderMutation batch projects to. Several funder.MutationKind
// values fold together or disappear entirely; see the MutationKind doc
// comment above.
func FromFunderMutations(appRequestID *creditid.Uid, muts []funder.FunderMutation) []FunderReportMutation {
	out := make([]FunderReportMutation, 0, len(muts))
	for _, m := range muts {
		rm, ok := fromOne(appRequestID, m)
		if ok {
			out = append(out, rm)
		}
	}
	return out
}

func fromOne(appRequestID *creditid.Uid, m funder.FunderMutation) (FunderReportMutation, bool) {
	base := FunderReportMutation{AppRequestID: appRequestID, FriendPublicKey: m.FriendPublicKey}
	switch m.Kind {
	case funder.MutAddFriend:
		base.Kind = ReportAddFriend
		return base, true
	case funder.MutRemoveFriend:
		base.Kind = ReportRemoveFriend
		return base, true
	case funder.MutSetFriendRate:
		base.Kind = ReportUpdateFriendRate
		base.Rate = m.Rate
		return base, true
	case funder.MutSetFriendLiveness:
		base.Kind = ReportUpdateFriendLiveness
		base.Liveness = m.Liveness
		return base, true
	case funder.MutSetFriendEnabled:
		base.Kind = ReportUpdateFriendEnabled
		base.Enabled = m.Enabled
		return base, true
	case funder.MutSetFriendName:
		base.Kind = ReportUpdateFriendName
		base.Name = m.Name
		return base, true
	case funder.MutFriendDirectional:
		base.Kind = ReportUpdateFriendBalance
		return base, true
	case funder.MutPutOpenInvoice:
		base.Kind = ReportPutOpenInvoice
		base.InvoiceID = m.InvoiceID
		return base, true
	case funder.MutRemoveOpenInvoice:
		base.Kind = ReportRemoveOpenInvoice
		base.InvoiceID = m.InvoiceID
		return base, true
	case funder.MutPutOpenTransaction:
		base.Kind = ReportPutOpenTransaction
		base.RequestID = m.RequestID
		return base, true
	case funder.MutRemoveOpenTransaction:
		base.Kind = ReportRemoveOpenTransaction
		base.RequestID = m.RequestID
		return base, true
	case funder.MutPutPayment:
		base.Kind = ReportPutPayment
		base.PaymentID = m.PaymentID
		base.Payment = m.PaymentVal
		return base, true
	case funder.MutRemovePayment:
		base.Kind = ReportRemovePayment
		base.PaymentID = m.PaymentID
		return base, true
	default:
		// MutSetFriendWantedRemoteMaxDebt, MutSetFriendRelays,
		// MutFriendGoInconsistent/ReceiveResetTerms/Restart, MutSetRelays,
		// MutPutPendingCollect/MutRemovePendingCollect: internal
		// bookkeeping with no externally visible field to echo, or
		// already implied by the ReportUpdateFriendBalance a sibling
		// mutation in the same batch carries.
		return FunderReportMutation{}, false
	}
}
