package funder

import (
	"context"
	"crypto/rand"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/funder/routing"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/tokenchannel"
)

// newRandNonce mints the per-move-token nonce spec §4.2 attaches to
// every signed move token, the one value in this package that must
// come from an entropy source rather than from the ledger.
func newRandNonce() (creditid.RandNonce, error) {
	var n creditid.RandNonce
	_, err := rand.Read(n[:])
	return n, err
}

// HandleFriendMessage implements the Channeler-facing half of spec
// §4.4's event loop: one opaque wire message arriving from a known
// friend, dispatched by concrete type to the token-channel handshake,
// the inconsistency/reset path, relay bookkeeping, liveness, or the
// SrcLockForward collect trigger, returning every mutation that must
// be durable before any of the returned Outgoing messages are handed
// to the Channeler (spec §4.4 step 3/4).
func HandleFriendMessage(ctx context.Context, state *FunderState, identityClient *identity.Client, from creditid.PublicKey, msg creditwire.Message) ([]FunderMutation, []Outgoing, error) {
	f, err := state.RequireFriend(from)
	if err != nil {
		return nil, nil, err
	}

	switch m := msg.(type) {
	case *creditwire.MoveTokenRequest:
		return handleMoveTokenRequest(ctx, state, identityClient, from, f, m)

	case *creditwire.InconsistencyError:
		remote := tokenchannel.ResetTerms{
			ResetToken:           m.ResetToken,
			InconsistencyCounter: m.InconsistencyCounter,
			BalanceForReset:      m.BalanceForReset,
		}
		muts, _, err := ReceiveResetTermsFromFriend(ctx, state, identityClient, from, remote)
		return muts, nil, err

	case *creditwire.RelaysUpdate:
		return []FunderMutation{{Kind: MutSetFriendRelays, FriendPublicKey: from, Relays: m.Relays}}, nil, nil

	case *creditwire.KeepAlive:
		return []FunderMutation{{Kind: MutSetFriendLiveness, FriendPublicKey: from, Liveness: friend.LivenessOnline}}, nil, nil

	case *creditwire.SrcLockForward:
		muts, outgoing, err := HandleSrcLockForward(state, m.RequestID, m.SrcPlainLock)
		if outgoing == nil {
			return muts, nil, err
		}
		return muts, []Outgoing{*outgoing}, err

	default:
		return nil, nil, &creditwire.UnknownMessage{}
	}
}

// FlushFriend attempts to send whatever pk's friend currently has
// queued: the event-loop hook every control/buyer/seller op needs
// after queueing new work on a friend, covering the case
// friend.State.RequestToken can't (this side already holds the
// initiative and has never sent anything to react to yet). Returns a
// nil Outgoing, not an error, when it is not this side's turn or
// nothing is queued.
func FlushFriend(ctx context.Context, state *FunderState, identityClient *identity.Client, pk creditid.PublicKey) (*Outgoing, error) {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return nil, err
	}
	randNonce, err := newRandNonce()
	if err != nil {
		return nil, err
	}
	reply, err := f.TryBuildOutgoingBatch(ctx, identityClient, randNonce)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		return nil, nil
	}
	return &Outgoing{To: pk, Message: reply}, nil
}

// handleMoveTokenRequest absorbs one MoveTokenRequest via the friend
// state machine, then routes every IncomingMessage it validated to
// the buyer/seller/routing handler that owns it (spec §4.4
// "Routing/forwarding"), collecting the Outgoing messages and
// FunderMutations every step produces.
func handleMoveTokenRequest(ctx context.Context, state *FunderState, identityClient *identity.Client, from creditid.PublicKey, f *friend.State, req *creditwire.MoveTokenRequest) ([]FunderMutation, []Outgoing, error) {
	randNonce, err := newRandNonce()
	if err != nil {
		return nil, nil, err
	}

	result, err := f.ReceiveMoveToken(ctx, req, identityClient, randNonce)
	if err != nil {
		return nil, nil, err
	}

	var muts []FunderMutation
	var outgoing []Outgoing

	switch result.Kind {
	case friend.ReceiveWentInconsistent:
		muts = append(muts, FunderMutation{Kind: MutFriendGoInconsistent, FriendPublicKey: from, LocalResetTerms: result.LocalResetTerms})
		return muts, outgoing, nil

	case friend.ReceiveRetransmit:
		outgoing = append(outgoing, Outgoing{To: from, Message: result.Retransmit})
		return muts, outgoing, nil

	case friend.ReceiveDuplicate:
		return muts, outgoing, nil
	}

	for _, im := range result.IncomingMessages {
		imMuts, imOutgoing, err := routeIncomingMessage(ctx, state, identityClient, from, im)
		if err != nil {
			continue
		}
		muts = append(muts, imMuts...)
		outgoing = append(outgoing, imOutgoing...)
	}

	if result.OutgoingReply != nil {
		outgoing = append(outgoing, Outgoing{To: from, Message: result.OutgoingReply})
	}
	return muts, outgoing, nil
}

// routeIncomingMessage dispatches one validated IncomingMessage to its
// owning handler: a fresh request either terminates here (seller) or
// is forwarded one hop further (routing); a Response/Cancel/Collect
// either mirrors backward toward this node's own upstream friend or,
// if this node is the true originator, resolves into buyer-side
// bookkeeping (spec §4.4 "On Cancel/Response/Collect from downstream,
// correlate by request_id and enqueue the mirror op on the upstream
// friend's backwards queue").
func routeIncomingMessage(ctx context.Context, state *FunderState, identityClient *identity.Client, from creditid.PublicKey, im mutualcredit.IncomingMessage) ([]FunderMutation, []Outgoing, error) {
	switch im.Kind {
	case mutualcredit.IncomingRequest:
		return routeIncomingRequest(ctx, state, identityClient, from, *im.Request)

	case mutualcredit.IncomingResponse:
		return routeIncomingResponse(state, im.Response.RequestID, *im.Response)

	case mutualcredit.IncomingCancel:
		return routeIncomingCancel(state, im.Cancel.RequestID)

	case mutualcredit.IncomingCollect:
		muts, err := HandleIncomingCollect(state, im.Collect.RequestID, *im.Collect)
		return muts, nil, err
	}
	return nil, nil, nil
}

// routeIncomingRequest implements the destination/forward branch of
// spec §4.4's routing/forwarding component: a request whose route ends
// at this node is handed to the seller flow (HandleIncomingRequestAsDestination,
// auto-committing the invoice the instant it reaches its total); any
// other request is evaluated for the next hop's fee and capacity, then
// queued onto that friend's forwarded-request queue with an
// OpenTransaction recorded so the eventual reply can be mirrored back.
func routeIncomingRequest(ctx context.Context, state *FunderState, identityClient *identity.Client, from creditid.PublicKey, req mutualcredit.RequestSendFundsOp) ([]FunderMutation, []Outgoing, error) {
	if req.Route.IsDestination(state.LocalPublicKey) {
		randNonce, err := newRandNonce()
		if err != nil {
			return nil, nil, err
		}
		muts, err := HandleIncomingRequestAsDestination(state, from, req, randNonce)
		if err != nil {
			return nil, nil, err
		}
		// Apply now so CommitInvoice (below) and this node's own next
		// IsComplete check see the updated invoice; the caller still
		// persists every mutation this call returns, backdating the
		// durable log to match what's already reflected in memory.
		state.ApplyAll(muts)

		inv := state.OpenInvoices[req.InvoiceID]
		if inv == nil {
			return muts, nil, nil
		}
		complete, err := inv.IsComplete()
		if err != nil || !complete {
			return muts, nil, err
		}

		commitMuts, _, err := CommitInvoice(ctx, state, req.InvoiceID, identityClient)
		if err != nil {
			return muts, nil, err
		}
		state.ApplyAll(commitMuts)
		return append(muts, commitMuts...), nil, nil
	}

	nextHop, err := state.requireEnabledNextHop(req)
	if err != nil {
		upstream, uerr := state.RequireFriend(from)
		if uerr != nil {
			return nil, nil, uerr
		}
		upstream.Pending.PushBackwardsOp(mutualcredit.CancelSendFunds(req.RequestID))
		upstream.RequestToken()
		return nil, nil, nil
	}

	nf, err := state.RequireFriend(nextHop)
	if err != nil {
		return nil, nil, err
	}
	rate := nf.Rate
	next, leftFees, err := routing.Evaluate(state.LocalPublicKey, rate, req)
	if err != nil {
		return nil, nil, err
	}

	nextMc := nf.Channel.Channel.State()
	forwarded := req
	forwarded.LeftFees = leftFees
	if err := routing.CheckCapacity(nextMc, forwarded); err != nil {
		upstream, uerr := state.RequireFriend(from)
		if uerr != nil {
			return nil, nil, uerr
		}
		upstream.Pending.PushBackwardsOp(mutualcredit.CancelSendFunds(req.RequestID))
		upstream.RequestToken()
		return nil, nil, nil
	}

	nf.Pending.PushRequest(mutualcredit.RequestSendFunds(forwarded))
	nf.RequestToken()

	open := &OpenTransaction{
		RequestID:        req.RequestID,
		Route:            req.Route,
		DestPayment:      req.DestPayment,
		TotalDestPayment: req.TotalDestPayment,
		LeftFees:         leftFees,
		SrcHashedLock:    req.SrcHashedLock,
		InvoiceID:        req.InvoiceID,
		NextFriend:       next,
		Origin:           OriginForwarded,
		UpstreamFriend:   from,
	}
	muts := []FunderMutation{{Kind: MutPutOpenTransaction, RequestID: req.RequestID, OpenTransact: open}}
	return muts, nil, nil
}

// routeIncomingResponse mirrors a Response backward one hop further if
// this node merely forwarded the request, or triggers the originator's
// collect reveal if this node is the true buyer (spec §4.4 "Any
// ResponseSendFunds arriving at the originator flips its local pending
// to Response stage").
func routeIncomingResponse(state *FunderState, requestID creditid.Uid, resp mutualcredit.ResponseSendFundsOp) ([]FunderMutation, []Outgoing, error) {
	open, ok := state.OpenTransactions[requestID]
	if !ok {
		return nil, nil, ErrUnknownTransaction
	}

	if open.Origin == OriginForwarded {
		f, err := state.RequireFriend(open.UpstreamFriend)
		if err != nil {
			return nil, nil, err
		}
		f.Pending.PushBackwardsOp(mutualcredit.ResponseSendFunds(resp))
		f.RequestToken()
		return nil, nil, nil
	}

	out, err := TriggerCollect(state, requestID)
	if err != nil {
		return nil, nil, err
	}
	if out == nil {
		return nil, nil, nil
	}
	return nil, []Outgoing{*out}, nil
}

// routeIncomingCancel mirrors a Cancel backward one hop further, or
// drops the originator's own Payment bookkeeping for requestID.
func routeIncomingCancel(state *FunderState, requestID creditid.Uid) ([]FunderMutation, []Outgoing, error) {
	open, ok := state.OpenTransactions[requestID]
	if !ok {
		return nil, nil, ErrUnknownTransaction
	}

	if open.Origin == OriginForwarded {
		f, err := state.RequireFriend(open.UpstreamFriend)
		if err != nil {
			return nil, nil, err
		}
		f.Pending.PushBackwardsOp(mutualcredit.CancelSendFunds(requestID))
		f.RequestToken()
	}

	muts, err := CancelTransaction(state, requestID)
	return muts, nil, err
}

// requireEnabledNextHop locates the next hop for req and rejects it
// up front if that friend is unknown, disabled, or Inconsistent,
// sparing routing.Evaluate/CheckCapacity a doomed attempt.
func (s *FunderState) requireEnabledNextHop(req mutualcredit.RequestSendFundsOp) (creditid.PublicKey, error) {
	next, ok := req.Route.NextHop(s.LocalPublicKey)
	if !ok {
		return creditid.PublicKey{}, routing.ErrNotIntermediateHop
	}
	f, err := s.RequireFriend(next)
	if err != nil {
		return creditid.PublicKey{}, err
	}
	if !s.IsFriendEnabled(next) || f.Kind != friend.StateConsistent {
		return creditid.PublicKey{}, ErrUnknownFriend
	}
	return next, nil
}
