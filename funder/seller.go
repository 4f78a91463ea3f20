package funder

import (
	"context"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditsig"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/u128"
)

// AddInvoice implements AddInvoice (spec §4.4 Seller flow): opens a
// fresh invoice with no incoming transactions yet.
func AddInvoice(state *FunderState, invoiceID creditid.InvoiceID, total u128.Uint128) ([]FunderMutation, error) {
	if _, exists := state.OpenInvoices[invoiceID]; exists {
		return nil, ErrInvoiceAlreadyExists
	}
	inv := &OpenInvoice{
		InvoiceID:            invoiceID,
		TotalDestPayment:     total,
		IncomingTransactions: make(map[hashlock.HashedLock]IncomingTransaction),
	}
	return []FunderMutation{{Kind: MutPutOpenInvoice, InvoiceID: invoiceID, OpenInvoice: inv}}, nil
}

// CancelInvoice implements CancelInvoice: cancels every incoming
// transaction this invoice has accumulated so far, releasing the
// freeze on each upstream friend, then drops the invoice.
func CancelInvoice(state *FunderState, invoiceID creditid.InvoiceID) ([]FunderMutation, error) {
	inv, ok := state.OpenInvoices[invoiceID]
	if !ok {
		return nil, ErrUnknownInvoice
	}

	muts := []FunderMutation{{Kind: MutRemoveOpenInvoice, InvoiceID: invoiceID}}
	for _, tx := range inv.IncomingTransactions {
		f, err := state.RequireFriend(tx.UpstreamFriend)
		if err != nil {
			continue
		}
		f.Pending.PushBackwardsOp(mutualcredit.CancelSendFunds(tx.RequestID))
		f.RequestToken()
	}
	return muts, nil
}

// HandleIncomingRequestAsDestination implements "Incoming requests
// matching this node as destination add IncomingTransaction; a
// dest_plain_lock is minted and kept" (spec §4.4): called by core.go
// once a validated RequestSendFundsOp's route ends at this node.
func HandleIncomingRequestAsDestination(state *FunderState, upstream creditid.PublicKey, req mutualcredit.RequestSendFundsOp, randNonce creditid.RandNonce) ([]FunderMutation, error) {
	inv, ok := state.OpenInvoices[req.InvoiceID]
	if !ok {
		return nil, ErrUnknownInvoice
	}

	destPlainLock, err := hashlock.NewPlainLock()
	if err != nil {
		return nil, err
	}

	tx := IncomingTransaction{
		RequestID:      req.RequestID,
		Route:          req.Route,
		DestPayment:    req.DestPayment,
		UpstreamFriend: upstream,
		SrcHashedLock:  req.SrcHashedLock,
		DestPlainLock:  destPlainLock,
		DestHashedLock: destPlainLock.Hash(),
		RandNonce:      randNonce,
	}

	updated := *inv
	updated.IncomingTransactions = cloneIncomingTransactions(inv.IncomingTransactions)
	updated.IncomingTransactions[tx.DestHashedLock] = tx

	return []FunderMutation{{Kind: MutPutOpenInvoice, InvoiceID: req.InvoiceID, OpenInvoice: &updated}}, nil
}

// CommitInvoice implements CommitInvoice(multi_commit) (spec §4.4):
// once an invoice's accumulated incoming transactions reach its
// total, signs a single Receipt over the whole set and queues a
// ResponseSendFunds back toward each contributing route's upstream
// friend. Each transaction's DestPlainLock survives the invoice's
// removal as a PendingCollect: the first real CollectSendFundsOp can
// only be built once the matching SrcLockForward arrives from the
// originator (see HandleSrcLockForward), which can happen well after
// this invoice itself is gone.
func CommitInvoice(ctx context.Context, state *FunderState, invoiceID creditid.InvoiceID, identityClient *identity.Client) ([]FunderMutation, *Receipt, error) {
	inv, ok := state.OpenInvoices[invoiceID]
	if !ok {
		return nil, nil, ErrUnknownInvoice
	}
	complete, err := inv.IsComplete()
	if err != nil {
		return nil, nil, err
	}
	if !complete {
		return nil, nil, ErrInvoiceNotComplete
	}

	muts := []FunderMutation{{Kind: MutRemoveOpenInvoice, InvoiceID: invoiceID}}
	var firstResponseHash creditid.HashResult
	first := true

	for _, tx := range inv.IncomingTransactions {
		buf := creditsig.ResponseBuffer(creditsig.ResponseParams{
			RequestID:        tx.RequestID,
			DestHashedLock:   tx.DestHashedLock,
			DestPayment:      tx.DestPayment,
			TotalDestPayment: inv.TotalDestPayment,
			InvoiceID:        invoiceID,
			RandNonce:        tx.RandNonce,
			Route:            tx.Route,
		})

		sig, err := identityClient.RequestSignature(ctx, buf[:])
		if err != nil {
			return nil, nil, err
		}

		if first {
			firstResponseHash = buf
			first = false
		}

		f, err := state.RequireFriend(tx.UpstreamFriend)
		if err != nil {
			continue
		}
		response := mutualcredit.ResponseSendFunds(mutualcredit.ResponseSendFundsOp{
			RequestID:      tx.RequestID,
			DestHashedLock: tx.DestHashedLock,
			RandNonce:      tx.RandNonce,
			Signature:      sig,
		})
		f.Pending.PushBackwardsOp(response)
		f.RequestToken()

		muts = append(muts, FunderMutation{
			Kind:      MutPutPendingCollect,
			RequestID: tx.RequestID,
			PendingCollectVal: &PendingCollect{
				UpstreamFriend: tx.UpstreamFriend,
				DestPlainLock:  tx.DestPlainLock,
			},
		})
	}

	receiptBuf := creditsig.ReceiptBuffer(firstResponseHash, invoiceID, inv.TotalDestPayment)
	receiptSig, err := identityClient.RequestSignature(ctx, receiptBuf[:])
	if err != nil {
		return nil, nil, err
	}
	receipt := &Receipt{
		ResponseHash:     firstResponseHash,
		InvoiceID:        invoiceID,
		TotalDestPayment: inv.TotalDestPayment,
		Signature:        receiptSig,
	}

	return muts, receipt, nil
}

// HandleSrcLockForward implements the destination/relay side of the
// originator's collect trigger: a node that still has requestID open
// as an OpenTransaction is merely forwarding the reveal on toward the
// next hop; a node instead holding requestID as a PendingCollect is
// the destination, and now holds both halves of the hash lock, so it
// queues the first real CollectSendFundsOp backward toward the
// friend that originally sent it the request (spec §4.4 "originator
// sends CollectSendFunds upstream, unlocking funds hop-by-hop" — the
// literal CollectSendFundsOp traffic starts here and is mirrored
// backward hop by hop exactly like Response and Cancel).
func HandleSrcLockForward(state *FunderState, requestID creditid.Uid, srcPlainLock hashlock.PlainLock) ([]FunderMutation, *Outgoing, error) {
	if open, ok := state.OpenTransactions[requestID]; ok {
		if _, err := state.RequireFriend(open.NextFriend); err != nil {
			return nil, nil, err
		}
		return nil, &Outgoing{
			To: open.NextFriend,
			Message: &creditwire.SrcLockForward{
				RequestID:    requestID,
				SrcPlainLock: srcPlainLock,
			},
		}, nil
	}

	pending, ok := state.PendingCollects[requestID]
	if !ok {
		return nil, nil, ErrUnknownTransaction
	}

	f, err := state.RequireFriend(pending.UpstreamFriend)
	if err != nil {
		return nil, nil, err
	}
	collect := mutualcredit.CollectSendFunds(mutualcredit.CollectSendFundsOp{
		RequestID:     requestID,
		SrcPlainLock:  srcPlainLock,
		DestPlainLock: pending.DestPlainLock,
	})
	f.Pending.PushBackwardsOp(collect)
	f.RequestToken()

	muts := []FunderMutation{{Kind: MutRemovePendingCollect, RequestID: requestID}}
	return muts, nil, nil
}

func cloneIncomingTransactions(m map[hashlock.HashedLock]IncomingTransaction) map[hashlock.HashedLock]IncomingTransaction {
	out := make(map[hashlock.HashedLock]IncomingTransaction, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
