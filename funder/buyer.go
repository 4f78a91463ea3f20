package funder

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditsig"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// CreatePayment implements CreatePayment (spec §4.4 Buyer flow):
// begins a fresh Payment in its NewTransactions stage, with no
// transactions allocated yet.
func CreatePayment(state *FunderState, paymentID creditid.PaymentID, invoiceID creditid.InvoiceID, total u128.Uint128, destPk creditid.PublicKey) ([]FunderMutation, error) {
	if _, exists := state.Payments[paymentID]; exists {
		return nil, ErrPaymentAlreadyExists
	}
	p := &Payment{
		PaymentID:        paymentID,
		InvoiceID:        invoiceID,
		TotalDestPayment: total,
		DestPublicKey:    destPk,
		Stage:            PaymentNewTransactions,
	}
	return []FunderMutation{{Kind: MutPutPayment, PaymentID: paymentID, PaymentVal: p}}, nil
}

// CreateTransaction implements CreateTransaction (spec §4.4): allocates
// a freeze for one route/hop split of paymentID by queueing a
// RequestSendFunds onto the first hop's pending user-requests, and
// records the OpenTransaction this node must correlate the eventual
// Response/Cancel against. The request's src_hashed_lock is derived
// from a freshly minted PlainLock only this node (the originator)
// holds — the prerequisite for the CollectSendFunds it will build once
// the matching preimage reveal arrives back (spec §4.1 hash lock).
func CreateTransaction(state *FunderState, paymentID creditid.PaymentID, requestID creditid.Uid, hops []creditid.PublicKey, destPayment, leftFees u128.Uint128) ([]FunderMutation, error) {
	payment, ok := state.Payments[paymentID]
	if !ok {
		return nil, ErrUnknownPayment
	}
	if payment.Stage != PaymentNewTransactions && payment.Stage != PaymentInProgress {
		return nil, ErrPaymentWrongStage
	}
	if _, exists := state.OpenTransactions[requestID]; exists {
		return nil, ErrUnknownTransaction
	}

	r := route.Route{PublicKeys: hops}
	if !r.IsValid() || !r.IsOrigin(state.LocalPublicKey) {
		return nil, mutualcredit.ErrInvalidRoute
	}
	firstHop, _ := r.NextHop(state.LocalPublicKey)

	f, err := state.RequireFriend(firstHop)
	if err != nil {
		return nil, err
	}

	srcPlainLock, err := hashlock.NewPlainLock()
	if err != nil {
		return nil, err
	}

	req := mutualcredit.RequestSendFundsOp{
		RequestID:        requestID,
		Route:            r,
		DestPayment:      destPayment,
		TotalDestPayment: payment.TotalDestPayment,
		LeftFees:         leftFees,
		SrcHashedLock:    srcPlainLock.Hash(),
		InvoiceID:        payment.InvoiceID,
	}
	f.Pending.PushUserRequest(mutualcredit.RequestSendFunds(req))
	f.RequestToken()

	open := &OpenTransaction{
		RequestID:        requestID,
		Route:            r,
		DestPayment:      destPayment,
		TotalDestPayment: payment.TotalDestPayment,
		LeftFees:         leftFees,
		SrcHashedLock:    req.SrcHashedLock,
		InvoiceID:        payment.InvoiceID,
		NextFriend:       firstHop,
		Origin:           OriginLocal,
		PaymentID:        paymentID,
		SrcPlainLock:     srcPlainLock,
	}

	updated := *payment
	updated.Stage = PaymentInProgress
	updated.NumOpenTransactions++

	muts := []FunderMutation{
		{Kind: MutPutOpenTransaction, RequestID: requestID, OpenTransact: open},
		{Kind: MutPutPayment, PaymentID: paymentID, PaymentVal: &updated},
	}
	return muts, nil
}

// HandleIncomingResponse implements the originator's side of "Any
// ResponseSendFunds arriving at the originator flips its local pending
// to Response stage" (spec §4.4): records nothing further by itself
// (the ledger already advanced the pending stage) and only looks up
// the OpenTransaction for requestID. core.go does not call it: its
// routeIncomingResponse calls TriggerCollect directly for a
// transaction with Origin == OriginLocal.
func HandleIncomingResponse(state *FunderState, requestID creditid.Uid) (*OpenTransaction, error) {
	open, ok := state.OpenTransactions[requestID]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	return open, nil
}

// TriggerCollect implements the originator's half of the collect step:
// once a ResponseSendFunds for requestID has reached the originator
// (flipping its local pending to Response stage at the ledger level),
// the originator reveals its own src_plain_lock forward toward the
// first hop (spec §4.4 "originator sends CollectSendFunds upstream,
// unlocking funds hop-by-hop" — this reveal is what sets that
// unlocking in motion; the literal CollectSendFundsOp traffic starts
// at the destination once it receives this forward, see
// HandleSrcLockForward, and travels backward hop-by-hop from there).
func TriggerCollect(state *FunderState, requestID creditid.Uid) (*Outgoing, error) {
	open, ok := state.OpenTransactions[requestID]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	if open.Origin != OriginLocal {
		return nil, ErrUnknownTransaction
	}

	if _, err := state.RequireFriend(open.NextFriend); err != nil {
		return nil, err
	}

	return &Outgoing{
		To: open.NextFriend,
		Message: &creditwire.SrcLockForward{
			RequestID:    requestID,
			SrcPlainLock: open.SrcPlainLock,
		},
	}, nil
}

// HandleIncomingCollect implements the mirroring step every
// intermediate hop performs on a CollectSendFunds arriving from
// downstream, and the terminal bookkeeping the true originator
// performs once its own edge's freeze is released: if this node only
// forwarded requestID, the same op is mirrored backward onto the
// friend the original request arrived from (spec §4.4 "On
// Cancel/Response/Collect from downstream, correlate by request_id
// and enqueue the mirror op on the upstream friend's backwards
// queue"); if this node originated it, there is nothing further
// upstream to mirror to — the transaction and, once every transaction
// of the owning Payment has cleared, the Payment itself are closed
// out.
func HandleIncomingCollect(state *FunderState, requestID creditid.Uid, op mutualcredit.CollectSendFundsOp) ([]FunderMutation, error) {
	open, ok := state.OpenTransactions[requestID]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	muts := []FunderMutation{{Kind: MutRemoveOpenTransaction, RequestID: requestID}}

	if open.Origin == OriginForwarded {
		f, err := state.RequireFriend(open.UpstreamFriend)
		if err != nil {
			return nil, err
		}
		f.Pending.PushBackwardsOp(mutualcredit.CollectSendFunds(op))
		f.RequestToken()
		return muts, nil
	}

	payment, ok := state.Payments[open.PaymentID]
	if !ok {
		return muts, nil
	}
	updated := *payment
	if updated.NumOpenTransactions > 0 {
		updated.NumOpenTransactions--
	}
	muts = append(muts, FunderMutation{Kind: MutPutPayment, PaymentID: open.PaymentID, PaymentVal: &updated})
	return muts, nil
}

// CompletePaymentWithReceipt implements "On receiving a full valid
// receipt ..., Payment moves to Success" (spec §4.4): verifies the
// receipt's signature against the payment's destination, then stores
// it and advances the InProgress Payment to Success, whether or not
// its open transactions have collected yet.
func CompletePaymentWithReceipt(state *FunderState, paymentID creditid.PaymentID, receipt Receipt) ([]FunderMutation, error) {
	payment, ok := state.Payments[paymentID]
	if !ok {
		return nil, ErrUnknownPayment
	}
	if payment.Stage != PaymentInProgress {
		return nil, ErrPaymentWrongStage
	}

	buf := creditsig.ReceiptBuffer(receipt.ResponseHash, receipt.InvoiceID, receipt.TotalDestPayment)
	if !verifyReceiptSignature(buf, payment, receipt) {
		return nil, ErrInvalidReceiptSignature
	}

	updated := *payment
	updated.Stage = PaymentSuccess
	updated.Receipt = &receipt
	return []FunderMutation{{Kind: MutPutPayment, PaymentID: paymentID, PaymentVal: &updated}}, nil
}

// CancelTransaction drops requestID from the open-transaction table
// once a CancelSendFunds resolves it, decrementing the owning
// payment's open-transaction counter and flipping it Canceled once
// none remain (spec §3 Payment lifecycle).
func CancelTransaction(state *FunderState, requestID creditid.Uid) ([]FunderMutation, error) {
	open, ok := state.OpenTransactions[requestID]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	muts := []FunderMutation{{Kind: MutRemoveOpenTransaction, RequestID: requestID}}

	if open.Origin != OriginLocal {
		return muts, nil
	}
	payment, ok := state.Payments[open.PaymentID]
	if !ok {
		return muts, nil
	}
	updated := *payment
	if updated.NumOpenTransactions > 0 {
		updated.NumOpenTransactions--
	}
	if updated.Stage == PaymentInProgress && updated.NumOpenTransactions == 0 {
		updated.Stage = PaymentCanceled
	}
	muts = append(muts, FunderMutation{Kind: MutPutPayment, PaymentID: open.PaymentID, PaymentVal: &updated})
	return muts, nil
}

// RequestClosePayment implements RequestClosePayment: reports the
// Payment's current terminal stage without mutating it, letting the
// App server poll for Success/Canceled (spec §4.4).
func RequestClosePayment(state *FunderState, paymentID creditid.PaymentID) (*Payment, error) {
	payment, ok := state.Payments[paymentID]
	if !ok {
		return nil, ErrUnknownPayment
	}
	return payment, nil
}

// AckClosePayment implements AckClosePayment(ack_uid): transitions
// Success -> AfterSuccessAck (spec §3), removing the Payment outright
// once every transaction it allocated has already resolved.
func AckClosePayment(state *FunderState, paymentID creditid.PaymentID, ackUid creditid.Uid) ([]FunderMutation, error) {
	payment, ok := state.Payments[paymentID]
	if !ok {
		return nil, ErrUnknownPayment
	}
	if payment.Stage != PaymentSuccess && payment.Stage != PaymentCanceled {
		return nil, ErrPaymentWrongStage
	}

	if payment.NumOpenTransactions == 0 {
		return []FunderMutation{{Kind: MutRemovePayment, PaymentID: paymentID}}, nil
	}

	updated := *payment
	updated.Stage = PaymentAfterSuccessAck
	updated.AckUid = &ackUid
	return []FunderMutation{{Kind: MutPutPayment, PaymentID: paymentID, PaymentVal: &updated}}, nil
}

// verifyReceiptSignature checks the receipt's signature against the
// payment's known destination public key, reconstructing the same
// receipt_buf creditsig.ReceiptBuffer produces at the seller.
func verifyReceiptSignature(buf creditid.HashResult, payment *Payment, receipt Receipt) bool {
	return identity.VerifySignature(buf[:], payment.DestPublicKey, receipt.Signature)
}
