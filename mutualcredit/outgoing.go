package mutualcredit

import (
	"github.com/fritznode/creditnode/creditsig"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/u128"
)

// OutgoingMc batches operations we intend to send to a friend. It
// operates on a private clone of the ledger so a whole batch can be
// validated and either committed in one step (by a caller adopting the
// resulting MutualCredit) or dropped wholesale if anything later in
// the batch fails to queue (spec §4.1 "Why this shape").
type OutgoingMc struct {
	mutualCredit *MutualCredit
}

// NewOutgoingMc starts a fresh batch cloned from mc.
func NewOutgoingMc(mc *MutualCredit) *OutgoingMc {
	return &OutgoingMc{mutualCredit: mc.Clone()}
}

// MutualCredit returns the batch's working ledger, reflecting every
// operation queued so far. Adopt this as the channel's new ledger only
// once the whole batch (and its token-channel signature) is final.
func (o *OutgoingMc) MutualCredit() *MutualCredit {
	return o.mutualCredit
}

// QueueOperation validates and applies one outgoing operation against
// the batch's working ledger, the mirror image of ProcessOperation:
// every check is from the local side's perspective instead of the
// remote's.
func (o *OutgoingMc) QueueOperation(op FriendTcOp) ([]McMutation, error) {
	switch op.Kind {
	case OpKindEnableRequests:
		return o.queueEnableRequests()
	case OpKindDisableRequests:
		return o.queueDisableRequests()
	case OpKindSetRemoteMaxDebt:
		return o.queueSetRemoteMaxDebt(op.SetRemoteMaxDebt)
	case OpKindRequestSendFunds:
		return o.queueRequestSendFunds(*op.RequestSendFunds)
	case OpKindResponseSendFunds:
		return o.queueResponseSendFunds(*op.ResponseSendFunds)
	case OpKindCancelSendFunds:
		return o.queueCancelSendFunds(*op.CancelSendFunds)
	case OpKindCollectSendFunds:
		return o.queueCollectSendFunds(*op.CollectSendFunds)
	}
	panic("mutualcredit: unknown FriendTcOp kind")
}

func (o *OutgoingMc) queueEnableRequests() ([]McMutation, error) {
	m := McMutation{Kind: MutSetLocalRequestsStatus, RequestsStatus: StatusOpen}
	o.mutualCredit.Mutate(m)
	return []McMutation{m}, nil
}

func (o *OutgoingMc) queueDisableRequests() ([]McMutation, error) {
	m := McMutation{Kind: MutSetLocalRequestsStatus, RequestsStatus: StatusClosed}
	o.mutualCredit.Mutate(m)
	return []McMutation{m}, nil
}

func (o *OutgoingMc) queueSetRemoteMaxDebt(proposed u128.Uint128) ([]McMutation, error) {
	if proposed.Cmp(MaxFunderDebt) > 0 {
		return nil, ErrRemoteMaxDebtTooLarge
	}
	m := McMutation{Kind: MutSetRemoteMaxDebt, Amount: proposed}
	o.mutualCredit.Mutate(m)
	return []McMutation{m}, nil
}

func (o *OutgoingMc) queueRequestSendFunds(req RequestSendFundsOp) ([]McMutation, error) {
	mc := o.mutualCredit

	if !req.Route.IsValid() {
		return nil, ErrInvalidRoute
	}
	if req.DestPayment.Cmp(req.TotalDestPayment) > 0 {
		return nil, ErrDestPaymentExceedsTotal
	}
	if _, ok := req.Route.FindPkPair(mc.idents.Local, mc.idents.Remote); !ok {
		return nil, ErrPkPairNotInRoute
	}
	if !mc.requestsStatus.Remote.IsOpen() {
		return nil, ErrRemoteRequestsClosed
	}

	ownFreeze, err := req.DestPayment.Add(req.LeftFees)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}

	newLocalPendingDebt, err := mc.balance.LocalPendingDebt.Add(ownFreeze)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}

	diff, err := mc.balance.Balance.SubUnsigned(newLocalPendingDebt)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}
	limit, err := diff.AddUnsigned(mc.balance.LocalMaxDebt)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}
	if limit.Cmp(u128.FromInt64(0)) < 0 {
		return nil, ErrInsufficientTrust
	}

	if _, exists := mc.pendingTransactions.Local[req.RequestID]; exists {
		return nil, ErrRequestAlreadyExists
	}

	pending := PendingTransaction{
		RequestID:        req.RequestID,
		Route:            req.Route,
		DestPayment:      req.DestPayment,
		TotalDestPayment: req.TotalDestPayment,
		LeftFees:         req.LeftFees,
		SrcHashedLock:    req.SrcHashedLock,
		InvoiceID:        req.InvoiceID,
		Stage:            TransactionStage{Kind: StageRequest},
	}

	var mutations []McMutation
	m := McMutation{Kind: MutInsertLocalPendingTransaction, PendingTrans: pending}
	mc.Mutate(m)
	mutations = append(mutations, m)

	m = McMutation{Kind: MutSetLocalPendingDebt, Amount: newLocalPendingDebt}
	mc.Mutate(m)
	mutations = append(mutations, m)

	return mutations, nil
}

func (o *OutgoingMc) queueResponseSendFunds(resp ResponseSendFundsOp) ([]McMutation, error) {
	mc := o.mutualCredit

	pending, ok := mc.pendingTransactions.Remote[resp.RequestID]
	if !ok {
		return nil, ErrRequestDoesNotExist
	}

	destPk := pending.Route.Destination()
	buf := creditsig.ResponseBuffer(creditsig.ResponseParams{
		RequestID:        resp.RequestID,
		DestHashedLock:   resp.DestHashedLock,
		DestPayment:      pending.DestPayment,
		TotalDestPayment: pending.TotalDestPayment,
		InvoiceID:        pending.InvoiceID,
		RandNonce:        resp.RandNonce,
		Route:            pending.Route,
	})
	if !identity.VerifySignature(buf[:], destPk, resp.Signature) {
		return nil, ErrInvalidResponseSignature
	}

	if pending.Stage.Kind != StageRequest {
		return nil, ErrNotExpectingResponse
	}

	stage := TransactionStage{Kind: StageResponse, DestHashedLock: resp.DestHashedLock}
	m := McMutation{Kind: MutSetRemotePendingTransactionStage, RequestID: resp.RequestID, Stage: stage}
	mc.Mutate(m)

	return []McMutation{m}, nil
}

func (o *OutgoingMc) queueCancelSendFunds(cancel CancelSendFundsOp) ([]McMutation, error) {
	mc := o.mutualCredit

	pending, ok := mc.pendingTransactions.Remote[cancel.RequestID]
	if !ok {
		return nil, ErrRequestDoesNotExist
	}

	freeze, err := pending.FreezeCredits()
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}

	var mutations []McMutation
	m := McMutation{Kind: MutRemoveRemotePendingTransaction, RequestID: cancel.RequestID}
	mc.Mutate(m)
	mutations = append(mutations, m)

	newRemotePendingDebt, err := mc.balance.RemotePendingDebt.Sub(freeze)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}
	m = McMutation{Kind: MutSetRemotePendingDebt, Amount: newRemotePendingDebt}
	mc.Mutate(m)
	mutations = append(mutations, m)

	return mutations, nil
}

func (o *OutgoingMc) queueCollectSendFunds(collect CollectSendFundsOp) ([]McMutation, error) {
	mc := o.mutualCredit

	pending, ok := mc.pendingTransactions.Remote[collect.RequestID]
	if !ok {
		return nil, ErrRequestDoesNotExist
	}
	if pending.Stage.Kind != StageResponse {
		return nil, ErrNotExpectingCollect
	}
	destHashedLock := pending.Stage.DestHashedLock

	if collect.SrcPlainLock.Hash() != pending.SrcHashedLock {
		return nil, ErrInvalidSrcPlainLock
	}
	if collect.DestPlainLock.Hash() != destHashedLock {
		return nil, ErrInvalidDestPlainLock
	}

	freeze, err := pending.FreezeCredits()
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}

	var mutations []McMutation
	m := McMutation{Kind: MutRemoveRemotePendingTransaction, RequestID: collect.RequestID}
	mc.Mutate(m)
	mutations = append(mutations, m)

	newRemotePendingDebt, err := mc.balance.RemotePendingDebt.Sub(freeze)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}
	m = McMutation{Kind: MutSetRemotePendingDebt, Amount: newRemotePendingDebt}
	mc.Mutate(m)
	mutations = append(mutations, m)

	newBalance, err := mc.balance.Balance.AddUnsigned(freeze)
	if err != nil {
		return nil, ErrCreditsCalcOverflow
	}
	m = McMutation{Kind: MutSetBalance, Balance: newBalance}
	mc.Mutate(m)
	mutations = append(mutations, m)

	return mutations, nil
}
