package mutualcredit

import (
	"github.com/fritznode/creditnode/creditsig"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/u128"
)

// IncomingMessageKind tags the variant of an IncomingMessage.
type IncomingMessageKind int

const (
	IncomingRequest IncomingMessageKind = iota
	IncomingResponse
	IncomingCancel
	IncomingCollect
)

// IncomingMessage is the task handed up to the funder core once an
// operation has been validated against the ledger: a fresh request to
// route/terminate, or a response/cancel/collect to forward upstream
// (spec §4.1).
type IncomingMessage struct {
	Kind IncomingMessageKind

	Request *RequestSendFundsOp

	// PendingTransaction is the ledger's own record of the transaction
	// this response/cancel/collect resolves (present for all three).
	PendingTransaction *PendingTransaction
	Response           *ResponseSendFundsOp
	Cancel             *CancelSendFundsOp
	Collect            *CollectSendFundsOp
}

// ProcessOperationOutput is the result of successfully validating one
// FriendTcOp against the ledger.
type ProcessOperationOutput struct {
	IncomingMessage *IncomingMessage
	Mutations       []McMutation
}

// ProcessOperationsList applies operations in order against
// mutualCredit, aborting and reporting the failing index the moment
// any single operation is invalid (spec §4.1: "any error aborts the
// whole list"). mutualCredit is mutated in place up to the failing
// operation; callers that need all-or-nothing semantics must operate
// on a Clone and only adopt it once every operation has been accepted
// (see OutgoingMc, and tokenchannel's incoming move-token handling).
func ProcessOperationsList(mc *MutualCredit, operations []FriendTcOp) ([]ProcessOperationOutput, error) {
	outputs := make([]ProcessOperationOutput, 0, len(operations))
	for i, op := range operations {
		out, err := ProcessOperation(mc, op)
		if err != nil {
			return nil, &OperationListError{Index: i, Err: err}
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// ProcessOperation validates and applies a single incoming operation.
func ProcessOperation(mc *MutualCredit, op FriendTcOp) (ProcessOperationOutput, error) {
	switch op.Kind {
	case OpKindEnableRequests:
		return processEnableRequests(mc)
	case OpKindDisableRequests:
		return processDisableRequests(mc)
	case OpKindSetRemoteMaxDebt:
		return processSetRemoteMaxDebt(mc, op.SetRemoteMaxDebt)
	case OpKindRequestSendFunds:
		return processRequestSendFunds(mc, *op.RequestSendFunds)
	case OpKindResponseSendFunds:
		return processResponseSendFunds(mc, *op.ResponseSendFunds)
	case OpKindCancelSendFunds:
		return processCancelSendFunds(mc, *op.CancelSendFunds)
	case OpKindCollectSendFunds:
		return processCollectSendFunds(mc, *op.CollectSendFunds)
	}
	panic("mutualcredit: unknown FriendTcOp kind")
}

func processEnableRequests(mc *MutualCredit) (ProcessOperationOutput, error) {
	m := McMutation{Kind: MutSetRemoteRequestsStatus, RequestsStatus: StatusOpen}
	mc.Mutate(m)
	return ProcessOperationOutput{Mutations: []McMutation{m}}, nil
}

func processDisableRequests(mc *MutualCredit) (ProcessOperationOutput, error) {
	if mc.requestsStatus.Remote == StatusClosed {
		return ProcessOperationOutput{}, ErrRequestsAlreadyDisabled
	}
	m := McMutation{Kind: MutSetRemoteRequestsStatus, RequestsStatus: StatusClosed}
	mc.Mutate(m)
	return ProcessOperationOutput{Mutations: []McMutation{m}}, nil
}

// processSetRemoteMaxDebt mirrors the remote's view of how much we may
// owe them into our own local_max_debt. Per the resolved Open Question
// in SPEC_FULL.md, a value lower than the currently frozen local
// pending debt is accepted without complaint: only the MAX_FUNDER_DEBT
// ceiling is enforced here.
func processSetRemoteMaxDebt(mc *MutualCredit, proposed u128.Uint128) (ProcessOperationOutput, error) {
	if proposed.Cmp(MaxFunderDebt) > 0 {
		return ProcessOperationOutput{}, ErrRemoteMaxDebtTooLarge
	}
	m := McMutation{Kind: MutSetLocalMaxDebt, Amount: proposed}
	mc.Mutate(m)
	return ProcessOperationOutput{Mutations: []McMutation{m}}, nil
}

func processRequestSendFunds(mc *MutualCredit, req RequestSendFundsOp) (ProcessOperationOutput, error) {
	if !req.Route.IsValid() {
		return ProcessOperationOutput{}, ErrInvalidRoute
	}
	if req.DestPayment.Cmp(req.TotalDestPayment) > 0 {
		return ProcessOperationOutput{}, ErrDestPaymentExceedsTotal
	}
	if _, ok := req.Route.FindPkPair(mc.idents.Remote, mc.idents.Local); !ok {
		return ProcessOperationOutput{}, ErrPkPairNotInRoute
	}
	if !mc.requestsStatus.Local.IsOpen() {
		return ProcessOperationOutput{}, ErrLocalRequestsClosed
	}

	ownFreeze, err := req.DestPayment.Add(req.LeftFees)
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}

	newRemotePendingDebt, err := mc.balance.RemotePendingDebt.Add(ownFreeze)
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}

	sum, err := mc.balance.Balance.AddUnsigned(newRemotePendingDebt)
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}
	if sum.CmpUnsigned(mc.balance.RemoteMaxDebt) > 0 {
		return ProcessOperationOutput{}, ErrInsufficientTrust
	}

	if _, exists := mc.pendingTransactions.Remote[req.RequestID]; exists {
		return ProcessOperationOutput{}, ErrRequestAlreadyExists
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
	m := McMutation{Kind: MutInsertRemotePendingTransaction, PendingTrans: pending}
	mc.Mutate(m)
	mutations = append(mutations, m)

	m = McMutation{Kind: MutSetRemotePendingDebt, Amount: newRemotePendingDebt}
	mc.Mutate(m)
	mutations = append(mutations, m)

	return ProcessOperationOutput{
		IncomingMessage: &IncomingMessage{Kind: IncomingRequest, Request: &req},
		Mutations:       mutations,
	}, nil
}

func processResponseSendFunds(mc *MutualCredit, resp ResponseSendFundsOp) (ProcessOperationOutput, error) {
	pending, ok := mc.pendingTransactions.Local[resp.RequestID]
	if !ok {
		return ProcessOperationOutput{}, ErrRequestDoesNotExist
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
		return ProcessOperationOutput{}, ErrInvalidResponseSignature
	}

	if pending.Stage.Kind != StageRequest {
		return ProcessOperationOutput{}, ErrNotExpectingResponse
	}

	stage := TransactionStage{Kind: StageResponse, DestHashedLock: resp.DestHashedLock}
	m := McMutation{Kind: MutSetLocalPendingTransactionStage, RequestID: resp.RequestID, Stage: stage}
	mc.Mutate(m)

	return ProcessOperationOutput{
		IncomingMessage: &IncomingMessage{
			Kind:               IncomingResponse,
			PendingTransaction: &pending,
			Response:           &resp,
		},
		Mutations: []McMutation{m},
	}, nil
}

func processCancelSendFunds(mc *MutualCredit, cancel CancelSendFundsOp) (ProcessOperationOutput, error) {
	pending, ok := mc.pendingTransactions.Local[cancel.RequestID]
	if !ok {
		return ProcessOperationOutput{}, ErrRequestDoesNotExist
	}

	var mutations []McMutation
	m := McMutation{Kind: MutRemoveLocalPendingTransaction, RequestID: cancel.RequestID}
	mc.Mutate(m)
	mutations = append(mutations, m)

	freeze, err := pending.FreezeCredits()
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}
	newLocalPendingDebt, err := mc.balance.LocalPendingDebt.Sub(freeze)
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}
	m = McMutation{Kind: MutSetLocalPendingDebt, Amount: newLocalPendingDebt}
	mc.Mutate(m)
	mutations = append(mutations, m)

	return ProcessOperationOutput{
		IncomingMessage: &IncomingMessage{
			Kind:               IncomingCancel,
			PendingTransaction: &pending,
			Cancel:             &cancel,
		},
		Mutations: mutations,
	}, nil
}

func processCollectSendFunds(mc *MutualCredit, collect CollectSendFundsOp) (ProcessOperationOutput, error) {
	pending, ok := mc.pendingTransactions.Local[collect.RequestID]
	if !ok {
		return ProcessOperationOutput{}, ErrRequestDoesNotExist
	}
	if pending.Stage.Kind != StageResponse {
		return ProcessOperationOutput{}, ErrNotExpectingCollect
	}
	destHashedLock := pending.Stage.DestHashedLock

	if collect.SrcPlainLock.Hash() != pending.SrcHashedLock {
		return ProcessOperationOutput{}, ErrInvalidSrcPlainLock
	}
	if collect.DestPlainLock.Hash() != destHashedLock {
		return ProcessOperationOutput{}, ErrInvalidDestPlainLock
	}

	freeze, err := pending.FreezeCredits()
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}

	var mutations []McMutation
	m := McMutation{Kind: MutRemoveLocalPendingTransaction, RequestID: collect.RequestID}
	mc.Mutate(m)
	mutations = append(mutations, m)

	newLocalPendingDebt, err := mc.balance.LocalPendingDebt.Sub(freeze)
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}
	m = McMutation{Kind: MutSetLocalPendingDebt, Amount: newLocalPendingDebt}
	mc.Mutate(m)
	mutations = append(mutations, m)

	newBalance, err := mc.balance.Balance.SubUnsigned(freeze)
	if err != nil {
		return ProcessOperationOutput{}, ErrCreditsCalcOverflow
	}
	m = McMutation{Kind: MutSetBalance, Balance: newBalance}
	mc.Mutate(m)
	mutations = append(mutations, m)

	return ProcessOperationOutput{
		IncomingMessage: &IncomingMessage{
			Kind:               IncomingCollect,
			PendingTransaction: &pending,
			Collect:            &collect,
		},
		Mutations: mutations,
	}, nil
}
