package mutualcredit

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/u128"
)

// MutationKind tags the variant of a McMutation, the smallest unit of
// change this package ever applies to a ledger. Every processing
// function above Mutate builds a list of these so that the exact same
// effects can be replayed from the durable mutation log (spec §6
// Persistence, §4.5 Report/Mutation stream).
type MutationKind int

const (
	MutSetLocalRequestsStatus MutationKind = iota
	MutSetRemoteRequestsStatus
	MutSetLocalMaxDebt
	MutSetRemoteMaxDebt
	MutSetBalance
	MutSetLocalPendingDebt
	MutSetRemotePendingDebt
	MutInsertLocalPendingTransaction
	MutInsertRemotePendingTransaction
	MutRemoveLocalPendingTransaction
	MutRemoveRemotePendingTransaction
	MutSetLocalPendingTransactionStage
	MutSetRemotePendingTransactionStage
)

// McMutation is a single, pure mutation to a MutualCredit. It is
// produced by the process/queue functions and applied via Mutate; the
// same value is what gets appended to the durable log.
type McMutation struct {
	Kind MutationKind

	RequestsStatus RequestsStatus
	Amount         u128.Uint128
	Balance        u128.Int128
	RequestID      creditid.Uid
	PendingTrans   PendingTransaction
	Stage          TransactionStage
}

// Mutate applies a single mutation in place. It never fails: every
// mutation is produced by code that has already validated the
// transition (process_operation / queue_operation), matching the
// teacher's split between "can this happen" (returns an error) and
// "make it happen" (infallible).
func (mc *MutualCredit) Mutate(m McMutation) {
	switch m.Kind {
	case MutSetLocalRequestsStatus:
		mc.requestsStatus.Local = m.RequestsStatus
	case MutSetRemoteRequestsStatus:
		mc.requestsStatus.Remote = m.RequestsStatus
	case MutSetLocalMaxDebt:
		mc.balance.LocalMaxDebt = m.Amount
	case MutSetRemoteMaxDebt:
		mc.balance.RemoteMaxDebt = m.Amount
	case MutSetBalance:
		mc.balance.Balance = m.Balance
	case MutSetLocalPendingDebt:
		mc.balance.LocalPendingDebt = m.Amount
	case MutSetRemotePendingDebt:
		mc.balance.RemotePendingDebt = m.Amount
	case MutInsertLocalPendingTransaction:
		mc.pendingTransactions.Local[m.PendingTrans.RequestID] = m.PendingTrans
	case MutInsertRemotePendingTransaction:
		mc.pendingTransactions.Remote[m.PendingTrans.RequestID] = m.PendingTrans
	case MutRemoveLocalPendingTransaction:
		delete(mc.pendingTransactions.Local, m.RequestID)
	case MutRemoveRemotePendingTransaction:
		delete(mc.pendingTransactions.Remote, m.RequestID)
	case MutSetLocalPendingTransactionStage:
		t := mc.pendingTransactions.Local[m.RequestID]
		t.Stage = m.Stage
		mc.pendingTransactions.Local[m.RequestID] = t
	case MutSetRemotePendingTransactionStage:
		t := mc.pendingTransactions.Remote[m.RequestID]
		t.Stage = m.Stage
		mc.pendingTransactions.Remote[m.RequestID] = t
	}
}
