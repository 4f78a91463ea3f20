package tokenchannel

import (
	"encoding/binary"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/u128"
)

// hashOperations folds a batch of operations into one hash so the
// move-token signature buffer doesn't need the full wire encoding;
// the request id alone is enough to bind each operation to the batch
// because request ids are unique per pending transaction.
func hashOperations(ops []mutualcredit.FriendTcOp) creditid.HashResult {
	parts := make([][]byte, 0, 2*len(ops)+1)
	parts = append(parts, []byte("OPS"))
	for _, op := range ops {
		var kind [4]byte
		binary.BigEndian.PutUint32(kind[:], uint32(op.Kind))
		parts = append(parts, kind[:])

		switch op.Kind {
		case mutualcredit.OpKindSetRemoteMaxDebt:
			b := op.SetRemoteMaxDebt.Bytes16()
			parts = append(parts, b[:])
		case mutualcredit.OpKindRequestSendFunds:
			id := op.RequestSendFunds.RequestID
			parts = append(parts, id[:])
		case mutualcredit.OpKindResponseSendFunds:
			id := op.ResponseSendFunds.RequestID
			parts = append(parts, id[:])
		case mutualcredit.OpKindCancelSendFunds:
			id := op.CancelSendFunds.RequestID
			parts = append(parts, id[:])
		case mutualcredit.OpKindCollectSendFunds:
			id := op.CollectSendFunds.RequestID
			parts = append(parts, id[:])
		}
	}
	return creditid.H(parts...)
}

// MoveTokenBufferParams bundles the fields a MoveToken's new_token
// signature covers.
type MoveTokenBufferParams struct {
	Operations           []mutualcredit.FriendTcOp
	OldToken             creditid.Signature
	InconsistencyCounter uint64
	MoveTokenCounter     u128.Uint128
	Balance              u128.Int128
	LocalPendingDebt     u128.Uint128
	RemotePendingDebt    u128.Uint128
	RandNonce            creditid.RandNonce
}

// MoveTokenBuffer builds the buffer the identity service signs to
// produce a MoveToken's new_token, binding every claimed post-batch
// field of spec §4.2 into one hash.
func MoveTokenBuffer(p MoveTokenBufferParams) creditid.HashResult {
	var icBuf [8]byte
	binary.BigEndian.PutUint64(icBuf[:], p.InconsistencyCounter)
	mtc := p.MoveTokenCounter.Bytes16()
	bal := p.Balance.Bytes16()
	lpd := p.LocalPendingDebt.Bytes16()
	rpd := p.RemotePendingDebt.Bytes16()
	opsHash := hashOperations(p.Operations)

	return creditid.H(
		[]byte("MOVE_TOKEN"),
		opsHash[:],
		p.OldToken[:],
		icBuf[:],
		mtc[:],
		bal[:],
		lpd[:],
		rpd[:],
		p.RandNonce[:],
	)
}
