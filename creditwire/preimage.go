package creditwire

import (
	"io"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/hashlock"
)

// SrcLockForward carries the originator's own src_plain_lock forward,
// hop by hop, toward the destination once enough ResponseSendFunds
// have made their way back to the originator (spec §4.4: "originator
// sends CollectSendFunds upstream, unlocking funds hop-by-hop" — the
// trigger for that unlocking is the originator choosing to reveal its
// half of the hash lock; every CollectSendFundsOp actually queued onto
// a token channel still travels the same backward direction Response
// and Cancel do, mirrored hop by hop, because only the destination can
// combine both plain locks and build the first one). It travels
// outside the signed FriendTcOp batch: revealing a preimage moves no
// credit by itself and needs no token-channel signature, only
// delivery, the same way RelaysUpdate and KeepAlive carry
// non-balance-affecting information.
type SrcLockForward struct {
	RequestID    creditid.Uid
	SrcPlainLock hashlock.PlainLock
}

var _ Message = (*SrcLockForward)(nil)

func (m *SrcLockForward) MsgType() MessageType { return MsgSrcLockForward }

func (m *SrcLockForward) Encode(w io.Writer) error {
	return writeElements(w, m.RequestID, m.SrcPlainLock)
}

func (m *SrcLockForward) Decode(r io.Reader) error {
	return readElements(r, &m.RequestID, &m.SrcPlainLock)
}
