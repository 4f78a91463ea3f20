package creditwire

import (
	"io"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/u128"
)

// MoveToken is the append-only signed log entry a token channel
// exchanges on every batch: a new set of operations plus the claimed
// post-batch ledger state, chained to the previous token via
// OldToken (spec §4.2).
type MoveToken struct {
	Operations        []mutualcredit.FriendTcOp
	OldToken          creditid.Signature
	InconsistencyCounter uint64
	MoveTokenCounter  u128.Uint128
	Balance           u128.Int128
	LocalPendingDebt  u128.Uint128
	RemotePendingDebt u128.Uint128
	RandNonce         creditid.RandNonce
	NewToken          creditid.Signature
}

var _ Message = (*MoveToken)(nil)

func (m *MoveToken) MsgType() MessageType { return MsgMoveToken }

func (m *MoveToken) Encode(w io.Writer) error {
	if err := writeOperations(w, m.Operations); err != nil {
		return err
	}
	return writeElements(w,
		m.OldToken,
		m.InconsistencyCounter,
		m.MoveTokenCounter,
		m.Balance,
		m.LocalPendingDebt,
		m.RemotePendingDebt,
		m.RandNonce,
		m.NewToken,
	)
}

func (m *MoveToken) Decode(r io.Reader) error {
	ops, err := readOperations(r)
	if err != nil {
		return err
	}
	m.Operations = ops
	return readElements(r,
		&m.OldToken,
		&m.InconsistencyCounter,
		&m.MoveTokenCounter,
		&m.Balance,
		&m.LocalPendingDebt,
		&m.RemotePendingDebt,
		&m.RandNonce,
		&m.NewToken,
	)
}

// MoveTokenRequest wraps a MoveToken with the sender's token_wanted
// flag, requesting the other side hand the token back once it's done
// appending its own batch (spec §4.2/§4.3).
type MoveTokenRequest struct {
	FriendMoveToken MoveToken
	TokenWanted     bool
}

var _ Message = (*MoveTokenRequest)(nil)

func (m *MoveTokenRequest) MsgType() MessageType { return MsgMoveTokenRequest }

func (m *MoveTokenRequest) Encode(w io.Writer) error {
	if err := m.FriendMoveToken.Encode(w); err != nil {
		return err
	}
	return writeElement(w, m.TokenWanted)
}

func (m *MoveTokenRequest) Decode(r io.Reader) error {
	if err := m.FriendMoveToken.Decode(r); err != nil {
		return err
	}
	return readElement(r, &m.TokenWanted)
}
