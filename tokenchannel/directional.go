package tokenchannel

import (
	"context"
	"errors"
	"reflect"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditsig"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/u128"
)

// MaxOperationsInBatch bounds how many FriendTcOps a single move
// token may carry, keeping one batch inside creditwire's
// MaxMessagePayload.
const MaxOperationsInBatch = 512

// MoveTokenDirectionKind tags which side is holding the token.
type MoveTokenDirectionKind int

const (
	DirectionIncoming MoveTokenDirectionKind = iota
	DirectionOutgoing
)

// MoveTokenDirection is the tagged union spec §4.2 calls
// Incoming(last_move_token) / Outgoing(last_move_token, token_wanted).
type MoveTokenDirection struct {
	Kind     MoveTokenDirectionKind
	Incoming *creditwire.MoveToken
	Outgoing *creditwire.MoveTokenRequest
}

// DirectionalTc layers move-token direction tracking on top of a
// TokenChannel: the full state machine of spec §4.2.
type DirectionalTc struct {
	Direction MoveTokenDirection
	Channel   *TokenChannel
}

// DirectionalMutationKind tags a DirectionalMutation variant.
type DirectionalMutationKind int

const (
	DirMutTc DirectionalMutationKind = iota
	DirMutSetDirectionIncoming
	DirMutSetDirectionOutgoing
	DirMutSetTokenWanted
)

// DirectionalMutation is the persisted-log unit for a DirectionalTc,
// mirroring McMutation's role one layer up.
type DirectionalMutation struct {
	Kind       DirectionalMutationKind
	TcMutation mutualcredit.McMutation
	NewToken   *creditwire.MoveToken
}

var (
	ErrChainInconsistency         = errors.New("tokenchannel: chain inconsistency")
	ErrInvalidSignature           = errors.New("tokenchannel: invalid move token signature")
	ErrInvalidStatedBalance       = errors.New("tokenchannel: stated balance does not match computed balance")
	ErrInvalidInconsistencyCounter = errors.New("tokenchannel: inconsistency counter changed mid-epoch")
	ErrMoveTokenCounterOverflow   = errors.New("tokenchannel: move token counter overflow")
	ErrInvalidMoveTokenCounter    = errors.New("tokenchannel: unexpected move token counter")
)

// InvalidTransactionError wraps a rejected operations-list batch.
type InvalidTransactionError struct {
	Err error
}

func (e *InvalidTransactionError) Error() string { return "tokenchannel: " + e.Err.Error() }
func (e *InvalidTransactionError) Unwrap() error  { return e.Err }

// tokenFromPublicKey builds the non-cryptographic placeholder
// "signature" used only as old_token and new_token of the very first
// move token of a fresh channel (spec §4.2 "Initial token").
func tokenFromPublicKey(pk creditid.PublicKey) creditid.Signature {
	var sig creditid.Signature
	copy(sig[:], pk[:])
	return sig
}

// randNonceFromPublicKey deterministically derives the first move
// token's nonce from the remote's public key.
func randNonceFromPublicKey(pk creditid.PublicKey) creditid.RandNonce {
	h := creditid.H(pk[:])
	var nonce creditid.RandNonce
	copy(nonce[:], h[:len(nonce)])
	return nonce
}

// NewDirectional builds a fresh DirectionalTc between local and
// remote. The first move token is always the same deterministic value
// on both sides; whichever side has the smaller H(public_key) is the
// first sender (spec §4.2), so the other side starts in Incoming
// without ever calling the identity service.
func NewDirectional(ctx context.Context, local, remote creditid.PublicKey, identityClient *identity.Client) (*DirectionalTc, error) {
	channel := New(local, remote, u128.FromInt64(0))

	lower, higher := remote, local
	if creditid.Less(creditid.H(local[:]), creditid.H(remote[:])) {
		lower, higher = local, remote
	}
	bal := channel.State().Balance()
	firstMoveToken := &creditwire.MoveToken{OldToken: tokenFromPublicKey(lower), MoveTokenCounter: u128.FromUint64(0),
		Balance: bal.Balance, LocalPendingDebt: bal.LocalPendingDebt, RemotePendingDebt: bal.RemotePendingDebt,
		RandNonce: randNonceFromPublicKey(higher), NewToken: tokenFromPublicKey(higher)}

	dtc := &DirectionalTc{Channel: channel}
	if lower == local {
		dtc.Direction = MoveTokenDirection{
			Kind: DirectionOutgoing,
			Outgoing: &creditwire.MoveTokenRequest{
				FriendMoveToken: *firstMoveToken,
				TokenWanted:     false,
			},
		}
	} else {
		dtc.Direction = MoveTokenDirection{Kind: DirectionIncoming, Incoming: firstMoveToken}
	}
	return dtc, nil
}

func signedMoveToken(ctx context.Context, identityClient *identity.Client,
	operations []mutualcredit.FriendTcOp, oldToken creditid.Signature,
	inconsistencyCounter uint64, moveTokenCounter u128.Uint128,
	balance mutualcredit.Balance, randNonce creditid.RandNonce) (*creditwire.MoveToken, error) {

	buf := MoveTokenBuffer(MoveTokenBufferParams{
		Operations:           operations,
		OldToken:             oldToken,
		InconsistencyCounter: inconsistencyCounter,
		MoveTokenCounter:     moveTokenCounter,
		Balance:              balance.Balance,
		LocalPendingDebt:     balance.LocalPendingDebt,
		RemotePendingDebt:    balance.RemotePendingDebt,
		RandNonce:            randNonce,
	})
	sig, err := identityClient.RequestSignature(ctx, buf[:])
	if err != nil {
		return nil, err
	}

	return &creditwire.MoveToken{
		Operations:           operations,
		OldToken:             oldToken,
		InconsistencyCounter: inconsistencyCounter,
		MoveTokenCounter:     moveTokenCounter,
		Balance:              balance.Balance,
		LocalPendingDebt:     balance.LocalPendingDebt,
		RemotePendingDebt:    balance.RemotePendingDebt,
		RandNonce:            randNonce,
		NewToken:             sig,
	}, nil
}

// CreateFriendMoveToken builds the next outgoing move token, chained
// from the current Incoming token, carrying operations. Returns nil
// if the channel is currently Outgoing (we don't hold the token).
func (d *DirectionalTc) CreateFriendMoveToken(ctx context.Context, operations []mutualcredit.FriendTcOp,
	randNonce creditid.RandNonce, identityClient *identity.Client) (*creditwire.MoveToken, error) {

	if d.Direction.Kind != DirectionIncoming {
		return nil, nil
	}
	last := d.Direction.Incoming

	nextCounter, err := last.MoveTokenCounter.Add(u128.FromUint64(1))
	if err != nil {
		return nil, ErrMoveTokenCounterOverflow
	}

	return signedMoveToken(ctx, identityClient, operations, last.NewToken,
		last.InconsistencyCounter, nextCounter, d.Channel.State().Balance(), randNonce)
}

// NewFromResetTerms rebuilds a channel once both sides' reset terms
// have been confirmed to agree, re-deriving which side holds the
// token with the same H(public_key) first-sender rule a brand-new
// channel uses, seeded from the agreed counter and balance instead of
// zero (spec §4.2/§4.3's channel restart).
func NewFromResetTerms(ctx context.Context, local, remote creditid.PublicKey, terms ResetTerms, identityClient *identity.Client) (*DirectionalTc, error) {
	channel := New(local, remote, terms.BalanceForReset)

	firstMoveToken, err := signedMoveToken(ctx, identityClient, nil,
		tokenFromPublicKey(local), terms.InconsistencyCounter, u128.FromUint64(0),
		channel.State().Balance(), randNonceFromPublicKey(remote))
	if err != nil {
		return nil, err
	}

	dtc := &DirectionalTc{Channel: channel}
	if creditid.Less(creditid.H(local[:]), creditid.H(remote[:])) {
		dtc.Direction = MoveTokenDirection{
			Kind: DirectionOutgoing,
			Outgoing: &creditwire.MoveTokenRequest{
				FriendMoveToken: *firstMoveToken,
				TokenWanted:     false,
			},
		}
	} else {
		dtc.Direction = MoveTokenDirection{Kind: DirectionIncoming, Incoming: firstMoveToken}
	}
	return dtc, nil
}

// RemoteMaxDebt is the credit ceiling we've granted the remote side.
func (d *DirectionalTc) RemoteMaxDebt() u128.Uint128 {
	return d.Channel.State().Balance().RemoteMaxDebt
}

// GetNewToken returns the signature covering the most recent move,
// regardless of which direction currently holds the token.
func (d *DirectionalTc) GetNewToken() creditid.Signature {
	if d.Direction.Kind == DirectionIncoming {
		return d.Direction.Incoming.NewToken
	}
	return d.Direction.Outgoing.FriendMoveToken.NewToken
}

func (d *DirectionalTc) lastMoveToken() *creditwire.MoveToken {
	if d.Direction.Kind == DirectionIncoming {
		return d.Direction.Incoming
	}
	return &d.Direction.Outgoing.FriendMoveToken
}

// GetInconsistencyCounter returns the current epoch counter.
func (d *DirectionalTc) GetInconsistencyCounter() uint64 {
	return d.lastMoveToken().InconsistencyCounter
}

// GetMoveTokenCounter returns the current move counter.
func (d *DirectionalTc) GetMoveTokenCounter() u128.Uint128 {
	return d.lastMoveToken().MoveTokenCounter
}

// calcChannelResetToken signs the reset buffer for this channel's
// current balance_for_reset.
func calcChannelResetToken(ctx context.Context, newToken creditid.Signature, balanceForReset u128.Int128, identityClient *identity.Client) (creditid.Signature, error) {
	buf := creditsig.ResetBuffer(newToken, balanceForReset)
	return identityClient.RequestSignature(ctx, buf[:])
}

// ResetTerms is what a node Inconsistent channel proposes: the token
// the restarted channel should converge to, plus the epoch counter
// and balance it carries (spec §4.2/§4.3).
type ResetTerms struct {
	ResetToken           creditid.Signature
	InconsistencyCounter uint64
	BalanceForReset      u128.Int128
}

// GetResetTerms computes the local side's proposed reset terms,
// advancing the inconsistency counter by one past its last agreed
// value so a subsequent reset can't replay these terms.
func (d *DirectionalTc) GetResetTerms(ctx context.Context, identityClient *identity.Client) (ResetTerms, error) {
	balanceForReset := d.Channel.BalanceForReset()
	resetToken, err := calcChannelResetToken(ctx, d.GetNewToken(), balanceForReset, identityClient)
	if err != nil {
		return ResetTerms{}, err
	}
	return ResetTerms{
		ResetToken:           resetToken,
		InconsistencyCounter: d.GetInconsistencyCounter() + 1,
		BalanceForReset:      balanceForReset,
	}, nil
}

// IsOutgoing reports whether our last move token is still outstanding,
// i.e. the remote side currently holds the token.
func (d *DirectionalTc) IsOutgoing() bool {
	return d.Direction.Kind == DirectionOutgoing
}

// Mutate applies one DirectionalMutation, the replay unit creditdb
// persists per move.
func (d *DirectionalTc) Mutate(m DirectionalMutation) {
	switch m.Kind {
	case DirMutTc:
		d.Channel.mc.Mutate(m.TcMutation)
	case DirMutSetDirectionIncoming:
		d.Direction = MoveTokenDirection{Kind: DirectionIncoming, Incoming: m.NewToken}
	case DirMutSetDirectionOutgoing:
		d.Direction = MoveTokenDirection{
			Kind: DirectionOutgoing,
			Outgoing: &creditwire.MoveTokenRequest{
				FriendMoveToken: *m.NewToken,
				TokenWanted:     false,
			},
		}
	case DirMutSetTokenWanted:
		if d.Direction.Kind != DirectionOutgoing {
			panic("tokenchannel: SetTokenWanted while direction is Incoming")
		}
		d.Direction.Outgoing.TokenWanted = true
	}
}

// MoveTokenReceived is the result of successfully absorbing an
// incoming move token: every IncomingMessage bubbled up to the
// friend/funder layer, plus the mutation log to persist and replay.
type MoveTokenReceived struct {
	IncomingMessages []mutualcredit.IncomingMessage
	Mutations        []DirectionalMutation
}

// ReceiveMoveTokenOutputKind tags the result of
// SimulateReceiveMoveToken.
type ReceiveMoveTokenOutputKind int

const (
	OutputDuplicate ReceiveMoveTokenOutputKind = iota
	OutputRetransmitOutgoing
	OutputReceived
)

// ReceiveMoveTokenOutput is the tagged result of
// SimulateReceiveMoveToken (spec §4.2's receive algorithm).
type ReceiveMoveTokenOutput struct {
	Kind               ReceiveMoveTokenOutputKind
	RetransmitOutgoing *creditwire.MoveToken
	Received           *MoveTokenReceived
}

// outgoingToIncoming handles the case where we were holding the
// token, Outgoing, and the remote's reply chains onto it.
func (d *DirectionalTc) outgoingToIncoming(oldMoveToken *creditwire.MoveToken, newMoveToken *creditwire.MoveToken) (*ReceiveMoveTokenOutput, error) {
	if newMoveToken.InconsistencyCounter != oldMoveToken.InconsistencyCounter {
		return nil, ErrInvalidInconsistencyCounter
	}

	expected, err := oldMoveToken.MoveTokenCounter.Add(u128.FromUint64(1))
	if err != nil {
		return nil, ErrMoveTokenCounterOverflow
	}
	if newMoveToken.MoveTokenCounter.Cmp(expected) != 0 {
		return nil, ErrInvalidMoveTokenCounter
	}

	clone := d.Channel.Clone()
	outputs, err := mutualcredit.ProcessOperationsList(clone.mc, newMoveToken.Operations)
	if err != nil {
		return nil, &InvalidTransactionError{Err: err}
	}

	// The sender states the balance from its own side, the mirror of ours.
	bal := clone.mc.Balance()
	if bal.Balance.Cmp(newMoveToken.Balance.Neg()) != 0 ||
		bal.LocalPendingDebt.Cmp(newMoveToken.RemotePendingDebt) != 0 ||
		bal.RemotePendingDebt.Cmp(newMoveToken.LocalPendingDebt) != 0 {
		return nil, ErrInvalidStatedBalance
	}

	received := &MoveTokenReceived{}
	for _, out := range outputs {
		if out.IncomingMessage != nil {
			received.IncomingMessages = append(received.IncomingMessages, *out.IncomingMessage)
		}
		for _, tcMut := range out.Mutations {
			received.Mutations = append(received.Mutations, DirectionalMutation{Kind: DirMutTc, TcMutation: tcMut})
		}
	}
	received.Mutations = append(received.Mutations, DirectionalMutation{
		Kind:     DirMutSetDirectionIncoming,
		NewToken: newMoveToken,
	})

	return &ReceiveMoveTokenOutput{Kind: OutputReceived, Received: received}, nil
}

// SimulateReceiveMoveToken runs the receive algorithm of spec §4.2
// without mutating d: callers apply the returned mutations only once
// every other step of handling the message (forwarding, persistence)
// has succeeded.
func (d *DirectionalTc) SimulateReceiveMoveToken(moveTokenMsg *creditwire.MoveToken) (*ReceiveMoveTokenOutput, error) {
	remotePublicKey := d.Channel.State().Idents().Remote
	if !identity.VerifySignature(moveTokenSignedBuffer(moveTokenMsg), remotePublicKey, moveTokenMsg.NewToken) {
		return nil, ErrInvalidSignature
	}

	switch d.Direction.Kind {
	case DirectionIncoming:
		if reflect.DeepEqual(d.Direction.Incoming, moveTokenMsg) {
			return &ReceiveMoveTokenOutput{Kind: OutputDuplicate}, nil
		}
		return nil, ErrChainInconsistency

	case DirectionOutgoing:
		friendMoveToken := &d.Direction.Outgoing.FriendMoveToken
		if moveTokenMsg.OldToken == d.GetNewToken() {
			return d.outgoingToIncoming(friendMoveToken, moveTokenMsg)
		}
		if friendMoveToken.OldToken == moveTokenMsg.NewToken {
			return &ReceiveMoveTokenOutput{Kind: OutputRetransmitOutgoing, RetransmitOutgoing: friendMoveToken}, nil
		}
		return nil, ErrChainInconsistency
	}
	panic("tokenchannel: unknown direction kind")
}

func moveTokenSignedBuffer(m *creditwire.MoveToken) []byte {
	buf := MoveTokenBuffer(MoveTokenBufferParams{
		Operations:           m.Operations,
		OldToken:             m.OldToken,
		InconsistencyCounter: m.InconsistencyCounter,
		MoveTokenCounter:     m.MoveTokenCounter,
		Balance:              m.Balance,
		LocalPendingDebt:     m.LocalPendingDebt,
		RemotePendingDebt:    m.RemotePendingDebt,
		RandNonce:            m.RandNonce,
	})
	return buf[:]
}

// BeginOutgoingMoveToken starts a new outgoing batch builder, or nil
// if we don't currently hold the token.
func (d *DirectionalTc) BeginOutgoingMoveToken() *mutualcredit.OutgoingMc {
	if d.Direction.Kind == DirectionOutgoing {
		return nil
	}
	return mutualcredit.NewOutgoingMc(d.Channel.mc)
}

// GetOutgoingMoveToken returns the move token request we last sent and
// that is still outstanding, or nil if we hold the token (Incoming).
func (d *DirectionalTc) GetOutgoingMoveToken() *creditwire.MoveTokenRequest {
	if d.Direction.Kind == DirectionIncoming {
		return nil
	}
	return d.Direction.Outgoing
}
