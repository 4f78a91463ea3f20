package friend

import (
	"context"
	"errors"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/tokenchannel"
)

// ErrInconsistent is returned by operations that require a Consistent
// channel (queueing new work, building an outgoing batch) while the
// friend is mid reset-negotiation.
var ErrInconsistent = errors.New("friend: channel is inconsistent")

// New builds a brand-new Consistent friend, its channel freshly
// derived between local and remote (spec §4.2's deterministic initial
// token).
func New(ctx context.Context, local, remote creditid.PublicKey, identityClient *identity.Client) (*State, error) {
	channel, err := tokenchannel.NewDirectional(ctx, local, remote, identityClient)
	if err != nil {
		return nil, err
	}
	return &State{
		Kind:    StateConsistent,
		Channel: channel,
		Liveness: LivenessOffline,
	}, nil
}

// ReceiveResultKind tags the outcome of handling an incoming wire
// message from this friend.
type ReceiveResultKind int

const (
	ReceiveDuplicate ReceiveResultKind = iota
	ReceiveRetransmit
	ReceiveApplied
	ReceiveWentInconsistent
)

// ReceiveResult is what the funder core does next after absorbing an
// incoming move token or inconsistency error from this friend.
type ReceiveResult struct {
	Kind ReceiveResultKind

	// Retransmit is set when the peer needs our last outgoing message
	// resent verbatim.
	Retransmit *creditwire.MoveToken

	// IncomingMessages are the Request/Response/Cancel/Collect
	// messages that arrived validated in this batch, for the funder
	// core to route or terminate.
	IncomingMessages []mutualcredit.IncomingMessage

	// OutgoingReply is set when the peer's token_wanted flag asked us
	// to hand the token straight back, built from whatever is queued
	// (possibly empty).
	OutgoingReply *creditwire.MoveTokenRequest

	// LocalResetTerms is set when this message caused the channel to
	// go Inconsistent; the funder core must send these upstream.
	LocalResetTerms *tokenchannel.ResetTerms
}

// ReceiveMoveToken absorbs an incoming MoveTokenRequest from this
// friend (spec §4.2's simulate_receive_move_token, wired up to the
// friend-level token_wanted handshake and queued local work).
func (s *State) ReceiveMoveToken(ctx context.Context, req *creditwire.MoveTokenRequest, identityClient *identity.Client, randNonce creditid.RandNonce) (*ReceiveResult, error) {
	if s.Kind != StateConsistent {
		return nil, ErrInconsistent
	}

	out, err := s.Channel.SimulateReceiveMoveToken(&req.FriendMoveToken)
	if err != nil {
		return s.goInconsistent(ctx, identityClient)
	}

	switch out.Kind {
	case tokenchannel.OutputDuplicate:
		return &ReceiveResult{Kind: ReceiveDuplicate}, nil

	case tokenchannel.OutputRetransmitOutgoing:
		return &ReceiveResult{Kind: ReceiveRetransmit, Retransmit: out.RetransmitOutgoing}, nil

	case tokenchannel.OutputReceived:
		for _, m := range out.Received.Mutations {
			s.Channel.Mutate(m)
		}
		result := &ReceiveResult{
			Kind:             ReceiveApplied,
			IncomingMessages: out.Received.IncomingMessages,
		}
		if req.TokenWanted {
			reply, err := s.buildOutgoingBatch(ctx, identityClient, randNonce)
			if err != nil {
				return nil, err
			}
			result.OutgoingReply = reply
		}
		return result, nil
	}
	panic("friend: unknown receive move token output kind")
}

// buildOutgoingBatch drains the pending queues (up to
// tokenchannel.MaxOperationsInBatch operations) and signs the
// resulting move token, requires the channel currently be Incoming.
func (s *State) buildOutgoingBatch(ctx context.Context, identityClient *identity.Client, randNonce creditid.RandNonce) (*creditwire.MoveTokenRequest, error) {
	outgoing := s.Channel.BeginOutgoingMoveToken()
	if outgoing == nil {
		return nil, nil
	}

	operations := s.Pending.PopBatch(tokenchannel.MaxOperationsInBatch)
	var mutations []mutualcredit.McMutation
	for _, op := range operations {
		muts, err := outgoing.QueueOperation(op)
		if err != nil {
			return nil, err
		}
		mutations = append(mutations, muts...)
	}
	for _, m := range mutations {
		s.Channel.Mutate(tokenchannel.DirectionalMutation{Kind: tokenchannel.DirMutTc, TcMutation: m})
	}

	newToken, err := s.Channel.CreateFriendMoveToken(ctx, operations, randNonce, identityClient)
	if err != nil {
		return nil, err
	}
	s.Channel.Mutate(tokenchannel.DirectionalMutation{
		Kind:     tokenchannel.DirMutSetDirectionOutgoing,
		NewToken: newToken,
	})

	return s.Channel.GetOutgoingMoveToken(), nil
}

// RequestToken flags that local work is queued while the remote side
// holds the token, so it's handed straight back to us next round.
func (s *State) RequestToken() {
	if s.Kind == StateConsistent && s.Channel.IsOutgoing() {
		s.Channel.Mutate(tokenchannel.DirectionalMutation{Kind: tokenchannel.DirMutSetTokenWanted})
	}
}

// TryBuildOutgoingBatch proactively flushes the pending queues into a
// signed outgoing move token whenever it is this side's turn to send.
// This is the trigger RequestToken cannot provide on its own:
// RequestToken only flags an already-sent batch so the remote hands
// the token back on its next move, which presupposes a message has
// already gone out in this direction at some point. Nothing queues a
// first message that way — the side a fresh friend's deterministic
// initial token leaves in the Incoming direction must be able to build
// and send its very first batch without having reacted to anything,
// exactly like one side of a freshly opened channel must make the
// first move (spec §4.2 "first-sender rule").
//
// Deliberately sent even with nothing queued: the Incoming side handing
// an empty batch to its peer is the only way that peer's own queued
// work (granting requests, raising a trust limit) can ever reach the
// wire, since the Outgoing side cannot act until it hears from the
// Incoming side at least once.
func (s *State) TryBuildOutgoingBatch(ctx context.Context, identityClient *identity.Client, randNonce creditid.RandNonce) (*creditwire.MoveTokenRequest, error) {
	if s.Kind != StateConsistent {
		return nil, ErrInconsistent
	}
	if s.Channel.IsOutgoing() {
		return nil, nil
	}
	return s.buildOutgoingBatch(ctx, identityClient, randNonce)
}

// ForceInconsistent drives the friend Inconsistent on the funder
// core's own initiative (the ResetFriendChannel control op), reusing
// the same reset-terms computation a detected chain break triggers.
func (s *State) ForceInconsistent(ctx context.Context, identityClient *identity.Client) (*ReceiveResult, error) {
	if s.Kind != StateConsistent {
		return nil, ErrInconsistent
	}
	return s.goInconsistent(ctx, identityClient)
}

// goInconsistent transitions the friend out of Consistent after a
// chain-break or bad signature, computing the local reset terms the
// funder core must send upstream.
func (s *State) goInconsistent(ctx context.Context, identityClient *identity.Client) (*ReceiveResult, error) {
	terms, err := s.Channel.GetResetTerms(ctx, identityClient)
	if err != nil {
		return nil, err
	}
	s.Kind = StateInconsistent
	s.LocalResetTerms = &terms
	s.RemoteResetTerms = nil
	s.Pending = PendingQueues{}

	return &ReceiveResult{Kind: ReceiveWentInconsistent, LocalResetTerms: &terms}, nil
}
