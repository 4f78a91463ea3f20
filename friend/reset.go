package friend

import (
	"context"
	"errors"
	"time"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/tokenchannel"
)

// ErrNotInconsistent is returned by reset-negotiation calls made while
// the friend isn't actually mid reset.
var ErrNotInconsistent = errors.New("friend: channel is not inconsistent")

// ReceiveResetTerms records the remote side's proposed reset terms
// once we're already Inconsistent and have our own local terms ready.
func (s *State) ReceiveResetTerms(remote tokenchannel.ResetTerms) error {
	if s.Kind != StateInconsistent {
		return ErrNotInconsistent
	}
	s.RemoteResetTerms = &remote
	return nil
}

// Agree reports whether the local and remote proposed reset terms
// settle on the same restarted channel: each side's balance_for_reset
// must be the other's negation, since a reset balance is always stated
// from the proposer's own point of view.
func Agree(local, remote tokenchannel.ResetTerms) bool {
	return local.BalanceForReset.Neg().Cmp(remote.BalanceForReset) == 0
}

// Restart rebuilds the channel from agreed reset terms once both
// sides' proposals match, clearing the Inconsistent state and
// re-deriving which side now holds the token using the same
// first-sender rule a brand-new channel uses.
func (s *State) Restart(ctx context.Context, local, remote creditid.PublicKey, terms tokenchannel.ResetTerms, identityClient *identity.Client) error {
	channel, err := tokenchannel.NewFromResetTerms(ctx, local, remote, terms, identityClient)
	if err != nil {
		return err
	}
	s.Channel = channel
	s.Kind = StateConsistent
	s.LocalResetTerms = nil
	s.RemoteResetTerms = nil
	return nil
}

// TryRestart attempts the restart once both local and remote terms are
// known and agree, returning false if either side hasn't proposed yet
// or the proposals don't match.
func (s *State) TryRestart(ctx context.Context, local, remote creditid.PublicKey, identityClient *identity.Client) (bool, error) {
	if s.LocalResetTerms == nil || s.RemoteResetTerms == nil {
		return false, nil
	}
	if !Agree(*s.LocalResetTerms, *s.RemoteResetTerms) {
		return false, nil
	}
	if err := s.Restart(ctx, local, remote, *s.LocalResetTerms, identityClient); err != nil {
		return false, err
	}
	return true, nil
}

// CancelPendingOnInconsistency returns every locally originated
// pending transaction this friend's channel was carrying so the
// funder core can propagate a CancelSendFunds upstream toward each
// request's originator, per spec §4.2: a broken channel cancels every
// in-flight transaction routed through it rather than leaving it
// stuck.
func (s *State) CancelPendingOnInconsistency() []mutualcredit.PendingTransaction {
	local := s.Channel.Channel.State().PendingTransactions().Local
	pending := make([]mutualcredit.PendingTransaction, 0, len(local))
	for _, tx := range local {
		pending = append(pending, tx)
	}
	return pending
}

// LivenessMonitor drives Liveness transitions off a Channeler
// connectivity signal using a plain time.Timer, the teacher's `ticker`
// package retrieval having no implementation to adapt.
type LivenessMonitor struct {
	state   *State
	timeout time.Duration
	timer   *time.Timer
}

// NewLivenessMonitor arms a monitor that marks the friend Offline if
// no liveness pulse arrives within timeout.
func NewLivenessMonitor(state *State, timeout time.Duration) *LivenessMonitor {
	state.Liveness = LivenessOnline
	return &LivenessMonitor{
		state:   state,
		timeout: timeout,
		timer:   time.AfterFunc(timeout, func() { state.Liveness = LivenessOffline }),
	}
}

// Pulse resets the offline timer and marks the friend Online; call
// this on every inbound message or transport-level keepalive.
func (m *LivenessMonitor) Pulse() {
	m.state.Liveness = LivenessOnline
	m.timer.Reset(m.timeout)
}

// Stop releases the monitor's timer.
func (m *LivenessMonitor) Stop() {
	m.timer.Stop()
}
