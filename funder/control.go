package funder

import (
	"context"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/tokenchannel"
	"github.com/fritznode/creditnode/u128"
)

// Outgoing is one friend message this node must hand to the
// Channeler for delivery (spec §1: "opaque friend messages"). The
// funder core never talks to the Channeler directly in this package —
// every handler below returns the messages it produced so the event
// loop (EventLoop in loop.go) can dispatch them after the owning mutations are durable
// (spec §4.4 step 3: "Append mutations to DB; wait for ack" before
// step 4 "Emit ... outgoing friend message(s)").
type Outgoing struct {
	To      creditid.PublicKey
	Message creditwire.Message
}

// AddFriend implements the App control op of the same name (spec §6):
// creates a brand-new Consistent friend between local and pk, deriving
// the initial token channel deterministically (friend.New, which
// calls tokenchannel.NewDirectional).
func AddFriend(ctx context.Context, state *FunderState, identityClient *identity.Client, pk creditid.PublicKey, name string) ([]FunderMutation, error) {
	if _, exists := state.Friends[pk]; exists {
		return nil, ErrFriendAlreadyExists
	}
	f, err := friend.New(ctx, state.LocalPublicKey, pk, identityClient)
	if err != nil {
		return nil, err
	}
	muts := []FunderMutation{{Kind: MutAddFriend, FriendPublicKey: pk, NewFriend: f}}
	if name != "" {
		muts = append(muts, FunderMutation{Kind: MutSetFriendName, FriendPublicKey: pk, Name: name})
	}
	return muts, nil
}

// RemoveFriend implements RemoveFriend (spec §6). The caller is
// responsible for having already canceled any transactions routed
// through pk (mirroring the Inconsistency cancellation path); this
// function only removes the bookkeeping.
func RemoveFriend(state *FunderState, pk creditid.PublicKey) ([]FunderMutation, error) {
	if _, err := state.RequireFriend(pk); err != nil {
		return nil, err
	}
	return []FunderMutation{{Kind: MutRemoveFriend, FriendPublicKey: pk}}, nil
}

// SetFriendName implements SetFriendName.
func SetFriendName(state *FunderState, pk creditid.PublicKey, name string) ([]FunderMutation, error) {
	if _, err := state.RequireFriend(pk); err != nil {
		return nil, err
	}
	return []FunderMutation{{Kind: MutSetFriendName, FriendPublicKey: pk, Name: name}}, nil
}

// SetFriendRelays implements SetFriendRelays: records the relay
// addresses this friend should be dialed through, without itself
// producing any wire traffic (the Channeler reads this bookkeeping
// out of band, per spec §1's "opaque transport" contract).
func SetFriendRelays(state *FunderState, pk creditid.PublicKey, relays []creditwire.RelayAddress) ([]FunderMutation, error) {
	if _, err := state.RequireFriend(pk); err != nil {
		return nil, err
	}
	return []FunderMutation{{Kind: MutSetFriendRelays, FriendPublicKey: pk, Relays: relays}}, nil
}

// SetFriendRate implements SetFriendRate: the forwarding fee schedule
// charged on payments routed through pk (spec §4.4/§4.5).
func SetFriendRate(state *FunderState, pk creditid.PublicKey, rate friend.Rate) ([]FunderMutation, error) {
	if _, err := state.RequireFriend(pk); err != nil {
		return nil, err
	}
	return []FunderMutation{{Kind: MutSetFriendRate, FriendPublicKey: pk, Rate: rate}}, nil
}

// EnableFriend/DisableFriend implement the control ops of the same
// names: whether this node will route payments through pk at all,
// independent of pk's own requests_status (see FunderState.FriendEnabled).
func EnableFriend(state *FunderState, pk creditid.PublicKey) ([]FunderMutation, error) {
	if _, err := state.RequireFriend(pk); err != nil {
		return nil, err
	}
	return []FunderMutation{{Kind: MutSetFriendEnabled, FriendPublicKey: pk, Enabled: true}}, nil
}

func DisableFriend(state *FunderState, pk creditid.PublicKey) ([]FunderMutation, error) {
	if _, err := state.RequireFriend(pk); err != nil {
		return nil, err
	}
	return []FunderMutation{{Kind: MutSetFriendEnabled, FriendPublicKey: pk, Enabled: false}}, nil
}

// OpenFriend/CloseFriend implement the control ops of the same names:
// whether pk may send us new RequestSendFunds (requests_status.local
// in spec §3), queued as an EnableRequests/DisableRequests FriendTcOp
// for the next outgoing batch to pk.
func OpenFriend(state *FunderState, pk creditid.PublicKey) error {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return err
	}
	if f.Kind != friend.StateConsistent {
		return friend.ErrInconsistent
	}
	f.Pending.PushUserRequest(mutualcredit.EnableRequests())
	return nil
}

func CloseFriend(state *FunderState, pk creditid.PublicKey) error {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return err
	}
	if f.Kind != friend.StateConsistent {
		return friend.ErrInconsistent
	}
	f.Pending.PushUserRequest(mutualcredit.DisableRequests())
	return nil
}

// SetFriendRemoteMaxDebt implements SetFriendRemoteMaxDebt: records
// the desired ceiling and queues a SetRemoteMaxDebt op so the friend
// learns of it on the next batch we send.
func SetFriendRemoteMaxDebt(state *FunderState, pk creditid.PublicKey, maxDebt u128.Uint128) ([]FunderMutation, error) {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return nil, err
	}
	if maxDebt.Cmp(mutualcredit.MaxFunderDebt) > 0 {
		return nil, mutualcredit.ErrRemoteMaxDebtTooLarge
	}
	if f.Kind == friend.StateConsistent {
		f.Pending.PushUserRequest(mutualcredit.SetRemoteMaxDebt(maxDebt))
	}
	return []FunderMutation{{Kind: MutSetFriendWantedRemoteMaxDebt, FriendPublicKey: pk, Amount: maxDebt}}, nil
}

// ResetFriendChannel implements ResetFriendChannel: forces pk's
// channel Inconsistent on our own initiative, the same recovery path
// a detected chain break takes (spec §4.2/§9).
func ResetFriendChannel(ctx context.Context, state *FunderState, identityClient *identity.Client, pk creditid.PublicKey) (*friend.ReceiveResult, []FunderMutation, error) {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return nil, nil, err
	}
	result, err := f.ForceInconsistent(ctx, identityClient)
	if err != nil {
		return nil, nil, err
	}
	return result, []FunderMutation{{
		Kind:            MutFriendGoInconsistent,
		FriendPublicKey: pk,
		LocalResetTerms: result.LocalResetTerms,
	}}, nil
}

// AddRelay implements AddRelay: appends a relay to the node's known
// set and bumps the generation, returning the RelaysUpdate every
// friend must be sent (SPEC_FULL supplement #1).
func AddRelay(state *FunderState, relay creditwire.RelayAddress) ([]FunderMutation, []Outgoing, error) {
	relays := append(append([]creditwire.RelayAddress(nil), state.Relays...), relay)
	return setRelays(state, relays)
}

// RemoveRelay implements RemoveRelay.
func RemoveRelay(state *FunderState, pk creditid.PublicKey) ([]FunderMutation, []Outgoing, error) {
	relays := make([]creditwire.RelayAddress, 0, len(state.Relays))
	for _, r := range state.Relays {
		if r.PublicKey != pk {
			relays = append(relays, r)
		}
	}
	return setRelays(state, relays)
}

func setRelays(state *FunderState, relays []creditwire.RelayAddress) ([]FunderMutation, []Outgoing, error) {
	generation, err := state.RelaysGeneration.Add(u128.FromUint64(1))
	if err != nil {
		return nil, nil, err
	}
	muts := []FunderMutation{{Kind: MutSetRelays, RelaysGeneration: generation, Relays: relays}}

	update := &creditwire.RelaysUpdate{Relays: relays}
	outgoing := make([]Outgoing, 0, len(state.Friends))
	for pk := range state.Friends {
		outgoing = append(outgoing, Outgoing{To: pk, Message: update})
	}
	return muts, outgoing, nil
}

// restartFriend drives TryRestart once both sides' reset terms are
// known, called by ReceiveResetTermsFromFriend below.
func restartFriend(ctx context.Context, state *FunderState, identityClient *identity.Client, pk creditid.PublicKey) (bool, error) {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return false, err
	}
	return f.TryRestart(ctx, state.LocalPublicKey, pk, identityClient)
}

// ReceiveResetTermsFromFriend records the remote side's proposed reset
// terms arriving in an InconsistencyError wire message, then attempts
// to restart the channel if both proposals now agree.
func ReceiveResetTermsFromFriend(ctx context.Context, state *FunderState, identityClient *identity.Client, pk creditid.PublicKey, remote tokenchannel.ResetTerms) ([]FunderMutation, bool, error) {
	f, err := state.RequireFriend(pk)
	if err != nil {
		return nil, false, err
	}
	if err := f.ReceiveResetTerms(remote); err != nil {
		return nil, false, err
	}
	muts := []FunderMutation{{Kind: MutFriendReceiveResetTerms, FriendPublicKey: pk, RemoteResetTerms: &remote}}

	restarted, err := restartFriend(ctx, state, identityClient, pk)
	if err != nil {
		return muts, false, err
	}
	if restarted {
		muts = append(muts, FunderMutation{Kind: MutFriendRestart, FriendPublicKey: pk})
	}
	return muts, restarted, nil
}
