package funder

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/tokenchannel"
	"github.com/fritznode/creditnode/u128"
)

// MutationKind tags the variant of a FunderMutation, the unit
// creditdb appends to its durable log (spec §6 Persistence) and the
// unit report.FunderReport mutations are derived from (spec §4.5).
type MutationKind int

const (
	MutAddFriend MutationKind = iota
	MutRemoveFriend
	MutSetFriendWantedRemoteMaxDebt
	MutSetFriendRate
	MutSetFriendLiveness
	MutSetFriendEnabled
	MutSetFriendName
	MutSetFriendRelays
	MutFriendDirectional
	MutFriendGoInconsistent
	MutFriendReceiveResetTerms
	MutFriendRestart
	MutSetRelays
	MutPutOpenInvoice
	MutRemoveOpenInvoice
	MutPutOpenTransaction
	MutRemoveOpenTransaction
	MutPutPayment
	MutRemovePayment
	MutPutPendingCollect
	MutRemovePendingCollect
)

// FunderMutation is a single, pure mutation to a FunderState. Every
// funder handler in buyer.go/seller.go/control.go/core.go returns a
// slice of these alongside its effects; creditdb appends them before
// the effects are released to the network (spec §4.4 "Every external
// mutation is appended via DB before release").
type FunderMutation struct {
	Kind MutationKind

	FriendPublicKey creditid.PublicKey
	NewFriend       *friend.State

	Amount   u128.Uint128
	Rate     friend.Rate
	Liveness friend.Liveness
	Enabled  bool

	Directional      *tokenchannel.DirectionalMutation
	LocalResetTerms  *tokenchannel.ResetTerms
	RemoteResetTerms *tokenchannel.ResetTerms
	RestartTerms     *tokenchannel.ResetTerms

	RelaysGeneration u128.Uint128
	Relays           []creditwire.RelayAddress

	Name string

	InvoiceID    creditid.InvoiceID
	OpenInvoice  *OpenInvoice
	RequestID    creditid.Uid
	OpenTransact *OpenTransaction
	PaymentID    creditid.PaymentID
	PaymentVal   *Payment

	PendingCollectVal *PendingCollect
}

// Apply replays one mutation against state in place. Like
// mutualcredit.Mutate, this never fails: every mutation here is
// produced by a handler that has already validated the transition.
// Channel-level mutations (MutFriendDirectional and friends) delegate
// to the friend/tokenchannel layer's own Mutate, keeping this package
// from needing to know the internals of a DirectionalTc.
func (s *FunderState) Apply(m FunderMutation) {
	s.ensureMaps()
	switch m.Kind {
	case MutAddFriend:
		s.Friends[m.FriendPublicKey] = m.NewFriend
	case MutRemoveFriend:
		delete(s.Friends, m.FriendPublicKey)
	case MutSetFriendWantedRemoteMaxDebt:
		if f, ok := s.Friends[m.FriendPublicKey]; ok {
			f.WantedRemoteMaxDebt = m.Amount
		}
	case MutSetFriendRate:
		if f, ok := s.Friends[m.FriendPublicKey]; ok {
			f.Rate = m.Rate
		}
	case MutSetFriendLiveness:
		if f, ok := s.Friends[m.FriendPublicKey]; ok {
			f.Liveness = m.Liveness
		}
	case MutSetFriendEnabled:
		s.FriendEnabled[m.FriendPublicKey] = m.Enabled
	case MutSetFriendName:
		s.FriendNames[m.FriendPublicKey] = m.Name
	case MutSetFriendRelays:
		s.FriendRelays[m.FriendPublicKey] = m.Relays
	case MutFriendDirectional:
		if f, ok := s.Friends[m.FriendPublicKey]; ok && f.Kind == friend.StateConsistent {
			f.Channel.Mutate(*m.Directional)
		}
	case MutFriendGoInconsistent:
		if f, ok := s.Friends[m.FriendPublicKey]; ok {
			f.Kind = friend.StateInconsistent
			f.LocalResetTerms = m.LocalResetTerms
			f.RemoteResetTerms = nil
			f.Pending = friend.PendingQueues{}
		}
	case MutFriendReceiveResetTerms:
		if f, ok := s.Friends[m.FriendPublicKey]; ok {
			f.RemoteResetTerms = m.RemoteResetTerms
		}
	case MutFriendRestart:
		// The actual channel object is rebuilt by friend.State.Restart
		// (it requires the identity service, a suspension point this
		// pure Apply must not perform); control.go's restartFriend
		// calls friend.State.TryRestart directly
		// and this mutation exists only to mark the log entry, mirrored
		// by MutFriendGoInconsistent's bracket.
	case MutSetRelays:
		s.RelaysGeneration = m.RelaysGeneration
		s.Relays = m.Relays
	case MutPutOpenInvoice:
		s.OpenInvoices[m.InvoiceID] = m.OpenInvoice
	case MutRemoveOpenInvoice:
		delete(s.OpenInvoices, m.InvoiceID)
	case MutPutOpenTransaction:
		s.OpenTransactions[m.RequestID] = m.OpenTransact
	case MutRemoveOpenTransaction:
		delete(s.OpenTransactions, m.RequestID)
	case MutPutPayment:
		s.Payments[m.PaymentID] = m.PaymentVal
	case MutRemovePayment:
		delete(s.Payments, m.PaymentID)
	case MutPutPendingCollect:
		s.PendingCollects[m.RequestID] = m.PendingCollectVal
	case MutRemovePendingCollect:
		delete(s.PendingCollects, m.RequestID)
	}
}

// ApplyAll replays a batch of mutations in order, the shape creditdb's
// recovery path uses to rebuild a FunderState from its log (spec §6
// "Recovery replays the state on boot").
func (s *FunderState) ApplyAll(muts []FunderMutation) {
	for _, m := range muts {
		s.Apply(m)
	}
}
