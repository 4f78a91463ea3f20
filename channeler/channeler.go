// Package channeler is the contract-only boundary to the Channeler
// (spec §1): "encrypted keepalive transport to friends via relays;
// delivers opaque friend messages." It is named a contract because
// the transport, encryption, and relay routing live entirely outside
// this repo — the same role lnpeer/peer.go's Peer interface and
// discovery/syncer.go's gossip-delivery split played for the teacher's
// own external boundary (the physical wire, the brontide/Noise
// handshake). This package defines only the shape: how funder hands a
// message to the Channeler, and how the Channeler hands one back.
package channeler

import (
	"context"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
)

// Receiver is implemented by funder.EventLoop: the Channeler calls
// DeliverFriendMessage for every decrypted inbound message and
// SetLiveness whenever a friend's connectivity changes (spec §4.3:
// "States ... Liveness is toggled by the Channeler").
type Receiver interface {
	DeliverFriendMessage(from creditid.PublicKey, msg creditwire.Message)
	SetLiveness(pk creditid.PublicKey, online bool)
}

// Client is the narrow surface funder.EventLoop depends on
// (funder.MessageSender) to hand an outgoing message to the Channeler
// for delivery; Client itself does not specify how the message reaches
// the peer, only that Send returns once the Channeler has accepted it
// for delivery, not once the peer has acknowledged it (spec §7: "Lost
// outbound frame to Channeler ⇒ dropped; peer will retransmit").
type Client interface {
	Send(to creditid.PublicKey, msg creditwire.Message) error

	// Connect registers relay hints for pk so the Channeler can
	// establish or maintain a keepalive session to it (spec §6
	// AddRelay/RemoveRelay, spec §1's "via relays").
	Connect(ctx context.Context, pk creditid.PublicKey, relays []creditwire.RelayAddress) error

	// Disconnect tears down any session the Channeler holds open to pk,
	// called on RemoveFriend/DisableFriend.
	Disconnect(pk creditid.PublicKey) error

	Close() error
}

var _ Client = (*NopClient)(nil)

// NopClient is a Client that accepts every Send as a silent no-op,
// standing in for a real Channeler in tests and in any deployment that
// runs funder without a configured transport (e.g. offline tooling
// that only needs to inspect or replay a creditdb log).
type NopClient struct{}

func (NopClient) Send(creditid.PublicKey, creditwire.Message) error { return nil }

func (NopClient) Connect(context.Context, creditid.PublicKey, []creditwire.RelayAddress) error {
	return nil
}

func (NopClient) Disconnect(creditid.PublicKey) error { return nil }

func (NopClient) Close() error { return nil }
