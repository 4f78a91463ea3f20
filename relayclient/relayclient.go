// Package relayclient is the contract-only boundary to a Relay server
// (spec §1, §9): "untrusted rendezvous server forwarding encrypted
// friend traffic." A relay never sees plaintext friend messages or
// this node's credit state; it only forwards opaque, already-encrypted
// frames between two friends that cannot reach each other directly.
// This package exists so the Channeler (channeler.Client) has
// somewhere to register relay hints without funder needing to know
// anything about rendezvous transport itself (spec §6's
// AddRelay/RemoveRelay operate on this node's own advertised
// NamedRelayAddress list, forwarded to friends via RelaysUpdate, not
// on a relay connection directly).
package relayclient

import (
	"context"

	"github.com/fritznode/creditnode/creditwire"
)

// Client is the narrow surface the Channeler depends on to reach a
// friend that published relay hints via RelaysUpdate (spec §3).
type Client interface {
	// Forward hands an already-encrypted frame to addr for delivery;
	// the relay has no visibility into its contents or recipient
	// beyond whatever routing hint addr itself carries.
	Forward(ctx context.Context, addr creditwire.RelayAddress, frame []byte) error

	Close() error
}

var _ Client = (*NopClient)(nil)

// NopClient rejects every forward attempt, the correct behavior for a
// deployment with no configured relay (direct-only connectivity,
// spec's Non-goals place NAT traversal/rendezvous entirely outside
// this repo's scope).
type NopClient struct{}

func (NopClient) Forward(context.Context, creditwire.RelayAddress, []byte) error {
	return ErrNoRelayConfigured
}

func (NopClient) Close() error { return nil }

// ErrNoRelayConfigured is returned by NopClient.Forward.
var ErrNoRelayConfigured = relayError("relayclient: no relay configured")

type relayError string

func (e relayError) Error() string { return string(e) }
