// Package indexclient is the contract-only boundary to the Index
// server (spec §1, §9): "untrusted route-discovery service indexed by
// the mutual-credit capacity graph." This repo never implements an
// Index server itself; it only forwards this node's own
// report.IndexMutation stream to whichever servers AddIndexServer
// registered, and answers RequestRoutes by querying them, mirroring
// how the teacher keeps `discovery/syncer.go`'s gossip peer and the
// actual network-wide graph database it feeds on opposite sides of a
// narrow interface.
package indexclient

import (
	"context"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/report"
)

// Client is the narrow surface funder's App-control handlers for
// AddIndexServer/RemoveIndexServer/RequestRoutes depend on.
type Client interface {
	// Publish forwards one batch of capacity-affecting mutations
	// (spec §4.5: "Index mutations are derived from funder mutations
	// by a pure transform ... and forwarded to the Index client").
	Publish(ctx context.Context, muts []report.IndexMutation) error

	// RequestRoutes asks every registered Index server for a route from
	// local to dest able to carry at least amount, spec §6's
	// RequestRoutes control op.
	RequestRoutes(ctx context.Context, local, dest creditid.PublicKey, amount Amount) ([]Route, error)

	AddServer(addr string) error
	RemoveServer(addr string) error

	Close() error
}

// Amount mirrors u128.Uint128's role without importing it, the same
// avoid-an-extra-dependency reasoning report.mutualcreditBalanceView
// uses; kept as a distinct type here since an Index server's capacity
// query crosses a different trust boundary (an untrusted remote
// service) than this node's own ledger math.
type Amount struct {
	Hi, Lo uint64
}

// Route is one candidate path an Index server proposed, ordered
// originator-first, mirroring funder/routing's own hop-list shape.
type Route struct {
	Hops []creditid.PublicKey
}

var _ Client = (*NopClient)(nil)

// NopClient is a Client with no registered servers: Publish is a
// silent no-op, RequestRoutes always returns an empty route set. Used
// by any deployment running without route discovery (spec's Non-goals
// exclude requiring one), and by tests that only exercise funder's
// core funding logic.
type NopClient struct{}

func (NopClient) Publish(context.Context, []report.IndexMutation) error { return nil }

func (NopClient) RequestRoutes(context.Context, creditid.PublicKey, creditid.PublicKey, Amount) ([]Route, error) {
	return nil, nil
}

func (NopClient) AddServer(string) error { return nil }

func (NopClient) RemoveServer(string) error { return nil }

func (NopClient) Close() error { return nil }
