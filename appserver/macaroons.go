// Macaroon-based coarse permission bits for the App control surface
// (spec §6), checked the same way the teacher's (now-deleted, see
// DESIGN.md) rpcserver.go checked admin/readonly macaroons before
// dispatching an RPC: one root key per node, one macaroon minted per
// permission bucket, a first-party caveat binding the macaroon to that
// bucket's name.
package appserver

import (
	"crypto/rand"
	"fmt"

	"gopkg.in/macaroon.v2"
)

// Permission tags the four coarse App-surface buckets spec §6 implies
// by grouping its control ops into config/buyer/seller/routing
// concerns. A client presenting a "config" macaroon may call
// AddFriend/RemoveFriend/SetFriend*/AddRelay/RemoveRelay; "buyer" gates
// CreatePayment/CreateTransaction/RequestClosePayment/AckClosePayment/
// CompletePaymentWithReceipt/CancelTransaction; "seller" gates
// AddInvoice/CancelInvoice/CommitInvoice; "routes" gates
// AddIndexServer/RemoveIndexServer/RequestRoutes. GetReport/
// SubscribeReport accept any of the four.
type Permission string

const (
	PermissionConfig Permission = "config"
	PermissionBuyer  Permission = "buyer"
	PermissionSeller Permission = "seller"
	PermissionRoutes Permission = "routes"
)

// caveatID returns the first-party caveat identifying a macaroon as
// scoped to p; Verify checks for its presence.
func caveatID(p Permission) []byte {
	return []byte("perm=" + string(p))
}

// MacaroonService mints and verifies the four permission macaroons
// against one root key generated at first run, analogous to
// lncfg/lnd's admin.macaroon/readonly.macaroon pair, generalized from
// two fixed buckets to this surface's four.
type MacaroonService struct {
	rootKey []byte
	minted  map[Permission]*macaroon.Macaroon
}

// NewMacaroonService generates a fresh root key and bakes one macaroon
// per Permission. cmd/creditd does not use it: it keeps a persisted
// root key and calls NewMacaroonServiceWithRootKey.
func NewMacaroonService() (*MacaroonService, error) {
	rootKey := make([]byte, 32)
	if _, err := rand.Read(rootKey); err != nil {
		return nil, fmt.Errorf("appserver: generating macaroon root key: %w", err)
	}
	return NewMacaroonServiceWithRootKey(rootKey)
}

// NewMacaroonServiceWithRootKey bakes the four permission macaroons
// against a caller-supplied root key, so cmd/creditd can persist the
// key once (alongside the identity key) and reuse it across restarts
// instead of invalidating every previously issued macaroon on each
// boot.
func NewMacaroonServiceWithRootKey(rootKey []byte) (*MacaroonService, error) {
	svc := &MacaroonService{
		rootKey: rootKey,
		minted:  make(map[Permission]*macaroon.Macaroon),
	}
	for _, p := range []Permission{PermissionConfig, PermissionBuyer, PermissionSeller, PermissionRoutes} {
		m, err := macaroon.New(rootKey, []byte(p), "creditd", macaroon.LatestVersion)
		if err != nil {
			return nil, fmt.Errorf("appserver: baking %s macaroon: %w", p, err)
		}
		if err := m.AddFirstPartyCaveat(caveatID(p)); err != nil {
			return nil, fmt.Errorf("appserver: adding caveat to %s macaroon: %w", p, err)
		}
		svc.minted[p] = m
	}
	return svc, nil
}

// Serialized returns p's macaroon in its binary wire form, the bytes a
// client attaches to every RPC's metadata.
func (s *MacaroonService) Serialized(p Permission) ([]byte, error) {
	m, ok := s.minted[p]
	if !ok {
		return nil, fmt.Errorf("appserver: no macaroon minted for permission %q", p)
	}
	return m.MarshalBinary()
}

// Verify checks raw against this service's root key with required's
// first-party caveat, returning nil only for a macaroon minted for
// exactly that Permission and an error otherwise. A client holding the "config" macaroon, say, can only call
// config-gated RPCs; it cannot forge its way into "buyer" without the
// actual buyer root-bound macaroon, since Verify below only ever
// checks the single first-party caveat it itself added at mint time.
func (s *MacaroonService) Verify(raw []byte, required Permission) error {
	var m macaroon.Macaroon
	if err := m.UnmarshalBinary(raw); err != nil {
		return fmt.Errorf("appserver: malformed macaroon: %w", err)
	}
	id := caveatID(required)
	check := func(caveat []byte) error {
		if string(caveat) == string(id) {
			return nil
		}
		return fmt.Errorf("appserver: caveat %q not satisfied", caveat)
	}
	if err := m.Verify(s.rootKey, check, nil); err != nil {
		return fmt.Errorf("appserver: permission denied for %q: %w", required, err)
	}
	return nil
}
