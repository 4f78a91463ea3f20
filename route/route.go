package route

import "github.com/fritznode/creditnode/creditid"

// Route is the ordered list of public keys a RequestSendFunds travels
// through, from originator to destination inclusive.
type Route struct {
	PublicKeys []creditid.PublicKey
}

// IsValid reports whether the route has at least two distinct hops and
// no repeated public key (spec §8/§9: zero-length and single-key
// routes are rejected, as is any route visiting a key twice).
func (r Route) IsValid() bool {
	if len(r.PublicKeys) < 2 {
		return false
	}
	seen := make(map[creditid.PublicKey]struct{}, len(r.PublicKeys))
	for _, pk := range r.PublicKeys {
		if _, dup := seen[pk]; dup {
			return false
		}
		seen[pk] = struct{}{}
	}
	return true
}

// FindPkPair returns the index of `first` in the route, provided that
// `second` immediately follows it. This is used to locate the
// (remote, local) pair on an incoming request, or the (local, remote)
// pair on an outgoing one (spec §4.1 step 2).
func (r Route) FindPkPair(first, second creditid.PublicKey) (int, bool) {
	for i := 0; i+1 < len(r.PublicKeys); i++ {
		if r.PublicKeys[i] == first && r.PublicKeys[i+1] == second {
			return i, true
		}
	}
	return 0, false
}

// NextHop returns the public key immediately following local on the
// route, for an intermediate hop deciding where to forward a
// RequestSendFunds (spec §4.5). ok is false if local is the
// destination or isn't on the route.
func (r Route) NextHop(local creditid.PublicKey) (creditid.PublicKey, bool) {
	for i, pk := range r.PublicKeys {
		if pk == local && i+1 < len(r.PublicKeys) {
			return r.PublicKeys[i+1], true
		}
	}
	return creditid.PublicKey{}, false
}

// IsDestination reports whether local is the last hop on the route.
func (r Route) IsDestination(local creditid.PublicKey) bool {
	return len(r.PublicKeys) > 0 && r.PublicKeys[len(r.PublicKeys)-1] == local
}

// IsOrigin reports whether local is the first hop on the route.
func (r Route) IsOrigin(local creditid.PublicKey) bool {
	return len(r.PublicKeys) > 0 && r.PublicKeys[0] == local
}

// Origin returns the first public key on the route.
func (r Route) Origin() creditid.PublicKey {
	return r.PublicKeys[0]
}

// Destination returns the last public key on the route.
func (r Route) Destination() creditid.PublicKey {
	return r.PublicKeys[len(r.PublicKeys)-1]
}

// Clone returns a deep copy of the route.
func (r Route) Clone() Route {
	cp := make([]creditid.PublicKey, len(r.PublicKeys))
	copy(cp, r.PublicKeys)
	return Route{PublicKeys: cp}
}
