package creditid

import (
	"github.com/btcsuite/fastsha256"
)

// H computes the hash function referenced throughout the spec's
// signature-buffer canonicalizations and hash locks. It is a single
// SHA-256 pass over the concatenation of its arguments, using the same
// fast, allocation-light sha256 implementation the rest of the credit
// stack already depends on for its digest-heavy hot paths.
func H(parts ...[]byte) HashResult {
	h := fastsha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out HashResult
	copy(out[:], h.Sum(nil))
	return out
}

// Less reports whether a sorts before b under the byte-lexicographic
// order used to deterministically pick the first sender of a brand new
// token channel (spec §4.2: "the node with the smaller H(local_pk) is
// the first sender").
func Less(a, b HashResult) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
