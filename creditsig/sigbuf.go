// Package creditsig builds the canonical signature buffers named in
// spec §6. Field order and the literal string prefixes are part of
// the wire contract and must be reproduced bit-for-bit, so every
// buffer is assembled here, in one place, instead of inline at each
// call site.
package creditsig

import (
	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

// HashRoute computes H(route): the concatenation of every public key
// on the route, in order, hashed once.
func HashRoute(r route.Route) creditid.HashResult {
	parts := make([][]byte, len(r.PublicKeys))
	for i, pk := range r.PublicKeys {
		b := pk
		parts[i] = b[:]
	}
	return creditid.H(parts...)
}

// ResponseParams bundles the fields the response signature buffer is
// built from. DestPayment/TotalDestPayment/InvoiceID/Route come from
// the original RequestSendFunds (stored in the PendingTransaction);
// DestHashedLock and RandNonce come from the ResponseSendFunds itself.
type ResponseParams struct {
	RequestID        creditid.Uid
	DestHashedLock   hashlock.HashedLock
	DestPayment      u128.Uint128
	TotalDestPayment u128.Uint128
	InvoiceID        creditid.InvoiceID
	RandNonce        creditid.RandNonce
	Route            route.Route
}

// ResponseBuffer builds response_buf = H("RESPONSE" ‖ request_id ‖
// dest_hashed_lock ‖ dest_payment ‖ total_dest_payment ‖ invoice_id ‖
// plain_rand_nonce ‖ H(route)) (spec §6). This is the exact buffer the
// destination node signs, and the buffer verified against the
// destination's public key when a ResponseSendFunds arrives back at an
// intermediate hop or the originator.
func ResponseBuffer(p ResponseParams) creditid.HashResult {
	destPayment := p.DestPayment.Bytes16()
	totalDestPayment := p.TotalDestPayment.Bytes16()
	routeHash := HashRoute(p.Route)

	return creditid.H(
		[]byte("RESPONSE"),
		p.RequestID[:],
		p.DestHashedLock[:],
		destPayment[:],
		totalDestPayment[:],
		p.InvoiceID[:],
		p.RandNonce[:],
		routeHash[:],
	)
}

// ReceiptBuffer builds receipt_buf = H("RECEIPT" ‖ response_hash ‖
// invoice_id ‖ total_dest_payment) (spec §6), the buffer the
// destination signs once an invoice's total has been reached across
// every contributing route, producing the Receipt the buyer can prove
// payment with.
func ReceiptBuffer(responseHash creditid.HashResult, invoiceID creditid.InvoiceID, totalDestPayment u128.Uint128) creditid.HashResult {
	total := totalDestPayment.Bytes16()
	return creditid.H(
		[]byte("RECEIPT"),
		responseHash[:],
		invoiceID[:],
		total[:],
	)
}

// ResetBuffer builds reset_buf = H("RESET" ‖ new_token ‖
// balance_for_reset) (spec §6), signed by the identity service to
// produce the reset_token exchanged when a channel goes Inconsistent.
func ResetBuffer(newToken creditid.Signature, balanceForReset u128.Int128) creditid.HashResult {
	balance := balanceForReset.Bytes16()
	return creditid.H(
		[]byte("RESET"),
		newToken[:],
		balance[:],
	)
}
