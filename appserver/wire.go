// Conversions between appserver's wire message types and the domain
// types funder/report/creditid/u128 expose, kept in one file the way
// a protoc-generated service's hand-written "conversion layer" usually
// lives separately from the generated messages themselves.
package appserver

import (
	"math/big"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/report"
	"github.com/fritznode/creditnode/u128"
)

func toPublicKey(b []byte) (creditid.PublicKey, error) { return creditid.PublicKeyFromBytes(b) }

func toUid(b []byte) (creditid.Uid, error) { return creditid.UidFromBytes(b) }

func toInvoiceID(b []byte) (creditid.InvoiceID, error) {
	var id creditid.InvoiceID
	if len(b) != creditid.InvoiceIDSize {
		return id, errLen("invoice id", len(b), creditid.InvoiceIDSize)
	}
	copy(id[:], b)
	return id, nil
}

func toPaymentID(b []byte) (creditid.PaymentID, error) {
	var id creditid.PaymentID
	if len(b) != creditid.PaymentIDSize {
		return id, errLen("payment id", len(b), creditid.PaymentIDSize)
	}
	copy(id[:], b)
	return id, nil
}

func errLen(what string, got, want int) error {
	return &wireError{what: what, got: got, want: want}
}

type wireError struct {
	what     string
	got, want int
}

func (e *wireError) Error() string {
	return "appserver: " + e.what + " has wrong length"
}

func toUint128(b []byte) (u128.Uint128, error) {
	return u128.FromBigInt(new(big.Int).SetBytes(b))
}

func fromUint128(v u128.Uint128) []byte {
	b := v.Bytes16()
	return b[:]
}

func fromInt128(v u128.Int128) []byte {
	b := v.Bytes16()
	return b[:]
}

func toRelayAddress(m *RelayAddressMsg) (creditwire.RelayAddress, error) {
	if m == nil {
		return creditwire.RelayAddress{}, nil
	}
	pk, err := toPublicKey(m.PublicKey)
	if err != nil {
		return creditwire.RelayAddress{}, err
	}
	return creditwire.RelayAddress{PublicKey: pk, Address: m.Address}, nil
}

func fromRelayAddress(r creditwire.RelayAddress) *RelayAddressMsg {
	return &RelayAddressMsg{PublicKey: r.PublicKey[:], Address: r.Address}
}

func toReceipt(m *ReceiptMsg) (funder.Receipt, error) {
	var r funder.Receipt
	if m == nil {
		return r, errLen("receipt", 0, 1)
	}
	hash, err := toHashResult(m.ResponseHash)
	if err != nil {
		return r, err
	}
	invID, err := toInvoiceID(m.InvoiceId)
	if err != nil {
		return r, err
	}
	total, err := toUint128(m.TotalDestPayment)
	if err != nil {
		return r, err
	}
	sig, err := creditid.SignatureFromBytes(m.Signature)
	if err != nil {
		return r, err
	}
	return funder.Receipt{
		ResponseHash:     hash,
		InvoiceID:        invID,
		TotalDestPayment: total,
		Signature:        sig,
	}, nil
}

func fromReceipt(r *funder.Receipt) *ReceiptMsg {
	if r == nil {
		return nil
	}
	return &ReceiptMsg{
		ResponseHash:     r.ResponseHash[:],
		InvoiceId:        r.InvoiceID[:],
		TotalDestPayment: fromUint128(r.TotalDestPayment),
		Signature:        r.Signature[:],
	}
}

func toHashResult(b []byte) (creditid.HashResult, error) {
	var h creditid.HashResult
	if len(b) != creditid.HashResultSize {
		return h, errLen("hash result", len(b), creditid.HashResultSize)
	}
	copy(h[:], b)
	return h, nil
}

func fromPayment(p *funder.Payment) *PaymentMsg {
	if p == nil {
		return nil
	}
	return &PaymentMsg{
		PaymentId:           p.PaymentID[:],
		InvoiceId:           p.InvoiceID[:],
		TotalDestPayment:    fromUint128(p.TotalDestPayment),
		DestPublicKey:       p.DestPublicKey[:],
		Stage:               int32(p.Stage),
		NumOpenTransactions: p.NumOpenTransactions,
	}
}

func fromFunderReport(r *report.FunderReport) *FunderReportMsg {
	out := &FunderReportMsg{
		LocalPublicKey:   r.LocalPublicKey[:],
		OpenInvoices:     int64(r.OpenInvoices),
		OpenTransactions: int64(r.OpenTransactions),
	}
	for _, f := range r.Friends {
		out.Friends = append(out.Friends, fromFriendReport(f))
	}
	return out
}

func fromFriendReport(f *report.FriendReport) *FriendReportMsg {
	return &FriendReportMsg{
		PublicKey:    f.PublicKey[:],
		Name:         f.Name,
		Balance:      fromInt128(f.Balance.Balance),
		Liveness:     int32(f.Liveness),
		Enabled:      f.Enabled,
		RequestsOpen: f.RequestsOpen,
	}
}

func fromReportMutation(m report.FunderReportMutation) *FunderReportMutationMsg {
	out := &FunderReportMutationMsg{
		Kind:            int32(m.Kind),
		FriendPublicKey: m.FriendPublicKey[:],
		Name:            m.Name,
		Enabled:         m.Enabled,
	}
	if m.AppRequestID != nil {
		out.AppRequestId = m.AppRequestID[:]
	}
	return out
}
