package funder

import "errors"

// ErrUnknownFriend is returned whenever a control or wire operation
// names a public key this node has no friend relationship with.
var ErrUnknownFriend = errors.New("funder: unknown friend")

// ErrFriendAlreadyExists is returned by AddFriend for a public key
// already tracked.
var ErrFriendAlreadyExists = errors.New("funder: friend already exists")

// ErrInvoiceAlreadyExists is returned by AddInvoice for an invoice id
// already open.
var ErrInvoiceAlreadyExists = errors.New("funder: invoice already exists")

// ErrUnknownInvoice correlates an operation against an invoice id this
// node has no OpenInvoice for (spec §7 "missing correlation").
var ErrUnknownInvoice = errors.New("funder: unknown invoice")

// ErrInvoiceNotComplete is returned by CommitInvoice when the
// accumulated incoming transactions haven't yet reached the invoice's
// total.
var ErrInvoiceNotComplete = errors.New("funder: invoice has not reached its total yet")

// ErrPaymentAlreadyExists is returned by CreatePayment for a payment
// id already tracked.
var ErrPaymentAlreadyExists = errors.New("funder: payment already exists")

// ErrUnknownPayment correlates an operation against a payment id this
// node has no Payment for.
var ErrUnknownPayment = errors.New("funder: unknown payment")

// ErrUnknownTransaction correlates an incoming Response/Cancel/Collect
// against a request id this node has no OpenTransaction for — the
// request either never transited this node or already resolved.
var ErrUnknownTransaction = errors.New("funder: unknown open transaction")

// ErrPaymentWrongStage is returned when a buyer-flow operation is
// attempted against a Payment in a stage that doesn't admit it (spec
// §3 Payment lifecycle).
var ErrPaymentWrongStage = errors.New("funder: payment is not in the expected lifecycle stage")

// ErrAckMismatch describes a supplied ack id that doesn't match the one
// stored on a Payment. AckClosePayment does not compare ack ids and
// never returns it; a Payment's ack id is stored only when
// AckClosePayment moves it to AfterSuccessAck.
var ErrAckMismatch = errors.New("funder: ack uid does not match payment's stored ack uid")

// ErrInvalidReceiptSignature is returned when a Receipt arriving at
// the buyer fails to verify against the destination public key (spec
// §8 invariant 4).
var ErrInvalidReceiptSignature = errors.New("funder: receipt signature does not verify against destination key")
