// Message types for the App control surface (spec §6). Hand-written
// rather than protoc-generated — this exercise never runs the Go
// toolchain, let alone protoc — but shaped exactly like protoc-gen-go's
// output: each satisfies github.com/golang/protobuf/proto.Message
// (Reset/String/ProtoMessage) and carries the same struct field tags a
// generated .pb.go would, so the real proto.Marshal/Unmarshal machinery
// that package ships still works against them.
package appserver

import (
	"fmt"

	"github.com/golang/protobuf/proto"
)

// Compile-time assertions that every message type here really
// satisfies proto.Message, the same block protoc-gen-go itself emits
// at the bottom of a generated .pb.go — kept real here (rather than
// just claimed in the doc comment above) so proto.Marshal/Unmarshal
// and grpc's default codec, which both dispatch on this interface,
// actually accept these hand-written types.
var (
	_ proto.Message = (*Empty)(nil)
	_ proto.Message = (*AddFriendRequest)(nil)
	_ proto.Message = (*RemoveFriendRequest)(nil)
	_ proto.Message = (*SetFriendNameRequest)(nil)
	_ proto.Message = (*SetFriendRelaysRequest)(nil)
	_ proto.Message = (*RelayAddressMsg)(nil)
	_ proto.Message = (*SetFriendRemoteMaxDebtRequest)(nil)
	_ proto.Message = (*SetFriendRateRequest)(nil)
	_ proto.Message = (*FriendPublicKeyRequest)(nil)
	_ proto.Message = (*ResetFriendChannelResponse)(nil)
	_ proto.Message = (*AddRelayRequest)(nil)
	_ proto.Message = (*RemoveRelayRequest)(nil)
	_ proto.Message = (*AddInvoiceRequest)(nil)
	_ proto.Message = (*InvoiceIdRequest)(nil)
	_ proto.Message = (*CommitInvoiceResponse)(nil)
	_ proto.Message = (*ReceiptMsg)(nil)
	_ proto.Message = (*CreatePaymentRequest)(nil)
	_ proto.Message = (*CreateTransactionRequest)(nil)
	_ proto.Message = (*PaymentIdRequest)(nil)
	_ proto.Message = (*RequestClosePaymentResponse)(nil)
	_ proto.Message = (*PaymentMsg)(nil)
	_ proto.Message = (*AckClosePaymentRequest)(nil)
	_ proto.Message = (*CompletePaymentWithReceiptRequest)(nil)
	_ proto.Message = (*CancelTransactionRequest)(nil)
	_ proto.Message = (*AddIndexServerRequest)(nil)
	_ proto.Message = (*RemoveIndexServerRequest)(nil)
	_ proto.Message = (*RequestRoutesRequest)(nil)
	_ proto.Message = (*RequestRoutesResponse)(nil)
	_ proto.Message = (*RouteMsg)(nil)
	_ proto.Message = (*GetReportRequest)(nil)
	_ proto.Message = (*FunderReportMsg)(nil)
	_ proto.Message = (*FriendReportMsg)(nil)
	_ proto.Message = (*SubscribeReportRequest)(nil)
	_ proto.Message = (*FunderReportMutationMsg)(nil)
)

// Empty is the response for every control op whose only observable
// effect is success/failure (spec's App control ops mostly return no
// payload of their own — the resulting state change is observed
// through the Report/Mutation Stream instead, spec §4.5).
type Empty struct{}

func (*Empty) Reset()         {}
func (*Empty) String() string { return "Empty{}" }
func (*Empty) ProtoMessage()  {}

type AddFriendRequest struct {
	FriendPublicKey []byte `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
	Name            string `protobuf:"bytes,2,opt,name=name"`
}

func (*AddFriendRequest) Reset()         {}
func (m *AddFriendRequest) String() string { return fmt.Sprintf("AddFriendRequest{Name: %q}", m.Name) }
func (*AddFriendRequest) ProtoMessage()  {}

type RemoveFriendRequest struct {
	FriendPublicKey []byte `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
}

func (*RemoveFriendRequest) Reset()         {}
func (*RemoveFriendRequest) String() string { return "RemoveFriendRequest{}" }
func (*RemoveFriendRequest) ProtoMessage()  {}

type SetFriendNameRequest struct {
	FriendPublicKey []byte `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
	Name            string `protobuf:"bytes,2,opt,name=name"`
}

func (*SetFriendNameRequest) Reset()         {}
func (*SetFriendNameRequest) String() string { return "SetFriendNameRequest{}" }
func (*SetFriendNameRequest) ProtoMessage()  {}

type SetFriendRelaysRequest struct {
	FriendPublicKey []byte        `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
	Relays          []*RelayAddressMsg `protobuf:"bytes,2,rep,name=relays"`
}

func (*SetFriendRelaysRequest) Reset()         {}
func (*SetFriendRelaysRequest) String() string { return "SetFriendRelaysRequest{}" }
func (*SetFriendRelaysRequest) ProtoMessage()  {}

type RelayAddressMsg struct {
	PublicKey []byte `protobuf:"bytes,1,opt,name=public_key,json=publicKey"`
	Address   string `protobuf:"bytes,2,opt,name=address"`
}

func (*RelayAddressMsg) Reset()         {}
func (*RelayAddressMsg) String() string { return "RelayAddressMsg{}" }
func (*RelayAddressMsg) ProtoMessage()  {}

type SetFriendRemoteMaxDebtRequest struct {
	FriendPublicKey []byte `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
	MaxDebt         []byte `protobuf:"bytes,2,opt,name=max_debt,json=maxDebt"`
}

func (*SetFriendRemoteMaxDebtRequest) Reset()         {}
func (*SetFriendRemoteMaxDebtRequest) String() string { return "SetFriendRemoteMaxDebtRequest{}" }
func (*SetFriendRemoteMaxDebtRequest) ProtoMessage()  {}

type SetFriendRateRequest struct {
	FriendPublicKey []byte `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
	Base            []byte `protobuf:"bytes,2,opt,name=base"`
	Mul             []byte `protobuf:"bytes,3,opt,name=mul"`
}

func (*SetFriendRateRequest) Reset()         {}
func (*SetFriendRateRequest) String() string { return "SetFriendRateRequest{}" }
func (*SetFriendRateRequest) ProtoMessage()  {}

type FriendPublicKeyRequest struct {
	FriendPublicKey []byte `protobuf:"bytes,1,opt,name=friend_public_key,json=friendPublicKey"`
}

func (*FriendPublicKeyRequest) Reset()         {}
func (*FriendPublicKeyRequest) String() string { return "FriendPublicKeyRequest{}" }
func (*FriendPublicKeyRequest) ProtoMessage()  {}

type ResetFriendChannelResponse struct {
	WentInconsistent bool `protobuf:"varint,1,opt,name=went_inconsistent,json=wentInconsistent"`
}

func (*ResetFriendChannelResponse) Reset()         {}
func (*ResetFriendChannelResponse) String() string { return "ResetFriendChannelResponse{}" }
func (*ResetFriendChannelResponse) ProtoMessage()  {}

type AddRelayRequest struct {
	Relay *RelayAddressMsg `protobuf:"bytes,1,opt,name=relay"`
}

func (*AddRelayRequest) Reset()         {}
func (*AddRelayRequest) String() string { return "AddRelayRequest{}" }
func (*AddRelayRequest) ProtoMessage()  {}

type RemoveRelayRequest struct {
	RelayPublicKey []byte `protobuf:"bytes,1,opt,name=relay_public_key,json=relayPublicKey"`
}

func (*RemoveRelayRequest) Reset()         {}
func (*RemoveRelayRequest) String() string { return "RemoveRelayRequest{}" }
func (*RemoveRelayRequest) ProtoMessage()  {}

type AddInvoiceRequest struct {
	InvoiceId []byte `protobuf:"bytes,1,opt,name=invoice_id,json=invoiceId"`
	Total     []byte `protobuf:"bytes,2,opt,name=total"`
}

func (*AddInvoiceRequest) Reset()         {}
func (*AddInvoiceRequest) String() string { return "AddInvoiceRequest{}" }
func (*AddInvoiceRequest) ProtoMessage()  {}

type InvoiceIdRequest struct {
	InvoiceId []byte `protobuf:"bytes,1,opt,name=invoice_id,json=invoiceId"`
}

func (*InvoiceIdRequest) Reset()         {}
func (*InvoiceIdRequest) String() string { return "InvoiceIdRequest{}" }
func (*InvoiceIdRequest) ProtoMessage()  {}

type CommitInvoiceResponse struct {
	Receipt *ReceiptMsg `protobuf:"bytes,1,opt,name=receipt"`
}

func (*CommitInvoiceResponse) Reset()         {}
func (*CommitInvoiceResponse) String() string { return "CommitInvoiceResponse{}" }
func (*CommitInvoiceResponse) ProtoMessage()  {}

type ReceiptMsg struct {
	ResponseHash     []byte `protobuf:"bytes,1,opt,name=response_hash,json=responseHash"`
	InvoiceId        []byte `protobuf:"bytes,2,opt,name=invoice_id,json=invoiceId"`
	TotalDestPayment []byte `protobuf:"bytes,3,opt,name=total_dest_payment,json=totalDestPayment"`
	Signature        []byte `protobuf:"bytes,4,opt,name=signature"`
}

func (*ReceiptMsg) Reset()         {}
func (*ReceiptMsg) String() string { return "ReceiptMsg{}" }
func (*ReceiptMsg) ProtoMessage()  {}

type CreatePaymentRequest struct {
	PaymentId     []byte `protobuf:"bytes,1,opt,name=payment_id,json=paymentId"`
	InvoiceId     []byte `protobuf:"bytes,2,opt,name=invoice_id,json=invoiceId"`
	Total         []byte `protobuf:"bytes,3,opt,name=total"`
	DestPublicKey []byte `protobuf:"bytes,4,opt,name=dest_public_key,json=destPublicKey"`
}

func (*CreatePaymentRequest) Reset()         {}
func (*CreatePaymentRequest) String() string { return "CreatePaymentRequest{}" }
func (*CreatePaymentRequest) ProtoMessage()  {}

type CreateTransactionRequest struct {
	PaymentId   []byte   `protobuf:"bytes,1,opt,name=payment_id,json=paymentId"`
	RequestId   []byte   `protobuf:"bytes,2,opt,name=request_id,json=requestId"`
	Hops        [][]byte `protobuf:"bytes,3,rep,name=hops"`
	DestPayment []byte   `protobuf:"bytes,4,opt,name=dest_payment,json=destPayment"`
	LeftFees    []byte   `protobuf:"bytes,5,opt,name=left_fees,json=leftFees"`
}

func (*CreateTransactionRequest) Reset()         {}
func (*CreateTransactionRequest) String() string { return "CreateTransactionRequest{}" }
func (*CreateTransactionRequest) ProtoMessage()  {}

type PaymentIdRequest struct {
	PaymentId []byte `protobuf:"bytes,1,opt,name=payment_id,json=paymentId"`
}

func (*PaymentIdRequest) Reset()         {}
func (*PaymentIdRequest) String() string { return "PaymentIdRequest{}" }
func (*PaymentIdRequest) ProtoMessage()  {}

type RequestClosePaymentResponse struct {
	Payment *PaymentMsg `protobuf:"bytes,1,opt,name=payment"`
}

func (*RequestClosePaymentResponse) Reset()         {}
func (*RequestClosePaymentResponse) String() string { return "RequestClosePaymentResponse{}" }
func (*RequestClosePaymentResponse) ProtoMessage()  {}

type PaymentMsg struct {
	PaymentId           []byte `protobuf:"bytes,1,opt,name=payment_id,json=paymentId"`
	InvoiceId           []byte `protobuf:"bytes,2,opt,name=invoice_id,json=invoiceId"`
	TotalDestPayment    []byte `protobuf:"bytes,3,opt,name=total_dest_payment,json=totalDestPayment"`
	DestPublicKey       []byte `protobuf:"bytes,4,opt,name=dest_public_key,json=destPublicKey"`
	Stage               int32  `protobuf:"varint,5,opt,name=stage"`
	NumOpenTransactions uint64 `protobuf:"varint,6,opt,name=num_open_transactions,json=numOpenTransactions"`
}

func (*PaymentMsg) Reset()         {}
func (*PaymentMsg) String() string { return "PaymentMsg{}" }
func (*PaymentMsg) ProtoMessage()  {}

type AckClosePaymentRequest struct {
	PaymentId []byte `protobuf:"bytes,1,opt,name=payment_id,json=paymentId"`
	AckUid    []byte `protobuf:"bytes,2,opt,name=ack_uid,json=ackUid"`
}

func (*AckClosePaymentRequest) Reset()         {}
func (*AckClosePaymentRequest) String() string { return "AckClosePaymentRequest{}" }
func (*AckClosePaymentRequest) ProtoMessage()  {}

type CompletePaymentWithReceiptRequest struct {
	PaymentId []byte      `protobuf:"bytes,1,opt,name=payment_id,json=paymentId"`
	Receipt   *ReceiptMsg `protobuf:"bytes,2,opt,name=receipt"`
}

func (*CompletePaymentWithReceiptRequest) Reset()         {}
func (*CompletePaymentWithReceiptRequest) String() string { return "CompletePaymentWithReceiptRequest{}" }
func (*CompletePaymentWithReceiptRequest) ProtoMessage()  {}

type CancelTransactionRequest struct {
	RequestId []byte `protobuf:"bytes,1,opt,name=request_id,json=requestId"`
}

func (*CancelTransactionRequest) Reset()         {}
func (*CancelTransactionRequest) String() string { return "CancelTransactionRequest{}" }
func (*CancelTransactionRequest) ProtoMessage()  {}

type AddIndexServerRequest struct {
	Address string `protobuf:"bytes,1,opt,name=address"`
}

func (*AddIndexServerRequest) Reset()         {}
func (*AddIndexServerRequest) String() string { return "AddIndexServerRequest{}" }
func (*AddIndexServerRequest) ProtoMessage()  {}

type RemoveIndexServerRequest struct {
	Address string `protobuf:"bytes,1,opt,name=address"`
}

func (*RemoveIndexServerRequest) Reset()         {}
func (*RemoveIndexServerRequest) String() string { return "RemoveIndexServerRequest{}" }
func (*RemoveIndexServerRequest) ProtoMessage()  {}

type RequestRoutesRequest struct {
	DestPublicKey []byte `protobuf:"bytes,1,opt,name=dest_public_key,json=destPublicKey"`
	Amount        []byte `protobuf:"bytes,2,opt,name=amount"`
}

func (*RequestRoutesRequest) Reset()         {}
func (*RequestRoutesRequest) String() string { return "RequestRoutesRequest{}" }
func (*RequestRoutesRequest) ProtoMessage()  {}

type RequestRoutesResponse struct {
	Routes []*RouteMsg `protobuf:"bytes,1,rep,name=routes"`
}

func (*RequestRoutesResponse) Reset()         {}
func (*RequestRoutesResponse) String() string { return "RequestRoutesResponse{}" }
func (*RequestRoutesResponse) ProtoMessage()  {}

type RouteMsg struct {
	Hops [][]byte `protobuf:"bytes,1,rep,name=hops"`
}

func (*RouteMsg) Reset()         {}
func (*RouteMsg) String() string { return "RouteMsg{}" }
func (*RouteMsg) ProtoMessage()  {}

type GetReportRequest struct{}

func (*GetReportRequest) Reset()         {}
func (*GetReportRequest) String() string { return "GetReportRequest{}" }
func (*GetReportRequest) ProtoMessage()  {}

type FunderReportMsg struct {
	LocalPublicKey   []byte             `protobuf:"bytes,1,opt,name=local_public_key,json=localPublicKey"`
	Friends          []*FriendReportMsg `protobuf:"bytes,2,rep,name=friends"`
	OpenInvoices     int64              `protobuf:"varint,3,opt,name=open_invoices,json=openInvoices"`
	OpenTransactions int64              `protobuf:"varint,4,opt,name=open_transactions,json=openTransactions"`
}

func (*FunderReportMsg) Reset()         {}
func (*FunderReportMsg) String() string { return "FunderReportMsg{}" }
func (*FunderReportMsg) ProtoMessage()  {}

type FriendReportMsg struct {
	PublicKey    []byte `protobuf:"bytes,1,opt,name=public_key,json=publicKey"`
	Name         string `protobuf:"bytes,2,opt,name=name"`
	Balance      []byte `protobuf:"bytes,3,opt,name=balance"`
	Liveness     int32  `protobuf:"varint,4,opt,name=liveness"`
	Enabled      bool   `protobuf:"varint,5,opt,name=enabled"`
	RequestsOpen bool   `protobuf:"varint,6,opt,name=requests_open,json=requestsOpen"`
}

func (*FriendReportMsg) Reset()         {}
func (*FriendReportMsg) String() string { return "FriendReportMsg{}" }
func (*FriendReportMsg) ProtoMessage()  {}

// SubscribeReportRequest has no fields: a client with any valid
// permission macaroon may subscribe, since the mutation stream itself
// carries no control capability (spec §4.5 is read-only to the App).
type SubscribeReportRequest struct{}

func (*SubscribeReportRequest) Reset()         {}
func (*SubscribeReportRequest) String() string { return "SubscribeReportRequest{}" }
func (*SubscribeReportRequest) ProtoMessage()  {}

// FunderReportMutationMsg is one item the SubscribeReport server stream
// sends, mirroring report.FunderReportMutation.
type FunderReportMutationMsg struct {
	Kind            int32  `protobuf:"varint,1,opt,name=kind"`
	AppRequestId    []byte `protobuf:"bytes,2,opt,name=app_request_id,json=appRequestId"`
	FriendPublicKey []byte `protobuf:"bytes,3,opt,name=friend_public_key,json=friendPublicKey"`
	Name            string `protobuf:"bytes,4,opt,name=name"`
	Enabled         bool   `protobuf:"varint,5,opt,name=enabled"`
}

func (*FunderReportMutationMsg) Reset()         {}
func (*FunderReportMutationMsg) String() string { return "FunderReportMutationMsg{}" }
func (*FunderReportMutationMsg) ProtoMessage()  {}
