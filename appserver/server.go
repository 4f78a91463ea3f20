// Package appserver is the App control surface (spec §6): a gRPC
// service, one RPC per control message, fanning every mutating call
// through funder.EventLoop.SubmitAppRequest so it is serialized with
// every other input the single-writer loop handles (spec §5), plus a
// server-streaming RPC exposing the Report/Mutation Stream (spec
// §4.5) via report.Hub. Modeled on the teacher's (now-deleted, see
// DESIGN.md's verbatim-teacher-package audit) rpcserver.go: one
// service struct holding references into the running node, coarse
// macaroon permission checks ahead of dispatch, typed request/response
// messages per RPC.
package appserver

import (
	"context"
	"encoding/hex"

	"google.golang.org/grpc/metadata"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/indexclient"
	"github.com/fritznode/creditnode/report"
)

// appRequestIDMetadataKey is the gRPC metadata key a client sets to
// correlate a control call with the ReportMutations it eventually
// produces (spec §6: "Each carries an app_request_id: Uid that must be
// echoed in the eventual ReportMutations.opt_app_request_id"), read
// the same way a client-supplied idempotency key is usually carried:
// out of band from the RPC's own typed payload, since every control
// message needs one uniformly rather than each carrying its own field.
const appRequestIDMetadataKey = "app-request-id"

func appRequestIDFromContext(ctx context.Context) *creditid.Uid {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	vals := md.Get(appRequestIDMetadataKey)
	if len(vals) == 0 {
		return nil
	}
	raw, err := hex.DecodeString(vals[0])
	if err != nil {
		return nil
	}
	uid, err := creditid.UidFromBytes(raw)
	if err != nil {
		return nil
	}
	return &uid
}

// Server implements the App control surface against a running node.
// It never touches FunderState directly — every mutating call goes
// through loop.SubmitAppRequest, and GetReport/SubscribeReport read
// through hub/state snapshot only.
type Server struct {
	loop           *funder.EventLoop
	state          *funder.FunderState
	hub            *report.Hub
	identityClient *identity.Client
	index          indexclient.Client
	macaroons      *MacaroonService
}

// NewServer wires a Server to the running node's event loop, state
// (read-only access for GetReport/RequestClosePayment-style queries),
// report hub, identity client (ResetFriendChannel/CommitInvoice need
// it for their own signing suspension points), and Index client.
func NewServer(loop *funder.EventLoop, state *funder.FunderState, hub *report.Hub, identityClient *identity.Client, index indexclient.Client, macaroons *MacaroonService) *Server {
	if index == nil {
		index = indexclient.NopClient{}
	}
	return &Server{loop: loop, state: state, hub: hub, identityClient: identityClient, index: index, macaroons: macaroons}
}

func (s *Server) checkPermission(ctx context.Context, required Permission) error {
	if s.macaroons == nil {
		return nil
	}
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return errPermissionDenied
	}
	vals := md.Get("macaroon")
	if len(vals) == 0 {
		return errPermissionDenied
	}
	raw, err := hex.DecodeString(vals[0])
	if err != nil {
		return errPermissionDenied
	}
	return s.macaroons.Verify(raw, required)
}

var errPermissionDenied = &wireError{what: "macaroon missing or invalid"}

// checkAnyPermission accepts a macaroon for any of the four buckets —
// GetReport/SubscribeReport are read-only on the Report/Mutation
// Stream and carry no control capability, so any valid macaroon
// authorizes them (spec §4.5 names them the App's read-only surface).
func (s *Server) checkAnyPermission(ctx context.Context) error {
	for _, p := range []Permission{PermissionConfig, PermissionBuyer, PermissionSeller, PermissionRoutes} {
		if s.checkPermission(ctx, p) == nil {
			return nil
		}
	}
	if s.macaroons == nil {
		return nil
	}
	return errPermissionDenied
}

func (s *Server) submit(ctx context.Context, run func(ctx context.Context) ([]funder.FunderMutation, []funder.Outgoing, error)) error {
	return s.loop.SubmitAppRequest(appRequestIDFromContext(ctx), run)
}

// --- config bucket ---

func (s *Server) AddFriend(ctx context.Context, req *AddFriendRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(ctx context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.AddFriend(ctx, s.state, s.identityClient, pk, req.Name)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) RemoveFriend(ctx context.Context, req *RemoveFriendRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.RemoveFriend(s.state, pk)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) SetFriendName(ctx context.Context, req *SetFriendNameRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.SetFriendName(s.state, pk, req.Name)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) SetFriendRelays(ctx context.Context, req *SetFriendRelaysRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	relays := make([]creditwire.RelayAddress, 0, len(req.Relays))
	for _, r := range req.Relays {
		ra, err := toRelayAddress(r)
		if err != nil {
			return nil, err
		}
		relays = append(relays, ra)
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.SetFriendRelays(s.state, pk, relays)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) SetFriendRemoteMaxDebt(ctx context.Context, req *SetFriendRemoteMaxDebtRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	maxDebt, err := toUint128(req.MaxDebt)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.SetFriendRemoteMaxDebt(s.state, pk, maxDebt)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) SetFriendRate(ctx context.Context, req *SetFriendRateRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	base, err := toUint128(req.Base)
	if err != nil {
		return nil, err
	}
	mul, err := toUint128(req.Mul)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.SetFriendRate(s.state, pk, friend.Rate{Base: base, Mul: mul})
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) EnableFriend(ctx context.Context, req *FriendPublicKeyRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.EnableFriend(s.state, pk)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) DisableFriend(ctx context.Context, req *FriendPublicKeyRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.DisableFriend(s.state, pk)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) OpenFriend(ctx context.Context, req *FriendPublicKeyRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		return nil, nil, funder.OpenFriend(s.state, pk)
	})
	return &Empty{}, err
}

func (s *Server) CloseFriend(ctx context.Context, req *FriendPublicKeyRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		return nil, nil, funder.CloseFriend(s.state, pk)
	})
	return &Empty{}, err
}

func (s *Server) ResetFriendChannel(ctx context.Context, req *FriendPublicKeyRequest) (*ResetFriendChannelResponse, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.FriendPublicKey)
	if err != nil {
		return nil, err
	}
	resp := &ResetFriendChannelResponse{}
	err = s.submit(ctx, func(ctx context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		_, muts, err := funder.ResetFriendChannel(ctx, s.state, s.identityClient, pk)
		resp.WentInconsistent = err == nil
		return muts, nil, err
	})
	return resp, err
}

func (s *Server) AddRelay(ctx context.Context, req *AddRelayRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	relay, err := toRelayAddress(req.Relay)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		return funder.AddRelay(s.state, relay)
	})
	return &Empty{}, err
}

func (s *Server) RemoveRelay(ctx context.Context, req *RemoveRelayRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionConfig); err != nil {
		return nil, err
	}
	pk, err := toPublicKey(req.RelayPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		return funder.RemoveRelay(s.state, pk)
	})
	return &Empty{}, err
}

// --- seller bucket ---

func (s *Server) AddInvoice(ctx context.Context, req *AddInvoiceRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionSeller); err != nil {
		return nil, err
	}
	id, err := toInvoiceID(req.InvoiceId)
	if err != nil {
		return nil, err
	}
	total, err := toUint128(req.Total)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.AddInvoice(s.state, id, total)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) CancelInvoice(ctx context.Context, req *InvoiceIdRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionSeller); err != nil {
		return nil, err
	}
	id, err := toInvoiceID(req.InvoiceId)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.CancelInvoice(s.state, id)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) CommitInvoice(ctx context.Context, req *InvoiceIdRequest) (*CommitInvoiceResponse, error) {
	if err := s.checkPermission(ctx, PermissionSeller); err != nil {
		return nil, err
	}
	id, err := toInvoiceID(req.InvoiceId)
	if err != nil {
		return nil, err
	}
	resp := &CommitInvoiceResponse{}
	err = s.submit(ctx, func(ctx context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, receipt, err := funder.CommitInvoice(ctx, s.state, id, s.identityClient)
		resp.Receipt = fromReceipt(receipt)
		return muts, nil, err
	})
	return resp, err
}

// --- buyer bucket ---

func (s *Server) CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionBuyer); err != nil {
		return nil, err
	}
	paymentID, err := toPaymentID(req.PaymentId)
	if err != nil {
		return nil, err
	}
	invoiceID, err := toInvoiceID(req.InvoiceId)
	if err != nil {
		return nil, err
	}
	total, err := toUint128(req.Total)
	if err != nil {
		return nil, err
	}
	destPk, err := toPublicKey(req.DestPublicKey)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.CreatePayment(s.state, paymentID, invoiceID, total, destPk)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionBuyer); err != nil {
		return nil, err
	}
	paymentID, err := toPaymentID(req.PaymentId)
	if err != nil {
		return nil, err
	}
	requestID, err := toUid(req.RequestId)
	if err != nil {
		return nil, err
	}
	hops := make([]creditid.PublicKey, 0, len(req.Hops))
	for _, h := range req.Hops {
		pk, err := toPublicKey(h)
		if err != nil {
			return nil, err
		}
		hops = append(hops, pk)
	}
	destPayment, err := toUint128(req.DestPayment)
	if err != nil {
		return nil, err
	}
	leftFees, err := toUint128(req.LeftFees)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.CreateTransaction(s.state, paymentID, requestID, hops, destPayment, leftFees)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) RequestClosePayment(ctx context.Context, req *PaymentIdRequest) (*RequestClosePaymentResponse, error) {
	if err := s.checkPermission(ctx, PermissionBuyer); err != nil {
		return nil, err
	}
	paymentID, err := toPaymentID(req.PaymentId)
	if err != nil {
		return nil, err
	}
	resp := &RequestClosePaymentResponse{}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		payment, err := funder.RequestClosePayment(s.state, paymentID)
		resp.Payment = fromPayment(payment)
		return nil, nil, err
	})
	return resp, err
}

func (s *Server) AckClosePayment(ctx context.Context, req *AckClosePaymentRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionBuyer); err != nil {
		return nil, err
	}
	paymentID, err := toPaymentID(req.PaymentId)
	if err != nil {
		return nil, err
	}
	ackUid, err := toUid(req.AckUid)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.AckClosePayment(s.state, paymentID, ackUid)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) CompletePaymentWithReceipt(ctx context.Context, req *CompletePaymentWithReceiptRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionBuyer); err != nil {
		return nil, err
	}
	paymentID, err := toPaymentID(req.PaymentId)
	if err != nil {
		return nil, err
	}
	receipt, err := toReceipt(req.Receipt)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.CompletePaymentWithReceipt(s.state, paymentID, receipt)
		return muts, nil, err
	})
	return &Empty{}, err
}

func (s *Server) CancelTransaction(ctx context.Context, req *CancelTransactionRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionBuyer); err != nil {
		return nil, err
	}
	requestID, err := toUid(req.RequestId)
	if err != nil {
		return nil, err
	}
	err = s.submit(ctx, func(context.Context) ([]funder.FunderMutation, []funder.Outgoing, error) {
		muts, err := funder.CancelTransaction(s.state, requestID)
		return muts, nil, err
	})
	return &Empty{}, err
}

// --- routes bucket ---

func (s *Server) AddIndexServer(ctx context.Context, req *AddIndexServerRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionRoutes); err != nil {
		return nil, err
	}
	return &Empty{}, s.index.AddServer(req.Address)
}

func (s *Server) RemoveIndexServer(ctx context.Context, req *RemoveIndexServerRequest) (*Empty, error) {
	if err := s.checkPermission(ctx, PermissionRoutes); err != nil {
		return nil, err
	}
	return &Empty{}, s.index.RemoveServer(req.Address)
}

func (s *Server) RequestRoutes(ctx context.Context, req *RequestRoutesRequest) (*RequestRoutesResponse, error) {
	if err := s.checkPermission(ctx, PermissionRoutes); err != nil {
		return nil, err
	}
	destPk, err := toPublicKey(req.DestPublicKey)
	if err != nil {
		return nil, err
	}
	amount, err := toUint128(req.Amount)
	if err != nil {
		return nil, err
	}
	routes, err := s.index.RequestRoutes(ctx, s.state.LocalPublicKey, destPk, indexclient.Amount{Lo: amount.Big().Uint64()})
	if err != nil {
		return nil, err
	}
	resp := &RequestRoutesResponse{}
	for _, r := range routes {
		hops := make([][]byte, len(r.Hops))
		for i, h := range r.Hops {
			hops[i] = h[:]
		}
		resp.Routes = append(resp.Routes, &RouteMsg{Hops: hops})
	}
	return resp, nil
}

// --- read-only report surface ---

func (s *Server) GetReport(ctx context.Context, req *GetReportRequest) (*FunderReportMsg, error) {
	if err := s.checkAnyPermission(ctx); err != nil {
		return nil, err
	}
	return fromFunderReport(report.Snapshot(s.state)), nil
}

// ReportStream is the narrow server-stream-sending surface SubscribeReport
// writes onto; service.go's subscribeReportServerStream adapts a
// grpc.ServerStream to it (Send calls ServerStream.SendMsg).
type ReportStream interface {
	Send(*FunderReportMutationMsg) error
	Context() context.Context
}

// SubscribeReport implements the Report/Mutation Stream (spec §4.5) as
// a server-streaming RPC: every FunderReportMutation batch published
// to hub after this call is forwarded to stream until its context is
// canceled (the client disconnects).
func (s *Server) SubscribeReport(req *SubscribeReportRequest, stream ReportStream) error {
	if err := s.checkAnyPermission(stream.Context()); err != nil {
		return err
	}
	ch, unsubscribe := s.hub.Subscribe(stream.Context())
	defer unsubscribe()

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case item := <-ch:
			batch, ok := item.([]report.FunderReportMutation)
			if !ok {
				continue
			}
			for _, m := range batch {
				if err := stream.Send(fromReportMutation(m)); err != nil {
					return err
				}
			}
		}
	}
}
