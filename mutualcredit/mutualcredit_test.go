package mutualcredit

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditsig"
	"github.com/fritznode/creditnode/hashlock"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/route"
	"github.com/fritznode/creditnode/u128"
)

type testIdentity struct {
	pk     creditid.PublicKey
	client *identity.Client
	server *identity.Server
}

func newTestIdentity(t *testing.T) *testIdentity {
	t.Helper()
	pk, priv, err := identity.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, err := identity.NewServer(priv)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Stop)
	return &testIdentity{pk: pk, client: srv.NewClient(), server: srv}
}

func mustAdd(t *testing.T, a, b u128.Uint128) u128.Uint128 {
	t.Helper()
	v, err := a.Add(b)
	if err != nil {
		t.Fatalf("add overflow: %v", err)
	}
	return v
}

// setupOpenChannel returns a MutualCredit between local and remote with
// both sides' requests enabled and remote_max_debt set to limit.
func setupOpenChannel(t *testing.T, local, remote creditid.PublicKey, limit uint64) *MutualCredit {
	t.Helper()
	mc := New(local, remote, u128.FromInt64(0))

	for _, op := range []FriendTcOp{
		EnableRequests(),
		SetRemoteMaxDebt(u128.FromUint64(limit)),
	} {
		if _, err := ProcessOperation(mc, op); err != nil {
			t.Fatalf("setup op failed: %v", err)
		}
	}
	mc.Mutate(McMutation{Kind: MutSetLocalRequestsStatus, RequestsStatus: StatusOpen})
	mc.Mutate(McMutation{Kind: MutSetRemoteMaxDebt, Amount: u128.FromUint64(limit)})
	return mc
}

func TestRequestFreezesRemotePendingDebt(t *testing.T) {
	local, remote := pk(1), pk(2)
	mc := setupOpenChannel(t, local, remote, 100)

	req := RequestSendFundsOp{
		RequestID:        uid(1),
		Route:            route.Route{PublicKeys: []creditid.PublicKey{remote, local}},
		DestPayment:      u128.FromUint64(10),
		TotalDestPayment: u128.FromUint64(10),
		LeftFees:         u128.FromUint64(0),
		SrcHashedLock:    mustLock(t).Hash(),
	}

	out, err := ProcessOperation(mc, RequestSendFunds(req))
	if err != nil {
		t.Fatalf("process request: %v", err)
	}
	if out.IncomingMessage == nil || out.IncomingMessage.Kind != IncomingRequest {
		t.Fatalf("expected incoming request message, got %+v", out.IncomingMessage)
	}

	bal := mc.Balance()
	if bal.RemotePendingDebt.Cmp(u128.FromUint64(10)) != 0 {
		t.Fatalf("remote_pending_debt = %s, want 10", bal.RemotePendingDebt)
	}
}

func TestInsufficientTrustRejectsOverLimitRequest(t *testing.T) {
	local, remote := pk(1), pk(2)
	mc := setupOpenChannel(t, local, remote, 5)

	req := RequestSendFundsOp{
		RequestID:        uid(1),
		Route:            route.Route{PublicKeys: []creditid.PublicKey{remote, local}},
		DestPayment:      u128.FromUint64(10),
		TotalDestPayment: u128.FromUint64(10),
		LeftFees:         u128.FromUint64(0),
		SrcHashedLock:    mustLock(t).Hash(),
	}

	_, err := ProcessOperation(mc, RequestSendFunds(req))
	if err != ErrInsufficientTrust {
		t.Fatalf("got err %v, want ErrInsufficientTrust", err)
	}
}

func TestDuplicateRequestIDRejected(t *testing.T) {
	local, remote := pk(1), pk(2)
	mc := setupOpenChannel(t, local, remote, 100)

	req := RequestSendFundsOp{
		RequestID:        uid(7),
		Route:            route.Route{PublicKeys: []creditid.PublicKey{remote, local}},
		DestPayment:      u128.FromUint64(1),
		TotalDestPayment: u128.FromUint64(1),
		SrcHashedLock:    mustLock(t).Hash(),
	}
	if _, err := ProcessOperation(mc, RequestSendFunds(req)); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if _, err := ProcessOperation(mc, RequestSendFunds(req)); err != ErrRequestAlreadyExists {
		t.Fatalf("got %v, want ErrRequestAlreadyExists", err)
	}
}

func TestRouteValidation(t *testing.T) {
	local, remote := pk(1), pk(2)
	mc := setupOpenChannel(t, local, remote, 100)

	cases := []route.Route{
		{PublicKeys: nil},
		{PublicKeys: []creditid.PublicKey{local}},
		{PublicKeys: []creditid.PublicKey{remote, local, remote}},
	}
	for i, r := range cases {
		req := RequestSendFundsOp{
			RequestID:        uid(byte(100 + i)),
			Route:            r,
			DestPayment:      u128.FromUint64(1),
			TotalDestPayment: u128.FromUint64(1),
			SrcHashedLock:    mustLock(t).Hash(),
		}
		if _, err := ProcessOperation(mc, RequestSendFunds(req)); err != ErrInvalidRoute {
			t.Fatalf("case %d: got %v, want ErrInvalidRoute", i, err)
		}
	}
}

func TestDestPaymentExceedsTotalRejected(t *testing.T) {
	local, remote := pk(1), pk(2)
	mc := setupOpenChannel(t, local, remote, 100)

	req := RequestSendFundsOp{
		RequestID:        uid(1),
		Route:            route.Route{PublicKeys: []creditid.PublicKey{remote, local}},
		DestPayment:      u128.FromUint64(10),
		TotalDestPayment: u128.FromUint64(5),
		SrcHashedLock:    mustLock(t).Hash(),
	}
	if _, err := ProcessOperation(mc, RequestSendFunds(req)); err != ErrDestPaymentExceedsTotal {
		t.Fatalf("got %v, want ErrDestPaymentExceedsTotal", err)
	}
}

// TestTwoNodeHappyPath reproduces spec §8 scenario 1: A freezes 10 via
// a Request, B signs a Response (verified here against the dest key),
// then a Collect moves 10 from frozen debt into A's balance.
func TestTwoNodeHappyPath(t *testing.T) {
	nodeA := newTestIdentity(t)
	nodeB := newTestIdentity(t)

	// Local perspective of A's outgoing ledger to B.
	mcA := setupOpenChannel(t, nodeA.pk, nodeB.pk, 100)

	r := route.Route{PublicKeys: []creditid.PublicKey{nodeA.pk, nodeB.pk}}
	reqID := uid(1)
	srcLock, err := hashlock.NewPlainLock()
	if err != nil {
		t.Fatal(err)
	}
	destLock, err := hashlock.NewPlainLock()
	if err != nil {
		t.Fatal(err)
	}

	outgoing := NewOutgoingMc(mcA)
	req := RequestSendFundsOp{
		RequestID:        reqID,
		Route:            r,
		DestPayment:      u128.FromUint64(10),
		TotalDestPayment: u128.FromUint64(10),
		LeftFees:         u128.FromUint64(0),
		SrcHashedLock:    srcLock.Hash(),
	}
	if _, err := outgoing.QueueOperation(RequestSendFunds(req)); err != nil {
		t.Fatalf("queue request: %v", err)
	}
	mcA = outgoing.MutualCredit()

	// B signs the response over the canonical buffer.
	buf := creditsig.ResponseBuffer(creditsig.ResponseParams{
		RequestID:        reqID,
		DestHashedLock:   destLock.Hash(),
		DestPayment:      req.DestPayment,
		TotalDestPayment: req.TotalDestPayment,
		Route:            r,
	})
	sig, err := nodeB.client.RequestSignature(context.Background(), buf[:])
	if err != nil {
		t.Fatalf("sign response: %v", err)
	}

	resp := ResponseSendFundsOp{
		RequestID:      reqID,
		DestHashedLock: destLock.Hash(),
		Signature:      sig,
	}
	if _, err := ProcessOperation(mcA, ResponseSendFunds(resp)); err != nil {
		t.Fatalf("process response: %v", err)
	}

	collect := CollectSendFundsOp{
		RequestID:     reqID,
		SrcPlainLock:  srcLock,
		DestPlainLock: destLock,
	}
	if _, err := ProcessOperation(mcA, CollectSendFunds(collect)); err != nil {
		t.Fatalf("process collect: %v", err)
	}

	bal := mcA.Balance()
	if bal.Balance.Cmp(u128.FromInt64(-10)) != 0 {
		t.Fatalf("A balance = %s, want -10\n%s", bal.Balance, spew.Sdump(bal))
	}
	if !bal.LocalPendingDebt.IsZero() {
		t.Fatalf("A local_pending_debt = %s, want 0", bal.LocalPendingDebt)
	}
}

func pk(b byte) creditid.PublicKey {
	var p creditid.PublicKey
	p[0] = b
	return p
}

func uid(b byte) creditid.Uid {
	var u creditid.Uid
	u[0] = b
	return u
}

func mustLock(t *testing.T) hashlock.PlainLock {
	t.Helper()
	l, err := hashlock.NewPlainLock()
	if err != nil {
		t.Fatalf("new plain lock: %v", err)
	}
	return l
}
