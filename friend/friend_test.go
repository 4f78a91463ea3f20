package friend

import (
	"context"
	"testing"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/u128"
)

func newTestIdentity(t *testing.T) (creditid.PublicKey, *identity.Client) {
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
	return pk, srv.NewClient()
}

func TestRateFee(t *testing.T) {
	r := Rate{Base: u128.FromUint64(10), Mul: u128.FromUint64(2)}
	fee, err := r.Fee(u128.FromUint64(100))
	if err != nil {
		t.Fatalf("fee: %v", err)
	}
	if fee.Cmp(u128.FromUint64(210)) != 0 {
		t.Fatalf("fee = %s, want 210", fee)
	}
}

func TestPendingQueuesPopBatchPriorityOrder(t *testing.T) {
	var p PendingQueues
	back := mutualcredit.EnableRequests()
	req := mutualcredit.DisableRequests()
	user := mutualcredit.SetRemoteMaxDebt(u128.FromUint64(1))

	p.PushUserRequest(user)
	p.PushRequest(req)
	p.PushBackwardsOp(back)

	batch := p.PopBatch(2)
	if len(batch) != 2 {
		t.Fatalf("len(batch) = %d, want 2", len(batch))
	}
	if batch[0].Kind != back.Kind {
		t.Fatalf("batch[0] = %v, want backwards op %v", batch[0].Kind, back.Kind)
	}
	if batch[1].Kind != req.Kind {
		t.Fatalf("batch[1] = %v, want request op %v", batch[1].Kind, req.Kind)
	}
	if !p.IsEmpty() {
		rest := p.PopBatch(10)
		if len(rest) != 1 || rest[0].Kind != user.Kind {
			t.Fatalf("remaining batch = %+v, want single user request", rest)
		}
	}
}

func TestFriendRoundTripDeliversQueuedOperations(t *testing.T) {
	ctx := context.Background()
	pkA, clientA := newTestIdentity(t)
	pkB, clientB := newTestIdentity(t)

	fA, err := New(ctx, pkA, pkB, clientA)
	if err != nil {
		t.Fatalf("new friend A: %v", err)
	}
	fB, err := New(ctx, pkB, pkA, clientB)
	if err != nil {
		t.Fatalf("new friend B: %v", err)
	}

	sender, receiver, senderClient := fB, fA, clientB
	if fB.Channel.IsOutgoing() {
		sender, receiver, senderClient = fA, fB, clientA
	}
	if sender.Channel.IsOutgoing() {
		t.Fatal("test setup expects sender to hold the Incoming side")
	}

	sender.Pending.PushUserRequest(mutualcredit.EnableRequests())

	var randNonce creditid.RandNonce
	reply, err := sender.buildOutgoingBatch(ctx, senderClient, randNonce)
	if err != nil {
		t.Fatalf("build outgoing batch: %v", err)
	}
	if reply == nil {
		t.Fatal("expected a non-nil outgoing move token request")
	}

	result, err := receiver.ReceiveMoveToken(ctx, reply, senderClient, randNonce)
	if err != nil {
		t.Fatalf("receive move token: %v", err)
	}
	if result.Kind != ReceiveApplied {
		t.Fatalf("kind = %v, want ReceiveApplied", result.Kind)
	}
	if !receiver.Channel.State().RequestsStatus().Remote.IsOpen() {
		t.Fatal("receiver did not see remote requests opened")
	}
	if receiver.Channel.IsOutgoing() {
		t.Fatal("receiver should now hold the token")
	}
}
