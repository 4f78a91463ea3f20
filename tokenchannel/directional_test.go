package tokenchannel

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

func TestInitialDirectionIsComplementary(t *testing.T) {
	ctx := context.Background()
	pkA, clientA := newTestIdentity(t)
	pkB, clientB := newTestIdentity(t)

	dtcA, err := NewDirectional(ctx, pkA, pkB, clientA)
	if err != nil {
		t.Fatalf("new directional A: %v", err)
	}
	dtcB, err := NewDirectional(ctx, pkB, pkA, clientB)
	if err != nil {
		t.Fatalf("new directional B: %v", err)
	}

	if dtcA.IsOutgoing() == dtcB.IsOutgoing() {
		t.Fatalf("exactly one side should hold the token initially, got A=%v B=%v",
			dtcA.IsOutgoing(), dtcB.IsOutgoing())
	}
}

func TestReplayingStoredIncomingTokenIsDuplicate(t *testing.T) {
	ctx := context.Background()
	pkA, clientA := newTestIdentity(t)
	pkB, clientB := newTestIdentity(t)

	dtcA, err := NewDirectional(ctx, pkA, pkB, clientA)
	if err != nil {
		t.Fatal(err)
	}
	dtcB, err := NewDirectional(ctx, pkB, pkA, clientB)
	if err != nil {
		t.Fatal(err)
	}

	incoming := dtcA
	if dtcA.IsOutgoing() {
		incoming = dtcB
	}

	out, err := incoming.SimulateReceiveMoveToken(incoming.Direction.Incoming)
	if err != nil {
		t.Fatalf("simulate receive: %v", err)
	}
	if out.Kind != OutputDuplicate {
		t.Fatalf("kind = %v, want OutputDuplicate", out.Kind)
	}
}

// TestRoundTripAppliesOperationsOnBothSides has the Incoming side
// build a batch carrying EnableRequests and SetRemoteMaxDebt, send it,
// and checks the Outgoing side absorbs matching mirrored mutations.
func TestRoundTripAppliesOperationsOnBothSides(t *testing.T) {
	ctx := context.Background()
	pkA, clientA := newTestIdentity(t)
	pkB, clientB := newTestIdentity(t)

	dtcA, err := NewDirectional(ctx, pkA, pkB, clientA)
	if err != nil {
		t.Fatal(err)
	}
	dtcB, err := NewDirectional(ctx, pkB, pkA, clientB)
	if err != nil {
		t.Fatal(err)
	}

	sender, receiver, senderClient := dtcB, dtcA, clientB
	if dtcB.IsOutgoing() {
		sender, receiver, senderClient = dtcA, dtcB, clientA
	}
	if sender.IsOutgoing() {
		t.Fatalf("test setup expects sender to be the Incoming side")
	}

	outgoingBatch := sender.BeginOutgoingMoveToken()
	if outgoingBatch == nil {
		t.Fatal("expected a non-nil outgoing batch for the Incoming side")
	}

	operations := []mutualcredit.FriendTcOp{
		mutualcredit.EnableRequests(),
		mutualcredit.SetRemoteMaxDebt(u128.FromUint64(500)),
	}
	for _, op := range operations {
		muts, err := outgoingBatch.QueueOperation(op)
		if err != nil {
			t.Fatalf("queue operation: %v", err)
		}
		for _, m := range muts {
			sender.Mutate(DirectionalMutation{Kind: DirMutTc, TcMutation: m})
		}
	}

	var randNonce creditid.RandNonce
	newToken, err := sender.CreateFriendMoveToken(ctx, operations, randNonce, senderClient)
	if err != nil {
		t.Fatalf("create friend move token: %v", err)
	}
	if newToken == nil {
		t.Fatal("create friend move token returned nil for an Incoming-direction sender")
	}
	sender.Mutate(DirectionalMutation{Kind: DirMutSetDirectionOutgoing, NewToken: newToken})

	out, err := receiver.SimulateReceiveMoveToken(newToken)
	if err != nil {
		t.Fatalf("simulate receive: %v", err)
	}
	if out.Kind != OutputReceived {
		t.Fatalf("kind = %v, want OutputReceived", out.Kind)
	}
	for _, m := range out.Received.Mutations {
		receiver.Mutate(m)
	}

	if !receiver.Channel.State().RequestsStatus().Remote.IsOpen() {
		t.Fatal("receiver's view of remote requests status was not opened")
	}
	if receiver.Channel.State().Balance().LocalMaxDebt.Cmp(u128.FromUint64(500)) != 0 {
		t.Fatalf("receiver local_max_debt = %s, want 500", receiver.Channel.State().Balance().LocalMaxDebt)
	}
	if receiver.IsOutgoing() {
		t.Fatal("receiver should now hold the token (direction flipped to Incoming)")
	}
}
