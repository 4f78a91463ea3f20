package funder_test

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/identity"
	"github.com/fritznode/creditnode/u128"
)

// node bundles one simulated peer's funder state with the identity
// client its friends' signatures are verified/produced through.
type node struct {
	pk     creditid.PublicKey
	client *identity.Client
	state  *funder.FunderState
}

func newNode(t *testing.T) *node {
	t.Helper()
	pk, priv, err := identity.GenerateKeyPair()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv, err := identity.NewServer(priv)
	if err != nil {
		t.Fatalf("new identity server: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Stop)
	return &node{pk: pk, client: srv.NewClient(), state: funder.New(pk)}
}

// network wires a small set of nodes together for a test, standing in
// for the Channeler: every exchange below is driven explicitly rather
// than through a real transport, one hop at a time.
type network struct {
	t     *testing.T
	ctx   context.Context
	nodes map[creditid.PublicKey]*node
}

func newNetwork(t *testing.T, ns ...*node) *network {
	n := &network{t: t, ctx: context.Background(), nodes: make(map[creditid.PublicKey]*node)}
	for _, one := range ns {
		n.nodes[one.pk] = one
	}
	return n
}

// deliver hands msg (sent by from) to to's funder core, applies every
// resulting mutation to to's state, and recursively delivers any
// Outgoing messages the handler produced directly (the same-call
// forwarding chain a SrcLockForward or relay hop triggers).
func (n *network) deliver(to, from creditid.PublicKey, msg creditwire.Message) {
	n.t.Helper()
	recv := n.nodes[to]
	muts, outgoing, err := funder.HandleFriendMessage(n.ctx, recv.state, recv.client, from, msg)
	if err != nil {
		n.t.Fatalf("%x handling message from %x: %v\n%s", to[:4], from[:4], err, spew.Sdump(msg))
	}
	recv.state.ApplyAll(muts)
	for _, out := range outgoing {
		n.deliver(out.To, to, out.Message)
	}
}

// flush attempts to send whatever from currently has queued toward
// to, returning false if it isn't from's turn (nothing was sent).
func (n *network) flush(from, to creditid.PublicKey) bool {
	n.t.Helper()
	sender := n.nodes[from]
	out, err := funder.FlushFriend(n.ctx, sender.state, sender.client, to)
	if err != nil {
		n.t.Fatalf("flush %x->%x: %v", from[:4], to[:4], err)
	}
	if out == nil {
		return false
	}
	n.deliver(to, from, out.Message)
	return true
}

// exchange delivers whatever from has queued toward to, bootstrapping
// the token across if to is the one currently holding it: to hands an
// (possibly empty) batch to from first, which flips the turn, then
// from's real batch goes out.
func (n *network) exchange(from, to creditid.PublicKey) {
	n.t.Helper()
	if n.flush(from, to) {
		return
	}
	if !n.flush(to, from) {
		n.t.Fatalf("neither %x nor %x could send, channel stuck", from[:4], to[:4])
	}
	if !n.flush(from, to) {
		n.t.Fatalf("%x still could not send after %x handed over the token", from[:4], to[:4])
	}
}

func apply(t *testing.T, state *funder.FunderState, muts []funder.FunderMutation, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state.ApplyAll(muts)
}

func addFriend(t *testing.T, ctx context.Context, local *node, remotePk creditid.PublicKey, name string) {
	t.Helper()
	muts, err := funder.AddFriend(ctx, local.state, local.client, remotePk, name)
	apply(t, local.state, muts, err)
}

func setRemoteMaxDebt(t *testing.T, state *funder.FunderState, pk creditid.PublicKey, limit u128.Uint128) {
	t.Helper()
	muts, err := funder.SetFriendRemoteMaxDebt(state, pk, limit)
	apply(t, state, muts, err)
}

// TestThreeHopPaymentRoundTrip drives a full buyer(A) -> relay(B) ->
// destination(C) payment through Request, Response, and Collect,
// exercising routing/forwarding (funder/routing), the seller's
// multi-route invoice commit, and the TriggerCollect/SrcLockForward/
// CollectSendFunds mirror chain documented in DESIGN.md's "Collect
// direction of travel" resolution.
func TestThreeHopPaymentRoundTrip(t *testing.T) {
	a := newNode(t)
	b := newNode(t)
	c := newNode(t)
	sim := newNetwork(t, a, b, c)

	// Friend relationships on both edges, both sides.
	addFriend(t, sim.ctx, a, b.pk, "b")
	addFriend(t, sim.ctx, b, a.pk, "a")
	addFriend(t, sim.ctx, b, c.pk, "c")
	addFriend(t, sim.ctx, c, b.pk, "b")

	trustLimit := u128.FromUint64(1_000)

	// B grants A room to owe it, and admits A's requests.
	if err := funder.OpenFriend(b.state, a.pk); err != nil {
		t.Fatalf("open friend b->a: %v", err)
	}
	setRemoteMaxDebt(t, b.state, a.pk, trustLimit)
	sim.exchange(b.pk, a.pk)

	// C grants B room to owe it, and admits B's requests.
	if err := funder.OpenFriend(c.state, b.pk); err != nil {
		t.Fatalf("open friend c->b: %v", err)
	}
	setRemoteMaxDebt(t, c.state, b.pk, trustLimit)
	sim.exchange(c.pk, b.pk)

	if !a.state.Friends[b.pk].Channel.Channel.State().RequestsStatus().Remote.IsOpen() {
		t.Fatal("a did not see b's requests opened")
	}

	invoiceID := creditid.InvoiceID{0xC}
	paymentID := creditid.PaymentID{0xA}
	requestID := creditid.Uid{1}
	total := u128.FromUint64(100)

	invoiceMuts, err := funder.AddInvoice(c.state, invoiceID, total)
	apply(t, c.state, invoiceMuts, err)

	paymentMuts, err := funder.CreatePayment(a.state, paymentID, invoiceID, total, c.pk)
	apply(t, a.state, paymentMuts, err)

	hops := []creditid.PublicKey{a.pk, b.pk, c.pk}
	txMuts, err := funder.CreateTransaction(a.state, paymentID, requestID, hops, total, u128.Zero())
	apply(t, a.state, txMuts, err)

	// Request: A -> B -> C.
	sim.exchange(a.pk, b.pk)
	sim.exchange(b.pk, c.pk)

	if _, ok := c.state.OpenInvoices[invoiceID]; ok {
		t.Fatal("invoice should have auto-committed once its total was reached")
	}
	if _, ok := c.state.PendingCollects[requestID]; !ok {
		t.Fatal("commit should have left a pending collect at the destination")
	}

	// Response: C -> B -> A. The move back through A also triggers
	// TriggerCollect, which the deliver() recursion immediately
	// forwards on to B and then to C as a SrcLockForward, and C's
	// HandleSrcLockForward queues the real CollectSendFundsOp back
	// toward B without yet sending it.
	sim.exchange(c.pk, b.pk)
	sim.exchange(b.pk, a.pk)

	if _, ok := a.state.OpenTransactions[requestID]; !ok {
		t.Fatal("a's open transaction should still be open pending collect")
	}
	if _, ok := c.state.PendingCollects[requestID]; ok {
		t.Fatal("c's pending collect should have been consumed by the src lock forward")
	}

	// Collect: C -> B -> A.
	sim.exchange(c.pk, b.pk)
	sim.exchange(b.pk, a.pk)

	if _, ok := a.state.OpenTransactions[requestID]; ok {
		t.Fatalf("a's open transaction should be closed\n%s", spew.Sdump(a.state.OpenTransactions))
	}
	if _, ok := b.state.OpenTransactions[requestID]; ok {
		t.Fatal("b's open transaction should be closed")
	}
	payment := a.state.Payments[paymentID]
	if payment == nil {
		t.Fatal("payment should still be tracked at a")
	}
	if payment.NumOpenTransactions != 0 {
		t.Fatalf("NumOpenTransactions = %d, want 0", payment.NumOpenTransactions)
	}
	if payment.Stage != funder.PaymentInProgress {
		t.Fatalf("payment stage = %v, want PaymentInProgress (receipt delivery is not wired yet)", payment.Stage)
	}
}

// TestDirectPaymentRoundTrip covers the simplest case, two directly
// friended nodes with A as both buyer and the route's originator and
// B as the destination, so HandleIncomingRequestAsDestination and
// CommitInvoice run on the very next hop rather than after a forward.
func TestDirectPaymentRoundTrip(t *testing.T) {
	a := newNode(t)
	b := newNode(t)
	sim := newNetwork(t, a, b)

	addFriend(t, sim.ctx, a, b.pk, "")
	addFriend(t, sim.ctx, b, a.pk, "")

	if err := funder.OpenFriend(b.state, a.pk); err != nil {
		t.Fatalf("open friend b->a: %v", err)
	}
	setRemoteMaxDebt(t, b.state, a.pk, u128.FromUint64(500))
	sim.exchange(b.pk, a.pk)

	invoiceID := creditid.InvoiceID{1}
	paymentID := creditid.PaymentID{1}
	requestID := creditid.Uid{1}
	total := u128.FromUint64(50)

	invoiceMuts, err := funder.AddInvoice(b.state, invoiceID, total)
	apply(t, b.state, invoiceMuts, err)

	paymentMuts, err := funder.CreatePayment(a.state, paymentID, invoiceID, total, b.pk)
	apply(t, a.state, paymentMuts, err)

	txMuts, err := funder.CreateTransaction(a.state, paymentID, requestID, []creditid.PublicKey{a.pk, b.pk}, total, u128.Zero())
	apply(t, a.state, txMuts, err)

	sim.exchange(a.pk, b.pk) // Request
	sim.exchange(b.pk, a.pk) // Response, then SrcLockForward auto-forwards to b
	sim.exchange(b.pk, a.pk) // Collect

	if _, ok := a.state.OpenTransactions[requestID]; ok {
		t.Fatal("transaction should be closed at a")
	}
	if payment := a.state.Payments[paymentID]; payment.NumOpenTransactions != 0 {
		t.Fatalf("NumOpenTransactions = %d, want 0", payment.NumOpenTransactions)
	}
}
