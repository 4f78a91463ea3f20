package creditdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/identity"
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

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creditnode.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAppendAndLoadStateReplaysFriendAndName(t *testing.T) {
	local, identityClient := newTestIdentity(t)
	remote, _ := newTestIdentity(t)

	s := openTestStore(t)
	if err := s.SetLocalPublicKey(local); err != nil {
		t.Fatalf("SetLocalPublicKey: %v", err)
	}

	ctx := context.Background()
	muts, err := funder.AddFriend(ctx, funder.New(local), identityClient, remote, "alice")
	if err != nil {
		t.Fatalf("AddFriend: %v", err)
	}
	if err := s.Append(muts); err != nil {
		t.Fatalf("Append: %v", err)
	}

	rateMuts := []funder.FunderMutation{{
		Kind:            funder.MutSetFriendRate,
		FriendPublicKey: remote,
		Rate:            funder.Rate{},
	}}
	if err := s.Append(rateMuts); err != nil {
		t.Fatalf("Append rate: %v", err)
	}

	state, err := LoadState(ctx, s, local, identityClient)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	f, ok := state.Friends[remote]
	if !ok {
		t.Fatalf("replayed state missing friend %s", remote)
	}
	if f.Channel == nil {
		t.Fatalf("replayed friend has no channel")
	}
	if state.FriendNames[remote] != "alice" {
		t.Fatalf("FriendNames[remote] = %q, want alice", state.FriendNames[remote])
	}
}

func TestLoadStateEmptyLog(t *testing.T) {
	local, identityClient := newTestIdentity(t)
	s := openTestStore(t)

	state, err := LoadState(context.Background(), s, local, identityClient)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(state.Friends) != 0 {
		t.Fatalf("len(Friends) = %d, want 0", len(state.Friends))
	}
	if state.RelaysGeneration.Cmp(u128.Zero()) != 0 {
		t.Fatalf("RelaysGeneration = %s, want 0", state.RelaysGeneration)
	}
}

func TestLocalPublicKeyRoundTrip(t *testing.T) {
	s := openTestStore(t)
	pk, _ := newTestIdentity(t)

	if _, ok, err := s.LocalPublicKey(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want ok=false err=nil", ok, err)
	}
	if err := s.SetLocalPublicKey(pk); err != nil {
		t.Fatalf("SetLocalPublicKey: %v", err)
	}
	got, ok, err := s.LocalPublicKey()
	if err != nil || !ok {
		t.Fatalf("LocalPublicKey: got=%v ok=%v err=%v", got, ok, err)
	}
	if got != pk {
		t.Fatalf("LocalPublicKey = %s, want %s", got, pk)
	}
}
