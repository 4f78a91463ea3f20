// Package creditdb is the node's durable store (spec §6 "Persistence"):
// an append-only log of funder.FunderMutation batches plus recovery by
// full replay on startup, the same split channeldb/channel.go draws
// between its revocation-log bucket (append-only) and its channel-state
// bucket (point-in-time, rebuilt from the log on open) — backed here by
// the same github.com/coreos/bbolt embedded store channeldb used.
//
// funder.FunderMutation is not gob-encodable as a whole: MutAddFriend's
// NewFriend *friend.State transitively holds tokenchannel.TokenChannel's
// unexported mc *mutualcredit.MutualCredit, which itself exposes no
// exported fields at all. Every other field of FunderMutation, and
// every mutation payload type it embeds (mutualcredit.McMutation,
// tokenchannel.DirectionalMutation, creditwire.MoveToken,
// mutualcredit.FriendTcOp), is a plain struct of exported fields and
// gob-encodes as is. So the log never stores NewFriend directly: a
// MutAddFriend record carries nothing but the new friend's public key,
// and LoadState rebuilds the friend.State the same way AddFriend
// (funder/control.go) built it in the first place, via friend.New.
package creditdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"

	bolt "github.com/coreos/bbolt"

	"github.com/fritznode/creditnode/creditid"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/identity"
)

var (
	mutationsBucket = []byte("mutations")
	metaBucket      = []byte("meta")
	localKey        = []byte("local-public-key")
)

// record is the gob-encoded unit appended to the mutations bucket: a
// FunderMutation with NewFriend stripped out, per the package doc.
type record struct {
	Mut          funder.FunderMutation
	IsNewFriend  bool
	FriendPubKey creditid.PublicKey
}

func toRecord(m funder.FunderMutation) record {
	r := record{Mut: m}
	if m.Kind == funder.MutAddFriend {
		r.Mut.NewFriend = nil
		r.IsNewFriend = true
		r.FriendPubKey = m.FriendPublicKey
	}
	return r
}

// Store is an append-only FunderMutation log backed by a single bbolt
// file, implementing funder.DurableLog.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if absent) the bbolt file at path and ensures
// its buckets exist, mirroring channeldb.Open's bucket-provisioning
// pass on first use.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("creditdb: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(mutationsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creditdb: provisioning buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying bbolt file.
func (s *Store) Close() error { return s.db.Close() }

// Append implements funder.DurableLog: every mutation in muts is
// written in one bbolt transaction under a monotonically increasing
// sequence key, so a batch either lands in full or not at all.
func (s *Store) Append(muts []funder.FunderMutation) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(mutationsBucket)
		for _, m := range muts {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode(toRecord(m)); err != nil {
				return fmt.Errorf("creditdb: encoding mutation: %w", err)
			}
			if err := b.Put(seqKey(seq), buf.Bytes()); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetLocalPublicKey persists the node's own identity once, at first
// run; LoadState reads it back to build the empty FunderState recovery
// replays against.
func (s *Store) SetLocalPublicKey(pk creditid.PublicKey) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(metaBucket).Put(localKey, pk[:])
	})
}

// LocalPublicKey returns the persisted identity, or ok=false on a
// fresh store that has never called SetLocalPublicKey.
func (s *Store) LocalPublicKey() (pk creditid.PublicKey, ok bool, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(metaBucket).Get(localKey)
		if v == nil {
			return nil
		}
		if len(v) != creditid.PublicKeySize {
			return fmt.Errorf("creditdb: stored local public key has wrong length %d", len(v))
		}
		copy(pk[:], v)
		ok = true
		return nil
	})
	return pk, ok, err
}

// LoadState replays the full mutation log against a fresh
// funder.FunderState for local (spec §6: "Recovery replays the state
// on boot"). A MutAddFriend record is reconstructed via friend.New
// rather than via gob, the one payload the log never stores directly.
func LoadState(ctx context.Context, s *Store, local creditid.PublicKey, identityClient *identity.Client) (*funder.FunderState, error) {
	state := funder.New(local)

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(mutationsBucket)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec record
			if err := gob.NewDecoder(bytes.NewReader(v)).Decode(&rec); err != nil {
				return fmt.Errorf("creditdb: decoding mutation at seq %d: %w", binary.BigEndian.Uint64(k), err)
			}
			m := rec.Mut
			if rec.IsNewFriend {
				f, err := friend.New(ctx, local, rec.FriendPubKey, identityClient)
				if err != nil {
					return fmt.Errorf("creditdb: rebuilding friend %s: %w", rec.FriendPubKey, err)
				}
				m.NewFriend = f
			}
			state.Apply(m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func seqKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}
