// Package identity models the node's signing oracle as explicit
// request/response state rather than a singleton key held by every
// caller. Every signature the credit stack needs (move tokens, reset
// tokens, response-send-funds, receipts) goes through a Client, whose
// Server half owns the private key and can be relocated to a hardware
// key or remote process without callers changing (spec §9).
package identity

import (
	"context"
	"fmt"

	"golang.org/x/crypto/ed25519"

	"github.com/fritznode/creditnode/creditid"
)

// Server is the signing oracle: the only component that ever touches
// the private key. It answers one signature request at a time over its
// request channel, but multiple Clients may have requests in flight
// concurrently; the Server tolerates interleaved completions (spec §5).
type Server struct {
	publicKey  creditid.PublicKey
	privateKey ed25519.PrivateKey

	requests chan signRequest
	quit     chan struct{}
}

type signRequest struct {
	buffer []byte
	respCh chan creditid.Signature
}

// NewServer constructs a signing oracle over the given ed25519 key
// pair. The private key never leaves the Server.
func NewServer(priv ed25519.PrivateKey) (*Server, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("identity: invalid private key size %d", len(priv))
	}
	pub, err := creditid.PublicKeyFromBytes(priv.Public().(ed25519.PublicKey))
	if err != nil {
		return nil, err
	}
	return &Server{
		publicKey:  pub,
		privateKey: priv,
		requests:   make(chan signRequest),
		quit:       make(chan struct{}),
	}, nil
}

// PublicKey returns the node's identity public key.
func (s *Server) PublicKey() creditid.PublicKey {
	return s.publicKey
}

// Start runs the oracle's request loop until Stop is called.
func (s *Server) Start() {
	go s.requestLoop()
}

// Stop shuts the oracle down. In-flight requests are abandoned.
func (s *Server) Stop() {
	close(s.quit)
}

func (s *Server) requestLoop() {
	for {
		select {
		case req := <-s.requests:
			sig := ed25519.Sign(s.privateKey, req.buffer)
			var out creditid.Signature
			copy(out[:], sig)
			select {
			case req.respCh <- out:
			case <-s.quit:
				return
			}
		case <-s.quit:
			return
		}
	}
}

// Client is a handle callers use to request signatures from the
// Server. It carries no key material.
type Client struct {
	publicKey creditid.PublicKey
	requests  chan<- signRequest
}

// NewClient returns a Client bound to the given Server.
func (s *Server) NewClient() *Client {
	return &Client{
		publicKey: s.publicKey,
		requests:  s.requests,
	}
}

// PublicKey returns the identity public key the signatures this client
// obtains will verify against.
func (c *Client) PublicKey() creditid.PublicKey {
	return c.publicKey
}

// RequestSignature asks the oracle to sign buffer, blocking until the
// oracle replies or ctx is canceled. This is one of the three
// suspension points named in spec §5.
func (c *Client) RequestSignature(ctx context.Context, buffer []byte) (creditid.Signature, error) {
	respCh := make(chan creditid.Signature, 1)
	select {
	case c.requests <- signRequest{buffer: buffer, respCh: respCh}:
	case <-ctx.Done():
		return creditid.Signature{}, ctx.Err()
	}
	select {
	case sig := <-respCh:
		return sig, nil
	case <-ctx.Done():
		return creditid.Signature{}, ctx.Err()
	}
}

// VerifySignature checks that sig is a valid signature over buffer
// under publicKey.
func VerifySignature(buffer []byte, publicKey creditid.PublicKey, sig creditid.Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(publicKey[:]), buffer, sig[:])
}

// GenerateKeyPair produces a fresh ed25519 key pair for tests and for
// first-run key generation.
func GenerateKeyPair() (creditid.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return creditid.PublicKey{}, nil, err
	}
	pk, err := creditid.PublicKeyFromBytes(pub)
	return pk, priv, err
}
