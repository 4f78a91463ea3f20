package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"golang.org/x/crypto/ed25519"

	"github.com/fritznode/creditnode/identity"
)

const identityKeyFilename = "identity.key"

// loadOrCreateIdentity reads creditDir/identity.key if present,
// otherwise generates a fresh ed25519 key pair and persists it —
// the node's long-term signing identity (spec §9's "identity oracle"),
// analogous to lnd's seed/rootkey bootstrap but unencrypted, since
// at-rest key encryption is out of this spec's scope.
func loadOrCreateIdentity(creditDir string) (ed25519.PrivateKey, error) {
	path := filepath.Join(creditDir, identityKeyFilename)

	raw, err := ioutil.ReadFile(path)
	if err == nil {
		if len(raw) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("creditd: %s has wrong size %d", path, len(raw))
		}
		return ed25519.PrivateKey(raw), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("creditd: reading %s: %w", path, err)
	}

	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("creditd: generating identity key: %w", err)
	}
	if err := ioutil.WriteFile(path, priv, 0600); err != nil {
		return nil, fmt.Errorf("creditd: writing %s: %w", path, err)
	}
	return priv, nil
}

// newIdentityOracle wraps priv in identity.Server/Client the way
// spec §9 describes: a single oracle goroutine, any number of Clients.
func newIdentityOracle(priv ed25519.PrivateKey) (*identity.Server, *identity.Client, error) {
	srv, err := identity.NewServer(priv)
	if err != nil {
		return nil, nil, err
	}
	srv.Start()
	return srv, srv.NewClient(), nil
}
