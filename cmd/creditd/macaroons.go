package main

import (
	"crypto/rand"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/fritznode/creditnode/appserver"
)

const macaroonRootKeyFilename = "macaroons.key"

// macaroonFilename returns the on-disk filename for p's macaroon, the
// same one-file-per-bucket convention lnd used for
// admin.macaroon/readonly.macaroon, generalized to four buckets.
func macaroonFilename(p appserver.Permission) string {
	return string(p) + ".macaroon"
}

// loadOrCreateMacaroonService reads creditDir/macaroons.key if
// present, otherwise generates one, so macaroons already handed out to
// an App client stay valid across a creditd restart instead of every
// boot minting fresh, mutually-invalid ones.
func loadOrCreateMacaroonService(creditDir string) (*appserver.MacaroonService, error) {
	path := filepath.Join(creditDir, macaroonRootKeyFilename)

	rootKey, err := ioutil.ReadFile(path)
	if err == nil {
		return appserver.NewMacaroonServiceWithRootKey(rootKey)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("creditd: reading %s: %w", path, err)
	}

	rootKey = make([]byte, 32)
	if _, err := rand.Read(rootKey); err != nil {
		return nil, fmt.Errorf("creditd: generating macaroon root key: %w", err)
	}
	if err := ioutil.WriteFile(path, rootKey, 0600); err != nil {
		return nil, fmt.Errorf("creditd: writing %s: %w", path, err)
	}
	return appserver.NewMacaroonServiceWithRootKey(rootKey)
}

// persistMacaroons writes out svc's four minted macaroons under
// creditDir, overwriting any existing files; creditd calls it on every
// start, and creditctl reads these files back to authenticate.
func persistMacaroons(creditDir string, svc *appserver.MacaroonService) error {
	for _, p := range []appserver.Permission{
		appserver.PermissionConfig,
		appserver.PermissionBuyer,
		appserver.PermissionSeller,
		appserver.PermissionRoutes,
	} {
		raw, err := svc.Serialized(p)
		if err != nil {
			return err
		}
		path := filepath.Join(creditDir, macaroonFilename(p))
		if err := ioutil.WriteFile(path, raw, 0600); err != nil {
			return fmt.Errorf("creditd: writing %s: %w", path, err)
		}
	}
	return nil
}
