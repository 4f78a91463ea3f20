package main

import (
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/davecgh/go-spew/spew"
)

// hexArg decodes a hex-encoded positional argument (a public key,
// uid, invoice id, payment id, ...); every id-shaped field in the App
// control surface travels as raw bytes, so the CLI's job is just the
// hex<->bytes conversion.
func hexArg(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("creditctl: %q is not valid hex: %w", s, err)
	}
	return b, nil
}

// amountArg parses a base-10 amount string into the big-endian bytes
// appserver's toUint128 decodes directly (it calls
// big.Int.SetBytes, which accepts any length), so no fixed-width
// padding is needed here.
func amountArg(s string) ([]byte, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("creditctl: %q is not a valid base-10 amount", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("creditctl: amount %q must not be negative", s)
	}
	return v.Bytes(), nil
}

// printResponse dumps resp the way lncli printRespJSON used go-spew
// for response printing ahead of protojson being wired up.
func printResponse(resp interface{}) {
	spew.Dump(resp)
}
