package appserver

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger sets the package-wide logger, the same per-subsystem
// pattern every other package in this module follows.
func UseLogger(logger btclog.Logger) { log = logger }
