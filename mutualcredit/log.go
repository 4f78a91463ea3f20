package mutualcredit

import "github.com/btcsuite/btclog"

// log is the package-wide subsystem logger. It defaults to disabled;
// the daemon wires a real one in via UseLogger at startup, the same
// split every subsystem in this module follows.
var log = btclog.Disabled

// UseLogger lets the caller link a new logger into this subsystem.
func UseLogger(logger btclog.Logger) {
	log = logger
}
