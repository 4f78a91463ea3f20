package tokenchannel

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

// UseLogger lets the caller link a new logger into this subsystem.
func UseLogger(logger btclog.Logger) {
	log = logger
}
