package main

import (
	"io"
	"path/filepath"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/fritznode/creditnode/appserver"
	"github.com/fritznode/creditnode/build"
	"github.com/fritznode/creditnode/creditwire"
	"github.com/fritznode/creditnode/friend"
	"github.com/fritznode/creditnode/funder"
	"github.com/fritznode/creditnode/mutualcredit"
	"github.com/fritznode/creditnode/tokenchannel"
)

// defaultLivenessTickInterval is how often funder.EventLoop sweeps
// friends for liveness/retransmit work (spec §4.3).
const defaultLivenessTickInterval = 15 * time.Second

// setupLogging opens the rotating log file named in cfg and returns an
// io.Writer tee-ing to both it and stdout, mirroring cmd/lnd's own
// logWriter/initLogRotator split (deleted, see DESIGN.md's verbatim-
// teacher-package audit).
func setupLogging(cfg *config) (io.Writer, io.Closer, error) {
	logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
	r, err := build.InitLogRotator(logFile, cfg.MaxLogFileSize, cfg.MaxLogFiles)
	if err != nil {
		return nil, nil, err
	}
	return &build.LogWriter{RotatorFile: r}, r, nil
}

// useSubsystemLoggers mints one btclog.Logger per subsystem package
// from backend and wires each through that package's own UseLogger,
// the same per-subsystem tagging (e.g. "FNDR", "TOKC") cmd/lnd's own
// log.go used to fan one backend out across every subsystem.
func useSubsystemLoggers(backend *btclog.Backend) {
	funder.UseLogger(build.NewSubLogger("FNDR", backend.Logger))
	friend.UseLogger(build.NewSubLogger("FRND", backend.Logger))
	tokenchannel.UseLogger(build.NewSubLogger("TOKC", backend.Logger))
	mutualcredit.UseLogger(build.NewSubLogger("MTCR", backend.Logger))
	creditwire.UseLogger(build.NewSubLogger("CWIR", backend.Logger))
	appserver.UseLogger(build.NewSubLogger("APPS", backend.Logger))
}
