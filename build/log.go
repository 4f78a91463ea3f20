// Package build provides the shared logging plumbing used by every
// subsystem package in this module: a rotating log file writer and a
// helper to mint per-subsystem btclog.Logger instances from one shared
// backend, the same split the daemon keeps between "where logs go" and
// "who is logging".
package build

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"
)

// LogWriter is a stdout/file tee usable as the single io.Writer backing
// every subsystem logger. The zero value writes only to stdout; call
// InitLogRotator to also fan out to a rotated file.
type LogWriter struct {
	RotatorFile io.Writer
}

// InitLogRotator opens (creating any missing parent directories) a
// rotating log file at logFile, rolled over at maxRollFileSizeMB
// megabytes with up to maxRolls old copies retained, and returns it as
// an io.WriteCloser suitable for LogWriter.RotatorFile. Mirrors
// cmd/lnd's own log-rotator setup ahead of this package's deletion
// (see DESIGN.md's verbatim-teacher-package audit); InitLogRotator
// itself is new, since the teacher's own log.go called a function of
// this name that was never retrieved with the rest of daemon/log.go.
func InitLogRotator(logFile string, maxRollFileSizeMB, maxRolls int) (*rotator.Rotator, error) {
	logDir := filepath.Dir(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("build: creating log directory %s: %w", logDir, err)
	}
	r, err := rotator.New(logFile, int64(maxRollFileSizeMB*1024), false, maxRolls)
	if err != nil {
		return nil, fmt.Errorf("build: opening log rotator: %w", err)
	}
	return r, nil
}

// Write implements io.Writer, writing to stdout and, once present, to
// the rotating log file.
func (w *LogWriter) Write(b []byte) (int, error) {
	os.Stdout.Write(b)
	if w.RotatorFile != nil {
		return w.RotatorFile.Write(b)
	}
	return len(b), nil
}

// NewSubLogger creates a new subsystem logger backed by the shared
// backend, tagged with the given subsystem identifier (a short
// uppercase code, e.g. "FNDR", "TOKC"). genLogger is typically
// (*btclog.Backend).Logger.
func NewSubLogger(subsystem string, genLogger func(string) btclog.Logger) btclog.Logger {
	if genLogger == nil {
		return btclog.Disabled
	}
	return genLogger(subsystem)
}

