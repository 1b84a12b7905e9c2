// Command kinectxr-bridge runs the bridge daemon: a websocket server that
// streams color/depth frames and mediates motor/LED commands, per
// spec.md §6's CLI surface and exit codes.
package main

import (
	"os"

	"kinectxr/internal/rlog"
)

func main() {
	root := buildRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	if ec, ok := err.(exitCoder); ok {
		return ec.ExitCode()
	}
	rlog.Get().Error().Err(err).Msg("kinectxr-bridge exiting")
	return 1
}

// exitCoder is implemented by errors that carry a fixed exit code instead
// of the generic 1. Codes 2 and 3 are reserved by spec.md §6 for "no device
// found" and "device init failed"; the bridge no longer treats either as
// fatal to startup (see Server.Start), so in practice only 0 and 1 are
// produced today — the reservation is kept in case a future preflight
// check (e.g. device enumeration before binding the listen port) needs it.
type exitCoder interface {
	error
	ExitCode() int
}
