// Package rlog holds the one process-wide structured logger every other
// internal package logs through. It follows the teacher's
// internal/httpapi/logging.go shape (an installable *zerolog.Logger that
// falls back to a stderr console logger when unset) generalized so the device
// facade, runtime core, and bridge server all share one sink instead of
// each reimplementing the fallback.
package rlog

import (
	"log"
	"os"

	"github.com/rs/zerolog"
)

var l *zerolog.Logger

// Set installs the structured logger used by every package that imports
// rlog. Call once from main before starting any component.
func Set(logger zerolog.Logger) { l = &logger }

// Get returns the installed logger, or a default stderr ConsoleWriter
// logger at Info level if none was installed — keeping package-level
// helpers usable from tests without requiring Set first.
func Get() *zerolog.Logger {
	if l != nil {
		return l
	}
	fallback := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	return &fallback
}

// Printf is the last-resort path for call sites ported directly from a
// teacher file that used log.Printf; prefer Get().Info()/.Error() etc. in
// new code.
func Printf(format string, args ...any) { log.Printf(format, args...) }
