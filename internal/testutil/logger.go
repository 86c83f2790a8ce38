// Package testutil holds small helpers shared across package tests.
package testutil

import (
	"io"
	"log/slog"
)

// NopLogger returns a logger that discards all output, keeping service
// construction in tests free of log noise.
func NopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
