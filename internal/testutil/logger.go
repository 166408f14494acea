package testutil

import (
	"github.com/sqlmint/sqlmint/internal/log"
)

// DiscardLogger returns a logger that discards all output.
//
// Use this in tests to reduce noise. It hands out log.NewNop so test
// loggers and production loggers come from the same package.
func DiscardLogger() log.Logger {
	return log.NewNop()
}
