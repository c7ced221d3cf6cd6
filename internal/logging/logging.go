// Package logging builds the root hclog logger.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns the root logger writing to out (stderr when nil). Unknown
// levels fall back to info.
func New(level string, json bool, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	lvl := hclog.LevelFromString(level)
	if lvl == hclog.NoLevel {
		lvl = hclog.Info
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "mytimemanager",
		Level:      lvl,
		Output:     out,
		JSONFormat: json,
	})
}
