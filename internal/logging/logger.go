// Package logging builds the process logger and writes analysis reports for
// processed media files.
package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// New returns a named logger writing to w at level. A nil writer means stderr.
func New(name string, level hclog.Level, w io.Writer) hclog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:              name,
		Level:             level,
		Output:            w,
		DisableTime:       level > hclog.Debug,
		IndependentLevels: true,
	})
}
