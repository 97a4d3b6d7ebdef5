// Package logging provides a constructor for the charmbracelet/log
// structured logger, in place of the teacher's dw_printf/text_color_set
// calls. No other package in this module imports it: the commands build
// their own loggers, and link.New falls back to log.Default().
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w (os.Stderr if w is nil) at the
// given level, with timestamps enabled the way a long-running link
// daemon wants for its frame-error trail.
func New(w io.Writer, level log.Level) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return logger
}

// Default is a package-wide logger at info level writing to stderr, for
// code that does not carry its own logger reference.
var Default = New(nil, log.InfoLevel)
