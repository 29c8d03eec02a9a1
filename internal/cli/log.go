// Package cli implements the pepedot command-line interface.
//
// Commands operate on the current project: the one named with --project,
// else the one last opened with "project open", else the only one. Every
// change is autosaved to the configured store before the command exits.
//
// # Commands
//
// The main commands are:
//   - project: create, list, open, rename and delete projects
//   - doc: add, list, rename, remove and show drawings
//   - point: place, list, edit and remove points and their photos
//   - export, import, inspect, diff: work with zip archives
//   - view: browse pages interactively
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports session and archive events.
package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Archive written (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}
