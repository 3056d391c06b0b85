// Package progress reports best-effort transfer progress to standard
// error, without interfering with a sink that is itself standard output
// (spec.md §9: progress reporting is for display only, and never shares
// a stream with piped payload data).
package progress

import (
	"fmt"
	"io"
)

// Reporter prints a single self-overwriting progress line to w. Owned by
// the transfer loop, not global state, so tests can swap in a buffer and
// make assertions without touching the real terminal.
type Reporter struct {
	w        io.Writer
	total    uint64
	lastLen  int
	disabled bool
}

// New builds a Reporter that writes to w. total is the expected payload
// size from the FileHeader; a total of 0 means the size is unknown (a
// stdin stream) and Report becomes a no-op, since a percentage cannot be
// computed (spec.md §9).
func New(w io.Writer, total uint64) *Reporter {
	return &Reporter{w: w, total: total, disabled: total == 0}
}

// Report overwrites the previous progress line with one reflecting
// written bytes out of the reporter's total. It is silently a no-op when
// the reporter was built with an unknown total.
func (r *Reporter) Report(written uint64) {
	if r.disabled {
		return
	}
	pct := float64(written) / float64(r.total) * 100
	line := fmt.Sprintf("\r%6.2f%%  %d/%d bytes", pct, written, r.total)
	pad := r.lastLen - len(line)
	if pad > 0 {
		line += spaces(pad)
	}
	r.lastLen = len(line)
	fmt.Fprint(r.w, line)
}

// Done writes a trailing newline so the final progress line doesn't get
// overwritten by whatever the shell prints next. A no-op when the
// reporter never printed anything.
func (r *Reporter) Done() {
	if r.disabled || r.lastLen == 0 {
		return
	}
	fmt.Fprintln(r.w)
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
