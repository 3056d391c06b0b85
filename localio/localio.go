// Package localio opens the local byte source/sink DFTP streams to and
// from: a named file, or standard input/output when none is given.
//
// Ported from the original dftp's files.rs (build_file_reader /
// build_file_writer), which wraps the chosen stream in a buffered
// reader/writer either way. Opening files and stdio is treated as an
// external collaborator by spec.md §1, but a runnable tool still needs a
// concrete implementation, so this package provides the idiomatic Go one.
package localio

import (
	"bufio"
	"crypto/sha256"
	"io"
	"os"
	"path/filepath"

	"github.com/theAester/dftp/dfterr"
)

// Source is a local byte source: a file or stdin.
type Source struct {
	r      *bufio.Reader
	closer io.Closer
	// Meta is populated only when the source is a named file (IsFile).
	IsFile bool
	Name   string // basename, used for the FileHeader
	Size   int64
}

// Sink is a local byte sink: a file or stdout.
type Sink struct {
	w       *bufio.Writer
	closer  io.Closer
	IsStdio bool
}

// OpenSource opens path as the local source, or stdin if path is empty.
func OpenSource(path string) (*Source, error) {
	if path == "" {
		return &Source{r: bufio.NewReader(os.Stdin), IsFile: false}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, dfterr.New(dfterr.Setup, "localio.OpenSource", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dfterr.New(dfterr.Setup, "localio.OpenSource", err)
	}
	return &Source{
		r:      bufio.NewReader(f),
		closer: f,
		IsFile: true,
		Name:   filepath.Base(path),
		Size:   info.Size(),
	}, nil
}

// Read implements io.Reader.
func (s *Source) Read(p []byte) (int, error) { return s.r.Read(p) }

// Close releases the underlying file descriptor, if any (stdin is never
// closed).
func (s *Source) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// OpenSink opens path for writing (truncating/creating it), or wraps
// stdout if path is empty.
func OpenSink(path string) (*Sink, error) {
	if path == "" {
		return &Sink{w: bufio.NewWriter(os.Stdout), IsStdio: true}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, dfterr.New(dfterr.Setup, "localio.OpenSink", err)
	}
	return &Sink{w: bufio.NewWriter(f), closer: f}, nil
}

// Write implements io.Writer.
func (s *Sink) Write(p []byte) (int, error) { return s.w.Write(p) }

// Flush pushes buffered bytes to the underlying file or stdout. The
// transfer loop calls this after every chunk when the sink is stdout, so
// downstream pipes see progress (spec.md §4.D).
func (s *Sink) Flush() error { return s.w.Flush() }

// Close flushes and releases the underlying file descriptor, if any
// (stdout is flushed but never closed).
func (s *Sink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// HashFile computes the SHA-256 digest of path in a single streaming pass,
// used by the sender to build a FileHeader before any payload is sent
// (spec.md §4.C). It does not consume the Source returned by OpenSource —
// callers open the file twice (once here, once via OpenSource) because the
// hash must be taken "at the moment the header is built", and re-reading
// keeps the transfer loop's reader a fresh, unconsumed bufio.Reader.
func HashFile(path string) ([32]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return [32]byte{}, dfterr.New(dfterr.Setup, "localio.HashFile", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return [32]byte{}, dfterr.New(dfterr.Setup, "localio.HashFile", err)
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}
