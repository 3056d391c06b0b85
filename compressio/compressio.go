// Package compressio installs a DEFLATE codec over a raw transport once
// negotiation has agreed compression is in effect.
//
// It mirrors the shape of the original dftp's compress.rs
// (wrap_compressor/wrap_decompressor), but uses DEFLATE via
// klauspost/compress/flate instead of the original's xz2/LZMA — DEFLATE is
// the codec SPEC_FULL.md and the wire format fix for FLAG_COMPRESS.
package compressio

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// defaultLevel balances compression ratio against the line-rate throughput
// goal called out in spec.md §1; flate.DefaultCompression (-1) lets the
// library pick its usual level-6 tradeoff.
const defaultLevel = flate.DefaultCompression

// WriteCloser wraps an underlying sink so that bytes written to it are
// DEFLATE-compressed before reaching the transport. Close flushes the
// compressor's trailing bytes but does NOT close the underlying writer —
// ownership of the transport's lifetime stays with the caller.
type WriteCloser struct {
	fw  *flate.Writer
	dst io.Writer
}

// Wrap returns a sink that compresses everything written to it before
// forwarding to dst. After this call, dst must never be written to
// directly again — see SPEC_FULL.md §9 ("Codec layering").
func Wrap(dst io.Writer) *WriteCloser {
	fw, _ := flate.NewWriter(dst, defaultLevel) // only fails for an out-of-range level
	return &WriteCloser{fw: fw, dst: dst}
}

func (w *WriteCloser) Write(p []byte) (int, error) {
	return w.fw.Write(p)
}

// Close flushes any buffered compressed output. The underlying transport is
// left open; the transfer loop or caller closes it separately.
func (w *WriteCloser) Close() error {
	return w.fw.Close()
}

// Unwrap returns a source that transparently inflates bytes read from src.
func Unwrap(src io.Reader) io.Reader {
	return flate.NewReader(src)
}
