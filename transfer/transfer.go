// Package transfer implements the bounded payload-copy loop that runs
// after the handshake and negotiation phases have upgraded the raw
// connection into a plain byte stream (spec.md §4.D).
//
// Ported from the original dftp's protocol.rs send()/recv() loops: a
// fixed TRANSFER_BUFF_SIZE buffer, read-then-write-all, stop on a
// zero-length read, and a ConnectionReset read error treated as a clean
// end of stream rather than a fatal one. The teacher's server.go
// handleConn loop informed the surrounding shape (read until the peer is
// gone, no backoff, no retries beyond a single short-write loop).
package transfer

import (
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/theAester/dftp/dfterr"
	"github.com/theAester/dftp/progress"
)

// BuffSize is the chunk size both sides read and write in, matching the
// original's TRANSFER_BUFF_SIZE (262144 bytes / 256 KiB).
const BuffSize = 262144

// Send copies src into dst in BuffSize chunks until src is exhausted.
// reporter may be nil, in which case no progress is reported.
func Send(dst io.Writer, src io.Reader, reporter *progress.Reporter) error {
	buf := make([]byte, BuffSize)
	var written uint64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := writeAll(dst, buf[:n]); werr != nil {
				return dfterr.New(dfterr.TransportClosed, "transfer.Send", werr)
			}
			written += uint64(n)
			if reporter != nil {
				reporter.Report(written)
			}
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return dfterr.New(dfterr.Setup, "transfer.Send", err)
		}
		if n == 0 {
			break
		}
	}
	if reporter != nil {
		reporter.Done()
	}
	return nil
}

// Recv copies src into dst in BuffSize chunks until src is exhausted or
// the peer resets the connection, which is treated as a clean end of
// transfer rather than an error (matching the original's ConnectionReset
// handling in recv()). flushPerChunk is set when dst is standard output,
// so downstream pipes see data as it arrives (spec.md §4.D).
func Recv(dst io.Writer, src io.Reader, flusher interface{ Flush() error }, flushPerChunk bool, reporter *progress.Reporter) error {
	buf := make([]byte, BuffSize)
	var written uint64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := writeAll(dst, buf[:n]); werr != nil {
				return dfterr.New(dfterr.TransportClosed, "transfer.Recv", werr)
			}
			written += uint64(n)
			if reporter != nil {
				reporter.Report(written)
			}
			if flushPerChunk && flusher != nil {
				if ferr := flusher.Flush(); ferr != nil {
					return dfterr.New(dfterr.TransportClosed, "transfer.Recv", ferr)
				}
			}
		}
		if err != nil {
			if err == io.EOF || isConnReset(err) {
				break
			}
			return dfterr.New(dfterr.Setup, "transfer.Recv", err)
		}
		if n == 0 {
			break
		}
	}
	if reporter != nil {
		reporter.Done()
	}
	return nil
}

// writeAll retries on short writes, same as io.Writer's contract demands
// but the original's write_all made explicit.
func writeAll(w io.Writer, p []byte) (int, error) {
	total := 0
	for total < len(p) {
		n, err := w.Write(p[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// isConnReset reports whether err indicates the peer reset the
// connection mid-payload, which the original treats as "connection
// closed by peer" rather than a failure (protocol.rs recv()).
func isConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) || errors.Is(err, net.ErrClosed)
}
