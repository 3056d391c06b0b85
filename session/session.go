// Package session defines the sender and receiver session records
// produced by handshake/negotiation and consumed by the transfer loop.
//
// A session is created when the TCP connection is established, mutated
// only by the handshake and negotiation components on their own side,
// frozen before the transfer loop begins, and destroyed (alongside its
// transport) when the transfer loop completes or any fatal error occurs.
package session

import (
	"io"

	"github.com/theAester/dftp/wire"
)

// Sender is the sender-side session record.
type Sender struct {
	LocalName      string // basename used for the FileHeader, if any
	UseCompression bool
	IsFile         bool // false when the source is standard input
	Sink           io.Writer
}

// Receiver is the receiver-side session record. FileHeader is populated iff
// Negotiated.HasFile() is true.
type Receiver struct {
	TargetName string
	Negotiated wire.ProtocolTable
	FileHeader *wire.FileHeader
	Source     io.Reader
}
