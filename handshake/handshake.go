// Package handshake implements the DFTP handshake state machine: role
// identification and mutual acknowledgement between sender and receiver.
//
// Sender states:
//
//	S0 → send Simple(SenderID) → S1
//	S1 → recv Simple(x)        → x=RecverID: S2 | x=SenderID: fail "peer is also sender" | else: fail
//	S2 → send Simple(HSAck)    → DONE
//
// Receiver states:
//
//	R0 → recv Simple(x)         → x=SenderID: R1 | else: fail
//	R1 → send Simple(RecverID)  → R2
//	R2 → recv Simple(x)         → x=HSAck: DONE | else: fail
//
// The whole handshake is three Simple frames total: one from sender, one
// from receiver, one from sender again. There are no retries — any
// deviation is a fatal error and the caller is expected to close the
// connection and exit non-zero.
package handshake

import (
	"io"

	"github.com/theAester/dftp/dfterr"
	"github.com/theAester/dftp/wire"
)

// Sender runs the sender side of the handshake against rw. On success the
// connection is in state DONE and the caller may proceed to negotiation.
func Sender(rw io.ReadWriter) error {
	if _, err := (wire.Simple{Tag: wire.SenderID}).Encode(rw); err != nil {
		return dfterr.New(dfterr.Setup, "handshake.Sender", err)
	}

	reply, err := wire.DecodeSimple(rw)
	if err != nil {
		return taxonomize("handshake.Sender", err)
	}
	switch reply.Tag {
	case wire.RecverID:
		// proceed to S2
	case wire.SenderID:
		return dfterr.Newf(dfterr.ProtocolDecode, "handshake.Sender", "peer is also a sender")
	default:
		return dfterr.Newf(dfterr.ProtocolDecode, "handshake.Sender", "malfunction: unexpected reply 0x%02x", reply.Tag)
	}

	if _, err := (wire.Simple{Tag: wire.HSAck}).Encode(rw); err != nil {
		return dfterr.New(dfterr.Setup, "handshake.Sender", err)
	}
	return nil
}

// Receiver runs the receiver side of the handshake against rw.
func Receiver(rw io.ReadWriter) error {
	msg, err := wire.DecodeSimple(rw)
	if err != nil {
		return taxonomize("handshake.Receiver", err)
	}
	if msg.Tag != wire.SenderID {
		return dfterr.Newf(dfterr.ProtocolDecode, "handshake.Receiver", "malfunction: expected SenderID, got 0x%02x", msg.Tag)
	}

	if _, err := (wire.Simple{Tag: wire.RecverID}).Encode(rw); err != nil {
		return dfterr.New(dfterr.Setup, "handshake.Receiver", err)
	}

	ack, err := wire.DecodeSimple(rw)
	if err != nil {
		return taxonomize("handshake.Receiver", err)
	}
	if ack.Tag != wire.HSAck {
		return dfterr.Newf(dfterr.ProtocolDecode, "handshake.Receiver", "malfunction: expected HSAck, got 0x%02x", ack.Tag)
	}
	return nil
}

// taxonomize passes dfterr.Errors through untouched and wraps anything else
// (e.g. a raw net.Error from a dead connection) as TransportClosed, since a
// handshake frame read only fails this way on a broken control connection.
func taxonomize(op string, err error) error {
	if _, ok := dfterr.KindOf(err); ok {
		return err
	}
	return dfterr.New(dfterr.TransportClosed, op, err)
}
