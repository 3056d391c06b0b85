package handshake

import (
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/theAester/dftp/dfterr"
	"github.com/theAester/dftp/wire"
)

// pipe returns both halves of a net.Pipe, which both sides can run the
// handshake functions against directly (they only need io.ReadWriter).
func pipe(t *testing.T) (net.Conn, net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

func TestHandshakeSuccess(t *testing.T) {
	a, b := pipe(t)

	errs := make(chan error, 2)
	go func() { errs <- Sender(a) }()
	go func() { errs <- Receiver(b) }()

	for i := 0; i < 2; i++ {
		select {
		case err := <-errs:
			if err != nil {
				t.Fatalf("handshake failed: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("handshake did not complete in time")
		}
	}
}

func TestHandshakeReceiverRejectsNonSender(t *testing.T) {
	a, b := pipe(t)
	go func() {
		(wire.Simple{Tag: wire.RecverID}).Encode(a)
	}()
	err := Receiver(b)
	if err == nil {
		t.Fatal("expected error when first frame isn't SenderID")
	}
}

func TestHandshakeSenderRejectsPeerAlsoSender(t *testing.T) {
	a, b := pipe(t)
	go func() {
		wire.DecodeSimple(b) // consume the SenderID
		(wire.Simple{Tag: wire.SenderID}).Encode(b)
	}()
	err := Sender(a)
	if err == nil {
		t.Fatal("expected error when peer claims to also be a sender")
	}
}

func TestHandshakeSenderFailsWhenPeerClosesBeforeAck(t *testing.T) {
	a, b := pipe(t)
	// We manually complete the exchange but close before HSAck lands, which
	// should surface as a taxonomized error, not a panic.
	go func() {
		wire.DecodeSimple(b)
		(wire.Simple{Tag: wire.RecverID}).Encode(b)
		b.Close()
	}()
	err := Sender(a)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestTaxonomizePassesThroughExistingKind(t *testing.T) {
	orig := dfterr.New(dfterr.ProtocolDecode, "x", errors.New("boom"))
	got := taxonomize("y", orig)
	if got != error(orig) {
		t.Errorf("expected original error to pass through unchanged")
	}
}

func TestTaxonomizeWrapsPlainError(t *testing.T) {
	got := taxonomize("y", io.ErrClosedPipe)
	kind, ok := dfterr.KindOf(got)
	if !ok || kind != dfterr.TransportClosed {
		t.Errorf("expected TransportClosed, got %v (ok=%v)", kind, ok)
	}
}
