// End-to-end pipeline test: handshake, negotiation, and transfer chained
// together over a single connection, the way cmd/dftp wires them.
//
// Grounded on the teacher's test/integration_test.go, which exercised the
// full client→registry→balancer→pool→protocol→codec→middleware→server
// chain over a real listener; this test exercises DFTP's equivalent full
// chain (handshake→negotiate→transfer) over a net.Pipe instead of etcd
// and a TCP listener, since DFTP has no service discovery or connection
// pooling to thread through.
package dftp_test

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/theAester/dftp/handshake"
	"github.com/theAester/dftp/negotiate"
	"github.com/theAester/dftp/transfer"
)

func TestFullPipelineSendRecv(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 4096)

	senderErr := make(chan error, 1)
	go func() {
		if err := handshake.Sender(a); err != nil {
			senderErr <- err
			return
		}
		sess, err := negotiate.Sender(a, negotiate.SenderOptions{Compress: true})
		if err != nil {
			senderErr <- err
			return
		}
		if err := transfer.Send(sess.Sink, bytes.NewReader(payload), nil); err != nil {
			senderErr <- err
			return
		}
		if wc, ok := sess.Sink.(interface{ Close() error }); ok {
			wc.Close()
		}
		senderErr <- nil
	}()

	recvErr := make(chan error, 1)
	var got bytes.Buffer
	go func() {
		if err := handshake.Receiver(b); err != nil {
			recvErr <- err
			return
		}
		sess, err := negotiate.Receiver(b)
		if err != nil {
			recvErr <- err
			return
		}
		recvErr <- transfer.Recv(&got, sess.Source, nil, false, nil)
	}()

	select {
	case err := <-senderErr:
		if err != nil {
			t.Fatalf("sender side failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for sender")
	}
	a.Close()
	select {
	case err := <-recvErr:
		if err != nil {
			t.Fatalf("receiver side failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for receiver")
	}

	if !bytes.Equal(got.Bytes(), payload) {
		t.Fatalf("payload mismatch: got %d bytes, want %d", got.Len(), len(payload))
	}
}

func TestFullPipelineBothSidesSenderErrorsOnSwappedRoles(t *testing.T) {
	// A loopback TCP pair rather than net.Pipe: both senders write their
	// SenderID before reading, which needs a buffered connection.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()
	a, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer a.Close()
	b := <-accepted
	if b == nil {
		t.Fatal("accept failed")
	}
	defer b.Close()

	// Both sides open as senders: the handshake's state machine must
	// reject this instead of silently proceeding.
	errA := make(chan error, 1)
	errB := make(chan error, 1)
	go func() { errA <- handshake.Sender(a) }()
	go func() { errB <- handshake.Sender(b) }()

	gotA := <-errA
	gotB := <-errB
	if gotA == nil && gotB == nil {
		t.Fatal("expected at least one side to reject a sender/sender handshake")
	}
}
