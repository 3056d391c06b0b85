package transfer

import (
	"bytes"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/theAester/dftp/progress"
)

func TestSendCopiesAllBytes(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte("x"), BuffSize+17))
	var dst bytes.Buffer
	if err := Send(&dst, src, nil); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if dst.Len() != BuffSize+17 {
		t.Errorf("got %d bytes, want %d", dst.Len(), BuffSize+17)
	}
}

func TestSendReportsProgress(t *testing.T) {
	src := bytes.NewReader(bytes.Repeat([]byte("y"), 10))
	var dst bytes.Buffer
	var reportLog bytes.Buffer
	r := progress.New(&reportLog, 10)
	if err := Send(&dst, src, r); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if reportLog.Len() == 0 {
		t.Error("expected some progress output")
	}
}

type resetReader struct {
	data []byte
	sent bool
}

func (r *resetReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		n := copy(p, r.data)
		return n, nil
	}
	return 0, &net.OpError{Op: "read", Err: syscall.ECONNRESET}
}

func TestRecvTreatsConnResetAsCleanEOF(t *testing.T) {
	src := &resetReader{data: []byte("partial")}
	var dst bytes.Buffer
	if err := Recv(&dst, src, nil, false, nil); err != nil {
		t.Fatalf("expected ConnectionReset to be treated as clean EOF, got: %v", err)
	}
	if dst.String() != "partial" {
		t.Errorf("got %q", dst.String())
	}
}

type countingFlusher struct{ n int }

func (f *countingFlusher) Flush() error { f.n++; return nil }

func TestRecvFlushesPerChunkWhenRequested(t *testing.T) {
	src := bytes.NewReader([]byte("abc"))
	var dst bytes.Buffer
	flusher := &countingFlusher{}
	if err := Recv(&dst, src, flusher, true, nil); err != nil {
		t.Fatalf("Recv failed: %v", err)
	}
	if flusher.n == 0 {
		t.Error("expected at least one flush")
	}
}

func TestRecvPropagatesOtherErrors(t *testing.T) {
	src := io.MultiReader(bytes.NewReader([]byte("ab")), errReader{})
	var dst bytes.Buffer
	err := Recv(&dst, src, nil, false, nil)
	if err == nil {
		t.Fatal("expected error to propagate")
	}
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, errors.New("boom")
}
