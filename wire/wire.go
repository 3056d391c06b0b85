// Package wire implements the three DFTP frame types and their canonical
// big-endian byte layouts.
//
// Each frame is a concrete struct with its own Encode method and a
// package-level Decode function — not a shared interface dispatched at
// runtime. New frame types are not expected to be added dynamically, so
// a tagged-struct encode/decode pair is preferable to a capability
// interface (see SPEC_FULL.md §9).
//
// Frame layouts:
//
//	Simple:        1 byte   — a tag from a closed set
//	ProtocolTable: 2 bytes  — {compat_num, flags}
//	FileHeader:    variable — {length(4) file_type(1) name_len(4) name(name_len) hash(32)}
//
// All multi-byte integers are big-endian.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/theAester/dftp/dfterr"
)

// COMPATNumber is the protocol version this build speaks. A mismatch with
// the peer's compat_num is always fatal; there is no downgrade path.
const COMPATNumber byte = 2

// Simple message tags.
const (
	SenderID byte = 0x00
	RecverID byte = 0x01
	HSAck    byte = 0xF9
	PNAcc    byte = 0x09
	PNDec    byte = 0x08
)

func validSimple(v byte) bool {
	switch v {
	case SenderID, RecverID, HSAck, PNAcc, PNDec:
		return true
	default:
		return false
	}
}

// Simple is the single-byte control frame.
type Simple struct {
	Tag byte
}

// Encode writes the 1-byte wire form of s to w.
func (s Simple) Encode(w io.Writer) (int, error) {
	if !validSimple(s.Tag) {
		return 0, dfterr.Newf(dfterr.Usage, "wire.Simple.Encode", "invalid simple tag 0x%02x", s.Tag)
	}
	buf := [1]byte{s.Tag}
	if _, err := w.Write(buf[:]); err != nil {
		return 0, err
	}
	return 1, nil
}

// DecodeSimple reads exactly one byte from r and validates it against the
// closed set of simple tags.
func DecodeSimple(r io.Reader) (Simple, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Simple{}, wrapReadErr("wire.DecodeSimple", err)
	}
	if !validSimple(buf[0]) {
		return Simple{}, dfterr.Newf(dfterr.ProtocolDecode, "wire.DecodeSimple", "unknown simple tag 0x%02x", buf[0])
	}
	return Simple{Tag: buf[0]}, nil
}

// Protocol table flags.
const (
	FlagCompress byte = 0x01
	FlagFile     byte = 0x02

	knownFlags = FlagCompress | FlagFile
)

// ProtocolTable is the two-byte capability advertisement frame.
type ProtocolTable struct {
	CompatNum byte
	Flags     byte
}

// Compressed reports whether FlagCompress is set.
func (t ProtocolTable) Compressed() bool { return t.Flags&FlagCompress != 0 }

// HasFile reports whether FlagFile is set.
func (t ProtocolTable) HasFile() bool { return t.Flags&FlagFile != 0 }

// Encode writes the 2-byte wire form of t to w. Unknown flag bits must be
// zero on emission.
func (t ProtocolTable) Encode(w io.Writer) (int, error) {
	if t.Flags&^knownFlags != 0 {
		return 0, dfterr.Newf(dfterr.Usage, "wire.ProtocolTable.Encode", "unknown flag bits set: 0x%02x", t.Flags)
	}
	buf := [2]byte{t.CompatNum, t.Flags}
	if _, err := w.Write(buf[:]); err != nil {
		return 0, err
	}
	return 2, nil
}

// DecodeProtocolTable reads the 2-byte frame from r. Unknown flag bits are
// ignored (not rejected) on receipt. A compat_num that doesn't match
// COMPATNumber is a VersionMismatch, not a decode failure in the generic
// sense — callers that need to react (e.g. emit PNDec) should check
// dfterr.KindOf for VersionMismatch specifically.
func DecodeProtocolTable(r io.Reader) (ProtocolTable, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return ProtocolTable{}, wrapReadErr("wire.DecodeProtocolTable", err)
	}
	if buf[0] != COMPATNumber {
		return ProtocolTable{}, dfterr.Newf(dfterr.VersionMismatch, "wire.DecodeProtocolTable",
			"Incompatible protocol versions. Ours is %d. Theirs is %d", COMPATNumber, buf[0])
	}
	return ProtocolTable{CompatNum: buf[0], Flags: buf[1] & knownFlags}, nil
}

// File types carried in a FileHeader. DIR is reserved, not implemented: see
// SPEC_FULL.md §9.
const (
	FileTypeFile byte = 0
	FileTypeDir  byte = 1
)

// HashSize is the fixed size of the FileHeader's trailing hash field
// (SHA-256 digest).
const HashSize = 32

// MaxNameLen bounds Name to keep a malicious/garbled name_len from causing
// an unbounded allocation.
const MaxNameLen = 65535

// FileHeader is the variable-length file-metadata frame.
type FileHeader struct {
	Length   uint32
	FileType byte
	Name     string
	Hash     [HashSize]byte
}

// Encode writes the contiguous wire form of h to w: a 9-byte prefix
// (length, file_type, name_len), the name bytes, then the 32-byte hash.
func (h FileHeader) Encode(w io.Writer) (int, error) {
	if h.FileType != FileTypeFile && h.FileType != FileTypeDir {
		return 0, dfterr.Newf(dfterr.Usage, "wire.FileHeader.Encode", "invalid file_type %d", h.FileType)
	}
	nameBytes := []byte(h.Name)
	if len(nameBytes) > MaxNameLen {
		return 0, dfterr.Newf(dfterr.Usage, "wire.FileHeader.Encode", "name too long: %d bytes", len(nameBytes))
	}
	if !utf8.Valid(nameBytes) {
		return 0, dfterr.New(dfterr.Usage, "wire.FileHeader.Encode", errors.New("name is not valid UTF-8"))
	}

	total := 9 + len(nameBytes) + HashSize
	buf := make([]byte, total)

	binary.BigEndian.PutUint32(buf[0:4], h.Length)
	buf[4] = h.FileType
	binary.BigEndian.PutUint32(buf[5:9], uint32(len(nameBytes)))
	copy(buf[9:9+len(nameBytes)], nameBytes)
	copy(buf[9+len(nameBytes):], h.Hash[:])

	if _, err := w.Write(buf); err != nil {
		return 0, err
	}
	return total, nil
}

// DecodeFileHeader reads the fixed 9-byte prefix first, then name_len bytes,
// then exactly HashSize bytes of hash, per SPEC_FULL.md §3/§4.A.
func DecodeFileHeader(r io.Reader) (FileHeader, error) {
	var prefix [9]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return FileHeader{}, wrapReadErr("wire.DecodeFileHeader", err)
	}

	length := binary.BigEndian.Uint32(prefix[0:4])
	fileType := prefix[4]
	if fileType != FileTypeFile && fileType != FileTypeDir {
		return FileHeader{}, dfterr.Newf(dfterr.ProtocolDecode, "wire.DecodeFileHeader", "invalid file_type %d", fileType)
	}
	nameLen := binary.BigEndian.Uint32(prefix[5:9])
	if nameLen > MaxNameLen {
		return FileHeader{}, dfterr.Newf(dfterr.ProtocolDecode, "wire.DecodeFileHeader", "name_len %d exceeds ceiling %d", nameLen, MaxNameLen)
	}

	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return FileHeader{}, wrapReadErr("wire.DecodeFileHeader", err)
	}
	if !utf8.Valid(nameBuf) {
		return FileHeader{}, dfterr.New(dfterr.ProtocolDecode, "wire.DecodeFileHeader", errors.New("malformed UTF-8 in name"))
	}
	if uint32(len(nameBuf)) != nameLen {
		return FileHeader{}, dfterr.New(dfterr.IntegrityAssert, "wire.DecodeFileHeader", errors.New("name length mismatch after read"))
	}

	var hash [HashSize]byte
	if _, err := io.ReadFull(r, hash[:]); err != nil {
		return FileHeader{}, wrapReadErr("wire.DecodeFileHeader", err)
	}

	return FileHeader{
		Length:   length,
		FileType: fileType,
		Name:     string(nameBuf),
		Hash:     hash,
	}, nil
}

// wrapReadErr classifies an io error from a frame read into the taxonomy:
// a clean/unexpected EOF is ProtocolDecode, anything else passes through
// so callers can still detect net.Error timeouts (dfterr.Timeout is
// reserved for the phase-hook layer, not raised here — see negotiate.Hook).
func wrapReadErr(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return dfterr.New(dfterr.ProtocolDecode, op, fmt.Errorf("unexpected EOF: %w", err))
	}
	return err
}
