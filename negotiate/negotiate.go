// Package negotiate implements the protocol table exchange, the optional
// FileHeader transmission, and the transport upgrade (compression codec
// installation) that follows a successful handshake.
//
// Ported from the original dftp's protocol_adjust_send/protocol_adjust_recv
// (protocol.rs), generalized to the corrected wire format (FLAG_FILE,
// FileHeader with a full name_len + hash) that v1 lacked.
package negotiate

import (
	"io"
	"path/filepath"

	"github.com/theAester/dftp/compressio"
	"github.com/theAester/dftp/dfterr"
	"github.com/theAester/dftp/localio"
	"github.com/theAester/dftp/session"
	"github.com/theAester/dftp/wire"
)

// SenderOptions configures the sender side of negotiation.
type SenderOptions struct {
	Compress bool
	// FilePath is empty when the source is standard input (no FileHeader is
	// built or sent).
	FilePath string
}

// Sender builds and sends the ProtocolTable, waits for the peer's
// accept/decline, optionally sends a FileHeader, then upgrades conn into
// the sink the transfer loop should write to.
func Sender(conn io.ReadWriter, opts SenderOptions) (*session.Sender, error) {
	isFile := opts.FilePath != ""

	table := wire.ProtocolTable{CompatNum: wire.COMPATNumber}
	if opts.Compress {
		table.Flags |= wire.FlagCompress
	}
	if isFile {
		table.Flags |= wire.FlagFile
	}
	if _, err := table.Encode(conn); err != nil {
		return nil, dfterr.New(dfterr.Setup, "negotiate.Sender", err)
	}

	reply, err := wire.DecodeSimple(conn)
	if err != nil {
		return nil, taxonomize("negotiate.Sender", err)
	}
	switch reply.Tag {
	case wire.PNAcc:
		// continue
	case wire.PNDec:
		return nil, dfterr.Newf(dfterr.ProtocolDecode, "negotiate.Sender", "peer declined, one side needs update")
	default:
		return nil, dfterr.Newf(dfterr.ProtocolDecode, "negotiate.Sender", "malfunction: unexpected reply 0x%02x", reply.Tag)
	}

	var localName string
	if isFile {
		sum, err := localio.HashFile(opts.FilePath)
		if err != nil {
			return nil, err
		}
		src, err := localio.OpenSource(opts.FilePath)
		if err != nil {
			return nil, err
		}
		length := src.Size
		name := src.Name
		src.Close()
		localName = name

		hdr := wire.FileHeader{
			Length:   uint32(length),
			FileType: wire.FileTypeFile,
			Name:     name,
			Hash:     sum,
		}
		if _, err := hdr.Encode(conn); err != nil {
			return nil, dfterr.New(dfterr.Setup, "negotiate.Sender", err)
		}
	}

	var sink io.Writer = conn
	if opts.Compress {
		sink = compressio.Wrap(conn)
	}

	return &session.Sender{
		LocalName:      localName,
		UseCompression: opts.Compress,
		IsFile:         isFile,
		Sink:           sink,
	}, nil
}

// Receiver reads the ProtocolTable, replies accept/decline, optionally
// reads a FileHeader, then upgrades conn into the source the transfer loop
// should read from.
func Receiver(conn io.ReadWriter) (*session.Receiver, error) {
	table, err := wire.DecodeProtocolTable(conn)
	if err != nil {
		// A ProtocolTable decode failure additionally emits PNDec so the
		// sender sees a clean decline (spec.md §4.C, §7). This includes a
		// VersionMismatch, which is taxonomically distinct but handled the
		// same way here.
		(wire.Simple{Tag: wire.PNDec}).Encode(conn)
		return nil, taxonomize("negotiate.Receiver", err)
	}
	if _, err := (wire.Simple{Tag: wire.PNAcc}).Encode(conn); err != nil {
		return nil, dfterr.New(dfterr.Setup, "negotiate.Receiver", err)
	}

	// PNAcc has already been sent: any FileHeader decode failure from here
	// on is fatal with no PNDec recovery possible (spec.md §4.C).
	var fileHeader *wire.FileHeader
	var targetName string
	if table.HasFile() {
		hdr, err := wire.DecodeFileHeader(conn)
		if err != nil {
			return nil, err
		}
		if hdr.FileType == wire.FileTypeDir {
			return nil, dfterr.Newf(dfterr.ProtocolDecode, "negotiate.Receiver", "directory transfers are reserved, not implemented")
		}
		fileHeader = &hdr
		// Basename only: the header's name field must never be honoured
		// as a path (spec.md §4.C), or a malicious/buggy sender could
		// steer the receiver into writing outside its working directory.
		targetName = filepath.Base(hdr.Name)
	}

	var source io.Reader = conn
	if table.Compressed() {
		source = compressio.Unwrap(conn)
	}

	return &session.Receiver{
		TargetName: targetName,
		Negotiated: table,
		FileHeader: fileHeader,
		Source:     source,
	}, nil
}

func taxonomize(op string, err error) error {
	if _, ok := dfterr.KindOf(err); ok {
		return err
	}
	return dfterr.New(dfterr.TransportClosed, op, err)
}
