// Command dftp transfers a file or stream between two peers over a plain
// TCP connection, with an optional handshake-bounded timeout and
// optional DEFLATE compression.
//
// Ported from the original dftp's cmd.rs/main.rs argument surface,
// reimplemented as a flat (no-subcommand) cobra.Command, matching the
// style of the pack's single-purpose CLIs.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/theAester/dftp/dfterr"
	"github.com/theAester/dftp/handshake"
	"github.com/theAester/dftp/localio"
	"github.com/theAester/dftp/negotiate"
	"github.com/theAester/dftp/progress"
	"github.com/theAester/dftp/session"
	"github.com/theAester/dftp/transfer"
	"github.com/theAester/dftp/transport"
)

const (
	appName     = "dftp"
	appVersion  = "2.0.0"
	defaultPort = 8086
)

var (
	recv       bool
	port       int
	file       string
	compress   bool
	timeoutSec int
)

func main() {
	root := &cobra.Command{
		Use:     appName + " [OPTIONS] ADDR",
		Short:   "Direct File Transfer Protocol client/server",
		Version: appVersion,
		Args:    cobra.RangeArgs(0, 2),
		RunE:    run,
	}

	root.Flags().BoolVarP(&recv, "recv", "r", false, "act as the receiving end")
	root.Flags().IntVarP(&port, "port", "p", 0, "receiver: port to listen on (default 8086); sender: local port to bind (default OS-chosen)")
	root.Flags().StringVarP(&file, "file", "f", "", "use this file instead of stdin/stdout")
	root.Flags().BoolVarP(&compress, "compress", "x", false, "compress the transfer (sender only)")
	root.Flags().IntVarP(&timeoutSec, "timeout", "t", 0, "seconds to bound the handshake/negotiation phases (0 = no deadline)")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	logger := log.New(os.Stderr, "", 0)
	timeout := time.Duration(timeoutSec) * time.Second

	if err := validatePort(port); err != nil {
		exitUsage(err)
	}

	if recv {
		if compress {
			fmt.Fprintln(os.Stderr, "WARNING: -x specified on the receiving end; it only takes effect if the sender also specifies it")
		}
		return runReceive(logger, timeout)
	}

	addr, err := resolveAddr(args)
	if err != nil {
		exitUsage(err)
	}
	return runSend(addr, logger, timeout)
}

func runSend(addr string, logger *log.Logger, timeout time.Duration) error {
	conn, err := transport.Dial(addr, port)
	if err != nil {
		return exitErr(err)
	}
	defer conn.Close()

	if err := conn.SetPhaseDeadline(timeout); err != nil {
		return exitErr(err)
	}
	if err := runPhase(logger, timeout, "handshake", func(ctx context.Context) error {
		return handshake.Sender(conn)
	}); err != nil {
		return exitErr(err)
	}

	var sess *session.Sender
	if err := runPhase(logger, timeout, "negotiate", func(ctx context.Context) error {
		s, err := negotiate.Sender(conn, negotiate.SenderOptions{
			Compress: compress,
			FilePath: file,
		})
		sess = s
		return err
	}); err != nil {
		return exitErr(err)
	}
	conn.ClearDeadline()

	src, err := localio.OpenSource(file)
	if err != nil {
		return exitErr(err)
	}
	defer src.Close()

	var reporter *progress.Reporter
	if src.IsFile {
		reporter = progress.New(os.Stderr, uint64(src.Size))
	}

	if err := transfer.Send(sess.Sink, src, reporter); err != nil {
		return exitErr(err)
	}
	if wc, ok := sess.Sink.(interface{ Close() error }); ok {
		if err := wc.Close(); err != nil {
			return exitErr(err)
		}
	}
	logger.Printf("transfer complete")
	return nil
}

// runPhase wraps step with the standard logging/timeout hook chain
// (spec.md §4.C: "the CLI wires a logging hook (always) and, when
// -t/--timeout is given, a timeout hook"). The timeout hook's race
// against ctx only surfaces a clean dfterr.Timeout for logging; the
// actual unblocking of a hung read/write still comes from the socket
// deadline set via conn.SetPhaseDeadline.
func runPhase(logger *log.Logger, timeout time.Duration, name string, step negotiate.Step) error {
	chain := negotiate.Chain(negotiate.LoggingHook(logger, name), negotiate.TimeoutHook(timeout))
	return chain(step)(context.Background())
}

func runReceive(logger *log.Logger, timeout time.Duration) error {
	p := port
	if p == 0 {
		p = defaultPort
	}
	conn, err := transport.Listen(p)
	if err != nil {
		return exitErr(err)
	}
	defer conn.Close()

	if err := conn.SetPhaseDeadline(timeout); err != nil {
		return exitErr(err)
	}
	if err := runPhase(logger, timeout, "handshake", func(ctx context.Context) error {
		return handshake.Receiver(conn)
	}); err != nil {
		return exitErr(err)
	}

	var sess *session.Receiver
	if err := runPhase(logger, timeout, "negotiate", func(ctx context.Context) error {
		s, err := negotiate.Receiver(conn)
		sess = s
		return err
	}); err != nil {
		return exitErr(err)
	}
	conn.ClearDeadline()

	outPath := file
	if sess.FileHeader != nil && outPath == "" {
		outPath = sess.TargetName
	}
	sink, err := localio.OpenSink(outPath)
	if err != nil {
		return exitErr(err)
	}
	defer sink.Close()

	var reporter *progress.Reporter
	if sess.FileHeader != nil {
		logger.Printf("receiving %s (%d bytes, sha256 %x)", sess.TargetName, sess.FileHeader.Length, sess.FileHeader.Hash)
		reporter = progress.New(os.Stderr, uint64(sess.FileHeader.Length))
	}

	if err := transfer.Recv(sink, sess.Source, sink, sink.IsStdio, reporter); err != nil {
		return exitErr(err)
	}
	logger.Printf("transfer complete")
	return nil
}

// resolveAddr builds a HOST:PORT string from one or two positional
// arguments, matching cmd.rs's free-argument handling: a single
// "host:port" or bare host (defaulting to 8086), or two separate
// "host port" tokens.
func resolveAddr(args []string) (string, error) {
	var addr string
	switch len(args) {
	case 0:
		return "", fmt.Errorf("missing address argument; see --help")
	case 1:
		if strings.Contains(args[0], ":") {
			addr = args[0]
		} else {
			addr = args[0] + ":" + strconv.Itoa(defaultPort)
		}
	case 2:
		addr = args[0] + ":" + args[1]
	default:
		return "", fmt.Errorf("unexpected number of arguments; see --help")
	}
	if !isAddrValid(addr) {
		return "", fmt.Errorf("invalid address %q; see --help", addr)
	}
	return addr, nil
}

// validatePort rejects an out-of-range -p/--port value as a Usage error
// before any network activity (spec.md §6/§7), matching cmd.rs's "port <
// 1 || port > 65536" rejection during argument parsing. A port of 0
// means "unset" (OS-chosen bind port for the sender, default 8086 for
// the receiver) and is always allowed.
func validatePort(p int) error {
	if p == 0 {
		return nil
	}
	if p < 1 || p > 65535 {
		return fmt.Errorf("port %d out of range (1-65535); see --help", p)
	}
	return nil
}

// isAddrValid validates HOST:PORT where HOST is a dotted-quad IPv4
// address and PORT is a uint16, generalizing cmd.rs's
// is_addr_string_valid state machine to fail closed on malformed octets
// instead of relying on a language runtime's integer-parse panics.
func isAddrValid(addr string) bool {
	host, portStr, found := strings.Cut(addr, ":")
	if !found {
		return false
	}
	octets := strings.Split(host, ".")
	if len(octets) != 4 {
		return false
	}
	for _, o := range octets {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	n, err := strconv.Atoi(portStr)
	if err != nil || n < 1 || n > 65535 {
		return false
	}
	return true
}

func exitErr(err error) error {
	if kind, ok := dfterr.KindOf(err); ok {
		fmt.Fprintf(os.Stderr, "%s: %s: %v\n", appName, kind, err)
	} else {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	}
	os.Exit(1)
	return nil
}

func exitUsage(err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
	os.Exit(1)
}
