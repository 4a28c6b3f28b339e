package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a Fault, per the error kinds a ClientConnection can surface.
type Kind uint8

const (
	// TransportIO means the underlying transport.Stream returned an error on
	// read or write.
	TransportIO Kind = iota + 1
	// Framing means the wire data violated HTTP/1.x framing: a malformed
	// chunk-size line, a malformed status/header line, or a short read where
	// more bytes were declared than delivered.
	Framing
	// ShortWrite means the caller closed a request body before writing as
	// many bytes as it declared via Content-Length.
	ShortWrite
	// ConnectionClosed means request() was called after allowNewRequests
	// became false, or a response could not be delivered because the
	// connection was retired first.
	ConnectionClosed
	// Cancelled means the request was cancelled gracefully before or during
	// its write turn.
	Cancelled
	// Aborted means the request (or a sibling on the same connection) was
	// force-cancelled, tearing down the whole connection.
	Aborted
	// ProtocolMisuse means the caller used the API in a way the protocol
	// state doesn't allow, e.g. reading responseTrailer before the response
	// stream reached EOF.
	ProtocolMisuse
)

func (k Kind) String() string {
	switch k {
	case TransportIO:
		return "transport-io"
	case Framing:
		return "framing"
	case ShortWrite:
		return "short-write"
	case ConnectionClosed:
		return "connection-closed"
	case Cancelled:
		return "cancelled"
	case Aborted:
		return "aborted"
	case ProtocolMisuse:
		return "protocol-misuse"
	default:
		return "unknown"
	}
}

// Fault is a sticky, classified error surfaced by a ClientConnection to every
// operation that reaches a faulted side of the connection (spec §7:
// requestFault/responseFault). It wraps an optional underlying cause so
// errors.Is/errors.As keep working across the sticky-fault boundary, e.g.
// errors.Is(err, io.EOF) still succeeds on a TransportIO fault caused by EOF.
type Fault struct {
	Kind  Kind
	Cause error
}

// NewFault builds a Fault of the given kind wrapping cause, which may be nil.
func NewFault(kind Kind, cause error) *Fault {
	return &Fault{Kind: kind, Cause: cause}
}

func (f *Fault) Error() string {
	if f.Cause == nil {
		return f.Kind.String()
	}

	return fmt.Sprintf("%s: %s", f.Kind, f.Cause)
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Is reports whether target is a Fault of the same Kind with no Cause of its
// own, so callers can write errors.Is(err, &errors.Fault{Kind: errors.Aborted})
// without caring about err's Cause. A target that carries a Cause never
// matches here.
func (f *Fault) Is(target error) bool {
	other, ok := target.(*Fault)
	if !ok {
		return false
	}

	return other.Cause == nil && other.Kind == f.Kind
}

// KindOf extracts the Kind of err if it is (or wraps) a *Fault, and false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var fault *Fault
	if errors.As(err, &fault) {
		return fault.Kind, true
	}

	return 0, false
}

// Sentinel, kind-tagged faults for use with errors.Is at call sites that don't
// care about the underlying cause.
var (
	ErrConnectionClosed = &Fault{Kind: ConnectionClosed}
	ErrCancelled        = &Fault{Kind: Cancelled}
	ErrAborted          = &Fault{Kind: Aborted}
	ErrShortWrite       = &Fault{Kind: ShortWrite}
	ErrProtocolMisuse   = &Fault{Kind: ProtocolMisuse}
)

var (
	// ErrNoSuchKey is returned by kv.Storage-adjacent lookups that found no
	// matching entry, kept for call sites that prefer a plain sentinel over a
	// (value, bool) return.
	ErrNoSuchKey = errors.New("requested key is not present")
)

// Response status-line and header framing errors, all of Kind Framing. Every
// response-parsing failure boils down to one of these before it's promoted to
// a sticky responseFault by the connection.
var (
	ErrTooLongResponseLine     = &Fault{Kind: Framing, Cause: errors.New("response line is too long")}
	ErrBadStatusLine           = &Fault{Kind: Framing, Cause: errors.New("malformed status line")}
	ErrHTTPVersionNotSupported = &Fault{Kind: Framing, Cause: errors.New("unsupported HTTP version")}
	ErrHeaderFieldsTooLarge    = &Fault{Kind: Framing, Cause: errors.New("header fields too large")}
	ErrBadChunkFraming         = &Fault{Kind: Framing, Cause: errors.New("malformed chunk-encoded data")}
)
