package headers

import (
	"strings"

	"github.com/relaywire/pipeclient/kv"
)

// Headers is an ordered, case-insensitive collection of header fields. It backs
// both Request.Headers and Response.Headers.
type Headers = kv.Storage

// Trailer is structurally identical to Headers, but kept as a distinct name:
// it is the entity-header set that arrives after a chunked body (spec §3,
// EntityHeaders), and giving it its own name leaves room for trailer-specific
// rules (e.g. rejecting hop-by-hop fields) without touching the main path.
type Trailer = kv.Storage

// NewHeaders returns an empty, ready to use header set.
func NewHeaders() *Headers {
	return kv.New()
}

// NewTrailer returns an empty, ready to use trailer set.
func NewTrailer() *Trailer {
	return kv.New()
}

// FromMap builds a Headers set from a map, primarily useful in tests.
func FromMap(m map[string][]string) *Headers {
	return kv.NewFromMap(m)
}

// HasCloseDirective reports whether the given headers request the connection
// be closed after this exchange: a `Connection: close` on any protocol, or
// the absence of `Connection: keep-alive` on HTTP/1.0.
func HasCloseDirective(h *Headers, isHTTP11 bool) bool {
	conn := h.Value("Connection")
	switch {
	case strings.EqualFold(conn, "close"):
		return true
	case isHTTP11:
		return false
	default:
		return !strings.EqualFold(conn, "keep-alive")
	}
}
