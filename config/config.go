package config

import "time"

type (
	// NumberLimit pairs a Default count with a Maximal ceiling. ClientConnection
	// reads only Default; Maximal is not enforced anywhere in this module.
	NumberLimit struct {
		Default, Maximal int
	}

	// SizeLimit bounds a size in bytes, following the same Default/Maximal split.
	SizeLimit struct {
		Default, Maximal int
	}
)

type (
	// Headers governs how much room the response parser gives to the status
	// line and header block of an incoming response before giving up.
	Headers struct {
		// Number.Default sets how many *headers.Headers a ClientConnection keeps
		// in its reuse pool. The number of header fields in a response is not
		// limited by it.
		Number NumberLimit
		// Space limits the total bytes occupied by the status line and headers.
		Space SizeLimit
	}

	// Body governs limits and preallocation for request/response bodies.
	Body struct {
		// MaxSize is a response body size limit. Nothing in this module reads
		// it: response bodies are only streamed through
		// ClientRequest.ResponseStream, never buffered on the caller's behalf,
		// and no size limit is applied to them.
		MaxSize uint64
		// ChunkBufferPrealloc is a preallocation size for chunked bodies.
		// client/body does not read it.
		ChunkBufferPrealloc int
	}

	// NET groups the transport-facing buffer sizes and deadlines.
	// ClientConnection reads ReadBufferSize and WriteBufferSize.Default; it
	// does not apply the deadlines (transport.NewStream takes its own timeouts
	// as arguments).
	NET struct {
		// ReadBufferSize is the size of the buffer used to read bytes off the
		// transport into the response parser.
		ReadBufferSize int
		// ReadTimeout bounds how long a read for the next response byte may
		// block.
		ReadTimeout time.Duration
		// WriteBufferSize.Default is the initial capacity of the buffer an
		// outgoing request line and headers are rendered into; the buffer grows
		// past it as needed, and Maximal is not enforced.
		WriteBufferSize SizeLimit
		// WriteTimeout bounds a single write call to the transport.
		WriteTimeout time.Duration
		// IdleTimeout is how long a connection with no pending or in-flight
		// requests may stay open. Nothing in this module reads it.
		IdleTimeout time.Duration
	}
)

// Config holds the tuning knobs of a ClientConnection: buffer sizes, limits and
// deadlines. Always start from Default() and override individual fields;
// constructing a Config from its zero value is not supported and will produce
// ambiguous errors, since a zero limit reads as "no room at all" rather than
// "unlimited".
type Config struct {
	NET     NET
	Headers Headers
	Body    Body
}

// Default returns a well-balanced Config, permissive enough for ordinary
// HTTP/1.x servers while still bounding worst-case memory use per connection.
func Default() *Config {
	return &Config{
		NET: NET{
			ReadBufferSize: 4 * 1024,
			ReadTimeout:    90 * time.Second,
			WriteBufferSize: SizeLimit{
				Default: 2 * 1024,
				Maximal: 64 * 1024,
			},
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		Headers: Headers{
			Number: NumberLimit{
				Default: 16,
				Maximal: 100,
			},
			Space: SizeLimit{
				Default: 1 * 1024,
				Maximal: 16 * 1024,
			},
		},
		Body: Body{
			MaxSize:             512 * 1024 * 1024,
			ChunkBufferPrealloc: 1024,
		},
	}
}
