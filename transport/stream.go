// Package transport defines the byte-stream contract a ClientConnection is
// built on (spec §6): an already-established, ordered, reliable duplex
// stream. Nothing in this module dials or accepts connections; it only
// consumes one.
package transport

import (
	"net"
	"time"
)

// Stream is the transport collaborator a ClientConnection reads from and
// writes to. Read returns the next chunk of bytes available, applying
// whatever read deadline the implementation was configured with; Pushback
// lets a caller give back bytes it read but didn't consume, so the next
// Read() returns them before touching the network again.
type Stream interface {
	Read() ([]byte, error)
	Pushback([]byte)
	Write([]byte) (int, error)
	Conn() net.Conn
	Remote() net.Addr
	Close() error
}

// stream wraps a net.Conn with the read/write deadlines config.NET declares:
// ReadTimeout bounds how long a Read may block waiting for the next byte off
// the wire, WriteTimeout bounds a single Write call, independently, since a
// slow reader on the far end must not be allowed to wedge a writer that's
// trying to move on to the next pipelined request.
type stream struct {
	conn         net.Conn
	buff         []byte
	pending      []byte
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewStream wraps conn into a Stream that reads into buff, applying
// readTimeout as a read deadline before every network read and writeTimeout
// as a write deadline before every network write. A zero timeout leaves the
// corresponding deadline unset.
func NewStream(conn net.Conn, readTimeout, writeTimeout time.Duration, buff []byte) Stream {
	return &stream{
		buff:         buff,
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Read reads data into the internal buffer and returns a piece of it back.
// A previous Pushback is drained first, without touching the network.
func (s *stream) Read() ([]byte, error) {
	if len(s.pending) > 0 {
		pending := s.pending
		s.pending = nil

		return pending, nil
	}

	if err := s.setDeadline(s.conn.SetReadDeadline, s.readTimeout); err != nil {
		return nil, err
	}

	n, err := s.conn.Read(s.buff)
	return s.buff[:n], err
}

// Pushback preserves a chunk of data from a previous Read for the next one.
func (s *stream) Pushback(b []byte) {
	s.pending = b
}

// Conn unwraps the underlying net.Conn.
func (s *stream) Conn() net.Conn {
	return s.conn
}

// Write writes data into the underlying connection, applying writeTimeout as
// a deadline first: a request pipelined behind a stalled write must still be
// able to fail with TransportIO instead of hanging forever.
func (s *stream) Write(b []byte) (int, error) {
	if err := s.setDeadline(s.conn.SetWriteDeadline, s.writeTimeout); err != nil {
		return 0, err
	}

	return s.conn.Write(b)
}

// Remote returns the remote address of the connection.
func (s *stream) Remote() net.Addr {
	return s.conn.RemoteAddr()
}

// Close closes the connection.
func (s *stream) Close() error {
	return s.conn.Close()
}

func (s *stream) setDeadline(set func(time.Time) error, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}

	return set(time.Now().Add(timeout))
}
