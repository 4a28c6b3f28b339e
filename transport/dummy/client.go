package dummy

import (
	"io"
	"net"

	"github.com/relaywire/pipeclient/transport"
)

var _ transport.Stream = new(CircularClient)

// CircularClient is a stream that on every Read returns the same sequence of
// canned chunks it was initialised with, looping back to the start once
// exhausted unless OneTime() was set. Useful for benchmarks and any test that
// doesn't care about exact wire framing, only about repeated reads.
type CircularClient struct {
	data         [][]byte
	tmp          []byte
	pointer      int
	closed, once bool
}

func NewCircularClient(data ...[]byte) *CircularClient {
	return &CircularClient{
		data: data,
	}
}

func (c *CircularClient) Read() (data []byte, err error) {
	if c.closed {
		return nil, io.EOF
	}

	if len(c.tmp) > 0 {
		data, c.tmp = c.tmp, nil
		return data, nil
	}

	if c.pointer >= len(c.data) {
		if c.once {
			c.closed = true
			return nil, io.EOF
		}

		c.pointer = 0
	}

	piece := c.data[c.pointer]
	c.pointer++

	return piece, nil
}

func (c *CircularClient) Pushback(takeback []byte) {
	c.tmp = takeback
}

func (*CircularClient) Write(p []byte) (int, error) {
	return len(p), nil
}

func (c *CircularClient) Conn() net.Conn {
	return new(Conn).Nop()
}

func (*CircularClient) Remote() net.Addr {
	return nil
}

func (c *CircularClient) Close() error {
	c.closed = true
	return nil
}

// OneTime makes the client return io.EOF once every canned chunk has been
// read once, instead of looping back to the start.
func (c *CircularClient) OneTime() *CircularClient {
	c.once = true
	return c
}

// SinkholeWriter discards nothing: it records every byte written to it,
// useful when only the writer side of a stream is under test.
type SinkholeWriter struct {
	Data []byte
}

func NewSinkholeWriter() *SinkholeWriter {
	return new(SinkholeWriter)
}

func (s *SinkholeWriter) Write(b []byte) (int, error) {
	s.Data = append(s.Data, b...)
	return len(b), nil
}
