package dummy

import (
	"io"
	"net"

	"github.com/relaywire/pipeclient/transport"
)

var _ transport.Stream = NopClient{}

// NopClient is a stream that immediately reports EOF on every read and
// silently discards every write. Useful as connection filler in tests that
// don't exercise the transport at all.
type NopClient struct{}

func NewNopClient() NopClient {
	return NopClient{}
}

func (n NopClient) Read() ([]byte, error) {
	return nil, io.EOF
}

func (n NopClient) Pushback([]byte) {}

func (n NopClient) Write(b []byte) (int, error) {
	return len(b), nil
}

func (n NopClient) Conn() net.Conn {
	return new(Conn).Nop()
}

func (n NopClient) Remote() net.Addr {
	return nil
}

func (n NopClient) Close() error {
	return nil
}
