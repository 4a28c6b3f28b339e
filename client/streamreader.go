package client

import (
	"github.com/relaywire/pipeclient/transport"
)

// streamReader adapts a transport.Stream, whose Read returns a whole chunk
// of arbitrary size, to io.Reader's contract of copying at most len(p)
// bytes. It also lets header parsing hand back the tail of a chunk that
// belongs to the response body (pushback), so body reading picks up exactly
// where header parsing left off instead of re-touching the network.
type streamReader struct {
	s        transport.Stream
	leftover []byte
}

func newStreamReader(s transport.Stream) *streamReader {
	return &streamReader{s: s}
}

// Read implements io.Reader over the underlying transport.Stream.
func (r *streamReader) Read(p []byte) (int, error) {
	if len(r.leftover) == 0 {
		chunk, err := r.s.Read()
		if err != nil {
			return 0, err
		}

		r.leftover = chunk
	}

	n := copy(p, r.leftover)
	r.leftover = r.leftover[n:]

	return n, nil
}

// pushback hands back bytes read but not consumed by the caller (e.g. the
// beginning of a pipelined response's status line, read together with the
// tail of the previous response's body) so the next Read returns them first.
func (r *streamReader) pushback(b []byte) {
	r.leftover = append(b, r.leftover...)
}
