package body

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/relaywire/pipeclient/errors"
	"github.com/relaywire/pipeclient/http/headers"
)

// framing identifies which of the three response body delimiters applies.
type framing uint8

const (
	framingNone framing = iota
	framingContentLength
	framingChunked
	framingConnectionClose
)

// ResponseReader streams a response body off the underlying reader, applying
// whichever framing the response headers declared, and exposes any trailer
// fields once EOF is reached in chunked mode (spec §4.3, §7 ProtocolMisuse:
// Trailer fails with ProtocolMisuse until ReadAll/Read has returned io.EOF).
type ResponseReader struct {
	r       *bufio.Reader
	framing framing
	remain  int64
	trailer *headers.Trailer
	done    bool
	hasBody bool
}

// NewResponseReader inspects h (and, for HTTP/1.0-style connection-close
// framing, whether the connection is going away) and returns a reader
// applying the matching framing. r must already be positioned right after
// the header block's terminating blank line. noBody forces an empty,
// already-EOF reader regardless of what h declares: a 1xx/204/304 status or
// a HEAD request may legally carry a Content-Length that describes a body
// the server never actually sends (spec §4.1's reading-headers →
// reading-body → done shortcut), and trusting the header here would make
// the reader wait on bytes that will never arrive, desyncing every
// pipelined response behind it.
func NewResponseReader(r *bufio.Reader, h *headers.Headers, connectionClosing, noBody bool) *ResponseReader {
	rr := &ResponseReader{r: r, trailer: headers.NewTrailer()}

	if noBody {
		rr.done = true
		return rr
	}

	switch {
	case isChunked(h):
		rr.framing = framingChunked
		rr.hasBody = true
	case h.Has("Content-Length"):
		length, _ := strconv.ParseInt(h.Value("Content-Length"), 10, 64)
		rr.framing = framingContentLength
		rr.remain = length
		rr.hasBody = length > 0
	case connectionClosing:
		rr.framing = framingConnectionClose
		rr.hasBody = true
	default:
		rr.framing = framingNone
	}

	return rr
}

// HasBody reports whether this response is expected to carry any body bytes
// at all, per spec §4.3's 204/HEAD-style "already EOF" case.
func (rr *ResponseReader) HasBody() bool {
	return rr.hasBody
}

// Read implements io.Reader, returning io.EOF exactly at the framing
// boundary: after Content-Length bytes, after the zero-sized chunk, or on
// the transport's own EOF for connection-close framing.
func (rr *ResponseReader) Read(p []byte) (int, error) {
	if rr.done || rr.framing == framingNone {
		rr.done = true
		return 0, io.EOF
	}

	switch rr.framing {
	case framingContentLength:
		return rr.readFixed(p)
	case framingChunked:
		return rr.readChunked(p)
	default:
		n, err := rr.r.Read(p)
		if err == io.EOF {
			rr.done = true
		}

		return n, err
	}
}

func (rr *ResponseReader) readFixed(p []byte) (int, error) {
	if rr.remain == 0 {
		rr.done = true
		return 0, io.EOF
	}

	if int64(len(p)) > rr.remain {
		p = p[:rr.remain]
	}

	n, err := rr.r.Read(p)
	rr.remain -= int64(n)
	if err == nil && rr.remain == 0 {
		rr.done = true
	}

	return n, err
}

func (rr *ResponseReader) readChunked(p []byte) (int, error) {
	if rr.remain == 0 {
		size, err := readChunkSize(rr.r)
		if err != nil {
			return 0, err
		}

		if size == 0 {
			if err := readTrailer(rr.r, rr.trailer); err != nil {
				return 0, err
			}

			rr.done = true
			return 0, io.EOF
		}

		rr.remain = size
	}

	if int64(len(p)) > rr.remain {
		p = p[:rr.remain]
	}

	n, err := rr.r.Read(p)
	rr.remain -= int64(n)
	if err != nil {
		return n, err
	}

	if rr.remain == 0 {
		if err := discardCRLF(rr.r); err != nil {
			return n, err
		}
	}

	return n, nil
}

// Trailer returns the trailer fields parsed with the terminating zero-sized
// chunk. It is only meaningful once Read has returned io.EOF; accessing it
// earlier is a ProtocolMisuse per spec §7, since the trailer isn't on the
// wire yet.
func (rr *ResponseReader) Trailer() (*headers.Trailer, error) {
	if !rr.done {
		return nil, errors.NewFault(errors.ProtocolMisuse, nil)
	}

	return rr.trailer, nil
}

func readChunkSize(r *bufio.Reader) (int64, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return 0, errors.NewFault(errors.TransportIO, err)
	}

	line = strings.TrimRight(line, "\r\n")
	if semi := strings.IndexByte(line, ';'); semi != -1 {
		line = line[:semi]
	}

	size, err := strconv.ParseInt(line, 16, 64)
	if err != nil {
		return 0, errors.ErrBadChunkFraming
	}

	return size, nil
}

func readTrailer(r *bufio.Reader, trailer *headers.Trailer) error {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return errors.NewFault(errors.TransportIO, err)
		}

		line = strings.TrimRight(line, "\r\n")
		if len(line) == 0 {
			return nil
		}

		colon := strings.IndexByte(line, ':')
		if colon == -1 {
			return errors.ErrBadChunkFraming
		}

		trailer.Add(line[:colon], strings.TrimLeft(line[colon+1:], " "))
	}
}

func discardCRLF(r *bufio.Reader) error {
	line, err := r.ReadString('\n')
	if err != nil {
		return errors.NewFault(errors.TransportIO, err)
	}

	if strings.TrimRight(line, "\r\n") != "" {
		return errors.ErrBadChunkFraming
	}

	return nil
}
