package body

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/relaywire/pipeclient/http/headers"
	"github.com/stretchr/testify/require"
)

func TestRequestWriterFixedLength(t *testing.T) {
	var buf bytes.Buffer
	h := headers.NewHeaders().Add("Content-Length", "5")

	rw := NewRequestWriter(&buf, h, nil)
	n, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.NoError(t, rw.Close())
	require.Equal(t, "hello", buf.String())
}

func TestRequestWriterShortWrite(t *testing.T) {
	var buf bytes.Buffer
	h := headers.NewHeaders().Add("Content-Length", "10")

	rw := NewRequestWriter(&buf, h, nil)
	_, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	require.Error(t, rw.Close())
}

func TestRequestWriterChunked(t *testing.T) {
	var buf bytes.Buffer
	h := headers.NewHeaders().Add("Transfer-Encoding", "chunked")
	trailer := headers.NewTrailer().Add("X-Checksum", "abc")

	rw := NewRequestWriter(&buf, h, trailer)
	_, err := rw.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, rw.Close())

	require.Equal(t, "5\r\nhello\r\n0\r\nX-Checksum: abc\r\n\r\n", buf.String())
}

func TestResponseReaderContentLength(t *testing.T) {
	h := headers.NewHeaders().Add("Content-Length", "5")
	r := bufio.NewReader(strings.NewReader("helloXXXXX"))
	rr := NewResponseReader(r, h, false, false)

	require.True(t, rr.HasBody())

	got, err := io.ReadAll(io.LimitReader(rr, 5))
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	_, err = rr.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestResponseReaderNoBody(t *testing.T) {
	h := headers.NewHeaders()
	r := bufio.NewReader(strings.NewReader(""))
	rr := NewResponseReader(r, h, false, false)

	require.False(t, rr.HasBody())

	_, err := rr.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}

func TestResponseReaderChunkedWithTrailer(t *testing.T) {
	h := headers.NewHeaders().Add("Transfer-Encoding", "chunked")
	raw := "5\r\nhello\r\n0\r\nX-Checksum: abc\r\n\r\n"
	r := bufio.NewReader(strings.NewReader(raw))
	rr := NewResponseReader(r, h, false, false)

	got, err := io.ReadAll(rr)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	trailer, err := rr.Trailer()
	require.NoError(t, err)
	require.Equal(t, "abc", trailer.Value("X-Checksum"))
}

func TestResponseReaderTrailerBeforeEOFIsProtocolMisuse(t *testing.T) {
	h := headers.NewHeaders().Add("Transfer-Encoding", "chunked")
	r := bufio.NewReader(strings.NewReader("5\r\nhello\r\n0\r\n\r\n"))
	rr := NewResponseReader(r, h, false, false)

	_, err := rr.Trailer()
	require.Error(t, err)
}

func TestResponseReaderNoBodyForcedDespiteContentLength(t *testing.T) {
	h := headers.NewHeaders().Add("Content-Length", "100")
	r := bufio.NewReader(strings.NewReader(strings.Repeat("x", 100)))
	rr := NewResponseReader(r, h, false, true)

	require.False(t, rr.HasBody())

	_, err := rr.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)

	// The 100 declared bytes never got consumed off r: a HEAD/204/304
	// response's Content-Length describes a body the server never sends.
	peeked, err := r.Peek(100)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("x", 100), string(peeked))
}

func TestResponseReaderConnectionClose(t *testing.T) {
	h := headers.NewHeaders()
	r := bufio.NewReader(strings.NewReader("all the bytes until EOF"))
	rr := NewResponseReader(r, h, true, false)

	require.True(t, rr.HasBody())

	got, err := io.ReadAll(rr)
	require.NoError(t, err)
	require.Equal(t, "all the bytes until EOF", string(got))
}
