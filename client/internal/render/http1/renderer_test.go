package http1

import (
	"bytes"
	"testing"

	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/method"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/stretchr/testify/require"
)

func TestRenderSimpleGet(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(nil)

	err := r.Render(&buf, method.GET, "/index", proto.HTTP11, nil)
	require.NoError(t, err)
	require.Equal(t, "GET /index HTTP/1.1\r\n\r\n", buf.String())
}

func TestRenderWithHeaders(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(nil)
	h := headers.NewHeaders().Add("Host", "example.com").Add("Accept", "*/*")

	err := r.Render(&buf, method.GET, "/", proto.HTTP11, h)
	require.NoError(t, err)
	require.Equal(t, "GET / HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n", buf.String())
}

func TestRendererReusesScratchBufferAcrossCalls(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	r := NewRenderer(make([]byte, 0, 16))

	require.NoError(t, r.Render(&buf1, method.POST, "/a", proto.HTTP10, nil))
	require.NoError(t, r.Render(&buf2, method.GET, "/b", proto.HTTP11, nil))

	require.Equal(t, "POST /a HTTP/1.0\r\n\r\n", buf1.String())
	require.Equal(t, "GET /b HTTP/1.1\r\n\r\n", buf2.String())
}
