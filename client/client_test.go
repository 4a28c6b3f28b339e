package client

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/relaywire/pipeclient/errors"
	"github.com/relaywire/pipeclient/http/method"
	"github.com/relaywire/pipeclient/transport/dummy"
	"github.com/stretchr/testify/require"
)

func getReq(path string) *Request {
	return NewRequest().WithMethod(method.GET).WithPath(path)
}

// runExchange drives req's write side to completion (with no body, closing
// immediately) and returns its handle plus the parsed response.
func runExchange(t *testing.T, c *ClientConnection, req *Request) (*ClientRequest, *Response) {
	t.Helper()

	cr, err := c.Request(req)
	require.NoError(t, err)

	w, err := cr.RequestStream(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := cr.Response(context.Background())
	require.NoError(t, err)

	return cr, resp
}

func TestRequestsPipelinedConcurrentlyDeliverResponsesInOrder(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 1\r\n\r\nAHTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nBBHTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\nCCC"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	paths := []string{"/a", "/b", "/c"}
	crs := make([]*ClientRequest, len(paths))
	for i, p := range paths {
		cr, err := c.Request(getReq(p))
		require.NoError(t, err)
		crs[i] = cr
	}

	results := make([]string, len(paths))
	var wg sync.WaitGroup
	for i, cr := range crs {
		wg.Add(1)
		go func(i int, cr *ClientRequest) {
			defer wg.Done()
			ctx := context.Background()

			w, err := cr.RequestStream(ctx)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			resp, err := cr.Response(ctx)
			require.NoError(t, err)
			require.Equal(t, 200, int(resp.Code))

			body, err := cr.ResponseStream(ctx)
			require.NoError(t, err)
			got, err := io.ReadAll(body)
			require.NoError(t, err)
			results[i] = string(got)
		}(i, cr)
	}
	wg.Wait()

	require.Equal(t, []string{"A", "BB", "CCC"}, results)

	written := stream.Written()
	require.True(t, strings.Index(written, "GET /a") < strings.Index(written, "GET /b"))
	require.True(t, strings.Index(written, "GET /b") < strings.Index(written, "GET /c"))
}

func TestResponseSkipsInterimResponses(t *testing.T) {
	raw := "HTTP/1.1 100 Continue\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	_, resp := runExchange(t, c, getReq("/"))
	require.Equal(t, 200, int(resp.Code))
}

func TestResponseConnectionCloseFraming(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\nall the body until EOF"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	cr, _ := runExchange(t, c, getReq("/"))

	body, err := cr.ResponseStream(context.Background())
	require.NoError(t, err)
	got, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "all the body until EOF", string(got))
}

func TestRequestChunkedWithTrailer(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	req := NewRequest().WithMethod(method.POST).WithPath("/upload")
	req.Headers.Add("Transfer-Encoding", "chunked")

	cr, err := c.Request(req)
	require.NoError(t, err)

	cr.RequestTrailer().Add("X-Checksum", "abc")

	w, err := cr.RequestStream(context.Background())
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	resp, err := cr.Response(context.Background())
	require.NoError(t, err)
	require.Equal(t, 200, int(resp.Code))
	require.NoError(t, cr.Finish(context.Background()))

	require.Contains(t, stream.Written(), "7\r\npayload\r\n")
	require.Contains(t, stream.Written(), "0\r\nX-Checksum: abc\r\n\r\n")
}

func TestRequestShortWriteFaultsConnection(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	req := NewRequest().WithMethod(method.POST).WithPath("/upload")
	req.Headers.Add("Content-Length", "10")

	cr, err := c.Request(req)
	require.NoError(t, err)

	w, err := cr.RequestStream(context.Background())
	require.NoError(t, err)
	_, err = w.Write([]byte("short"))
	require.NoError(t, err)

	err = w.Close()
	require.Error(t, err)
	kind, ok := errors.KindOf(err)
	require.True(t, ok)
	require.Equal(t, errors.ShortWrite, kind)

	// The fault is sticky: a later request on the same connection is rejected.
	_, err = c.Request(getReq("/after"))
	require.Error(t, err)
}

func TestCancelDequeuesUnwrittenRequest(t *testing.T) {
	c := NewClientConnection(dummy.NewNopClient(), nil, nil)
	defer c.Close()

	// first occupies the head of line and never releases it, so second stays
	// queued and can be cancelled without ever reaching its write turn.
	_, err := c.Request(getReq("/first"))
	require.NoError(t, err)

	second, err := c.Request(getReq("/never-written"))
	require.NoError(t, err)

	require.NoError(t, second.Cancel(false))

	_, err = second.RequestStream(context.Background())
	require.ErrorIs(t, err, errors.ErrCancelled)
}

func TestGracefulCancelMidWriteSoftClosesInsteadOfAborting(t *testing.T) {
	stream := dummy.NewMockClient(
		[]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
		[]byte("HTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"),
	)
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	first, err := c.Request(getReq("/first"))
	require.NoError(t, err)
	second, err := c.Request(getReq("/second"))
	require.NoError(t, err)

	w, err := first.RequestStream(context.Background())
	require.NoError(t, err)

	require.NoError(t, first.Cancel(false))
	require.NoError(t, w.Close())

	// The write completed atomically despite the cancel, so first still gets
	// its response, and second — already queued — is untouched.
	resp, err := first.Response(context.Background())
	require.NoError(t, err)
	require.Equal(t, 200, int(resp.Code))

	w2, err := second.RequestStream(context.Background())
	require.NoError(t, err)
	require.NoError(t, w2.Close())
	// second's read turn comes once first's (empty) response body is consumed.
	require.NoError(t, first.Finish(context.Background()))
	_, err = second.Response(context.Background())
	require.NoError(t, err)

	// The connection itself no longer admits new requests.
	_, err = c.Request(getReq("/too-late"))
	require.ErrorIs(t, err, errors.ErrConnectionClosed)
}

func TestAbortCancelPropagatesToSiblings(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhelloHTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 0\r\n\r\n"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	a, err := c.Request(getReq("/a"))
	require.NoError(t, err)
	b, err := c.Request(getReq("/b"))
	require.NoError(t, err)
	cc, err := c.Request(getReq("/c"))
	require.NoError(t, err)

	for _, cr := range []*ClientRequest{a, b, cc} {
		w, err := cr.RequestStream(context.Background())
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	resp, err := a.Response(context.Background())
	require.NoError(t, err)
	require.Equal(t, 200, int(resp.Code))

	require.NoError(t, a.Cancel(true))

	aBody, err := a.ResponseStream(context.Background())
	require.NoError(t, err)
	_, err = aBody.Read(make([]byte, 1))
	require.ErrorIs(t, err, errors.ErrAborted)

	_, err = b.Response(context.Background())
	require.ErrorIs(t, err, errors.ErrAborted)

	_, err = cc.Response(context.Background())
	require.ErrorIs(t, err, errors.ErrAborted)

	require.False(t, c.allowNewRequests)

	_, err = c.Request(getReq("/too-late"))
	require.ErrorIs(t, err, errors.ErrConnectionClosed)
}

func TestConnectionClosedRejectsNewRequests(t *testing.T) {
	stream := dummy.NewNopClient()
	c := NewClientConnection(stream, nil, nil)
	require.NoError(t, c.Close())

	_, err := c.Request(getReq("/too-late"))
	require.Error(t, err)
}

func TestClientConnectionID(t *testing.T) {
	c := NewClientConnection(dummy.NewNopClient(), nil, nil)
	defer c.Close()
	require.NotEmpty(t, c.ID())
}

func TestHeadResponseHasNoBodyDespiteContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 100\r\n\r\nHTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nhi"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	head := NewRequest().WithMethod(method.HEAD).WithPath("/resource")
	hcr, resp := runExchange(t, c, head)
	require.Equal(t, 200, int(resp.Code))
	require.False(t, hcr.HasResponseBody())

	hstream, err := hcr.ResponseStream(context.Background())
	require.NoError(t, err)
	n, err := hstream.Read(make([]byte, 16))
	require.Zero(t, n)
	require.ErrorIs(t, err, io.EOF)

	// The HEAD's misleading Content-Length didn't desync the pipeline: the
	// real response behind it reads back its own two bytes untouched.
	getCr, getResp := runExchange(t, c, getReq("/other"))
	require.Equal(t, 200, int(getResp.Code))
	getBody, err := getCr.ResponseStream(context.Background())
	require.NoError(t, err)
	got, err := io.ReadAll(getBody)
	require.NoError(t, err)
	require.Equal(t, "hi", string(got))
}

func TestNoContentResponseHasNoBodyDespiteContentLength(t *testing.T) {
	raw := "HTTP/1.1 204 No Content\r\nContent-Length: 50\r\n\r\n"
	stream := dummy.NewMockClient([]byte(raw)).Once()
	c := NewClientConnection(stream, nil, nil)
	defer c.Close()

	cr, resp := runExchange(t, c, getReq("/"))
	require.Equal(t, 204, int(resp.Code))
	require.False(t, cr.HasResponseBody())

	body, err := cr.ResponseStream(context.Background())
	require.NoError(t, err)
	_, err = body.Read(make([]byte, 1))
	require.ErrorIs(t, err, io.EOF)
}
