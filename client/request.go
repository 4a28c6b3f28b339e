package client

import (
	"io"

	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/method"
	"github.com/relaywire/pipeclient/http/proto"
)

// Request is a descriptor of one exchange to run over a ClientConnection.
// Its With* methods return the same *Request for chaining, mirroring the
// teacher's builder style. Nothing in this package copies a Request once
// submitted, so callers should not mutate one while its ClientRequest is in
// flight.
type Request struct {
	Method  method.Method
	Path    string
	Query   Query
	Proto   proto.Proto
	Headers *headers.Headers
	Trailer *headers.Trailer
	Body    io.Reader
}

// NewRequest returns a Request defaulting to GET / HTTP/1.1 with an empty
// header set, ready to be customized via the With* methods.
func NewRequest() *Request {
	return &Request{
		Method:  method.GET,
		Path:    "/",
		Query:   NewQuery(),
		Proto:   proto.HTTP11,
		Headers: headers.NewHeaders(),
	}
}

func (r *Request) WithMethod(m method.Method) *Request {
	r.Method = m
	return r
}

// WithPath sets the request target's path component, excluding the query
// string, which is assembled separately from Query at render time.
func (r *Request) WithPath(path string) *Request {
	r.Path = path
	return r
}

func (r *Request) WithQuery(q Query) *Request {
	r.Query = q
	return r
}

func (r *Request) WithProto(p proto.Proto) *Request {
	r.Proto = p
	return r
}

func (r *Request) WithHeaders(h *headers.Headers) *Request {
	r.Headers = h
	return r
}

// WithBody stores body in Request.Body and trailer in Request.Trailer.
// ClientRequest never reads Body: the request body is whatever the caller
// writes to ClientRequest.RequestStream, framed per Headers' Content-Length or
// chunked Transfer-Encoding, and no framing header is added automatically.
// Trailer is what ClientRequest.RequestTrailer returns; it is written after
// the terminating chunk of a chunked body.
func (r *Request) WithBody(body io.Reader, trailer *headers.Trailer) *Request {
	r.Body = body
	r.Trailer = trailer
	return r
}

// target renders the request line's target: Path plus an encoded query
// string, or just Path if Query is empty.
func (r *Request) target() string {
	path := r.Path
	if len(path) == 0 {
		path = "/"
	}

	if len(r.Query) == 0 {
		return path
	}

	return path + "?" + r.Query.Encode()
}
