// Package http1 renders a request line and header block onto a transport, the
// write-side mirror of ../../parser/http1's response parsing.
package http1

import (
	"io"
	"strings"

	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/method"
	"github.com/relaywire/pipeclient/http/proto"
)

// Renderer serializes a request line and header block into its internal
// buffer and flushes it to a writer. It carries no per-request state, so a
// single instance may be reused (and is, by ClientConnection) across every
// request written on a connection.
type Renderer struct {
	buff []byte
}

// NewRenderer returns a Renderer using buff as scratch space.
func NewRenderer(buff []byte) *Renderer {
	return &Renderer{buff: buff[:0]}
}

// Render writes "METHOD path HTTP/x.x\r\n" followed by every header field and
// the terminating blank line to w, in one Write call.
func (r *Renderer) Render(w io.Writer, m method.Method, path string, p proto.Proto, h *headers.Headers) error {
	r.buff = r.buff[:0]
	r.renderMethod(m)
	r.renderPath(path)
	r.renderProto(p)
	r.renderHeaders(h)
	r.buff = append(r.buff, '\r', '\n')

	_, err := w.Write(r.buff)
	return err
}

func (r *Renderer) renderMethod(m method.Method) {
	r.buff = append(r.buff, m.String()...)
	r.buff = append(r.buff, ' ')
}

func (r *Renderer) renderPath(path string) {
	if len(path) == 0 {
		path = "/"
	}

	r.buff = append(r.buff, path...)
	r.buff = append(r.buff, ' ')
}

func (r *Renderer) renderProto(p proto.Proto) {
	// proto.Proto.String() carries a trailing space meant for the response
	// status line ("HTTP/1.1 200 OK"); a request line ends right after the
	// token instead, so trim it before appending the CRLF.
	r.buff = append(r.buff, strings.TrimRight(p.String(), " ")...)
	r.buff = append(r.buff, '\r', '\n')
}

func (r *Renderer) renderHeaders(h *headers.Headers) {
	if h == nil {
		return
	}

	for key, value := range h.Pairs() {
		r.buff = append(r.buff, key...)
		r.buff = append(r.buff, ':', ' ')
		r.buff = append(r.buff, value...)
		r.buff = append(r.buff, '\r', '\n')
	}
}
