// Package client implements a pipelined HTTP/1.x connection core: a single
// ClientConnection drives one transport.Stream, letting callers queue many
// requests without waiting for earlier ones to finish, while guaranteeing
// responses are delivered in the order their requests were written (spec
// §4.1, §4.2). Each queued exchange is handed back as a ClientRequest, whose
// write and read sides are driven by whichever goroutine calls its
// operations — there is no per-connection dispatcher goroutine; a request
// parks on its own wake token until it's granted its turn (spec §9).
package client

import (
	"context"
	"io"
	"sync"

	"github.com/indigo-web/iter"
	"github.com/indigo-web/utils/buffer"
	"github.com/relaywire/pipeclient/client/internal/parser/http1"
	renderhttp1 "github.com/relaywire/pipeclient/client/internal/render/http1"
	"github.com/relaywire/pipeclient/config"
	"github.com/relaywire/pipeclient/errors"
	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/relaywire/pipeclient/log"
	"github.com/relaywire/pipeclient/transport"
)

// ClientConnection is a pipelined HTTP/1.x client bound to a single
// transport.Stream. Its zero value is not usable; build one with
// NewClientConnection. Safe for concurrent Request calls, and for
// concurrent operations on the ClientRequest handles it returns, from any
// number of goroutines.
type ClientConnection struct {
	id     string
	cfg    *config.Config
	logger *log.Logger

	stream transport.Stream
	reader *streamReader

	parser   *http1.Parser
	renderer *renderhttp1.Renderer
	headers  *headersPool

	// mu guards only the O(1) bookkeeping below: the pending/waiting queues
	// and the sticky admission state. It is never held across a transport
	// read or write (spec §5).
	mu               sync.Mutex
	pendingRequests  []*ClientRequest
	waitingResponses []*ClientRequest
	allowNewRequests bool
	requestFault     error
	responseFault    error

	closeOnce sync.Once
}

// NewClientConnection wraps s in a ClientConnection using cfg (or
// config.Default() if nil). logger may be nil, in which case the logger
// "client:<id>" under log.Root() is used.
func NewClientConnection(s transport.Stream, cfg *config.Config, logger *log.Logger) *ClientConnection {
	if cfg == nil {
		cfg = config.Default()
	}

	id := log.NewHandle()
	if logger == nil {
		logger = log.Get("client").Child(id)
	}

	return &ClientConnection{
		id:               id,
		cfg:              cfg,
		logger:           logger,
		stream:           s,
		reader:           newStreamReader(s),
		parser:           http1.NewParser(newBuffer(cfg.Headers.Space.Default), newBuffer(cfg.Headers.Space.Default)),
		renderer:         renderhttp1.NewRenderer(make([]byte, 0, cfg.NET.WriteBufferSize.Default)),
		headers:          newHeadersPool(cfg.Headers.Number.Default),
		allowNewRequests: true,
	}
}

// ID returns the connection's log-facing identifier (spec §4.4, ADDITIONS
// item 3's stand-in for a thread id / fiber pointer).
func (c *ClientConnection) ID() string {
	return c.id
}

// WaitingResponses returns a snapshot iterator, in submission order, over
// the requests that have been written but whose response hasn't been fully
// delivered yet (spec §3's waitingResponses). The returned iterator is over
// a copy; requests that complete after this call don't retroactively vanish
// from it.
func (c *ClientConnection) WaitingResponses() iter.Iterator[*ClientRequest] {
	c.mu.Lock()
	defer c.mu.Unlock()

	reqs := make([]*ClientRequest, len(c.waitingResponses))
	copy(reqs, c.waitingResponses)

	return iter.Slice(reqs)
}

// Request admits req onto the connection and returns its handle immediately,
// without performing any I/O (spec §4.1's request() guarantee). It fails
// with ConnectionClosed if the connection is no longer admitting new
// requests, whether because it was explicitly Closed, a prior exchange
// carried a close directive, or a fault already brought it down.
func (c *ClientConnection) Request(req *Request) (*ClientRequest, error) {
	c.mu.Lock()
	if !c.allowNewRequests {
		c.mu.Unlock()
		return nil, errors.ErrConnectionClosed
	}

	cr := newClientRequest(c, req)
	headOfLine := len(c.pendingRequests) == 0
	c.pendingRequests = append(c.pendingRequests, cr)

	if headers.HasCloseDirective(req.Headers, req.Proto == proto.HTTP11) {
		c.allowNewRequests = false
	}
	c.mu.Unlock()

	if headOfLine {
		cr.task.Schedule()
	}

	return cr, nil
}

// dequeuePending removes cr from pendingRequests if it's still there
// (spec §5's graceful cancel of a not-yet-writing request), reporting
// whether it was found.
func (c *ClientConnection) dequeuePending(cr *ClientRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, p := range c.pendingRequests {
		if p == cr {
			c.pendingRequests = append(c.pendingRequests[:i], c.pendingRequests[i+1:]...)
			return true
		}
	}

	return false
}

// softClose stops the connection from admitting further requests without
// touching anything already queued or in flight — the graceful, scoped
// counterpart to fail's total abort (spec §5).
func (c *ClientConnection) softClose() {
	c.mu.Lock()
	c.allowNewRequests = false
	c.mu.Unlock()
}

// onRequestFinished is called exactly once per ClientRequest's write side,
// whether it finished cleanly or faulted, driving the writing/queued →
// written/write-failed transition: it dequeues cr, hands the next pending
// request its write turn, and — on success — enqueues cr onto
// waitingResponses and grants it the read turn if it's now the head. A
// write fault does not close the transport: outstanding response readers
// may still drain what's already in flight (spec §4.1).
func (c *ClientConnection) onRequestFinished(cr *ClientRequest, fault error) {
	c.mu.Lock()

	if len(c.pendingRequests) > 0 && c.pendingRequests[0] == cr {
		c.pendingRequests = c.pendingRequests[1:]
	}

	if fault != nil {
		c.requestFault = fault
		c.allowNewRequests = false
		failed := c.pendingRequests
		c.pendingRequests = nil
		c.mu.Unlock()

		for _, p := range failed {
			p.failWrite(fault)
		}

		return
	}

	var next *ClientRequest
	if len(c.pendingRequests) > 0 {
		next = c.pendingRequests[0]
	}

	c.waitingResponses = append(c.waitingResponses, cr)
	headReader := len(c.waitingResponses) == 1
	respFault := c.responseFault
	c.mu.Unlock()

	if next != nil {
		next.task.Schedule()
	}

	switch {
	case respFault != nil:
		cr.failRead(respFault)
	case headReader:
		cr.task.Schedule()
	}
}

// onResponseFinished is called exactly once per ClientRequest's read side,
// driving the reading-body → done/read-failed transition: it dequeues cr
// from waitingResponses and, on success, grants the next waiter its turn or
// closes the transport if this was the last response on a connection no
// longer admitting new requests. A read fault fails every other waiter and
// closes the transport, since a broken read desyncs the whole pipeline
// behind it (spec §4.1, §7).
func (c *ClientConnection) onResponseFinished(cr *ClientRequest, fault error) {
	c.mu.Lock()

	if len(c.waitingResponses) > 0 && c.waitingResponses[0] == cr {
		c.waitingResponses = c.waitingResponses[1:]
	}

	if fault != nil {
		c.responseFault = fault
		c.allowNewRequests = false
		failed := c.waitingResponses
		c.waitingResponses = nil
		c.mu.Unlock()

		for _, p := range failed {
			p.failRead(fault)
		}

		c.closeStream()
		return
	}

	var next *ClientRequest
	if len(c.waitingResponses) > 0 {
		next = c.waitingResponses[0]
	}

	closeAfter := !c.allowNewRequests && len(c.waitingResponses) == 0
	c.mu.Unlock()

	if next != nil {
		next.task.Schedule()
	}
	if closeAfter {
		c.closeStream()
	}
}

// fail marks the connection permanently faulted, fails every queued and
// in-flight request with fault, and force-closes the transport (spec §5's
// abort: "immediate; closes the transport; every other request on the
// connection fails").
func (c *ClientConnection) fail(fault error) {
	c.mu.Lock()
	if c.requestFault == nil {
		c.requestFault = fault
	}
	if c.responseFault == nil {
		c.responseFault = fault
	}
	c.allowNewRequests = false
	pending := c.pendingRequests
	waiting := c.waitingResponses
	c.pendingRequests = nil
	c.waitingResponses = nil
	c.mu.Unlock()

	for _, cr := range pending {
		cr.failWrite(fault)
	}
	for _, cr := range waiting {
		cr.failRead(fault)
	}

	c.closeStream()
}

// Close stops the connection from admitting new requests. Requests already
// written still receive their responses; the underlying stream is closed
// immediately if nothing is outstanding, or otherwise as soon as a response
// finishes and no written request is left waiting for one. A request still
// queued for its write turn at that moment finds the stream closed.
func (c *ClientConnection) Close() error {
	c.mu.Lock()
	c.allowNewRequests = false
	drained := len(c.pendingRequests) == 0 && len(c.waitingResponses) == 0
	c.mu.Unlock()

	if drained {
		return c.closeStream()
	}

	return nil
}

// closeStream closes the underlying transport exactly once.
func (c *ClientConnection) closeStream() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.stream.Close()
	})

	return err
}

// parseHead feeds bytes off the connection's shared streamReader into the
// parser until a full status line and header block have been consumed,
// leaving any bytes belonging to the body unread on bodySource. Only the
// ClientRequest currently holding the read turn ever calls this, so the
// shared parser and streamReader need no locking of their own.
func (c *ClientConnection) parseHead(ctx context.Context) (http1.Head, io.Reader, error) {
	h := c.headers.acquire()
	c.parser.Init(h)

	buf := make([]byte, c.cfg.NET.ReadBufferSize)

	for {
		n, err := c.reader.Read(buf)
		if err != nil {
			return http1.Head{}, nil, wrapReadErr(err)
		}

		completed, rest, err := c.parser.Parse(buf[:n])
		if err != nil {
			return http1.Head{}, nil, err
		}

		if completed {
			c.reader.pushback(rest)
			return c.parser.Head(), c.reader, nil
		}
	}
}

func wrapReadErr(err error) error {
	if err == io.EOF {
		return errors.NewFault(errors.ConnectionClosed, err)
	}

	return errors.NewFault(errors.TransportIO, err)
}

func newBuffer(size int) (b buffer.Buffer[byte]) {
	return *buffer.NewBuffer[byte](0, size)
}
