package client

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/relaywire/pipeclient/client/body"
	"github.com/relaywire/pipeclient/client/internal/sched"
	"github.com/relaywire/pipeclient/errors"
	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/method"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/relaywire/pipeclient/http/status"
)

type writeState uint8

const (
	writeQueued writeState = iota
	writeWriting
	writeWritten
	writeFailed
)

type readState uint8

const (
	readAwaiting readState = iota
	readReadingHeaders
	readReadingBody
	readDone
	readFailed
)

// ClientRequest is the handle ClientConnection.Request returns: one queued
// exchange, exposing its write and read sides as independent operations a
// caller can drive (or park on) at its own pace, instead of blocking for the
// whole round trip in one call (spec §3, §4.2).
//
// A ClientRequest's write side and read side progress through their own
// state machines (writeQueued→writeWriting→writeWritten/writeFailed and
// readAwaiting→readReadingHeaders→readReadingBody→readDone/readFailed), each
// driven by whichever goroutine calls RequestStream/Response/ResponseStream:
// there is no dedicated dispatcher goroutine per connection. task is the
// single wake-token this ClientRequest parks on, reused first for its write
// turn and later for its read turn, since the two are never awaited at once.
type ClientRequest struct {
	conn    *ClientConnection
	request *Request
	task    *sched.Task

	mu         sync.Mutex
	writeState writeState
	readState  readState
	cancelled  bool
	aborted    bool
	writeFault error
	readFault  error

	reqStreamOnce sync.Once
	reqStream     *requestBodyStream
	reqStreamErr  error

	responseOnce sync.Once
	response     *Response
	responseErr  error

	respStreamOnce sync.Once
	respStream     *responseBodyStream
	respStreamErr  error

	respReader  *body.ResponseReader
	respBodyBuf *bufio.Reader
	headHeaders *headers.Headers
	noBody      bool
	doneOnce    sync.Once

	finishOnce sync.Once
	finishErr  error

	writeDoneOnce sync.Once
}

func newClientRequest(conn *ClientConnection, req *Request) *ClientRequest {
	return &ClientRequest{conn: conn, request: req, task: sched.NewTask()}
}

// RequestStream drives this request's write side from writeQueued to
// writeWriting, parking the calling goroutine until it's this request's turn
// to write (spec §5: "requestStream() first call — parks until write slot
// granted"). It writes the request line and headers immediately, then
// returns a stream the caller writes the body to and must Close to finalize
// framing. Subsequent calls return the same stream.
func (cr *ClientRequest) RequestStream(ctx context.Context) (io.WriteCloser, error) {
	cr.reqStreamOnce.Do(func() {
		if err := cr.task.Park(ctx); err != nil {
			cr.conn.dequeuePending(cr)
			cr.reqStreamErr = errors.NewFault(errors.Cancelled, err)
			return
		}

		cr.mu.Lock()
		fault := cr.writeFault
		cancelled := cr.cancelled
		cr.mu.Unlock()

		if fault != nil {
			cr.reqStreamErr = fault
			return
		}
		if cancelled {
			cr.reqStreamErr = errors.ErrCancelled
			cr.finishWrite(cr.reqStreamErr)
			return
		}

		cr.mu.Lock()
		cr.writeState = writeWriting
		cr.mu.Unlock()

		req := cr.request
		cr.conn.logger.Debug(ctx, cr.conn.id, "", "writing request: "+req.Method.String()+" "+req.target())

		if err := cr.conn.renderer.Render(cr.conn.stream, req.Method, req.target(), req.Proto, req.Headers); err != nil {
			fault := errors.NewFault(errors.TransportIO, err)
			cr.reqStreamErr = fault
			cr.mu.Lock()
			cr.writeState = writeFailed
			cr.mu.Unlock()
			cr.finishWrite(fault)
			return
		}

		bw := body.NewRequestWriter(cr.conn.stream, req.Headers, req.Trailer)
		cr.reqStream = &requestBodyStream{cr: cr, rw: bw}
	})

	if cr.reqStreamErr != nil {
		return nil, cr.reqStreamErr
	}

	return cr.reqStream, nil
}

// RequestTrailer returns the mutable trailer written after the request body,
// lazily attaching one to the underlying Request if none was supplied via
// WithBody. It is only meaningful for a chunked request and must be
// populated before the request stream is closed (spec §4.2).
func (cr *ClientRequest) RequestTrailer() *headers.Trailer {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	if cr.request.Trailer == nil {
		cr.request.Trailer = headers.NewTrailer()
	}

	return cr.request.Trailer
}

// Response drives this request's read side from readAwaiting to
// readReadingHeaders and on to readReadingBody, parking until it is the
// head of the connection's waitingResponses and a full status line and
// header block have been parsed (spec §5: "response() first call — parks
// until head of waitingResponses + headers parsed"). Interim (1xx)
// responses are skipped transparently. Subsequent calls return the cached
// result.
func (cr *ClientRequest) Response(ctx context.Context) (*Response, error) {
	cr.responseOnce.Do(func() {
		if err := cr.task.Park(ctx); err != nil {
			cr.responseErr = errors.NewFault(errors.Cancelled, err)
			return
		}

		cr.mu.Lock()
		fault := cr.readFault
		cr.mu.Unlock()
		if fault != nil {
			cr.responseErr = fault
			return
		}

		cr.mu.Lock()
		cr.readState = readReadingHeaders
		cr.mu.Unlock()

		for {
			head, bodySource, err := cr.conn.parseHead(ctx)
			if err != nil {
				cr.mu.Lock()
				cr.readState = readFailed
				cr.mu.Unlock()
				cr.responseErr = err
				cr.conn.onResponseFinished(cr, err)
				return
			}

			if head.Code >= 100 && head.Code < 200 {
				cr.conn.logger.Trace(ctx, cr.conn.id, "", "skipping interim response "+string(head.Status))
				cr.conn.headers.release(head.Headers)
				continue
			}

			cr.headHeaders = head.Headers
			cr.response = &Response{Protocol: head.Protocol, Code: head.Code, Status: head.Status, Headers: head.Headers}
			cr.noBody = noResponseBody(cr.request.Method, head.Code)

			closing := headers.HasCloseDirective(head.Headers, head.Protocol == proto.HTTP11)
			bodyBuf := bufio.NewReaderSize(bodySource, cr.conn.cfg.NET.ReadBufferSize)
			cr.respBodyBuf = bodyBuf
			cr.respReader = body.NewResponseReader(bodyBuf, head.Headers, closing, cr.noBody)

			cr.mu.Lock()
			cr.readState = readReadingBody
			cr.mu.Unlock()

			if closing {
				cr.conn.mu.Lock()
				cr.conn.allowNewRequests = false
				cr.conn.mu.Unlock()
			}

			if cr.noBody {
				cr.finishResponse(nil)
			}

			return
		}
	})

	return cr.response, cr.responseErr
}

// HasResponseBody reports whether Response's result carries a body, derived
// from the response status and the request's method (spec §4.2). It must be
// called after Response has returned successfully; before that it defaults
// to true.
func (cr *ClientRequest) HasResponseBody() bool {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	return !cr.noBody
}

// ResponseStream returns the response body stream, calling Response first if
// it hasn't been called yet. Reading it to io.EOF (or discarding it via
// Finish) drives the read side from readReadingBody to readDone and unblocks
// the next pipelined response.
func (cr *ClientRequest) ResponseStream(ctx context.Context) (io.Reader, error) {
	if _, err := cr.Response(ctx); err != nil {
		return nil, err
	}

	cr.respStreamOnce.Do(func() {
		if cr.responseErr != nil {
			cr.respStreamErr = cr.responseErr
			return
		}

		cr.respStream = &responseBodyStream{cr: cr}
	})

	if cr.respStreamErr != nil {
		return nil, cr.respStreamErr
	}

	return cr.respStream, nil
}

// ResponseTrailer returns the trailer fields sent after a chunked response
// body. It's only meaningful once the response stream has reached io.EOF;
// calling it earlier surfaces a ProtocolMisuse fault, same as
// body.ResponseReader.Trailer.
func (cr *ClientRequest) ResponseTrailer() (*headers.Trailer, error) {
	if cr.respReader == nil {
		return nil, errors.ErrProtocolMisuse
	}

	return cr.respReader.Trailer()
}

// Cancel implements the three cancellation paths of spec §5. abort=true is
// immediate and total: it force-closes the transport and fails every other
// request on the connection with Aborted. abort=false is graceful and
// scoped to this request alone:
//   - not yet writing: dequeued synchronously, observed as Cancelled.
//   - mid-write: cancelled is set and checked at the write stream's next
//     boundary (its Close call); the connection stops admitting further
//     requests but leaves siblings already queued or in flight alone.
//   - mid-read (or later): the connection stops admitting further requests;
//     if the body was left unread, it's drained in the background so
//     requests pipelined behind it can still complete.
func (cr *ClientRequest) Cancel(abort bool) error {
	if abort {
		cr.mu.Lock()
		cr.aborted = true
		cr.mu.Unlock()
		cr.conn.fail(errors.NewFault(errors.Aborted, nil))
		return nil
	}

	cr.mu.Lock()
	cr.cancelled = true
	wstate := cr.writeState
	rstate := cr.readState
	cr.mu.Unlock()

	if wstate == writeQueued && cr.conn.dequeuePending(cr) {
		cr.failWrite(errors.ErrCancelled)
		return nil
	}

	cr.conn.softClose()

	if rstate == readReadingBody {
		go cr.discardResponse()
	}

	return nil
}

// Finish is a convenience that fully drains both sides of the exchange:
// writing an empty request body if none was written yet, then reading and
// discarding the response body. It is idempotent.
func (cr *ClientRequest) Finish(ctx context.Context) error {
	cr.finishOnce.Do(func() {
		w, err := cr.RequestStream(ctx)
		if err != nil {
			cr.finishErr = err
			return
		}

		if err := w.Close(); err != nil {
			cr.finishErr = err
			return
		}

		if _, err := cr.Response(ctx); err != nil {
			cr.finishErr = err
			return
		}

		stream, err := cr.ResponseStream(ctx)
		if err != nil {
			cr.finishErr = err
			return
		}

		if _, err := io.Copy(io.Discard, stream); err != nil {
			cr.finishErr = err
		}
	})

	return cr.finishErr
}

// failWrite records fault as this request's write-side outcome and wakes
// whoever is (or will be) parked in RequestStream, mirroring the connection
// dispatching a fault to a request it never got to write.
func (cr *ClientRequest) failWrite(fault error) {
	cr.mu.Lock()
	if cr.writeFault == nil {
		cr.writeFault = fault
	}
	cr.writeState = writeFailed
	cr.mu.Unlock()
	cr.task.Schedule()
}

// failRead is failWrite's read-side counterpart.
func (cr *ClientRequest) failRead(fault error) {
	cr.mu.Lock()
	if cr.readFault == nil {
		cr.readFault = fault
	}
	cr.readState = readFailed
	cr.mu.Unlock()
	cr.task.Schedule()
}

// finishWrite runs exactly once per request, reporting the write side's
// outcome (writeWritten's nil, or the fault that ended it early) to the
// connection so it can advance to the next queued writer.
func (cr *ClientRequest) finishWrite(fault error) {
	cr.writeDoneOnce.Do(func() {
		cr.conn.onRequestFinished(cr, fault)
	})
}

// finishResponse runs exactly once, whether the body reached io.EOF, faulted
// mid-read, or never had a body to begin with. It hands any leftover
// buffered bytes back to the connection's shared reader, releases the pooled
// Headers backing Response, and reports completion to the connection so the
// next pipelined reader (if any) gets its turn.
func (cr *ClientRequest) finishResponse(fault error) {
	cr.doneOnce.Do(func() {
		if cr.respBodyBuf != nil {
			if n := cr.respBodyBuf.Buffered(); n > 0 {
				leftover, _ := cr.respBodyBuf.Peek(n)
				cr.conn.reader.pushback(append([]byte(nil), leftover...))
			}
		}

		cr.mu.Lock()
		if fault != nil {
			cr.readState = readFailed
		} else {
			cr.readState = readDone
		}
		cr.mu.Unlock()

		cr.conn.headers.release(cr.headHeaders)
		cr.conn.onResponseFinished(cr, fault)
	})
}

// discardResponse best-effort drains a response body abandoned by a graceful,
// non-abort cancel, so requests pipelined behind it aren't stuck waiting for
// bytes nobody will ever read.
func (cr *ClientRequest) discardResponse() {
	stream, err := cr.ResponseStream(context.Background())
	if err != nil {
		return
	}

	io.Copy(io.Discard, stream)
}

// noResponseBody reports whether the read-side state machine should skip
// straight from reading-headers to done regardless of what the headers say
// (spec §4.1): 1xx/204/304 statuses and HEAD responses never carry a body on
// the wire, even when they carry a Content-Length header describing one.
func noResponseBody(m method.Method, code status.Code) bool {
	switch {
	case code >= 100 && code < 200:
		return true
	case code == status.NoContent || code == status.NotModified:
		return true
	case m == method.HEAD:
		return true
	default:
		return false
	}
}

// requestBodyStream is the io.WriteCloser RequestStream hands back: writes
// pass straight through to body.RequestWriter's framing, and Close finalizes
// the write side exactly once, reporting the outcome to the connection.
type requestBodyStream struct {
	cr        *ClientRequest
	rw        *body.RequestWriter
	closeOnce sync.Once
	closeErr  error
}

func (s *requestBodyStream) Write(p []byte) (int, error) {
	n, err := s.rw.Write(p)
	if err != nil {
		fault := errors.NewFault(errors.TransportIO, err)
		s.cr.mu.Lock()
		s.cr.writeState = writeFailed
		s.cr.mu.Unlock()
		s.cr.finishWrite(fault)
		return n, fault
	}

	return n, nil
}

func (s *requestBodyStream) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.rw.Close()

		state := writeWritten
		if s.closeErr != nil {
			state = writeFailed
		}

		s.cr.mu.Lock()
		cancelled := s.cr.cancelled
		s.cr.writeState = state
		s.cr.mu.Unlock()

		if s.closeErr == nil && cancelled {
			// Graceful mid-write cancel (spec §5): the write completed
			// atomically, so the connection stays usable for whoever is
			// already queued behind it, but it stops admitting more.
			s.cr.conn.softClose()
		}

		s.cr.finishWrite(s.closeErr)
	})

	return s.closeErr
}

// responseBodyStream is the io.Reader ResponseStream hands back: reads pass
// through to body.ResponseReader, and observing io.EOF (or any other error)
// drives finishResponse exactly once.
type responseBodyStream struct {
	cr *ClientRequest
}

func (s *responseBodyStream) Read(p []byte) (int, error) {
	s.cr.mu.Lock()
	fault := s.cr.readFault
	s.cr.mu.Unlock()
	if fault != nil {
		return 0, fault
	}

	n, err := s.cr.respReader.Read(p)

	switch err {
	case nil:
	case io.EOF:
		s.cr.finishResponse(nil)
	default:
		s.cr.finishResponse(err)
	}

	return n, err
}
