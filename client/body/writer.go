// Package body implements the two body stream adapters of spec §4.3: a
// request body writer applying Content-Length or chunked framing on the way
// out, and a response body reader parsing the same framings on the way in.
// The chunk codec here is grounded on the teacher's own hand-rolled chunked
// body parser (internal/parser/http1/chunkedbodyparser.go) rather than on
// github.com/indigo-web/chunkedbody: that package's exported surface could
// not be confirmed anywhere in the retrieval pack (no vendored source, no
// call site), and fabricating a plausible-looking API for an unverified
// dependency is worse than doing the framing directly in the teacher's own
// proven idiom.
package body

import (
	"io"
	"strconv"

	"github.com/relaywire/pipeclient/errors"
	"github.com/relaywire/pipeclient/http/headers"
)

// RequestWriter frames an outgoing request body according to the headers it
// was built from: fixed-size (Content-Length) or chunked (Transfer-Encoding:
// chunked). It borrows the underlying writer exclusively for the duration of
// one request's write turn and must not outlive it.
type RequestWriter struct {
	w        io.Writer
	chunked  bool
	declared int64
	written  int64
	trailer  *headers.Trailer
	closed   bool
}

// NewRequestWriter returns a writer that frames writes to w per h: chunked if
// h declares Transfer-Encoding: chunked, otherwise fixed-size against
// Content-Length (0 if absent, meaning "no body").
func NewRequestWriter(w io.Writer, h *headers.Headers, trailer *headers.Trailer) *RequestWriter {
	chunked := isChunked(h)
	declared, _ := strconv.ParseInt(h.Value("Content-Length"), 10, 64)

	return &RequestWriter{
		w:        w,
		chunked:  chunked,
		declared: declared,
		trailer:  trailer,
	}
}

// Write frames p as one chunk (chunked mode) or passes it straight through,
// counting bytes for the Content-Length invariant (fixed mode).
func (rw *RequestWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if rw.chunked {
		if err := writeChunk(rw.w, p); err != nil {
			return 0, err
		}

		rw.written += int64(len(p))
		return len(p), nil
	}

	n, err := rw.w.Write(p)
	rw.written += int64(n)
	return n, err
}

// Close finalizes the body: for chunked mode, it flushes the zero-sized
// chunk and any trailer fields; for fixed mode, it verifies exactly Declared
// bytes were written, failing with a ShortWrite fault otherwise (spec §4.3).
func (rw *RequestWriter) Close() error {
	if rw.closed {
		return nil
	}
	rw.closed = true

	if rw.chunked {
		return writeLastChunk(rw.w, rw.trailer)
	}

	if rw.written != rw.declared {
		return errors.NewFault(errors.ShortWrite, nil)
	}

	return nil
}

func isChunked(h *headers.Headers) bool {
	for value := range h.Values("Transfer-Encoding") {
		if value == "chunked" {
			return true
		}
	}

	return false
}

func writeChunk(w io.Writer, data []byte) error {
	size := strconv.FormatInt(int64(len(data)), 16)

	if _, err := io.WriteString(w, size); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\r\n"); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\r\n")
	return err
}

func writeLastChunk(w io.Writer, trailer *headers.Trailer) error {
	if _, err := io.WriteString(w, "0\r\n"); err != nil {
		return err
	}

	if trailer != nil {
		for key, value := range trailer.Pairs() {
			if _, err := io.WriteString(w, key+": "+value+"\r\n"); err != nil {
				return err
			}
		}
	}

	_, err := io.WriteString(w, "\r\n")
	return err
}
