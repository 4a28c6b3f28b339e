// Package http1 implements the response half of HTTP/1.x: parsing a status
// line and header block off the wire (this file) and rendering a request
// line and headers onto it (../../render/http1).
package http1

import (
	"bytes"

	"github.com/indigo-web/utils/buffer"
	"github.com/indigo-web/utils/uf"
	"github.com/relaywire/pipeclient/client/internal/parser"
	"github.com/relaywire/pipeclient/errors"
	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/relaywire/pipeclient/http/status"
)

var _ parser.Parser = &Parser{}

// Head is everything a response carries ahead of its body: protocol,
// status line and headers. It is deliberately not the top-level client
// response type, so this package never has to import package client (which
// in turn needs a parser to build one) — a cycle the teacher's own sketch
// fell into.
type Head struct {
	Protocol proto.Proto
	Code     status.Code
	Status   status.Status
	Headers  *headers.Headers
}

// Parser incrementally parses a response status line and header block. A
// single Parser is reused across every response read on a connection: call
// Init before each one, then feed it bytes via Parse until headersCompleted.
type Parser struct {
	state        parserState
	head         Head
	respLineBuff buffer.Buffer[byte]
	headersBuff  buffer.Buffer[byte]
	headerKey    string
}

// NewParser returns a Parser backed by the given scratch buffers. Buffers are
// owned by the parser for the lifetime of every Init/Parse cycle and are
// cleared, never reallocated, between responses.
func NewParser(respLineBuff, headersBuff buffer.Buffer[byte]) *Parser {
	return &Parser{
		state:        eProto,
		respLineBuff: respLineBuff,
		headersBuff:  headersBuff,
	}
}

// Init resets the parser and points it at the Headers instance the next
// response's header fields will be added to.
func (p *Parser) Init(h *headers.Headers) {
	p.state = eProto
	p.respLineBuff.Clear()
	p.headersBuff.Clear()
	p.head = Head{Headers: h}
}

// Parse feeds data into the parser. headersCompleted is true once the blank
// line terminating the header block has been consumed; rest is whatever
// trailing bytes belong to the response body (or the next pipelined
// response) and were not consumed by this call.
func (p *Parser) Parse(data []byte) (headersCompleted bool, rest []byte, err error) {
	switch p.state {
	case eProto:
		goto proto
	case eCode:
		goto code
	case eStatus:
		goto status
	case eHeaderKey:
		goto headerKey
	case eHeaderKeyCR:
		goto headerKeyCR
	case eHeaderSemicolon:
		goto headerSemicolon
	case eHeaderValue:
		goto headerValue
	default:
		panic("BUG: response parser: unknown state")
	}

proto:
	{
		sp := bytes.IndexByte(data, ' ')
		if sp == -1 {
			if !p.respLineBuff.Append(data...) {
				return false, nil, errors.ErrTooLongResponseLine
			}

			return false, nil, nil
		}

		if !p.respLineBuff.Append(data[:sp]...) {
			return false, nil, errors.ErrTooLongResponseLine
		}

		p.head.Protocol = proto.FromBytes(p.respLineBuff.Finish())
		if p.head.Protocol == proto.Unknown {
			return false, nil, errors.ErrHTTPVersionNotSupported
		}

		data = data[sp+1:]
		p.state = eCode
		goto code
	}

code:
	for i := 0; i < len(data); i++ {
		if data[i] == ' ' {
			data = data[i+1:]
			p.state = eStatus
			goto status
		}

		if data[i] < '0' || data[i] > '9' {
			return false, nil, errors.ErrBadStatusLine
		}

		p.head.Code = status.Code(int(p.head.Code)*10 + int(data[i]-'0'))
	}

	return false, nil, nil

status:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.respLineBuff.Append(data...) {
				return false, nil, errors.ErrTooLongResponseLine
			}

			return false, nil, nil
		}

		if !p.respLineBuff.Append(data[:lf]...) {
			return false, nil, errors.ErrTooLongResponseLine
		}

		p.head.Status = status.Status(uf.B2S(rstripCR(p.respLineBuff.Finish())))
		data = data[lf+1:]
		p.state = eHeaderKey
		goto headerKey
	}

headerKey:
	if len(data) == 0 {
		return false, nil, nil
	}

	switch data[0] {
	case '\r':
		data = data[1:]
		p.state = eHeaderKeyCR
		goto headerKeyCR
	case '\n':
		data = data[1:]
		goto exitSuccess
	}

	{
		colon := bytes.IndexByte(data, ':')
		if colon == -1 {
			if !p.headersBuff.Append(data...) {
				return false, nil, errors.ErrHeaderFieldsTooLarge
			}

			return false, nil, nil
		}

		if !p.headersBuff.Append(data[:colon]...) {
			return false, nil, errors.ErrHeaderFieldsTooLarge
		}

		p.headerKey = uf.B2S(p.headersBuff.Finish())
		data = data[colon+1:]
		p.state = eHeaderSemicolon
		goto headerSemicolon
	}

headerKeyCR:
	if len(data) == 0 {
		return false, nil, nil
	}

	if data[0] != '\n' {
		return true, nil, errors.ErrBadStatusLine
	}

	data = data[1:]
	goto exitSuccess

headerSemicolon:
	for i := 0; i < len(data); i++ {
		if data[i] != ' ' {
			data = data[i:]
			p.state = eHeaderValue
			goto headerValue
		}
	}

	return false, nil, nil

headerValue:
	{
		lf := bytes.IndexByte(data, '\n')
		if lf == -1 {
			if !p.headersBuff.Append(data...) {
				return false, nil, errors.ErrHeaderFieldsTooLarge
			}

			return false, nil, nil
		}

		if !p.headersBuff.Append(data[:lf]...) {
			return false, nil, errors.ErrHeaderFieldsTooLarge
		}

		p.head.Headers.Add(p.headerKey, uf.B2S(rstripCR(p.headersBuff.Finish())))
		data = data[lf+1:]
		p.state = eHeaderKey
		goto headerKey
	}

exitSuccess:
	p.state = eProto
	p.respLineBuff.Clear()
	p.headersBuff.Clear()

	return true, data, nil
}

// Head returns the response head assembled by the most recently completed
// Parse cycle.
func (p *Parser) Head() Head {
	return p.head
}

func rstripCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		b = b[:len(b)-1]
	}

	return b
}
