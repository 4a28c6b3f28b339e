package client

import (
	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/relaywire/pipeclient/http/status"
)

// Response is one exchange's status line and headers, as returned by
// ClientRequest.Response. It carries no body of its own: the body and
// trailer live behind ClientRequest.ResponseStream and
// ClientRequest.ResponseTrailer, since the wire has no other way to know
// where this response's bytes end than the caller actually consuming them.
// Headers is only valid until the response stream reaches EOF (or the
// request is finished): the connection recycles the backing storage for a
// later exchange the moment the body finishes, so read whatever header
// fields matter before draining the body, not after.
type Response struct {
	Protocol proto.Proto
	Code     status.Code
	Status   status.Status
	Headers  *headers.Headers
}
