package client

import (
	"testing"

	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/relaywire/pipeclient/http/status"
	"github.com/stretchr/testify/require"
)

func TestResponseCarriesStatusLineAndHeaders(t *testing.T) {
	h := headers.NewHeaders().Add("Content-Type", "text/plain")
	resp := &Response{Protocol: proto.HTTP11, Code: status.OK, Status: "OK", Headers: h}

	require.Equal(t, status.OK, resp.Code)
	require.Equal(t, status.Status("OK"), resp.Status)
	require.Equal(t, "text/plain", resp.Headers.Value("Content-Type"))
}
