package http1

import (
	"testing"

	"github.com/indigo-web/utils/buffer"
	"github.com/relaywire/pipeclient/http/headers"
	"github.com/relaywire/pipeclient/http/proto"
	"github.com/relaywire/pipeclient/http/status"
	"github.com/stretchr/testify/require"
)

func compareHead(t *testing.T, want, got Head) {
	require.Equal(t, want.Protocol, got.Protocol)
	require.Equal(t, int(want.Code), int(got.Code))
	if len(want.Status) > 0 {
		require.Equal(t, want.Status, got.Status)
	}

	for key := range want.Headers.Keys() {
		require.True(t, got.Headers.Has(key))
		wantValues := collect(want.Headers.Values(key))
		gotValues := collect(got.Headers.Values(key))
		require.Equal(t, wantValues, gotValues)
	}
}

func collect(seq func(func(string) bool)) (out []string) {
	for v := range seq {
		out = append(out, v)
	}

	return out
}

func TestResponseParser(t *testing.T) {
	parser := NewParser(
		*buffer.NewBuffer[byte](0, 4096), *buffer.NewBuffer[byte](0, 4096),
	)

	t.Run("simple response", func(t *testing.T) {
		data := "HTTP/1.1 200 OK\r\n\r\n"
		parser.Init(headers.NewHeaders())
		headersCompleted, rest, err := parser.Parse([]byte(data))
		require.NoError(t, err)
		require.True(t, headersCompleted)
		require.Empty(t, rest)
		compareHead(t, Head{
			Protocol: proto.HTTP11,
			Code:     status.OK,
			Status:   "OK",
			Headers:  headers.NewHeaders(),
		}, parser.Head())
	})

	t.Run("response with headers", func(t *testing.T) {
		data := "HTTP/1.1 200 OK\r\nHello: world\r\nhello: nether\r\n\r\n"
		parser.Init(headers.NewHeaders())
		headersCompleted, rest, err := parser.Parse([]byte(data))
		require.NoError(t, err)
		require.True(t, headersCompleted)
		require.Empty(t, rest)
		compareHead(t, Head{
			Protocol: proto.HTTP11,
			Code:     status.OK,
			Status:   "OK",
			Headers: headers.FromMap(map[string][]string{
				"hello": {"world", "nether"},
			}),
		}, parser.Head())
	})

	t.Run("split across reads", func(t *testing.T) {
		parser.Init(headers.NewHeaders())
		headersCompleted, rest, err := parser.Parse([]byte("HTTP/1.1 204 No"))
		require.NoError(t, err)
		require.False(t, headersCompleted)
		require.Empty(t, rest)

		headersCompleted, rest, err = parser.Parse([]byte(" Content\r\nX-A: 1\r\n\r\nleftover"))
		require.NoError(t, err)
		require.True(t, headersCompleted)
		require.Equal(t, "leftover", string(rest))
		require.Equal(t, status.NoContent, parser.Head().Code)
		require.Equal(t, "1", parser.Head().Headers.Value("X-A"))
	})
}
