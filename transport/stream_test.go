package transport

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pipeStreams(t *testing.T) (Stream, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	return NewStream(client, time.Second, time.Second, make([]byte, 4096)), server
}

func TestStreamWriteFailsAfterWriteDeadlineElapses(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	s := NewStream(client, time.Second, time.Millisecond, make([]byte, 4096))

	// Nothing reads from server, so the pipe write blocks until the
	// deadline set by writeTimeout trips it.
	_, err := s.Write([]byte("stalled"))
	require.Error(t, err)
}

func TestStreamZeroTimeoutLeavesDeadlineUnset(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	s := NewStream(client, 0, 0, make([]byte, 4096))

	go func() { server.Write([]byte("hello")) }()
	got, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestStreamReadReturnsWrittenBytes(t *testing.T) {
	s, server := pipeStreams(t)

	go func() { server.Write([]byte("hello")) }()

	got, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))
}

func TestStreamPushbackIsReturnedBeforeNextRead(t *testing.T) {
	s, server := pipeStreams(t)
	s.Pushback([]byte("buffered"))

	got, err := s.Read()
	require.NoError(t, err)
	require.Equal(t, "buffered", string(got))

	go func() { server.Write([]byte("network")) }()
	got, err = s.Read()
	require.NoError(t, err)
	require.Equal(t, "network", string(got))
}

func TestStreamWritePassesThrough(t *testing.T) {
	s, server := pipeStreams(t)

	done := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 32)
		n, _ := server.Read(buf)
		done <- buf[:n]
	}()

	n, err := s.Write([]byte("ping"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, "ping", string(<-done))
}

func TestStreamCloseClosesUnderlyingConn(t *testing.T) {
	s, _ := pipeStreams(t)
	require.NoError(t, s.Close())

	_, err := s.Write([]byte("x"))
	require.Error(t, err)
}
