package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFaultIsByKind(t *testing.T) {
	f := NewFault(TransportIO, io.EOF)

	require.True(t, stderrors.Is(f, &Fault{Kind: TransportIO}))
	require.False(t, stderrors.Is(f, &Fault{Kind: Framing}))
}

func TestFaultUnwrapsCause(t *testing.T) {
	f := NewFault(TransportIO, io.EOF)

	require.True(t, stderrors.Is(f, io.EOF))
}

func TestFaultWithoutCauseDoesNotMatchWithCause(t *testing.T) {
	require.False(t, stderrors.Is(ErrAborted, NewFault(Aborted, io.EOF)))
}

func TestKindOf(t *testing.T) {
	kind, ok := KindOf(NewFault(ShortWrite, nil))
	require.True(t, ok)
	require.Equal(t, ShortWrite, kind)

	_, ok = KindOf(io.EOF)
	require.False(t, ok)
}

func TestFaultError(t *testing.T) {
	require.Equal(t, "aborted", ErrAborted.Error())
	require.Contains(t, NewFault(TransportIO, io.EOF).Error(), io.EOF.Error())
}
