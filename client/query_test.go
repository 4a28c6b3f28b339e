package client

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryEncode(t *testing.T) {
	q := NewQuery().WithValue("a", "1").WithValue("b", "hello world")
	require.Equal(t, "a=1&b=hello+world", q.Encode())
}

func TestQueryWithValueAppends(t *testing.T) {
	q := NewQuery().WithValue("tag", "x").WithValue("tag", "y")
	require.Equal(t, []string{"x", "y"}, q["tag"])
}

func TestQueryEmptyEncodesEmpty(t *testing.T) {
	require.Equal(t, "", NewQuery().Encode())
}
