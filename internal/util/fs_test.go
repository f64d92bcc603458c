package util

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	got, ok := SafeName("../../etc/passwd")
	require.True(t, ok)
	require.Equal(t, "passwd", got)

	for _, bad := range []string{"", "  ", ".", "..", "/"} {
		_, ok := SafeName(bad)
		require.False(t, ok, bad)
	}

	p, ok := SafeJoin("/data", "../Agricultura")
	require.True(t, ok)
	require.Equal(t, filepath.Join("/data", "Agricultura"), p)
}

func TestValidName(t *testing.T) {
	for _, good := range []string{"Agricultura", " Medio Ambiente ", "run-1", "173.txt"} {
		require.True(t, ValidName(good), good)
	}
	for _, bad := range []string{"", "..", "../x", "a/b", "Agricultura/../x", "/abs"} {
		require.False(t, ValidName(bad), bad)
	}
}
