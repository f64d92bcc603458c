package util

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", ""},
		{"ab\x00cd\x01\x02\n\txy", "abcd\nxy"},
		{"  Sesión   N°\u00a0 173  ", "Sesión N° 173"},
		{"agri\u00adcultura", "agricultura"},
		{"línea 1\r\n\r\n\r\n\r\nlínea 2\n\n", "línea 1\n\nlínea 2"},
		{"\ufeffACTA", "ACTA"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, SanitizeText(tc.in), "input %q", tc.in)
	}
}
