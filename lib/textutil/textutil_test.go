package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeKey(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"כראמל (10) הסוף", "כראמל 10 הסוף", true},
		{"כראמל  10  הסוף", "כראמל 10 הסוף", true},
		{"ברנע-גולדברג, מיכל", "ברנע גולדברג מיכל", true},
		{"ברנע גולדברג מיכל", "ברנע גולדברג מיכל", true},
		{"foo_bar  baz", "foo bar baz", true},
		{"  ", "", false},
		{"!!!---", "", false},
		{"", "", false},
	}

	for _, test := range testCases {
		key, ok := NormalizeKey(test.input)
		require.Equal(t, test.ok, ok, "input: %q", test.input)
		require.Equal(t, test.expected, key, "input: %q", test.input)
	}
}

func TestNormalizeKeyIdempotent(t *testing.T) {
	inputs := []string{
		"כראמל (10) הסוף",
		"harry potter: the chamber of secrets",
		"a_b_c",
	}
	for _, input := range inputs {
		once, ok := NormalizeKey(input)
		require.True(t, ok)
		twice, ok := NormalizeKey(once)
		require.True(t, ok)
		require.Equal(t, once, twice)
	}
}
