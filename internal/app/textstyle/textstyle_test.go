package textstyle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBold(t *testing.T) {
	require.Equal(t, "𝗛𝗶 𝟰𝟮!", Bold("Hi 42!"))
	require.True(t, IsBold(Bold("x")))
	require.False(t, IsBold("x"))
}

func TestItalicLeavesDigits(t *testing.T) {
	require.Equal(t, "𝘏𝘪 42", Italic("Hi 42"))
}

func TestStrike(t *testing.T) {
	require.Equal(t, "𝘈̶𝟣̶ !̶", Strike("A1 !"))
	require.True(t, IsStrike(Strike("a")))
}

func TestTogglesAreInvolutions(t *testing.T) {
	inputs := []string{"Hello World", "abcXYZ", "Mixed 123 text\nline two"}

	for _, in := range inputs {
		require.Equal(t, in, ToggleBold(ToggleBold(in)), "bold %q", in)
		require.Equal(t, in, ToggleItalic(ToggleItalic(in)), "italic %q", in)
		require.Equal(t, in, ToggleStrike(ToggleStrike(in)), "strike %q", in)
	}
}

func TestToggleReplacesOtherStyle(t *testing.T) {
	// Bolding italic text drops the italic first.
	require.Equal(t, Bold("abc"), ToggleBold(Italic("abc")))
	require.Equal(t, "abc", Normalize(Strike(Bold("abc"))))
}

func TestTransformMarked(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "say *hi* now", want: "say " + Bold("hi") + " now"},
		{in: "_soft_ voice", want: Italic("soft") + " voice"},
		{in: "~gone~", want: Strike("gone")},
		{in: "** _ ~~", want: "** _ ~~"},
		{in: "*x* ok", want: Bold("x") + " ok"},
		{in: "*unclosed", want: "*unclosed"},
		{in: "mid*dle*", want: "mid*dle*"},
		{in: "*" + Italic("re") + "*", want: Bold("re")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, TransformMarked(tt.in))
		})
	}
}
