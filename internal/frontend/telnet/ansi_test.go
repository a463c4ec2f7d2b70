package telnet

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColorize(t *testing.T) {
	assert.Equal(t, "\033[31mMishap\033[0m", Colorize(Red, "Mishap"))
}

func TestColorf(t *testing.T) {
	assert.Equal(t, "\033[92mEffect +3\033[0m", Colorf(BrightGreen, "Effect %+d", 3))
}

func TestStripANSI(t *testing.T) {
	cases := map[string]struct {
		in   string
		want string
	}{
		"plain":             {"A788899-C", "A788899-C"},
		"empty":             {"", ""},
		"sgr":               {"\033[31mfail\033[0m vs \033[1m\033[92mpass\033[0m", "fail vs pass"},
		"multi param":       {"\033[1;97mRegina\033[0m", "Regina"},
		"cursor and erase":  {"\033[2K\033[1Gprompt> ", "prompt> "},
		"unterminated kept": {"roll\033[3", "roll\033[3"},
		"lone escape":       {"a\033b", "a\033b"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripANSI(tc.in))
		})
	}
}

func TestProperty_StripANSIUndoesColorize(t *testing.T) {
	colors := []string{Red, Green, Yellow, Magenta, Cyan, BrightRed, BrightGreen, BrightYellow, BrightMagenta, BrightCyan, BrightWhite, Bold, Dim}
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[a-zA-Z0-9 +\-\[\]=]{0,50}`).Draw(rt, "text")
		color := rapid.SampledFrom(colors).Draw(rt, "color")
		assert.Equal(rt, text, StripANSI(Colorize(color, text)))
	})
}

func TestProperty_StripANSINeverGrows(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := rapid.String().Draw(rt, "s")
		out := StripANSI(s)
		assert.LessOrEqual(rt, len(out), len(s))
		if !strings.Contains(s, "\033") {
			assert.Equal(rt, s, out)
		}
	})
}
