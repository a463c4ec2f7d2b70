// Package telnet provides the Telnet line protocol, with ANSI color support, for the table console.
package telnet

import "fmt"

// SGR sequences used by the table console.
const (
	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"

	BrightRed     = "\033[91m"
	BrightGreen   = "\033[92m"
	BrightYellow  = "\033[93m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
	BrightWhite   = "\033[97m"
)

// Colorize wraps text in color and a trailing Reset.
func Colorize(color, text string) string {
	return color + text + Reset
}

// Colorf formats its arguments and wraps the result in color and Reset.
func Colorf(color, format string, args ...interface{}) string {
	return color + fmt.Sprintf(format, args...) + Reset
}

// StripANSI removes CSI escape sequences (ESC '[' parameters, final byte
// in 0x40..0x7E), leaving the printable text. An unterminated sequence at the
// end of s is kept as is.
func StripANSI(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\033' || i+1 >= len(s) || s[i+1] != '[' {
			out = append(out, s[i])
			continue
		}
		j := i + 2
		for j < len(s) && (s[j] < 0x40 || s[j] > 0x7e) {
			j++
		}
		if j == len(s) {
			out = append(out, s[i:]...)
			break
		}
		i = j
	}
	return string(out)
}
