package command

import (
	"strings"
	"unicode"
)

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command. A double-quoted run
	// ("Spinward Marches") is a single argument with the quotes removed.
	Args []string
	// RawArgs is the raw text after the command (preserving spacing for say/emote).
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Precondition: line should be trimmed of leading/trailing whitespace.
// Postcondition: Returns a ParseResult. If line is empty, Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	// Split at first space for the command word
	spaceIdx := strings.IndexFunc(line, unicode.IsSpace)
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToLower(line),
		}
	}

	cmd := strings.ToLower(line[:spaceIdx])
	rest := strings.TrimSpace(line[spaceIdx+1:])

	return ParseResult{
		Command: cmd,
		Args:    splitArgs(rest),
		RawArgs: rest,
	}
}

// splitArgs splits s on whitespace outside double quotes. An unterminated
// quote runs to the end of s.
func splitArgs(s string) []string {
	var (
		args    []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
			started = true
		case unicode.IsSpace(r) && !inQuote:
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, cur.String())
	}
	return args
}

// Rest joins args[i:] with single spaces, or returns "" when i is out of range.
func (p ParseResult) Rest(i int) string {
	if i >= len(p.Args) {
		return ""
	}
	return strings.Join(p.Args[i:], " ")
}
