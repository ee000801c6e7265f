package commands

import (
	"strings"
	"unicode"
)

// SplitArgs splits s on whitespace. A span opened by " or ' runs to the
// matching closing quote and stays one token, quotes included. An unclosed
// quote runs to the end of the input.
func SplitArgs(s string) []string {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		open  bool
	)
	flush := func() {
		if open {
			args = append(args, cur.String())
			cur.Reset()
			open = false
		}
	}

	for _, r := range s {
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			// Quotes only group at the start of a token, so "don't" stays a word.
			if !open {
				quote = r
			}
			open = true
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			flush()
		default:
			open = true
			cur.WriteRune(r)
		}
	}
	flush()
	return args
}

// stripQuotes removes every double quote, plus one pair of surrounding single
// quotes.
func stripQuotes(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
