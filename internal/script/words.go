package script

import (
	"fmt"
	"strings"
	"unicode"
)

// splitWords splits one script line with shell-like quoting and backslash
// escapes. Blank and comment lines yield no words.
func splitWords(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	var (
		words   []string
		current strings.Builder
		quote   rune
		escape  bool
		quoted  bool
	)

	flush := func() {
		if current.Len() == 0 && !quoted {
			return
		}
		words = append(words, current.String())
		current.Reset()
		quoted = false
	}

	for _, r := range input {
		switch {
		case escape:
			current.WriteRune(r)
			escape = false
		case r == '\\':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '\'' || r == '"':
			quote = r
			quoted = true
		case r == '#' && current.Len() == 0 && !quoted:
			flush()
			return words, nil
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
		}
	}

	if escape {
		return nil, fmt.Errorf("unterminated escape sequence: %q", input)
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote: %q", input)
	}

	flush()
	return words, nil
}
