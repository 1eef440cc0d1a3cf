package lstring

import (
	"strings"
	"unicode"
)

// StripSpace removes every Unicode whitespace character.
func StripSpace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), "")
}

type span struct {
	start, end int // half-open
}

// ApplyCuts removes every cut branch from a whitespace-free L-string. A cut
// starts at '%' and extends to the end of its enclosing branch: up to, but
// not including, the first ']' that is not matched inside the cut. A search
// still open at the end of the string cuts the whole tail.
//
// When '%' is immediately followed by '[', that bracketed group is the cut
// branch and the cut ends right after its matching ']'.
func ApplyCuts(s string) string {
	if !strings.ContainsRune(s, '%') {
		return s
	}

	var cuts []span
	searching := false
	grouped := false
	balance := 0
	start := 0

	// Structural symbols are ASCII, so byte indexing is safe for UTF-8 input.
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !searching {
			if c == '%' {
				searching = true
				grouped = i+1 < len(s) && s[i+1] == '['
				balance = 0
				start = i
			}
			continue
		}

		switch c {
		case '[':
			balance++
		case ']':
			balance--
		}

		if grouped && c == ']' && balance == 0 {
			cuts = append(cuts, span{start, i + 1})
			searching = false
			continue
		}
		if balance < 0 {
			cuts = append(cuts, span{start, i})
			searching = false
			balance = 0
		}
	}
	if searching {
		cuts = append(cuts, span{start, len(s)})
	}

	var b strings.Builder
	b.Grow(len(s))
	prev := 0
	for _, c := range cuts {
		b.WriteString(s[prev:c.start])
		prev = c.end
	}
	b.WriteString(s[prev:])
	return b.String()
}
