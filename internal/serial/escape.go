package serial

import "strings"

const escapeChar = '\\'

// escaper prefixes the escape character and the lead character of every
// delimiter token with a backslash. Escaping lead characters individually,
// rather than whole tokens, keeps a value that ends in a token prefix from
// fusing with the following separator.
type escaper struct {
	special [256]bool
}

func newEscaper(chars string) *escaper {
	e := &escaper{}
	e.special[escapeChar] = true
	for i := 0; i < len(chars); i++ {
		e.special[chars[i]] = true
	}
	return e
}

func (e *escaper) escape(s string) string {
	if !e.needsEscape(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if e.special[s[i]] {
			b.WriteByte(escapeChar)
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (e *escaper) needsEscape(s string) bool {
	for i := 0; i < len(s); i++ {
		if e.special[s[i]] {
			return true
		}
	}
	return false
}

func unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == escapeChar && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// splitEscaped splits s on every sep that is not preceded by an escape. Empty
// pieces are kept. Pieces are returned still escaped.
func splitEscaped(s, sep string) []string {
	return splitEscapedN(s, sep, -1)
}

// splitEscapedN is splitEscaped returning at most n pieces when n > 0.
func splitEscapedN(s, sep string, n int) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if n > 0 && len(parts) == n-1 {
			break
		}
		if s[i] == escapeChar {
			i++
			continue
		}
		if strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[start:i])
			i += len(sep) - 1
			start = i + 1
		}
	}
	return append(parts, s[start:])
}
