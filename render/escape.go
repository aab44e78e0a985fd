// Package render turns normalized product cards into list markup and writes
// it into a page container.
package render

import "strings"

// EscapeText replaces &, <, >, " and ' with HTML entities so the result can
// be placed in text content or a quoted attribute value. Every other byte,
// including invalid UTF-8, is copied unchanged.
func EscapeText(s string) string {
	if !strings.ContainsAny(s, `&<>"'`) {
		return s
	}

	var buf strings.Builder
	buf.Grow(len(s) + 16)

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&#39;")
		default:
			buf.WriteByte(c)
		}
	}

	return buf.String()
}
