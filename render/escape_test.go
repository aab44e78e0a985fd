package render

import (
	"html"
	"strings"
	"testing"
	"testing/quick"
)

func TestEscapeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain", input: "Coffee Mug", expected: "Coffee Mug"},
		{name: "script tag", input: "<script>", expected: "&lt;script&gt;"},
		{name: "ampersand", input: "Salt & Pepper", expected: "Salt &amp; Pepper"},
		{name: "quotes", input: `"double" 'single'`, expected: "&quot;double&quot; &#39;single&#39;"},
		{name: "existing entity", input: "&amp;", expected: "&amp;amp;"},
		{name: "unicode", input: "茶碗 <b>", expected: "茶碗 &lt;b&gt;"},
		{name: "invalid utf8 kept", input: "a\xff<b", expected: "a\xff&lt;b"},
		{name: "invalid utf8 only", input: "\xfe\xff", expected: "\xfe\xff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EscapeText(tt.input); got != tt.expected {
				t.Errorf("EscapeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestEscapeTextRoundTrip(t *testing.T) {
	property := func(s string) bool {
		out := EscapeText(s)
		if strings.ContainsAny(out, `<>"'`) {
			return false
		}
		return html.UnescapeString(out) == s
	}
	if err := quick.Check(property, nil); err != nil {
		t.Fatalf("escape round trip: %v", err)
	}

	for _, s := range []string{`a&b<c>d"e'f`, "&&&", `'"'"`, "&lt;", "a\xff<b", "\xc3<\x28"} {
		if !property(s) {
			t.Fatalf("round trip failed for %q", s)
		}
	}
}
