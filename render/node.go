package render

import "strings"

type attr struct {
	name  string
	value string
}

// node is a minimal element tree. Text and attribute values are escaped when
// written, never when the tree is built.
type node struct {
	tag      string
	attrs    []attr
	children []node
	text     string
}

var voidElements = map[string]bool{
	"img":   true,
	"input": true,
	"br":    true,
}

func el(tag string, attrs []attr, children ...node) node {
	return node{tag: tag, attrs: attrs, children: children}
}

func text(s string) node {
	return node{text: s}
}

func attrs(pairs ...string) []attr {
	out := make([]attr, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, attr{name: pairs[i], value: pairs[i+1]})
	}
	return out
}

func (n node) String() string {
	var b strings.Builder
	n.write(&b)
	return b.String()
}

func (n node) write(b *strings.Builder) {
	if n.tag == "" {
		b.WriteString(EscapeText(n.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.tag)
	for _, a := range n.attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(EscapeText(a.value))
		b.WriteByte('"')
	}
	b.WriteByte('>')

	if voidElements[n.tag] {
		return
	}

	for _, child := range n.children {
		child.write(b)
	}
	b.WriteString("</")
	b.WriteString(n.tag)
	b.WriteByte('>')
}
