// Package dom exposes parsed HTML pages to the renderer.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/aluiziolira/go-product-cards/render"
)

// Page is a parsed HTML document.
type Page struct {
	doc *goquery.Document
}

// Parse reads a full HTML document.
func Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return &Page{doc: doc}, nil
}

// ParseString is Parse for an in-memory document.
func ParseString(s string) (*Page, error) {
	return Parse(strings.NewReader(s))
}

// Find returns the first element matching selector. An invalid selector or a
// nil page matches nothing.
func (p *Page) Find(selector string) (render.Element, bool) {
	el, ok := p.First(selector)
	if !ok {
		return nil, false
	}
	return el, true
}

// First is Find with the concrete element type.
func (p *Page) First(selector string) (*Element, bool) {
	if p == nil || p.doc == nil {
		return nil, false
	}
	matcher, err := cascadia.Compile(selector)
	if err != nil {
		slog.Debug("invalid selector", slog.String("selector", selector), slog.Any("error", err))
		return nil, false
	}

	sel := p.doc.FindMatcher(matcher).First()
	if sel.Length() == 0 {
		return nil, false
	}
	return &Element{sel: sel}, true
}

// Selection exposes the underlying goquery document for queries.
func (p *Page) Selection() *goquery.Selection {
	return p.doc.Selection
}

// WriteTo serializes the whole document to w.
func (p *Page) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	for _, n := range p.doc.Nodes {
		if err := html.Render(cw, n); err != nil {
			return cw.n, fmt.Errorf("render page: %w", err)
		}
	}
	return cw.n, nil
}

// HTML returns the serialized document.
func (p *Page) HTML() (string, error) {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Element is a single node in a Page.
type Element struct {
	sel *goquery.Selection
}

// SetInnerHTML replaces every child of the element with the parsed markup.
func (e *Element) SetInnerHTML(markup string) {
	e.sel.SetHtml(markup)
}

// InnerHTML returns the element's serialized children.
func (e *Element) InnerHTML() (string, error) {
	return e.sel.Html()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)
	return n, err
}
