package render

import (
	"net/url"
	"strings"
)

// DetailPage is the product detail template every card links to.
const DetailPage = "product-details-template.html"

// Context carries what the renderer needs to know about the page it writes
// into. Nested is true when the page lives under a pages directory.
type Context struct {
	Nested bool
}

// NewContext derives a Context from a page location such as "/pages/sale.html".
func NewContext(location string) Context {
	return Context{Nested: strings.Contains(location, "/pages/")}
}

// AssetPrefix is the relative root that project assets resolve against.
func (c Context) AssetPrefix() string {
	if c.Nested {
		return ".."
	}
	return "."
}

// DetailBase is the directory that holds the detail page, relative to the current page.
func (c Context) DetailBase() string {
	if c.Nested {
		return "."
	}
	return "./pages"
}

// DetailHref builds the detail page link for a product identifier.
func (c Context) DetailHref(id string) string {
	return c.DetailBase() + "/" + DetailPage + "?id=" + encodeComponent(id)
}

// componentUnescaper restores the characters URI component encoding leaves
// literal but QueryEscape encodes. QueryEscape only emits "+" for a space.
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeComponent percent-encodes s for use as a single query value. Letters,
// digits and -_.!~*'() stay literal and spaces become %20.
func encodeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
