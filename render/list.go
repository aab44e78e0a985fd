package render

import (
	"log/slog"

	"github.com/aluiziolira/go-product-cards/models"
)

// Document is the page being rendered into.
type Document interface {
	// Find returns the first element matching selector.
	Find(selector string) (Element, bool)
}

// Element is a container whose content the renderer replaces.
type Element interface {
	SetInnerHTML(markup string)
}

// ListOptions selects the products and the container of one render.
type ListOptions struct {
	Products []models.Product
	Selector string
	// Limit keeps only the first Limit products. Zero or less means no limit.
	Limit int
}

// ListResult reports what a render did.
type ListResult struct {
	ContainerFound bool
	Cards          int
}

// RenderList replaces the content of the container matched by opts.Selector
// with one card per product. A missing container leaves doc untouched.
func RenderList(doc Document, ctx Context, opts ListOptions) ListResult {
	return defaultRenderer.RenderList(doc, ctx, opts)
}

// Truncate applies the list limit to products.
func Truncate(products []models.Product, limit int) []models.Product {
	if limit > 0 && limit < len(products) {
		return products[:limit]
	}
	return products
}

func logMissingContainer(selector string) {
	slog.Debug("container not found", slog.String("selector", selector))
}
