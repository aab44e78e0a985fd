package render

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/aluiziolira/go-product-cards/models"
	"github.com/aluiziolira/go-product-cards/parser"
)

var defaultRenderer = &Renderer{}

// Renderer renders card lists with an optional fragment cache and an optional
// policy that strips markup from card text. The zero value renders without
// either.
type Renderer struct {
	cache  *CardCache
	policy *bluemonday.Policy
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCache reuses fragments from cache.
func WithCache(cache *CardCache) Option {
	return func(r *Renderer) {
		r.cache = cache
	}
}

// WithPolicy sanitizes the text fields of every card with policy before the
// card is rendered.
func WithPolicy(policy *bluemonday.Policy) Option {
	return func(r *Renderer) {
		r.policy = policy
	}
}

// NewRenderer builds a Renderer.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the fragment cache, if any.
func (r *Renderer) Cache() *CardCache {
	return r.cache
}

// Card renders a single normalized card.
func (r *Renderer) Card(ctx Context, card models.Card) string {
	if r.policy != nil {
		card = sanitizeCard(r.policy, card)
	}
	if r.cache != nil {
		return r.cache.Markup(ctx, card)
	}
	return CardMarkup(ctx, card)
}

// Markup renders products as concatenated card fragments, in order.
func (r *Renderer) Markup(ctx Context, products []models.Product) string {
	var b strings.Builder
	for _, p := range products {
		b.WriteString(r.Card(ctx, parser.NormalizeProduct(p)))
	}
	return b.String()
}

// RenderList is the Renderer form of the package level RenderList.
func (r *Renderer) RenderList(doc Document, ctx Context, opts ListOptions) ListResult {
	if doc == nil {
		logMissingContainer(opts.Selector)
		return ListResult{}
	}

	container, ok := doc.Find(opts.Selector)
	if !ok {
		logMissingContainer(opts.Selector)
		return ListResult{}
	}

	items := Truncate(opts.Products, opts.Limit)
	container.SetInnerHTML(r.Markup(ctx, items))
	return ListResult{ContainerFound: true, Cards: len(items)}
}
