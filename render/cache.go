package render

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-product-cards/models"
)

type cardKey struct {
	card   models.Card
	nested bool
}

// CardCache memoizes card fragments. The same card renders differently per
// nesting level, so the context is part of the key.
type CardCache struct {
	entries *lru.Cache[cardKey, string]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewCardCache builds a cache holding at most size fragments.
func NewCardCache(size int) (*CardCache, error) {
	entries, err := lru.New[cardKey, string](size)
	if err != nil {
		return nil, fmt.Errorf("create card cache: %w", err)
	}
	return &CardCache{entries: entries}, nil
}

// Markup returns the cached fragment for card, rendering it on a miss.
func (c *CardCache) Markup(ctx Context, card models.Card) string {
	key := cardKey{card: card, nested: ctx.Nested}
	if markup, ok := c.entries.Get(key); ok {
		c.hits.Add(1)
		return markup
	}

	c.misses.Add(1)
	markup := CardMarkup(ctx, card)
	c.entries.Add(key, markup)
	return markup
}

// Stats returns hit and miss counts.
func (c *CardCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached fragments.
func (c *CardCache) Len() int {
	return c.entries.Len()
}
