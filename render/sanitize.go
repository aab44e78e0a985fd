package render

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/aluiziolira/go-product-cards/models"
)

// SanitizePolicy strips every element from card text, leaving plain text.
func SanitizePolicy() *bluemonday.Policy {
	return bluemonday.StrictPolicy()
}

// sanitizeCard removes markup from the text fields of card. It runs before
// escaping, so the card is still escaped exactly once when written. The image
// path is left to ResolveAssetPath.
func sanitizeCard(policy *bluemonday.Policy, card models.Card) models.Card {
	card.ID = sanitizeText(policy, card.ID)
	card.Title = sanitizeText(policy, card.Title)
	return card
}

func sanitizeText(policy *bluemonday.Policy, s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	// bluemonday returns escaped HTML; the card wants raw text back.
	return strings.TrimSpace(html.UnescapeString(policy.Sanitize(s)))
}
