package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-product-cards/models"
)

// UnnamedProduct is the title used when a record carries neither name nor title.
const UnnamedProduct = "Unnamed product"

// NormalizeProduct resolves every optional field of p into a Card.
func NormalizeProduct(p models.Product) models.Card {
	return models.Card{
		ID:     firstText("", p.ID, p.SKU),
		Title:  firstText(UnnamedProduct, p.Name, p.Title),
		Image:  firstText("", p.ImageURL, p.Image),
		Price:  NormalizePrice(p.Price),
		OnSale: Truthy(p.SalesStatus),
	}
}

// NormalizeProducts maps NormalizeProduct over products, keeping order.
func NormalizeProducts(products []models.Product) []models.Card {
	cards := make([]models.Card, 0, len(products))
	for _, p := range products {
		cards = append(cards, NormalizeProduct(p))
	}
	return cards
}

func firstText(fallback string, fields ...models.Field) string {
	for _, f := range fields {
		if f.Present() {
			return f.Text()
		}
	}
	return fallback
}

// NormalizePrice coerces a price to a finite number with numeric conversion
// rules: true is 1, false is 0, numeric strings parse (including 0x, 0o and
// 0b integers). Missing, null, composite, non-numeric and non-finite values
// become 0.
func NormalizePrice(f models.Field) float64 {
	var n float64
	switch f.Kind {
	case models.KindNumber:
		n = f.Num
	case models.KindBool:
		if f.Bool {
			return 1
		}
		return 0
	case models.KindString:
		parsed, ok := parseNumber(f.Str)
		if !ok {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			v, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, false
			}
			return float64(v), true
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Truthy reports whether f counts as set for flags such as the sale status.
func Truthy(f models.Field) bool {
	switch f.Kind {
	case models.KindBool:
		return f.Bool
	case models.KindNumber:
		return f.Num != 0 && !math.IsNaN(f.Num)
	case models.KindString:
		return f.Str != ""
	case models.KindComposite:
		return true
	default:
		return false
	}
}

// ValidateJob ensures a job names a page, a selector and an output.
func ValidateJob(j *models.Job) error {
	if j == nil {
		return fmt.Errorf("job is nil")
	}
	if strings.TrimSpace(j.Page) == "" {
		return fmt.Errorf("job %q missing page", j.Name)
	}
	if strings.TrimSpace(j.Selector) == "" {
		return fmt.Errorf("job %q missing selector", j.Name)
	}
	if strings.TrimSpace(j.Output) == "" {
		return fmt.Errorf("job %q missing output", j.Name)
	}
	if j.Limit < 0 {
		return fmt.Errorf("job %q has negative limit", j.Name)
	}
	return nil
}
