package render

import (
	"math"
	"strconv"

	"github.com/aluiziolira/go-product-cards/models"
	"github.com/aluiziolira/go-product-cards/parser"
)

// ProductMarkup normalizes p and renders it as a card.
func ProductMarkup(ctx Context, p models.Product) string {
	return CardMarkup(ctx, parser.NormalizeProduct(p))
}

// CardMarkup renders one card as a list item fragment.
func CardMarkup(ctx Context, card models.Card) string {
	return cardNode(ctx, card).String()
}

func cardNode(ctx Context, card models.Card) node {
	href := ctx.DetailHref(card.ID)

	children := make([]node, 0, 3)
	if card.OnSale {
		children = append(children, el("span", attrs("class", "product-card__badge"), text("SALE")))
	}

	children = append(children,
		el("a", attrs("class", "product-card__link", "href", href, "aria-label", card.Title),
			el("img", attrs(
				"class", "product-card__img",
				"src", ResolveAssetPath(ctx, card.Image),
				"alt", card.Title,
				"loading", "lazy",
			)),
		),
		el("section", attrs("class", "product-card__body"),
			el("a", attrs("class", "product-card__name", "href", href), text(card.Title)),
			el("p", attrs("class", "product-card__price"), text(FormatPrice(card.Price))),
			el("footer", attrs("class", "product-card__actions"),
				el("button", attrs(
					"class", "btn btn_pink product-card__add",
					"data-action", "add-to-cart",
					"data-id", card.ID,
				), text("Add To Cart")),
			),
		),
	)

	return el("li", attrs("class", "product-card", "data-id", card.ID, "role", "listitem"), children...)
}

// FormatPrice renders a price in whole dollars, rounding halves away from zero.
func FormatPrice(price float64) string {
	return "$" + strconv.FormatFloat(math.Round(price), 'f', 0, 64)
}
