// Package models defines data structures for the card renderer.
package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind reports which JSON shape a Field held.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindString
	KindNumber
	KindBool
	KindComposite
)

// Field is one optional value of an externally supplied record. It keeps the
// difference between a missing or null value and a present one, so fallback
// chains can skip only the former.
type Field struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
}

// StringField returns a present string value.
func StringField(s string) Field {
	return Field{Kind: KindString, Str: s}
}

// NumberField returns a present numeric value.
func NumberField(n float64) Field {
	return Field{Kind: KindNumber, Num: n}
}

// BoolField returns a present boolean value.
func BoolField(b bool) Field {
	return Field{Kind: KindBool, Bool: b}
}

// Present is true unless the value was missing or null.
func (f Field) Present() bool {
	return f.Kind != KindAbsent && f.Kind != KindNull
}

// Text renders the value the way it would read when interpolated as text.
func (f Field) Text() string {
	switch f.Kind {
	case KindString:
		return f.Str
	case KindNumber:
		return formatNumber(f.Num)
	case KindBool:
		return strconv.FormatBool(f.Bool)
	default:
		return ""
	}
}

// formatNumber prints n in its shortest round-trip form, switching to
// exponent notation outside [1e-6, 1e21) like a browser does.
func formatNumber(n float64) string {
	switch {
	case n == 0:
		return "0"
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	}
	if abs := math.Abs(n); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign, digits := exp[:1], strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*f = Field{}
		return nil
	}

	switch data[0] {
	case 'n':
		*f = Field{Kind: KindNull}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = StringField(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = BoolField(b)
	case '{', '[':
		*f = Field{Kind: KindComposite}
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return err
		}
		*f = NumberField(n)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Absent and composite values encode as null.
func (f Field) MarshalJSON() ([]byte, error) {
	switch f.Kind {
	case KindString:
		return json.Marshal(f.Str)
	case KindNumber:
		return json.Marshal(f.Num)
	case KindBool:
		return json.Marshal(f.Bool)
	default:
		return []byte("null"), nil
	}
}

// Product is a catalog record as supplied by an external collaborator. No
// field is required.
type Product struct {
	ID          Field `json:"id"`
	SKU         Field `json:"sku"`
	Name        Field `json:"name"`
	Title       Field `json:"title"`
	ImageURL    Field `json:"imageUrl"`
	Image       Field `json:"image"`
	Price       Field `json:"price"`
	SalesStatus Field `json:"salesStatus"`
}

// Card is a product with every fallback already applied.
type Card struct {
	ID     string
	Title  string
	Image  string
	Price  float64
	OnSale bool
}
