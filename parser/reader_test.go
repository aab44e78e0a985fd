package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aluiziolira/go-product-cards/models"
)

func TestReadProductsJSON(t *testing.T) {
	input := `[
		{"id": "7", "name": "Mug", "price": 12.9, "salesStatus": true},
		{"sku": "SKU-2", "title": "Bowl", "image": null},
		{}
	]`

	products, err := ReadProducts(strings.NewReader(input), FormatJSON)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("products=%d, want 3", len(products))
	}
	if products[0].ID != models.StringField("7") {
		t.Fatalf("id = %+v, want string 7", products[0].ID)
	}
	if products[1].Image.Kind != models.KindNull {
		t.Fatalf("image kind = %v, want null", products[1].Image.Kind)
	}
	if products[2].Name.Present() {
		t.Fatalf("empty record should have no name")
	}
}

func TestReadProductsJSONL(t *testing.T) {
	input := "{\"id\": \"1\"}\n\n{\"id\": \"2\", \"price\": 3}\n"

	products, err := ReadProducts(strings.NewReader(input), FormatJSONL)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products=%d, want 2", len(products))
	}
	if products[1].Price != models.NumberField(3) {
		t.Fatalf("price = %+v, want 3", products[1].Price)
	}
}

func TestReadProductsJSONLInvalidLine(t *testing.T) {
	input := "{\"id\": \"1\"}\nnot json\n"
	if _, err := ReadProducts(strings.NewReader(input), FormatJSONL); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line 2 error, got %v", err)
	}
}

func TestReadProductsCSV(t *testing.T) {
	input := "id,name,imageUrl,price,salesStatus\n" +
		"7,Mug,src/img/mug.png,12.9,true\n" +
		",Bowl,,,false\n"

	products, err := ReadProducts(strings.NewReader(input), FormatCSV)
	if err != nil {
		t.Fatalf("read products: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products=%d, want 2", len(products))
	}

	first := NormalizeProduct(products[0])
	if first.ID != "7" || first.Price != 12.9 || !first.OnSale {
		t.Fatalf("first card = %+v", first)
	}

	second := NormalizeProduct(products[1])
	if second.ID != "" || second.Title != "Bowl" || second.OnSale {
		t.Fatalf("second card = %+v", second)
	}
	if products[1].ID.Present() {
		t.Fatalf("empty csv cell should be absent")
	}
}

func TestReadProductsUnsupportedFormat(t *testing.T) {
	if _, err := ReadProducts(strings.NewReader(""), "xml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}

func TestReadProductsFileAutoFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.jsonl")
	if err := os.WriteFile(path, []byte("{\"id\": \"a\"}\n{\"id\": \"b\"}\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	products, err := ReadProductsFile(path, FormatAuto)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products=%d, want 2", len(products))
	}
}

func TestFormatFromExt(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "products.json", expected: FormatJSON},
		{input: "products.JSONL", expected: FormatJSONL},
		{input: "products.ndjson", expected: FormatJSONL},
		{input: "data/products.csv", expected: FormatCSV},
		{input: "products", expected: FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatFromExt(tt.input); got != tt.expected {
				t.Errorf("FormatFromExt(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
