package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-product-cards/models"
)

// Supported product input formats.
const (
	FormatAuto  = "auto"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
)

// ReadProductsFile opens filename and decodes its products. An auto format
// is resolved from the file extension.
func ReadProductsFile(filename, format string) ([]models.Product, error) {
	if format == "" || format == FormatAuto {
		format = FormatFromExt(filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open products file: %w", err)
	}
	defer f.Close()

	products, err := ReadProducts(f, format)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	return products, nil
}

// FormatFromExt maps a file extension to an input format, defaulting to json.
func FormatFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".csv":
		return FormatCSV
	default:
		return FormatJSON
	}
}

// ReadProducts decodes products from r in the given format.
func ReadProducts(r io.Reader, format string) ([]models.Product, error) {
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatJSONL:
		return readJSONL(r)
	case FormatCSV:
		return readCSV(r)
	default:
		return nil, fmt.Errorf("unsupported products format: %s", format)
	}
}

func readJSON(r io.Reader) ([]models.Product, error) {
	var products []models.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode json products: %w", err)
	}
	return products, nil
}

func readJSONL(r io.Reader) ([]models.Product, error) {
	var products []models.Product
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var p models.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode jsonl line %d: %w", line, err)
		}
		products = append(products, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan jsonl products: %w", err)
	}
	return products, nil
}

func readCSV(r io.Reader) ([]models.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var products []models.Product
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}

		var p models.Product
		for i, column := range header {
			if i >= len(record) || record[i] == "" {
				continue
			}
			setCSVField(&p, strings.TrimSpace(column), record[i])
		}
		products = append(products, p)
	}
	return products, nil
}

// setCSVField assigns a non-empty cell. Price and sale status cells are typed
// so that "false" and "0" keep their meaning.
func setCSVField(p *models.Product, column, value string) {
	switch column {
	case "id":
		p.ID = models.StringField(value)
	case "sku":
		p.SKU = models.StringField(value)
	case "name":
		p.Name = models.StringField(value)
	case "title":
		p.Title = models.StringField(value)
	case "imageUrl", "image_url":
		p.ImageURL = models.StringField(value)
	case "image":
		p.Image = models.StringField(value)
	case "price":
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			p.Price = models.NumberField(n)
		} else {
			p.Price = models.StringField(value)
		}
	case "salesStatus", "sales_status":
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			p.SalesStatus = models.BoolField(b)
		} else {
			p.SalesStatus = models.StringField(value)
		}
	}
}
