// Package importer loads a product catalogue CSV into the storefront through
// the admin product endpoint.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"storefront-client/internal/domain"
)

type ProductWriter interface {
	CreateProduct(ctx context.Context, in domain.ProductInput) (*domain.Product, error)
}

// CSVImporter reads rows with the headers name, description, price, category,
// brand, stock and images. A row with no name continues the previous product
// and can only contribute images.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
}

func NewCSVImporter(r io.Reader, w ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{reader: csvr, writer: w}
}

type csvRow struct {
	line  int
	input domain.ProductInput
	// raw numeric cells are kept for error messages
	price string
	stock string
}

// Run creates one product per head row and returns how many were created.
// It stops at the first invalid row or API error.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, fmt.Errorf("missing required header %q", "name")
	}
	if _, ok := index["price"]; !ok {
		return 0, fmt.Errorf("missing required header %q", "price")
	}

	var (
		current  *csvRow
		imported int
		line     = 1
	)

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index, line)
		if row == nil {
			continue
		}

		if row.input.Name != "" {
			if current != nil {
				if err := i.save(ctx, current); err != nil {
					return imported, err
				}
				imported++
			}
			current = row
			continue
		}

		// Continuation rows (images) belong to the current product.
		if current != nil && len(row.input.Images) > 0 {
			current.input.Images = append(current.input.Images, row.input.Images...)
		}
	}

	if current != nil {
		if err := i.save(ctx, current); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	in := row.input
	price, err := strconv.ParseFloat(row.price, 64)
	if err != nil || price <= 0 {
		return fmt.Errorf("line %d: invalid price %q for %q", row.line, row.price, in.Name)
	}
	in.Price = price
	if row.stock != "" {
		stock, err := strconv.Atoi(row.stock)
		if err != nil || stock < 0 {
			return fmt.Errorf("line %d: invalid stock %q for %q", row.line, row.stock, in.Name)
		}
		in.Stock = stock
	}
	if in.Category == "" {
		return fmt.Errorf("line %d: missing category for %q", row.line, in.Name)
	}
	if in.Images == nil {
		in.Images = []string{}
	}

	if _, err := i.writer.CreateProduct(ctx, in); err != nil {
		return fmt.Errorf("create product %q: %w", in.Name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int, line int) *csvRow {
	name := pick(record, index, "name")
	images := splitImages(pick(record, index, "images"))
	if name == "" && len(images) == 0 {
		return nil
	}
	return &csvRow{
		line: line,
		input: domain.ProductInput{
			Name:        name,
			Description: pick(record, index, "description"),
			Category:    pick(record, index, "category"),
			Brand:       pick(record, index, "brand"),
			Images:      images,
		},
		price: pick(record, index, "price"),
		stock: pick(record, index, "stock"),
	}
}

// splitImages accepts several URLs in one cell separated by ';'.
func splitImages(cell string) []string {
	if cell == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(cell, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
