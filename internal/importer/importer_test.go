package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront-client/internal/domain"
)

type stubProductWriter struct {
	items []domain.ProductInput
	err   error
}

func (s *stubProductWriter) CreateProduct(_ context.Context, in domain.ProductInput) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.items = append(s.items, in)
	return &domain.Product{ID: "id", Name: in.Name}, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `name,description,price,category,brand,stock,images
iPhone 15 Pro,Latest Apple flagship,999.99,Electronics,Apple,50,https://example.com/a.jpg
,,,,,,https://example.com/b.jpg;https://example.com/c.jpg
Running Shoes,Comfortable,89.5,Sports,,120,
`
	w := &stubProductWriter{}
	imp := NewCSVImporter(strings.NewReader(csvData), w)

	count, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 products imported, got %d", count)
	}
	if len(w.items) != 2 {
		t.Fatalf("expected 2 products saved, got %d", len(w.items))
	}
	first := w.items[0]
	if first.Name != "iPhone 15 Pro" || first.Price != 999.99 || first.Stock != 50 || first.Brand != "Apple" || first.Category != "Electronics" {
		t.Fatalf("unexpected product data: %+v", first)
	}
	if len(first.Images) != 3 {
		t.Fatalf("expected 3 images on first product, got %v", first.Images)
	}
	if w.items[1].Images == nil || len(w.items[1].Images) != 0 {
		t.Fatalf("expected empty image list on second product, got %#v", w.items[1].Images)
	}
}

func TestCSVImporter_InvalidPrice(t *testing.T) {
	csvData := `name,price,category
Mug,free,Home
`
	w := &stubProductWriter{}
	count, err := NewCSVImporter(strings.NewReader(csvData), w).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected line-numbered price error, got %v", err)
	}
	if count != 0 || len(w.items) != 0 {
		t.Fatalf("nothing should be created")
	}
}

func TestCSVImporter_MissingHeader(t *testing.T) {
	_, err := NewCSVImporter(strings.NewReader("title,price\nx,1\n"), &stubProductWriter{}).Run(context.Background())
	if err == nil || !strings.Contains(err.Error(), `"name"`) {
		t.Fatalf("expected missing name header error, got %v", err)
	}
}

func TestCSVImporter_StopsOnAPIError(t *testing.T) {
	csvData := `name,price,category
A,1,Home
B,2,Home
`
	w := &stubProductWriter{err: domain.ErrForbidden}
	count, err := NewCSVImporter(strings.NewReader(csvData), w).Run(context.Background())
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 imported, got %d", count)
	}
}
