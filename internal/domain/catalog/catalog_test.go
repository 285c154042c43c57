package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/evidex/internal/domain"
)

func validCatalog() Catalog {
	return Catalog{
		Name:  "books",
		Title: "Library",
		Categories: []Category{
			{ID: "nutrition", Label: "Nutrition", Description: "Food as medicine"},
		},
		Records: []Record{
			{ID: "1", Title: "How Not to Die", Author: "Michael Greger", Category: "nutrition"},
			{ID: "2", Title: "The China Study", Author: "T. Colin Campbell", Category: "nutrition"},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	c := validCatalog()
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Catalog)
		want   string
	}{
		{"no name", func(c *Catalog) { c.Name = "" }, "name is required"},
		{"empty record id", func(c *Catalog) { c.Records[1].ID = "" }, "record #1 has no id"},
		{"duplicate record id", func(c *Catalog) { c.Records[1].ID = "1" }, `duplicate record id "1"`},
		{"empty title", func(c *Catalog) { c.Records[0].Title = "" }, `record "1" has no title`},
		{"unknown category", func(c *Catalog) { c.Records[0].Category = "oncology" }, `unknown category "oncology"`},
		{"empty category id", func(c *Catalog) { c.Categories[0].ID = "" }, "category #0 has no id"},
		{"empty category label", func(c *Catalog) { c.Categories[0].Label = "" }, "has no label"},
		{
			"duplicate category",
			func(c *Catalog) { c.Categories = append(c.Categories, c.Categories[0]) },
			`duplicate category "nutrition"`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := validCatalog()
			tc.mutate(&c)

			err := c.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidCatalog) {
				t.Errorf("expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not contain %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidate_NoCategoriesAllowsAnyCategory(t *testing.T) {
	c := validCatalog()
	c.Categories = nil
	c.Records[0].Category = "anything"
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRecord(t *testing.T) {
	c := validCatalog()

	r, ok := c.Record("2")
	if !ok {
		t.Fatal("expected record 2")
	}
	if r.Title != "The China Study" {
		t.Errorf("got title %q", r.Title)
	}

	if _, ok := c.Record("404"); ok {
		t.Error("expected missing record")
	}
}

func TestSummary(t *testing.T) {
	c := validCatalog()
	s := c.Summary()
	if s.Name != "books" || s.Records != 2 || s.Categories != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
