// Package catalog holds the read-only catalogs searched by evidex:
// books, compounds, conditions and therapies.
package catalog

import (
	"fmt"

	"github.com/kailas-cloud/evidex/internal/domain"
)

// SourceType classifies where a record can be bought or read.
type SourceType string

// Source types.
const (
	SourcePublisher SourceType = "publisher"
	SourceRetailer  SourceType = "retailer"
	SourceAcademic  SourceType = "academic"
)

// Source is an external link attached to a record.
type Source struct {
	Name string     `yaml:"name" json:"name"`
	URL  string     `yaml:"url" json:"url"`
	Type SourceType `yaml:"type" json:"type"`
}

// Record is a single catalog entry. Title, Author, Category and Description
// are searchable; everything else is display data.
type Record struct {
	ID          string   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Author      string   `yaml:"author,omitempty" json:"author,omitempty"`
	Category    string   `yaml:"category" json:"category"`
	Description string   `yaml:"description" json:"description"`
	Image       string   `yaml:"image,omitempty" json:"image,omitempty"`
	Reference   string   `yaml:"reference,omitempty" json:"reference,omitempty"`
	ISBN        string   `yaml:"isbn,omitempty" json:"isbn,omitempty"`
	Year        int      `yaml:"year,omitempty" json:"year,omitempty"`
	Link        string   `yaml:"link,omitempty" json:"link,omitempty"`
	Studies     int      `yaml:"studies,omitempty" json:"studies,omitempty"`
	Sources     []Source `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// SearchFields returns the searchable fields in match order.
func (r *Record) SearchFields() [4]string {
	return [4]string{r.Title, r.Author, r.Category, r.Description}
}

// Category is a taxonomy entry records refer to by ID.
type Category struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`
}

// Catalog is a named, ordered, immutable collection of records.
type Catalog struct {
	Name       string     `yaml:"name"`
	Title      string     `yaml:"title"`
	Categories []Category `yaml:"categories"`
	Records    []Record   `yaml:"records"`
}

// Validate rejects catalogs that would silently produce an incomplete corpus.
func (c *Catalog) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidCatalog)
	}

	categories := make(map[string]struct{}, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.ID == "" {
			return fmt.Errorf("%w: %s: category #%d has no id", domain.ErrInvalidCatalog, c.Name, i)
		}
		if cat.Label == "" {
			return fmt.Errorf("%w: %s: category %q has no label", domain.ErrInvalidCatalog, c.Name, cat.ID)
		}
		if _, dup := categories[cat.ID]; dup {
			return fmt.Errorf("%w: %s: duplicate category %q", domain.ErrInvalidCatalog, c.Name, cat.ID)
		}
		categories[cat.ID] = struct{}{}
	}

	ids := make(map[string]struct{}, len(c.Records))
	for i := range c.Records {
		r := &c.Records[i]
		if r.ID == "" {
			return fmt.Errorf("%w: %s: record #%d has no id", domain.ErrInvalidCatalog, c.Name, i)
		}
		if _, dup := ids[r.ID]; dup {
			return fmt.Errorf("%w: %s: duplicate record id %q", domain.ErrInvalidCatalog, c.Name, r.ID)
		}
		ids[r.ID] = struct{}{}

		if r.Title == "" {
			return fmt.Errorf("%w: %s: record %q has no title", domain.ErrInvalidCatalog, c.Name, r.ID)
		}
		if len(categories) > 0 {
			if _, ok := categories[r.Category]; !ok {
				return fmt.Errorf("%w: %s: record %q references unknown category %q",
					domain.ErrInvalidCatalog, c.Name, r.ID, r.Category)
			}
		}
	}
	return nil
}

// Record returns the record with the given ID.
func (c *Catalog) Record(id string) (Record, bool) {
	for i := range c.Records {
		if c.Records[i].ID == id {
			return c.Records[i], true
		}
	}
	return Record{}, false
}

// Summary describes a catalog without its records.
type Summary struct {
	Name       string
	Title      string
	Records    int
	Categories int
}

// Summary returns the catalog's summary.
func (c *Catalog) Summary() Summary {
	return Summary{
		Name:       c.Name,
		Title:      c.Title,
		Records:    len(c.Records),
		Categories: len(c.Categories),
	}
}
