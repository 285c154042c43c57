package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/kailas-cloud/evidex/internal/domain"
)

const validCatalog = `
name: herbs
title: Herbs
categories:
  - id: adaptogen
    label: Adaptogens
    description: Stress response botanicals
records:
  - id: "1"
    title: Ashwagandha
    category: adaptogen
    description: Withania somnifera root
  - id: "2"
    title: Rhodiola
    category: adaptogen
    description: Arctic root
`

func TestEmbedded(t *testing.T) {
	r, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded: %v", err)
	}
	if diff := cmp.Diff([]string{"books", "site"}, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}

	books, err := r.Get("books")
	if err != nil {
		t.Fatalf("Get(books): %v", err)
	}
	if len(books.Records) == 0 || len(books.Categories) == 0 {
		t.Fatalf("books catalog is empty: %+v", books.Summary())
	}
	rec, ok := books.Record("1")
	if !ok || rec.Title != "How Not to Die" {
		t.Errorf("books record 1 = %+v, %v", rec, ok)
	}

	site, err := r.Get("site")
	if err != nil {
		t.Fatalf("Get(site): %v", err)
	}
	for _, id := range []string{"cancer", "curcumin", "ashwagandha", "ginseng", "acupuncture"} {
		if _, ok := site.Record(id); !ok {
			t.Errorf("site catalog missing %q", id)
		}
	}
}

func TestNew_EmptyDirUsesEmbedded(t *testing.T) {
	r, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(r.All()) != 2 {
		t.Errorf("expected 2 catalogs, got %d", len(r.All()))
	}
}

func TestNew_Dir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir+"/herbs.yaml", validCatalog)

	r, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	cat, err := r.Get("herbs")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cat.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(cat.Records))
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name:    "no files",
			files:   fstest.MapFS{},
			wantErr: "no catalog files",
		},
		{
			name:    "empty document",
			files:   fstest.MapFS{"a.yaml": {Data: []byte("")}},
			wantErr: "empty document",
		},
		{
			name: "unknown field",
			files: fstest.MapFS{"a.yaml": {Data: []byte(
				"name: a\nrecords:\n  - id: \"1\"\n    title: T\n    rating: 5\n")}},
			wantErr: "field rating not found",
		},
		{
			name: "duplicate record",
			files: fstest.MapFS{"a.yaml": {Data: []byte(
				"name: a\nrecords:\n  - id: \"1\"\n    title: T\n  - id: \"1\"\n    title: U\n")}},
			wantErr: `duplicate record id "1"`,
		},
		{
			name: "catalog defined twice",
			files: fstest.MapFS{
				"a.yaml": {Data: []byte(validCatalog)},
				"b.yaml": {Data: []byte(validCatalog)},
			},
			wantErr: `catalog "herbs" defined twice`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.files)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, domain.ErrInvalidCatalog) {
				t.Errorf("expected ErrInvalidCatalog, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	r, err := Load(fstest.MapFS{"herbs.yaml": {Data: []byte(validCatalog)}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := r.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_IgnoresOtherFiles(t *testing.T) {
	r, err := Load(fstest.MapFS{
		"herbs.yaml": {Data: []byte(validCatalog)},
		"README.md":  {Data: []byte("# notes")},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"herbs"}, r.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}
