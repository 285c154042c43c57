package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/evidex/internal/domain"
	domcat "github.com/kailas-cloud/evidex/internal/domain/catalog"
	"github.com/kailas-cloud/evidex/internal/domain/fuzzy"
)

// --- Mocks ---

type mockRepo struct {
	catalogs []*domcat.Catalog
}

func (m *mockRepo) Get(name string) (*domcat.Catalog, error) {
	for _, c := range m.catalogs {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("catalog %q: %w", name, domain.ErrNotFound)
}

func (m *mockRepo) All() []*domcat.Catalog { return m.catalogs }

func testRepo() *mockRepo {
	books := &domcat.Catalog{
		Name:  "books",
		Title: "Books",
		Categories: []domcat.Category{
			{ID: "nutrition", Label: "Nutrition", Description: "Food as medicine"},
			{ID: "ayurveda", Label: "Ayurveda", Description: "Traditional Indian medicine"},
		},
		Records: []domcat.Record{
			{ID: "1", Title: "How Not to Die", Author: "Michael Greger", Category: "nutrition", Description: "Diet and disease"},
			{ID: "2", Title: "The China Study", Author: "Colin Campbell", Category: "nutrition", Description: "Nutrition study"},
			{ID: "3", Title: "Ashwagandha Handbook", Author: "Vasant Lad", Category: "ayurveda", Description: "Adaptogenic herb"},
			{ID: "4", Title: "Eat to Beat Disease", Author: "William Li", Category: "nutrition", Description: "Angiogenesis and diet"},
		},
	}
	site := &domcat.Catalog{
		Name: "site",
		Categories: []domcat.Category{
			{ID: "compound", Label: "Compounds"},
		},
		Records: []domcat.Record{
			{ID: "curcumin", Title: "Curcumin (Turmeric)", Category: "compound", Description: "Anti-inflammatory research"},
			{ID: "ginseng", Title: "Ginseng", Category: "compound", Description: "Adaptogen research"},
		},
	}
	return &mockRepo{catalogs: []*domcat.Catalog{books, site}}
}

func ids(records []domcat.Record) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].ID
	}
	return out
}

// --- Tests ---

func TestList(t *testing.T) {
	svc := New(testRepo())
	want := []domcat.Summary{
		{Name: "books", Title: "Books", Records: 4, Categories: 2},
		{Name: "site", Records: 2, Categories: 1},
	}
	if diff := cmp.Diff(want, svc.List(context.Background())); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name           string
		query          Query
		wantIDs        []string
		wantTotal      int
		wantOutcome    fuzzy.Outcome
		wantSuggestion string
	}{
		{
			name:        "empty query returns catalog",
			query:       Query{},
			wantIDs:     []string{"1", "2", "3", "4"},
			wantTotal:   4,
			wantOutcome: fuzzy.OutcomeAll,
		},
		{
			name:        "direct hit",
			query:       Query{Text: "disease"},
			wantIDs:     []string{"1", "4"},
			wantTotal:   2,
			wantOutcome: fuzzy.OutcomeDirect,
		},
		{
			name:           "typo corrected",
			query:          Query{Text: "Ashwaganda"},
			wantIDs:        []string{"3"},
			wantTotal:      1,
			wantOutcome:    fuzzy.OutcomeCorrected,
			wantSuggestion: "ashwagandha",
		},
		{
			name:        "category filter",
			query:       Query{Category: "ayurveda"},
			wantIDs:     []string{"3"},
			wantTotal:   1,
			wantOutcome: fuzzy.OutcomeAll,
		},
		{
			name:        "pagination",
			query:       Query{Offset: 1, Limit: 2},
			wantIDs:     []string{"2", "3"},
			wantTotal:   4,
			wantOutcome: fuzzy.OutcomeAll,
		},
		{
			name:        "offset past end",
			query:       Query{Offset: 10},
			wantIDs:     []string{},
			wantTotal:   4,
			wantOutcome: fuzzy.OutcomeAll,
		},
		{
			name:        "no match",
			query:       Query{Text: "zzzxxxqqq"},
			wantIDs:     []string{},
			wantTotal:   0,
			wantOutcome: fuzzy.OutcomeNone,
		},
	}

	svc := New(testRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Search(context.Background(), "books", tt.query)
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if diff := cmp.Diff(tt.wantIDs, ids(page.Records)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("total = %d, want %d", page.Total, tt.wantTotal)
			}
			if page.Outcome != tt.wantOutcome {
				t.Errorf("outcome = %q, want %q", page.Outcome, tt.wantOutcome)
			}
			if page.Suggestion != tt.wantSuggestion {
				t.Errorf("suggestion = %q, want %q", page.Suggestion, tt.wantSuggestion)
			}
			if page.Suggestion != page.CorrectedQuery {
				t.Errorf("suggestion %q and corrected query %q differ", page.Suggestion, page.CorrectedQuery)
			}
		})
	}
}

func TestSearch_Limits(t *testing.T) {
	svc := New(testRepo()).WithLimits(2, 3)

	page, err := svc.Search(context.Background(), "books", Query{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Limit != 2 || len(page.Records) != 2 {
		t.Errorf("default limit: got limit=%d records=%d, want 2", page.Limit, len(page.Records))
	}

	page, err = svc.Search(context.Background(), "books", Query{Limit: 50})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if page.Limit != 3 || len(page.Records) != 3 {
		t.Errorf("capped limit: got limit=%d records=%d, want 3", page.Limit, len(page.Records))
	}
}

func TestSearch_Errors(t *testing.T) {
	svc := New(testRepo())
	tests := []struct {
		name    string
		catalog string
		query   Query
		wantErr error
	}{
		{"unknown catalog", "movies", Query{}, domain.ErrNotFound},
		{"negative offset", "books", Query{Offset: -1}, domain.ErrInvalidRequest},
		{"negative limit", "books", Query{Limit: -5}, domain.ErrInvalidRequest},
		{"unknown category", "books", Query{Category: "oncology"}, domain.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.catalog, tt.query)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSearch_Metrics(t *testing.T) {
	total := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "t_search_total"}, []string{"catalog", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "t_search_seconds"}, []string{"catalog"})
	svc := New(testRepo()).WithMetrics(total, duration)

	ctx := context.Background()
	_, _ = svc.Search(ctx, "books", Query{Text: "china"})
	_, _ = svc.Search(ctx, "books", Query{Text: "ashwaganda"})
	_, _ = svc.Search(ctx, "books", Query{Text: "ashwaganda"})

	if v := testutil.ToFloat64(total.WithLabelValues("books", "direct")); v != 1 {
		t.Errorf("direct = %f, want 1", v)
	}
	if v := testutil.ToFloat64(total.WithLabelValues("books", "corrected")); v != 2 {
		t.Errorf("corrected = %f, want 2", v)
	}
	if n := testutil.CollectAndCount(duration); n != 1 {
		t.Errorf("expected one duration series, got %d", n)
	}
}

func TestGet(t *testing.T) {
	svc := New(testRepo())
	rec, err := svc.Get(context.Background(), "site", "ginseng")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Title != "Ginseng" {
		t.Errorf("title = %q", rec.Title)
	}

	if _, err := svc.Get(context.Background(), "site", "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing record: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "nope", "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing catalog: expected ErrNotFound, got %v", err)
	}
}

func TestCorrect(t *testing.T) {
	svc := New(testRepo())
	ctx := context.Background()

	c, err := svc.Correct(ctx, "books", "Ashwaganda")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if w, ok := c.Word(); !ok || w != "ashwagandha" {
		t.Errorf("Correct = %v, want ashwagandha", c)
	}

	c, err = svc.Correct(ctx, "books", "china")
	if err != nil {
		t.Fatalf("Correct: %v", err)
	}
	if c.IsCorrected() {
		t.Errorf("corpus word corrected to %v", c)
	}

	for _, bad := range []string{"", "  ", "two words"} {
		if _, err := svc.Correct(ctx, "books", bad); !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("Correct(%q): expected ErrInvalidRequest, got %v", bad, err)
		}
	}
	if _, err := svc.Correct(ctx, "nope", "word"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestVocabulary(t *testing.T) {
	svc := New(testRepo())
	v := svc.Vocabulary()
	for _, w := range []string{"ashwagandha", "greger", "curcumin", "turmeric", "ginseng"} {
		if !v.Contains(w) {
			t.Errorf("vocabulary missing %q", w)
		}
	}
	if svc.Vocabulary() != v {
		t.Error("vocabulary rebuilt on second call")
	}
}

func TestSearch_ConcurrentFirstUse(t *testing.T) {
	svc := New(testRepo())
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			page, err := svc.Search(context.Background(), "books", Query{Text: "ashwaganda"})
			if err != nil || page.Suggestion != "ashwagandha" {
				t.Errorf("Search = %+v, %v", page, err)
			}
		}()
	}
	wg.Wait()
}
